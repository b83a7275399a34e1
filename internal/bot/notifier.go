package bot

import (
	"context"
	"fmt"
	"github.com/asaskevich/EventBus"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/medhire/internal/domain/events"
	"github.com/maxaizer/medhire/internal/logger"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type chatRepository interface {
	TelegramChatID(ctx context.Context, userID int64) (*int64, error)
}

// Notifier mirrors stored notifications to the Telegram chat linked to the
// recipient, if any. Delivery is asynchronous and never reported back.
type Notifier struct {
	api     apiInterface
	bus     EventBus.Bus
	chats   chatRepository
	limiter *rate.Limiter
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewNotifier(token string, bus EventBus.Bus, chats chatRepository, maxMessagesPerSecond float32) (*Notifier, error) {

	api, err := botApi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Infof("Authorized on account %s", api.Self.UserName)

	if err = botApi.SetLogger(log.StandardLogger()); err != nil {
		return nil, err
	}

	return newNotifier(api, bus, chats, maxMessagesPerSecond)
}

func newNotifier(api apiInterface, bus EventBus.Bus, chats chatRepository, maxMessagesPerSecond float32) (*Notifier, error) {

	if api == nil {
		return nil, errors.New("api is nil")
	}
	if bus == nil {
		return nil, errors.New("bus is nil")
	}
	if chats == nil {
		return nil, errors.New("chat repository is nil")
	}
	if maxMessagesPerSecond <= 0 {
		return nil, errors.New("max messages per second must be greater than zero")
	}

	ctx, cancel := context.WithCancel(context.Background())
	n := &Notifier{
		api:     api,
		bus:     bus,
		chats:   chats,
		limiter: rate.NewLimiter(rate.Limit(maxMessagesPerSecond), 1),
		ctx:     ctx,
		cancel:  cancel,
	}

	if err := bus.SubscribeAsync(events.NotificationCreatedTopic, n.onNotificationCreated, false); err != nil {
		cancel()
		return nil, err
	}
	return n, nil
}

// Stop drops the messages still waiting for the rate limiter.
func (n *Notifier) Stop() {
	n.cancel()
	if err := n.bus.Unsubscribe(events.NotificationCreatedTopic, n.onNotificationCreated); err != nil {
		log.Warnf("failed to unsubscribe telegram notifier: %v", err)
	}
	n.bus.WaitAsync()
}

func (n *Notifier) onNotificationCreated(event events.NotificationCreated) {
	notification := event.Notification

	chatID, err := n.chats.TelegramChatID(n.ctx, notification.UserID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to load telegram chat of user %d: %v", notification.UserID, err)
		return
	}
	if chatID == nil {
		return
	}

	if err = n.limiter.Wait(n.ctx); err != nil {
		log.Debugf("telegram notification %d dropped: %v", notification.ID, err)
		return
	}

	msg := botApi.NewMessage(*chatID, fmt.Sprintf("%s\n\n%s", notification.Title, notification.Body))
	_, _ = sendWithLogError(n.api, msg)
}
