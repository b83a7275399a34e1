package services

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/medhire/internal/domain/events"
	"github.com/maxaizer/medhire/internal/domain/models"
	"github.com/maxaizer/medhire/internal/logger"
	"github.com/maxaizer/medhire/internal/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"strconv"
)

var errRecipientUnknown = errors.New("recipient unknown")

type notificationStore interface {
	Save(ctx context.Context, notification *models.Notification) error
}

type dispatcher interface {
	Dispatch(ctx context.Context, event models.NotificationEvent) DeliveryResult
}

type DeliveryResult struct {
	Delivered      bool
	NotificationID int64
}

// NotificationDispatcher stores a notification and hands it to the realtime
// subscribers of the bus. It sends once per call and never returns an error:
// every failure is logged and reported as Delivered=false.
type NotificationDispatcher struct {
	store notificationStore
	bus   EventBus.Bus
}

func NewNotificationDispatcher(store notificationStore, bus EventBus.Bus) (*NotificationDispatcher, error) {
	if store == nil {
		return nil, errors.New("notification store is nil")
	}
	if bus == nil {
		return nil, errors.New("bus is nil")
	}
	return &NotificationDispatcher{store: store, bus: bus}, nil
}

func (d *NotificationDispatcher) Dispatch(ctx context.Context, event models.NotificationEvent) DeliveryResult {

	var result DeliveryResult
	kind := event.Kind
	if kind == "" {
		kind = models.NotificationInfo
	}
	entry := requestLogger(ctx).WithFields(log.Fields{"user_id": event.UserID, "template": event.Template})

	outcome := bestEffort(entry, "notification dispatch", logger.ErrorTypeNotification, func() error {
		if event.UserID <= 0 {
			return errRecipientUnknown
		}

		title, body, err := renderNotification(event.Template, event.Data)
		if err != nil {
			return errors.Wrap(err, "failed to render notification")
		}

		notification := &models.Notification{
			UserID:   event.UserID,
			Kind:     kind,
			Template: event.Template,
			Title:    title,
			Body:     body,
			Payload:  event.Data,
		}
		if err = d.store.Save(ctx, notification); err != nil {
			return errors.Wrap(err, "failed to store notification")
		}

		result.NotificationID = notification.ID
		d.bus.Publish(events.NotificationCreatedTopic, events.NotificationCreated{Notification: *notification})
		return nil
	})

	result.Delivered = outcome.Ok()
	metrics.NotificationsCounter.WithLabelValues(string(kind), strconv.FormatBool(result.Delivered)).Inc()
	if result.Delivered {
		entry.Debugf("notification %d dispatched", result.NotificationID)
	}
	return result
}

// dispatchBestEffort guards the engines against a dispatcher that panics.
func dispatchBestEffort(ctx context.Context, entry *log.Entry, notifier dispatcher,
	event models.NotificationEvent) DeliveryResult {

	var result DeliveryResult
	bestEffort(entry, "notification dispatch", logger.ErrorTypeNotification, func() error {
		result = notifier.Dispatch(ctx, event)
		return nil
	})
	return result
}
