package app

import (
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/medhire/internal/bot"
	"github.com/maxaizer/medhire/internal/config"
	"github.com/maxaizer/medhire/internal/realtime"
	"github.com/maxaizer/medhire/internal/repositories"
	"github.com/maxaizer/medhire/internal/services"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// App wires the lifecycle engines to their stores and delivery channels.
type App struct {
	Jobs          *services.JobLifecycle
	Applications  *services.ApplicationLifecycle
	Notifications *repositories.Notifications

	bus      EventBus.Bus
	hub      *realtime.Hub
	notifier *bot.Notifier
	cleaner  *services.NotificationsCleaner
}

func New(cfg *config.Config, dbContext *repositories.DbContext) (*App, error) {

	if cfg == nil || dbContext == nil {
		return nil, errors.New("config and db context are required")
	}

	bus := EventBus.New()

	jobs := repositories.NewJobsRepository(dbContext.DB)
	applications := repositories.NewApplicationsRepository(dbContext.DB)
	notifications := repositories.NewNotificationsRepository(dbContext.DB)
	history := repositories.NewJobHistoryRepository(dbContext.DB)
	profiles := repositories.NewProfilesRepository(dbContext.DB)
	recipients := repositories.NewCachedProfiles(profiles)

	guard := services.NewGuard(jobs, applications)

	dispatcher, err := services.NewNotificationDispatcher(notifications, bus)
	if err != nil {
		return nil, errors.Wrap(err, "can't create notification dispatcher")
	}

	jobLifecycle, err := services.NewJobLifecycle(services.JobDependencies{
		Jobs:       jobs,
		Applicants: applications,
		Recipients: recipients,
		History:    services.NewHistoryRecorder(history),
		Notifier:   dispatcher,
		Guard:      guard,
	}, cfg.Notifications.FanOutConcurrency)
	if err != nil {
		return nil, errors.Wrap(err, "can't create job lifecycle")
	}

	applicationLifecycle, err := services.NewApplicationLifecycle(services.ApplicationDependencies{
		Applications: applications,
		Jobs:         jobs,
		Recipients:   recipients,
		Notifier:     dispatcher,
		Guard:        guard,
	})
	if err != nil {
		return nil, errors.Wrap(err, "can't create application lifecycle")
	}

	hub, err := realtime.NewHub(bus)
	if err != nil {
		return nil, errors.Wrap(err, "can't create realtime hub")
	}

	cleaner, err := services.NewNotificationsCleaner(notifications, cfg.Notifications.RetentionDays)
	if err != nil {
		hub.Stop()
		return nil, errors.Wrap(err, "can't create notifications cleaner")
	}

	a := &App{
		Jobs:          jobLifecycle,
		Applications:  applicationLifecycle,
		Notifications: notifications,
		bus:           bus,
		hub:           hub,
		cleaner:       cleaner,
	}

	if cfg.Notifications.TelegramToken == "" {
		log.Info("telegram token is not set, chat notifications are disabled")
		return a, nil
	}

	a.notifier, err = bot.NewNotifier(cfg.Notifications.TelegramToken, bus, profiles,
		cfg.Notifications.TelegramMaxMessagesPerSecond)
	if err != nil {
		hub.Stop()
		return nil, errors.Wrap(err, "can't create telegram notifier")
	}
	return a, nil
}

func (a *App) Start() {
	a.cleaner.Start()
}

func (a *App) Stop() {
	a.cleaner.Stop()
	a.hub.Stop()
	if a.notifier != nil {
		a.notifier.Stop()
	}
	log.Info("application services stopped")
}
