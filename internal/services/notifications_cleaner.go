package services

import (
	"context"
	"github.com/maxaizer/medhire/internal/logger"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"time"
)

type notificationCleanupRepository interface {
	RemoveReadBefore(ctx context.Context, before time.Time) (int64, error)
}

// NotificationsCleaner purges read notifications older than the retention
// period once a day.
type NotificationsCleaner struct {
	notifications notificationCleanupRepository
	cron          *cron.Cron
	retentionDays int
	now           func() time.Time
}

func NewNotificationsCleaner(notifications notificationCleanupRepository, retentionDays int) (*NotificationsCleaner, error) {

	if notifications == nil {
		return nil, errors.New("notifications repository is nil")
	}
	if retentionDays <= 0 {
		return nil, errors.New("retention in days must be greater than zero")
	}

	nc := &NotificationsCleaner{
		notifications: notifications,
		cron:          cron.New(),
		retentionDays: retentionDays,
		now:           time.Now,
	}

	if _, err := nc.cron.AddFunc("0 0 * * *", nc.cleanReadNotifications); err != nil {
		return nil, err
	}
	return nc, nil
}

func (nc *NotificationsCleaner) Start() {
	nc.cron.Start()
	log.Infof("notifications cleaner started, retention in days: %d", nc.retentionDays)
}

func (nc *NotificationsCleaner) Stop() {
	<-nc.cron.Stop().Done()
}

func (nc *NotificationsCleaner) cleanReadNotifications() {
	before := nc.now().Add(-time.Duration(nc.retentionDays) * 24 * time.Hour)
	rowsAffected, err := nc.notifications.RemoveReadBefore(context.Background(), before)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("Failed to clean read notifications: %v", err)
		return
	}
	log.Infof("Read notifications older than %v were cleaned, affected rows: %v", before, rowsAffected)
}
