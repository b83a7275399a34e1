package events

import "github.com/maxaizer/medhire/internal/domain/models"

var NotificationCreatedTopic = "NotificationCreatedEvent"

type NotificationCreated struct {
	Notification models.Notification
}
