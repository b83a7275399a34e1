package models

import "time"

type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationWarning NotificationKind = "warning"
	NotificationError   NotificationKind = "error"
	NotificationInfo    NotificationKind = "info"
)

// NotificationEvent is built by the lifecycle engines and handed to the
// dispatcher. Template selects the title and body, Data fills them in.
type NotificationEvent struct {
	UserID   int64
	Kind     NotificationKind
	Template string
	Data     map[string]string
}

type Notification struct {
	ID        int64            `gorm:"primaryKey"`
	UserID    int64            `gorm:"not null;index"`
	Kind      NotificationKind `gorm:"not null"`
	Template  string
	Title     string
	Body      string
	Payload   map[string]string `gorm:"serializer:json"`
	ReadAt    *time.Time
	CreatedAt time.Time `gorm:"index"`
}
