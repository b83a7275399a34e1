package models

import "time"

type User struct {
	ID             int64  `gorm:"primaryKey"`
	Email          string `gorm:"uniqueIndex"`
	Role           Role   `gorm:"not null"`
	TelegramChatID *int64
	CreatedAt      time.Time
}

type HospitalProfile struct {
	ID        int64 `gorm:"primaryKey"`
	UserID    int64 `gorm:"not null;uniqueIndex"`
	Name      string
	CreatedAt time.Time
}

type DoctorProfile struct {
	ID        int64 `gorm:"primaryKey"`
	UserID    int64 `gorm:"not null;uniqueIndex"`
	FullName  string
	Specialty string
	CreatedAt time.Time
}
