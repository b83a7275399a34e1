package repositories

import (
	"context"
	"github.com/maxaizer/medhire/internal/domain/models"
	"gorm.io/gorm"
	"time"
)

type Notifications struct {
	db *gorm.DB
}

func NewNotificationsRepository(db *gorm.DB) *Notifications {
	return &Notifications{db: db}
}

func (repo *Notifications) Save(ctx context.Context, notification *models.Notification) error {
	return repo.db.WithContext(ctx).Create(notification).Error
}

func (repo *Notifications) ListForUser(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]models.Notification, error) {
	query := repo.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (repo *Notifications) MarkRead(ctx context.Context, userID, notificationID int64) (bool, error) {
	res := repo.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", notificationID, userID).
		Update("read_at", time.Now().UTC())
	return res.RowsAffected == 1, res.Error
}

func (repo *Notifications) RemoveReadBefore(ctx context.Context, before time.Time) (int64, error) {
	res := repo.db.WithContext(ctx).Delete(&models.Notification{}, "read_at IS NOT NULL AND read_at < ?", before)
	return res.RowsAffected, res.Error
}
