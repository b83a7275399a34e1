package repositories

import (
	"context"
	"errors"
	"github.com/maxaizer/medhire/internal/domain/models"
	"gorm.io/gorm"
)

type Profiles struct {
	db *gorm.DB
}

func NewProfilesRepository(db *gorm.DB) *Profiles {
	return &Profiles{db: db}
}

// HospitalUserID returns 0 when the profile is unknown.
func (repo *Profiles) HospitalUserID(ctx context.Context, hospitalProfileID int64) (int64, error) {
	var profile models.HospitalProfile
	if err := repo.db.WithContext(ctx).First(&profile, "id = ?", hospitalProfileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return profile.UserID, nil
}

// DoctorUserID returns 0 when the profile is unknown.
func (repo *Profiles) DoctorUserID(ctx context.Context, doctorProfileID int64) (int64, error) {
	var profile models.DoctorProfile
	if err := repo.db.WithContext(ctx).First(&profile, "id = ?", doctorProfileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return profile.UserID, nil
}

func (repo *Profiles) TelegramChatID(ctx context.Context, userID int64) (*int64, error) {
	var user models.User
	if err := repo.db.WithContext(ctx).Select("id", "telegram_chat_id").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user.TelegramChatID, nil
}
