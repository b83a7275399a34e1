package repositories

import (
	"context"
	"errors"
	"github.com/maxaizer/medhire/internal/domain/models"
	"gorm.io/gorm"
)

type Applications struct {
	db *gorm.DB
}

func NewApplicationsRepository(db *gorm.DB) *Applications {
	return &Applications{db: db}
}

func (repo *Applications) Create(ctx context.Context, application *models.Application) error {
	return repo.db.WithContext(ctx).Create(application).Error
}

func (repo *Applications) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	var application models.Application
	if err := repo.db.WithContext(ctx).First(&application, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &application, nil
}

func (repo *Applications) ExistsForDoctor(ctx context.Context, jobID, doctorProfileID int64) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).Unscoped().Model(&models.Application{}).
		Where("job_id = ? AND doctor_profile_id = ?", jobID, doctorProfileID).
		Count(&count).Error
	return count > 0, err
}

func (repo *Applications) CompareAndSwapStatus(ctx context.Context, id int64, expected models.ApplicationStatus,
	updates map[string]any) (bool, error) {

	res := repo.db.WithContext(ctx).Model(&models.Application{}).
		Where("id = ? AND status_id = ?", id, expected).
		Updates(updates)
	return res.RowsAffected == 1, res.Error
}

// ListNotifiableByJob returns the applications whose doctors must hear about
// changes to the posting, i.e. every one that is not withdrawn.
func (repo *Applications) ListNotifiableByJob(ctx context.Context, jobID int64) ([]models.Application, error) {
	var applications []models.Application
	if err := repo.db.WithContext(ctx).
		Where("job_id = ? AND status_id <> ?", jobID, models.ApplicationWithdrawn).
		Order("id").
		Find(&applications).Error; err != nil {
		return nil, err
	}
	return applications, nil
}
