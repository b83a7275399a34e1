package repositories

import (
	"context"
	"errors"
	"github.com/maxaizer/medhire/internal/domain/models"
	"gorm.io/gorm"
)

type Jobs struct {
	db *gorm.DB
}

func NewJobsRepository(db *gorm.DB) *Jobs {
	return &Jobs{db: db}
}

func (repo *Jobs) Create(ctx context.Context, job *models.JobPosting) error {
	return repo.db.WithContext(ctx).Create(job).Error
}

// GetByID returns nil without an error when the posting does not exist or is
// soft-deleted.
func (repo *Jobs) GetByID(ctx context.Context, id int64) (*models.JobPosting, error) {
	var job models.JobPosting
	if err := repo.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// CompareAndSwapStatus applies updates only if the posting is still in the
// expected status. It reports whether the row was changed.
func (repo *Jobs) CompareAndSwapStatus(ctx context.Context, id int64, expected models.JobStatus,
	updates map[string]any) (bool, error) {

	res := repo.db.WithContext(ctx).Model(&models.JobPosting{}).
		Where("id = ? AND status_id = ?", id, expected).
		Updates(updates)
	return res.RowsAffected == 1, res.Error
}

// UpdateFieldsInStatus edits the posting body only while it is in the given status.
func (repo *Jobs) UpdateFieldsInStatus(ctx context.Context, id int64, status models.JobStatus,
	fields map[string]any) (bool, error) {

	res := repo.db.WithContext(ctx).Model(&models.JobPosting{}).
		Where("id = ? AND status_id = ?", id, status).
		Updates(fields)
	return res.RowsAffected == 1, res.Error
}
