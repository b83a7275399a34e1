package repositories

import (
	"context"
	"github.com/maxaizer/medhire/internal/domain/models"
	"gorm.io/gorm"
)

// JobHistory exposes no update or delete on purpose.
type JobHistory struct {
	db *gorm.DB
}

func NewJobHistoryRepository(db *gorm.DB) *JobHistory {
	return &JobHistory{db: db}
}

func (repo *JobHistory) Append(ctx context.Context, entry *models.JobHistoryEntry) error {
	return repo.db.WithContext(ctx).Create(entry).Error
}

func (repo *JobHistory) ListByJob(ctx context.Context, jobID int64) ([]models.JobHistoryEntry, error) {
	var entries []models.JobHistoryEntry
	if err := repo.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("changed_at, id").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
