package services

import (
	"context"
	"github.com/maxaizer/medhire/internal/domain/models"
	"github.com/pkg/errors"
	"time"
)

type historyRepository interface {
	Append(ctx context.Context, entry *models.JobHistoryEntry) error
	ListByJob(ctx context.Context, jobID int64) ([]models.JobHistoryEntry, error)
}

// HistoryRecorder appends one audit row per committed job transition.
type HistoryRecorder struct {
	history historyRepository
	now     func() time.Time
}

func NewHistoryRecorder(history historyRepository) *HistoryRecorder {
	return &HistoryRecorder{history: history, now: func() time.Time { return time.Now().UTC() }}
}

func (r *HistoryRecorder) Record(ctx context.Context, jobID int64, oldStatus, newStatus models.JobStatus,
	actor models.Actor, note string) error {

	entry := &models.JobHistoryEntry{
		JobID:           jobID,
		OldStatusID:     oldStatus,
		NewStatusID:     newStatus,
		ChangedByUserID: actor.UserID(),
		ChangedByRole:   actor.Role(),
		Note:            note,
		ChangedAt:       r.now(),
	}

	if err := r.history.Append(ctx, entry); err != nil {
		return errors.Wrapf(err, "failed to record history of job %d", jobID)
	}
	return nil
}

func (r *HistoryRecorder) List(ctx context.Context, jobID int64) ([]models.JobHistoryEntry, error) {
	entries, err := r.history.ListByJob(ctx, jobID)
	return entries, errors.Wrapf(err, "failed to list history of job %d", jobID)
}
