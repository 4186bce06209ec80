package jobs

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultMaxAttempts = 8
	// RUNNING jobs locked longer than this are assumed abandoned.
	staleLock = 5 * time.Minute
)

// Enqueue adds a purge for one blob key. Pass the caller's transaction so
// the job commits together with the row change that orphaned the blob.
func Enqueue(tx *gorm.DB, key string, runAt time.Time) error {
	payload, err := json.Marshal(purgePayload{Key: key})
	if err != nil {
		return err
	}
	j := Job{
		Type:        TypeMediaPurge,
		Payload:     payload,
		RunAt:       runAt,
		Status:      StatusPending,
		MaxAttempts: defaultMaxAttempts,
	}
	return tx.Create(&j).Error
}

type Repo struct {
	DB *gorm.DB

	now func() time.Time
}

func (r *Repo) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

// Claim takes the oldest due job, or returns nil when none is due. The
// row lock skips jobs another worker is claiming.
func (r *Repo) Claim(workerID string) (*Job, error) {
	now := r.clock()

	var job Job
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		// requeue stuck RUNNING jobs
		if err := tx.Model(&Job{}).
			Where("status = ? AND locked_at < ?", StatusRunning, now.Add(-staleLock)).
			Updates(map[string]any{"status": StatusPending, "locked_by": nil, "locked_at": nil}).Error; err != nil {
			return err
		}

		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND run_at <= ?", StatusPending, now).
			Order("run_at").
			Take(&job).Error
		if err != nil {
			return err
		}

		job.Status = StatusRunning
		job.LockedBy = &workerID
		job.LockedAt = &now
		return tx.Model(&job).Select("status", "locked_by", "locked_at").Updates(&job).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *Repo) MarkDone(id uint64) error {
	return r.DB.Model(&Job{ID: id}).Update("status", StatusDone).Error
}

func (r *Repo) MarkFailed(id uint64, errMsg string) error {
	return r.DB.Model(&Job{ID: id}).Updates(map[string]any{
		"status":     StatusFailed,
		"last_error": errMsg,
	}).Error
}

func (r *Repo) RetryLater(id uint64, attempts int, runAt time.Time, errMsg string) error {
	return r.DB.Model(&Job{ID: id}).Updates(map[string]any{
		"status":     StatusPending,
		"attempts":   attempts,
		"run_at":     runAt,
		"locked_by":  nil,
		"locked_at":  nil,
		"last_error": errMsg,
	}).Error
}
