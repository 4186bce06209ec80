package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"time"
)

// Queue is the part of Repo the worker needs.
type Queue interface {
	Claim(workerID string) (*Job, error)
	MarkDone(id uint64) error
	MarkFailed(id uint64, errMsg string) error
	RetryLater(id uint64, attempts int, runAt time.Time, errMsg string) error
}

// Purger deletes one blob by key.
type Purger interface {
	Remove(ctx context.Context, key string) error
}

type Worker struct {
	ID     string
	Queue  Queue
	Purger Purger

	Interval time.Duration
	now      func() time.Time
}

func (w *Worker) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = 800 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := w.Queue.Claim(w.ID)
			if err != nil {
				slog.Error("jobs_claim_failed", "worker", w.ID, "error", err)
				continue
			}
			if job == nil {
				continue
			}
			w.handle(ctx, job)
		}
	}
}

func (w *Worker) handle(ctx context.Context, job *Job) {
	switch job.Type {
	case TypeMediaPurge:
		w.handlePurge(ctx, job)
	default:
		_ = w.Queue.MarkFailed(job.ID, "unknown job type")
	}
}

func (w *Worker) handlePurge(ctx context.Context, job *Job) {
	var p purgePayload
	if err := json.Unmarshal(job.Payload, &p); err != nil || p.Key == "" {
		_ = w.Queue.MarkFailed(job.ID, "bad payload")
		return
	}

	if err := w.Purger.Remove(ctx, p.Key); err != nil {
		slog.Warn("media_purge_failed", "key", p.Key, "attempt", job.Attempts+1, "error", err)
		w.retry(job, err.Error())
		return
	}
	slog.Info("media_purged", "key", p.Key)
	_ = w.Queue.MarkDone(job.ID)
}

func (w *Worker) retry(job *Job, errMsg string) {
	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		_ = w.Queue.MarkFailed(job.ID, errMsg)
		return
	}

	now := time.Now
	if w.now != nil {
		now = w.now
	}
	sec := math.Min(math.Pow(2, float64(attempts)), 600)
	next := now().Add(time.Duration(sec) * time.Second)

	_ = w.Queue.RetryLater(job.ID, attempts, next, errMsg)
}
