// Package remote keeps the board in a hosted `messages` table and blob
// bucket. Authorship is enforced by the database predicate, not by
// filtering on the client.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"tributes/internal/identity"
	"tributes/internal/jobs"
	"tributes/internal/message"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Options struct {
	// Timeout bounds each database or blob call. Zero means 10s.
	Timeout time.Duration
	// Retries is how many extra attempts List makes on transport errors.
	Retries int
	// Backoff is the first retry delay; it doubles per attempt.
	Backoff time.Duration
}

type Store struct {
	db    *gorm.DB
	blobs Blobs
	ids   identity.Provider
	opts  Options
	now   func() time.Time
}

// New builds a remote store. blobs may be nil when no bucket is
// configured; uploads then fail with a hint and no purge jobs are queued.
func New(db *gorm.DB, blobs Blobs, ids identity.Provider, opts Options) *Store {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}
	return &Store{db: db, blobs: blobs, ids: ids, opts: opts, now: time.Now}
}

// List returns every row newest first. Transport errors are logged and
// yield an empty board.
func (s *Store) List(ctx context.Context) ([]message.Message, error) {
	var rows []Row
	err := s.withRetry(ctx, func(ctx context.Context) error {
		rows = nil
		return s.db.WithContext(ctx).
			Order(clause.OrderByColumn{Column: clause.Column{Name: column("timestamp")}, Desc: true}).
			Find(&rows).Error
	})
	if err != nil {
		slog.Error("remote_list_failed", "error", err)
		return []message.Message{}, nil
	}

	out := make([]message.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromRow(r))
	}
	return out, nil
}

func (s *Store) Add(ctx context.Context, d message.Draft) (*message.Message, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	uid, err := s.ids.UserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}

	r := toRow(message.New(d, uid, s.now()))

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		slog.Error("remote_add_failed", "error", err)
		return nil, fmt.Errorf("insert message: %w", err)
	}

	m := fromRow(r)
	return &m, nil
}

func (s *Store) Update(ctx context.Context, id string, p message.Patch) (*message.Message, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	uid, err := s.ids.UserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	var updated Row
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur Row
		if err := tx.Where(ownedBy, id, uid).First(&cur).Error; err != nil {
			return err
		}

		if cols := patchColumns(p); len(cols) > 0 {
			res := tx.Model(&Row{}).Where(ownedBy, id, uid).Updates(cols)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}

		// replaced media in our bucket is orphaned now
		if p.MediaURL != nil && deref(cur.MediaURL) != *p.MediaURL {
			if err := s.enqueuePurge(tx, deref(cur.MediaURL)); err != nil {
				return err
			}
		}

		return tx.Where(ownedBy, id, uid).First(&updated).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, message.ErrNotFound
	}
	if err != nil {
		slog.Error("remote_update_failed", "id", id, "error", err)
		return nil, fmt.Errorf("update message: %w", err)
	}

	m := fromRow(updated)
	return &m, nil
}

// Remove reports true only when a row owned by the caller was deleted.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	uid, err := s.ids.UserID(ctx)
	if err != nil {
		return false, fmt.Errorf("resolve identity: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur Row
		if err := tx.Where(ownedBy, id, uid).First(&cur).Error; err != nil {
			return err
		}
		res := tx.Where(ownedBy, id, uid).Delete(&Row{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return s.enqueuePurge(tx, deref(cur.MediaURL))
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		slog.Error("remote_remove_failed", "id", id, "error", err)
		return false, fmt.Errorf("delete message: %w", err)
	}
	return true, nil
}

// UploadMedia stores the file under a fresh key and returns its public URL.
func (s *Store) UploadMedia(ctx context.Context, u message.Upload) (string, error) {
	url, err := s.upload(ctx, u)
	if err != nil {
		slog.Error("remote_upload_failed", "file", u.Filename, "error", err)
		return "", err
	}
	return url, nil
}

func (s *Store) upload(ctx context.Context, u message.Upload) (string, error) {
	if s.blobs == nil {
		return "", &message.UploadError{
			Reason: "blob storage not configured",
			Hint:   "set TRIBUTES_STORAGE_ENDPOINT and TRIBUTES_STORAGE_BUCKET",
		}
	}
	if u.Body == nil {
		return "", &message.UploadError{Reason: "empty file"}
	}
	bucket := s.blobs.Bucket()

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	key := StorageKey(u.Filename, s.now())
	exists, err := s.blobs.Exists(ctx, key)
	if err != nil {
		return "", &message.UploadError{Reason: "check storage key", Err: err, Hint: bucketHint(bucket)}
	}
	if exists {
		return "", &message.UploadError{Reason: "storage key " + key + " already exists"}
	}
	if err := s.blobs.Put(ctx, key, u.Body, u.Size, u.ContentType); err != nil {
		return "", &message.UploadError{Reason: "put object", Err: err, Hint: bucketHint(bucket)}
	}

	public := s.blobs.PublicURL(key)
	if public == "" {
		return "", &message.UploadError{
			Reason: "no public URL returned",
			Hint:   fmt.Sprintf("make bucket %q public and set TRIBUTES_STORAGE_PUBLIC_URL", bucket),
		}
	}
	if !absoluteURL(public) {
		return "", &message.UploadError{
			Reason: fmt.Sprintf("public URL %q is not absolute", public),
			Hint:   fmt.Sprintf("TRIBUTES_STORAGE_PUBLIC_URL must be an http(s) URL; bucket is %q", bucket),
		}
	}
	return public, nil
}

// DiscardMedia queues a purge for an upload whose message was never
// written. URLs outside our bucket are ignored.
func (s *Store) DiscardMedia(ctx context.Context, publicURL string) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	if err := s.enqueuePurge(s.db.WithContext(ctx), publicURL); err != nil {
		slog.Error("remote_discard_failed", "url", publicURL, "error", err)
		return fmt.Errorf("queue media purge: %w", err)
	}
	return nil
}

func bucketHint(bucket string) string {
	return fmt.Sprintf("check that bucket %q exists (names are case-sensitive) and the access key may write to it", bucket)
}

// blobKey returns the bucket key behind a public URL, or "" when the URL
// does not point into our bucket.
func (s *Store) blobKey(publicURL string) string {
	if s.blobs == nil || publicURL == "" {
		return ""
	}
	prefix := s.blobs.PublicURL("")
	if prefix == "" || !strings.HasPrefix(publicURL, prefix) {
		return ""
	}
	key := strings.TrimPrefix(publicURL, prefix)
	if !strings.HasPrefix(key, KeyPrefix) {
		return ""
	}
	return key
}

func (s *Store) enqueuePurge(tx *gorm.DB, publicURL string) error {
	key := s.blobKey(publicURL)
	if key == "" {
		return nil
	}
	return jobs.Enqueue(tx, key, s.now())
}

// withRetry runs fn under the per-call timeout, retrying with exponential
// backoff. Cancellation of the parent context stops retrying.
func (s *Store) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= s.opts.Retries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(float64(s.opts.Backoff) * math.Pow(2, float64(attempt-1)))
			select {
			case <-ctx.Done():
				return errors.Join(err, ctx.Err())
			case <-time.After(wait):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
		err = fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		slog.Warn("remote_call_failed", "attempt", attempt+1, "error", err)
	}
	return err
}
