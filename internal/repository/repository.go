// Package repository is the single message contract callers use. The
// backend is chosen once at startup.
package repository

import (
	"context"
	"errors"
	"log"

	"tributes/internal/config"
	"tributes/internal/db"
	"tributes/internal/identity"
	"tributes/internal/kv"
	"tributes/internal/message"
	"tributes/internal/message/local"
	"tributes/internal/message/remote"
	"tributes/internal/metrics"

	"gorm.io/gorm"
)

type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

type Repository struct {
	mode    Mode
	store   message.Store
	ids     identity.Provider
	metrics *metrics.Metrics
}

func New(mode Mode, store message.Store, ids identity.Provider, m *metrics.Metrics) *Repository {
	return &Repository{mode: mode, store: store, ids: ids, metrics: m}
}

// Backend is what Open wired up; callers own closing it.
type Backend struct {
	Repo  *Repository
	DB    *gorm.DB           // nil unless remote mode reached the database
	Blobs *remote.MinioBlobs // nil unless a bucket is configured
}

// Open picks the remote store when both remote settings are present and
// the local store otherwise. A configured but unreachable remote runs
// disabled rather than failing startup.
func Open(cfg config.Config, slots kv.Slots, ids identity.Provider, m *metrics.Metrics) (*Backend, error) {
	if !cfg.RemoteConfigured() {
		log.Printf("remote backend not configured (TRIBUTES_REMOTE_URL/TRIBUTES_REMOTE_KEY); using local store")
		st := local.New(slots, ids, cfg.MaxUploadBytes)
		if err := st.EnsureInitialized(context.Background()); err != nil {
			return nil, err
		}
		return &Backend{Repo: New(ModeLocal, st, ids, m)}, nil
	}

	gdb, err := db.Connect(cfg.RemoteURL)
	if err == nil {
		err = db.AutoMigrateAndIndexes(gdb)
	}
	if err != nil {
		log.Printf("remote backend unreachable: %v; remote store disabled", err)
		return &Backend{Repo: New(ModeRemote, &remote.Disabled{Reason: err.Error()}, ids, m)}, nil
	}

	var blobs *remote.MinioBlobs
	var rb remote.Blobs
	if cfg.StorageConfigured() {
		blobs, err = remote.NewMinioBlobs(cfg.StorageEndpoint, cfg.RemoteKey, cfg.StorageSecret, cfg.StorageBucket, cfg.StoragePublicURL)
		if err != nil {
			log.Printf("blob storage unavailable: %v; uploads disabled", err)
			blobs = nil
		} else {
			rb = blobs
		}
	} else {
		log.Printf("blob storage not configured; uploads disabled")
	}

	st := remote.New(gdb, rb, ids, remote.Options{
		Timeout: cfg.RemoteTimeout,
		Retries: cfg.RemoteRetries,
	})
	return &Backend{Repo: New(ModeRemote, st, ids, m), DB: gdb, Blobs: blobs}, nil
}

func (r *Repository) Mode() Mode { return r.mode }

func (r *Repository) UserID(ctx context.Context) (string, error) {
	return r.ids.UserID(ctx)
}

func (r *Repository) List(ctx context.Context) ([]message.Message, error) {
	out, err := r.store.List(ctx)
	r.observe("list", err)
	return out, err
}

func (r *Repository) Add(ctx context.Context, d message.Draft) (*message.Message, error) {
	out, err := r.store.Add(ctx, d)
	r.observe("add", err)
	return out, err
}

func (r *Repository) Update(ctx context.Context, id string, p message.Patch) (*message.Message, error) {
	out, err := r.store.Update(ctx, id, p)
	r.observe("update", err)
	return out, err
}

func (r *Repository) Remove(ctx context.Context, id string) (bool, error) {
	ok, err := r.store.Remove(ctx, id)
	switch {
	case err != nil:
		r.observe("remove", err)
	case !ok:
		r.observe("remove", message.ErrNotFound)
	default:
		r.observe("remove", nil)
	}
	return ok, err
}

func (r *Repository) UploadMedia(ctx context.Context, u message.Upload) (string, error) {
	out, err := r.store.UploadMedia(ctx, u)
	r.observe("upload", err)
	return out, err
}

func (r *Repository) DiscardMedia(ctx context.Context, url string) error {
	err := r.store.DiscardMedia(ctx, url)
	r.observe("discard", err)
	return err
}

func (r *Repository) observe(op string, err error) {
	r.metrics.Observe(string(r.mode), op, outcome(err))
}

func outcome(err error) string {
	var ue *message.UploadError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, message.ErrInvalid):
		return "invalid"
	case errors.Is(err, message.ErrNotFound):
		return "not_found"
	case errors.Is(err, message.ErrNotConfigured):
		return "not_configured"
	case errors.As(err, &ue):
		return "upload_error"
	default:
		return "error"
	}
}
