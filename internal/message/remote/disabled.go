package remote

import (
	"context"
	"log/slog"
	"sync"

	"tributes/internal/message"
)

// Disabled is the remote store when the backend is unreachable by
// configuration. Every call degrades to an empty or failed result and the
// reason is logged once.
type Disabled struct {
	Reason string

	once sync.Once
}

func (d *Disabled) warn() {
	d.once.Do(func() {
		slog.Warn("remote_not_configured", "reason", d.Reason)
	})
}

func (d *Disabled) List(context.Context) ([]message.Message, error) {
	d.warn()
	return []message.Message{}, nil
}

func (d *Disabled) Add(context.Context, message.Draft) (*message.Message, error) {
	d.warn()
	return nil, message.ErrNotConfigured
}

func (d *Disabled) Update(context.Context, string, message.Patch) (*message.Message, error) {
	d.warn()
	return nil, message.ErrNotConfigured
}

func (d *Disabled) Remove(context.Context, string) (bool, error) {
	d.warn()
	return false, message.ErrNotConfigured
}

func (d *Disabled) UploadMedia(context.Context, message.Upload) (string, error) {
	d.warn()
	return "", message.ErrNotConfigured
}

func (d *Disabled) DiscardMedia(context.Context, string) error {
	d.warn()
	return message.ErrNotConfigured
}
