// Package board is the application state behind the views: the loaded
// messages, filtered views, stats and optimistic updates after each write.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"tributes/internal/message"
)

// ErrNotSaved wraps every failed submit so callers can tell the author
// their post did not go through.
var ErrNotSaved = errors.New("your post did not go through")

// Repository is the facade contract the board drives.
type Repository interface {
	List(ctx context.Context) ([]message.Message, error)
	Add(ctx context.Context, d message.Draft) (*message.Message, error)
	Update(ctx context.Context, id string, p message.Patch) (*message.Message, error)
	Remove(ctx context.Context, id string) (bool, error)
	UploadMedia(ctx context.Context, u message.Upload) (string, error)
	DiscardMedia(ctx context.Context, url string) error
}

// Filter is either All or one category.
type Filter string

const All Filter = "All"

func ParseFilter(s string) (Filter, error) {
	if s == "" || s == string(All) {
		return All, nil
	}
	if !message.Category(s).Valid() {
		return "", fmt.Errorf("%w: unknown category %q", message.ErrInvalid, s)
	}
	return Filter(s), nil
}

type Stats struct {
	TotalMessages int                      `json:"totalMessages"`
	TeamMembers   int                      `json:"teamMembers"`
	TenureDays    int                      `json:"tenureDays"`
	Categories    map[message.Category]int `json:"categories"`
	Populated     []message.Category       `json:"populated"`
}

type Board struct {
	repo       Repository
	tenureDays int

	mu       sync.RWMutex
	messages []message.Message
}

func New(repo Repository, tenureDays int) *Board {
	return &Board{repo: repo, tenureDays: tenureDays}
}

// Load replaces the state with what the repository holds, newest first.
func (b *Board) Load(ctx context.Context) error {
	ms, err := b.repo.List(ctx)
	if err != nil {
		return err
	}
	message.SortNewestFirst(ms)

	b.mu.Lock()
	b.messages = ms
	b.mu.Unlock()
	return nil
}

// View returns a copy of the messages matching f.
func (b *Board) View(f Filter) []message.Message {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]message.Message, 0, len(b.messages))
	for _, m := range b.messages {
		if f == All || f == "" || m.Category == message.Category(f) {
			out = append(out, m)
		}
	}
	return out
}

// Post uploads media when present, then adds the message and prepends it.
func (b *Board) Post(ctx context.Context, d message.Draft, media *message.Upload) (*message.Message, error) {
	if media != nil {
		url, err := b.repo.UploadMedia(ctx, *media)
		if err != nil {
			return nil, notSaved(err)
		}
		d.MediaURL = url
		d.MediaType = message.MediaTypeOf(media.ContentType)
	}

	m, err := b.repo.Add(ctx, d)
	if err != nil {
		if media != nil {
			b.discard(ctx, d.MediaURL)
		}
		return nil, notSaved(err)
	}

	b.mu.Lock()
	b.messages = append([]message.Message{*m}, b.messages...)
	b.mu.Unlock()
	return m, nil
}

// Edit uploads replacement media when present, updates, and swaps the
// entry in place.
func (b *Board) Edit(ctx context.Context, id string, p message.Patch, media *message.Upload) (*message.Message, error) {
	if media != nil {
		url, err := b.repo.UploadMedia(ctx, *media)
		if err != nil {
			return nil, notSaved(err)
		}
		typ := message.MediaTypeOf(media.ContentType)
		p.MediaURL = &url
		p.MediaType = &typ
	}

	m, err := b.repo.Update(ctx, id, p)
	if err != nil {
		if media != nil {
			b.discard(ctx, *p.MediaURL)
		}
		return nil, notSaved(err)
	}

	b.mu.Lock()
	for i := range b.messages {
		if b.messages[i].ID == m.ID {
			b.messages[i] = *m
			break
		}
	}
	b.mu.Unlock()
	return m, nil
}

// Delete drops the entry from state once the repository confirms it.
func (b *Board) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := b.repo.Remove(ctx, id)
	if err != nil || !ok {
		return false, err
	}

	b.mu.Lock()
	for i := range b.messages {
		if b.messages[i].ID == id {
			b.messages = append(b.messages[:i], b.messages[i+1:]...)
			break
		}
	}
	b.mu.Unlock()
	return true, nil
}

func (b *Board) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	st := Stats{
		TotalMessages: len(b.messages),
		TenureDays:    b.tenureDays,
		Categories:    map[message.Category]int{},
		Populated:     []message.Category{},
	}
	names := map[string]struct{}{}
	for _, m := range b.messages {
		names[m.Name] = struct{}{}
		st.Categories[m.Category]++
	}
	st.TeamMembers = len(names)
	for _, c := range message.Categories {
		if st.Categories[c] > 0 {
			st.Populated = append(st.Populated, c)
		}
	}
	return st
}

// discard releases media uploaded for a write that failed. Its own
// failure is logged; the caller sees the write error.
func (b *Board) discard(ctx context.Context, url string) {
	if err := b.repo.DiscardMedia(ctx, url); err != nil {
		slog.Warn("discard_media_failed", "url", url, "error", err)
	}
}

func notSaved(err error) error {
	return fmt.Errorf("%w: %w", ErrNotSaved, err)
}
