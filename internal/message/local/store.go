// Package local keeps the board in a slot on the local device.
package local

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"tributes/internal/identity"
	"tributes/internal/kv"
	"tributes/internal/message"
)

// SlotName holds the JSON array of messages, newest first.
const SlotName = "tributes_messages"

const DefaultMaxUpload = 5 << 20

type Store struct {
	slots     kv.Slots
	ids       identity.Provider
	maxUpload int64
	now       func() time.Time

	// serialises read-modify-write within this process
	mu sync.Mutex
}

func New(slots kv.Slots, ids identity.Provider, maxUpload int64) *Store {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &Store{slots: slots, ids: ids, maxUpload: maxUpload, now: time.Now}
}

// EnsureInitialized writes an empty collection if none was ever written.
func (s *Store) EnsureInitialized(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok, err := s.slots.Get(SlotName)
	if err != nil || ok {
		return err
	}
	return s.write([]message.Message{})
}

// List returns the stored collection as written, without sorting.
func (s *Store) List(ctx context.Context) ([]message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
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

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return nil, err
	}
	m := message.New(d, uid, s.now())
	all = append([]message.Message{m}, all...)
	if err := s.write(all); err != nil {
		return nil, err
	}
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

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return nil, err
	}
	i := indexOf(all, id)
	if i < 0 || all[i].AuthorID != uid {
		return nil, message.ErrNotFound
	}
	all[i].Apply(p)
	if err := s.write(all); err != nil {
		return nil, err
	}
	m := all[i]
	return &m, nil
}

func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	uid, err := s.ids.UserID(ctx)
	if err != nil {
		return false, fmt.Errorf("resolve identity: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return false, err
	}
	i := indexOf(all, id)
	if i < 0 || all[i].AuthorID != uid {
		return false, nil
	}
	all = append(all[:i], all[i+1:]...)
	if err := s.write(all); err != nil {
		return false, err
	}
	return true, nil
}

// UploadMedia inlines the file as a data URL; there is no blob area on
// the device.
func (s *Store) UploadMedia(ctx context.Context, u message.Upload) (string, error) {
	if u.Body == nil {
		return "", &message.UploadError{Reason: "empty file"}
	}
	b, err := io.ReadAll(io.LimitReader(u.Body, s.maxUpload+1))
	if err != nil {
		return "", &message.UploadError{Reason: "read file", Err: err}
	}
	if int64(len(b)) > s.maxUpload {
		return "", &message.UploadError{
			Reason: fmt.Sprintf("file larger than %d bytes", s.maxUpload),
			Hint:   "local mode stores media inline; raise TRIBUTES_MAX_UPLOAD_BYTES or configure the remote backend",
		}
	}
	ct := u.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}

// DiscardMedia is a no-op: inline media lives and dies with its message.
func (s *Store) DiscardMedia(context.Context, string) error { return nil }

func (s *Store) read() ([]message.Message, error) {
	b, ok, err := s.slots.Get(SlotName)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", SlotName, err)
	}
	if !ok || len(b) == 0 {
		return []message.Message{}, nil
	}
	var out []message.Message
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", SlotName, err)
	}
	if out == nil {
		out = []message.Message{}
	}
	return out, nil
}

func (s *Store) write(all []message.Message) error {
	b, err := json.Marshal(all)
	if err != nil {
		return err
	}
	if err := s.slots.Set(SlotName, b); err != nil {
		return fmt.Errorf("write %s: %w", SlotName, err)
	}
	return nil
}

func indexOf(all []message.Message, id string) int {
	for i := range all {
		if all[i].ID == id {
			return i
		}
	}
	return -1
}
