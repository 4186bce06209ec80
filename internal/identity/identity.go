// Package identity hands out the anonymous author id of a profile.
// It is an authorship convenience, not a security boundary.
package identity

import (
	"context"
	"errors"
	"sync"

	"tributes/internal/kv"

	"github.com/google/uuid"
)

// SlotName is where a profile keeps its id.
const SlotName = "tributes_user_id"

var ErrNoIdentity = errors.New("no identity in context")

type Provider interface {
	UserID(ctx context.Context) (string, error)
}

func NewUserID() string {
	return "user_" + uuid.NewString()
}

// Slot creates the id on first use and persists it in a kv slot.
type Slot struct {
	Slots kv.Slots

	mu sync.Mutex
	id string
}

func (s *Slot) UserID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id != "" {
		return s.id, nil
	}
	v, ok, err := s.Slots.Get(SlotName)
	if err != nil {
		return "", err
	}
	if ok && len(v) > 0 {
		s.id = string(v)
		return s.id, nil
	}

	id := NewUserID()
	if err := s.Slots.Set(SlotName, []byte(id)); err != nil {
		return "", err
	}
	s.id = id
	return id, nil
}

// Fixed always returns the same id.
type Fixed string

func (f Fixed) UserID(context.Context) (string, error) {
	return string(f), nil
}

// Request reads the id the cookie middleware put on the request context.
type Request struct{}

func (Request) UserID(ctx context.Context) (string, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return "", ErrNoIdentity
	}
	return id, nil
}

type ctxKey string

const userIDKey ctxKey = "user_id"

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
