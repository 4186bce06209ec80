// Package kv keeps named slots of bytes on the local device.
package kv

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// Slots is a small named key/value area.
// Get reports ok=false for a slot that was never written.
type Slots interface {
	Get(name string) (value []byte, ok bool, err error)
	Set(name string, value []byte) error
}

const slotPrefix = "slot:"

type Pebble struct {
	db *pebble.DB
}

// Open opens (or creates) a pebble database under dir.
func Open(dir string) (*Pebble, error) {
	if err := os.MkdirAll(filepath.Dir(dir), 0o700); err != nil {
		return nil, err
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Pebble{db: db}, nil
}

// OpenInMemory is a pebble database backed by an in-memory filesystem.
func OpenInMemory() (*Pebble, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, err
	}
	return &Pebble{db: db}, nil
}

func (p *Pebble) Get(name string) ([]byte, bool, error) {
	v, closer, err := p.db.Get([]byte(slotPrefix + name))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	// value is only valid until closer is closed
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (p *Pebble) Set(name string, value []byte) error {
	return p.db.Set([]byte(slotPrefix+name), value, pebble.Sync)
}

func (p *Pebble) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// Memory is a process-local Slots.
type Memory struct {
	mu sync.Mutex
	m  map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{m: map[string][]byte{}}
}

func (m *Memory) Get(name string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.m[name]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *Memory) Set(name string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.m[name] = v
	return nil
}
