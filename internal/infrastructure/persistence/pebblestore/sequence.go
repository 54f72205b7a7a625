package pebblestore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"
)

// Store keeps durable id sequences and poll checkpoints across restarts.
type Store struct {
	db *pebble.DB
}

func NewStore(dir string) (*Store, error) {
	d, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &Store{db: d}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Sequence is a persistent monotonic counter stored under one key.
type Sequence struct {
	mu   sync.Mutex
	db   *pebble.DB
	key  []byte
	last int64
}

// Sequence opens the named counter. A fresh counter hands out start first.
func (s *Store) Sequence(name string, start int64) (*Sequence, error) {
	key := []byte("seq/" + name)
	last := start - 1

	v, closer, err := s.db.Get(key)
	switch {
	case err == nil:
		if len(v) != 8 {
			_ = closer.Close()
			return nil, fmt.Errorf("sequence %s: corrupt value", name)
		}
		stored := int64(binary.BigEndian.Uint64(v))
		_ = closer.Close()
		last = max(last, stored)
	case errors.Is(err, pebble.ErrNotFound):
	default:
		return nil, fmt.Errorf("sequence %s: %w", name, err)
	}

	return &Sequence{db: s.db, key: key, last: last}, nil
}

func (q *Sequence) Next() (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	next := q.last + 1
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(next))
	if err := q.db.Set(q.key, buf, pebble.Sync); err != nil {
		return 0, fmt.Errorf("persist sequence: %w", err)
	}
	q.last = next
	return next, nil
}
