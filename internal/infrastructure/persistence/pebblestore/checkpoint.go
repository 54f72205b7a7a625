package pebblestore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

// Checkpoint returns the time stored under name, or the zero time when none
// was saved yet.
func (s *Store) Checkpoint(name string) (time.Time, error) {
	v, closer, err := s.db.Get(checkpointKey(name))
	if errors.Is(err, pebble.ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("checkpoint %s: %w", name, err)
	}
	defer closer.Close()
	if len(v) != 8 {
		return time.Time{}, fmt.Errorf("checkpoint %s: corrupt value", name)
	}
	return time.UnixMilli(int64(binary.BigEndian.Uint64(v))).UTC(), nil
}

// SaveCheckpoint stores t with millisecond precision.
func (s *Store) SaveCheckpoint(name string, t time.Time) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(t.UnixMilli()))
	if err := s.db.Set(checkpointKey(name), buf, pebble.Sync); err != nil {
		return fmt.Errorf("save checkpoint %s: %w", name, err)
	}
	return nil
}

func checkpointKey(name string) []byte { return []byte("checkpoint/" + name) }
