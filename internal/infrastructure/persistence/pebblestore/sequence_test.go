package pebblestore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence_StartsAtStart(t *testing.T) {
	st, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	seq, err := st.Sequence("orders", 1001)
	require.NoError(t, err)

	first, err := seq.Next()
	require.NoError(t, err)
	second, err := seq.Next()
	require.NoError(t, err)

	assert.Equal(t, int64(1001), first)
	assert.Equal(t, int64(1002), second)
}

func TestSequence_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	st, err := NewStore(dir)
	require.NoError(t, err)
	seq, err := st.Sequence("sales", 1)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := seq.Next()
		require.NoError(t, err)
	}
	require.NoError(t, st.Close())

	st, err = NewStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	seq, err = st.Sequence("sales", 1)
	require.NoError(t, err)

	next, err := seq.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(4), next)
}

func TestSequence_IndependentNames(t *testing.T) {
	st, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	orders, err := st.Sequence("orders", 1001)
	require.NoError(t, err)
	sales, err := st.Sequence("sales", 1)
	require.NoError(t, err)

	o, _ := orders.Next()
	s, _ := sales.Next()

	assert.Equal(t, int64(1001), o)
	assert.Equal(t, int64(1), s)
}

func TestCheckpoint(t *testing.T) {
	dir := t.TempDir()
	st, err := NewStore(dir)
	require.NoError(t, err)

	got, err := st.Checkpoint("supplier")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	at := time.Date(2026, 2, 1, 10, 30, 0, 123_000_000, time.UTC)
	require.NoError(t, st.SaveCheckpoint("supplier", at))
	require.NoError(t, st.Close())

	st, err = NewStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	got, err = st.Checkpoint("supplier")
	require.NoError(t, err)
	assert.Equal(t, at, got)
}
