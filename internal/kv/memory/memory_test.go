package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microblog/internal/models"
)

func TestSetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Get(ctx, "user:1")
	require.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, s.Set(ctx, "user:1", []byte("alice"), 0))
	v, err := s.Get(ctx, "user:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("alice"), v)

	require.NoError(t, s.Delete(ctx, "user:1"))
	_, err = s.Get(ctx, "user:1")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Set(ctx, "k", []byte("abc"), 0))

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	v[0] = 'z'

	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestTTLExpiry(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Set(ctx, "session:abc", []byte("1"), 10*time.Millisecond))

	_, err := s.Get(ctx, "session:abc")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, err = s.Get(ctx, "session:abc")
	require.ErrorIs(t, err, models.ErrNotFound)

	entries, err := s.List(ctx, "session:")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListPrefixOrdering(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Set(ctx, "post:02", []byte("b"), 0))
	require.NoError(t, s.Set(ctx, "post:01", []byte("a"), 0))
	require.NoError(t, s.Set(ctx, "post:03", []byte("c"), 0))
	require.NoError(t, s.Set(ctx, "user:01", []byte("x"), 0))

	entries, err := s.List(ctx, "post:")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "post:01", entries[0].Key)
	assert.Equal(t, "post:02", entries[1].Key)
	assert.Equal(t, "post:03", entries[2].Key)
}

func TestSweeperRemovesExpired(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New()
	require.NoError(t, s.Set(ctx, "a", []byte("1"), 5*time.Millisecond))
	require.NoError(t, s.Set(ctx, "b", []byte("2"), 0))
	s.StartSweeper(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		_, gone := s.data["a"]
		_, kept := s.data["b"]
		return !gone && kept
	}, time.Second, 10*time.Millisecond)
}
