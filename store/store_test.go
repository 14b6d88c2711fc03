package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		s, err := NewFileStore(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, s.Save(ctx, "value/run-1", []byte("weights")))

		got, err := s.Load(ctx, "value/run-1")
		require.NoError(t, err)
		require.Equal(t, []byte("weights"), got)
	})

	t.Run("overwrite leaves no temp files", func(t *testing.T) {
		dir := t.TempDir()
		s, err := NewFileStore(dir)
		require.NoError(t, err)
		require.NoError(t, s.Save(ctx, "k", []byte("a")))
		require.NoError(t, s.Save(ctx, "k", []byte("b")))

		got, err := s.Load(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("b"), got)
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})

	t.Run("keys never escape the directory", func(t *testing.T) {
		dir := t.TempDir()
		s, err := NewFileStore(dir)
		require.NoError(t, err)
		require.Equal(t, dir, filepath.Dir(s.path("../../etc/passwd")))
	})

	t.Run("missing key", func(t *testing.T) {
		s, err := NewFileStore(t.TempDir())
		require.NoError(t, err)
		_, err = s.Load(ctx, "nope")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		s, err := NewFileStore(t.TempDir())
		require.NoError(t, err)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		require.ErrorIs(t, s.Save(cancelled, "k", nil), context.Canceled)
	})
}

func TestRedisStore(t *testing.T) {
	t.Run("unreachable server is an error, not a miss", func(t *testing.T) {
		s := NewRedisStore("127.0.0.1:1", WithTTL(time.Minute))
		defer s.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		_, err := s.Load(ctx, "k")
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("prefix option", func(t *testing.T) {
		s := NewRedisStore("", WithPrefix("test:"))
		defer s.Close()
		require.Equal(t, "test:", s.prefix)
	})
}

func TestNew(t *testing.T) {
	s, err := New(Config{Dir: t.TempDir()})
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, s)

	s, err = New(Config{Kind: "redis"})
	require.NoError(t, err)
	require.IsType(t, &RedisStore{}, s)

	_, err = New(Config{Kind: "s3"})
	require.Error(t, err)
}
