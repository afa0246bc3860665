package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter(t *testing.T) {
	l := NewLimiter(1, 20*time.Millisecond)

	release, err := l.Acquire(context.Background())
	require.NoError(t, err)

	_, err = l.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrQueueTimeout)

	release()
	release2, err := l.Acquire(context.Background())
	require.NoError(t, err)
	release2()
}

func TestLimiter_Canceled(t *testing.T) {
	l := NewLimiter(0, 0)
	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCleanupExpired(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	old := filepath.Join(dir, "old.png")
	fresh := filepath.Join(dir, "fresh.png")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(old, now.Add(-2*time.Hour), now.Add(-2*time.Hour)))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	n, err := CleanupExpired(dir, time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "sub"))
	assert.NoError(t, err)

	n, err = CleanupExpired(filepath.Join(dir, "missing"), time.Hour, now)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestStartCleanup(t *testing.T) {
	_, err := StartCleanup("every now and then", time.Hour, t.TempDir())
	assert.Error(t, err)

	c, err := StartCleanup("@every 1h", time.Hour, t.TempDir())
	require.NoError(t, err)
	ctx := c.Stop()
	<-ctx.Done()
}
