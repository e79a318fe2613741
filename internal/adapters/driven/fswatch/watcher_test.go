package fswatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_SignalsOnCreate(t *testing.T) {
	tempDir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := New(tempDir, WithDebounce(50*time.Millisecond))
	signals, err := w.Watch(ctx)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		os.WriteFile(filepath.Join(tempDir, "new-file.txt"), []byte("content"), 0644)
	}()

	select {
	case _, ok := <-signals:
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change signal")
	}
}

func TestWatch_DebouncesBursts(t *testing.T) {
	tempDir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := New(tempDir, WithDebounce(100*time.Millisecond))
	signals, err := w.Watch(ctx)
	require.NoError(t, err)

	// A burst of writes inside the debounce window should coalesce.
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "burst.txt"), []byte{byte(i)}, 0644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-signals:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change signal")
	}

	// No second signal should follow without further changes.
	select {
	case <-signals:
		t.Fatal("unexpected extra signal")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatch_MissingRoot(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "nope"))
	signals, err := w.Watch(context.Background())

	assert.Error(t, err)
	assert.Nil(t, signals)
	assert.Contains(t, err.Error(), "root path error")
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	tempDir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())

	w := New(tempDir, WithDebounce(50*time.Millisecond))
	signals, err := w.Watch(ctx)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-signals:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after context cancellation")
	}
}
