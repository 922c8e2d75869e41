package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rows":[{"type":"percent","value":30}]}`), 0644))

	f := NewFile(path, testLogger())
	assert.Equal(t, "file", f.Name())
	assert.Equal(t, path, f.Path())

	readings, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 30, readings[0].Percent)
}

func TestFileFetchMissing(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "missing.json"), testLogger())
	_, err := f.Fetch(context.Background())
	assert.Error(t, err)
}

func TestWatchTriggersOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rows":[]}`), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, func() { changed <- struct{}{} }, testLogger())
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0644))
	require.NoError(t, os.WriteFile(path, []byte(`{"rows":[{"type":"percent","value":1}]}`), 0644))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report the change")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
