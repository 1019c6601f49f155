package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ConvertsNewFiles(t *testing.T) {
	old := watchDebounce
	watchDebounce = 20 * time.Millisecond
	t.Cleanup(func() { watchDebounce = old })

	src, dst := t.TempDir(), t.TempDir()
	writeCoinPNG(t, src, "initial.png")
	opts, _ := testOptions()

	results := make(chan Result, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, src, dst, opts, func(r Result) { results <- r })
	}()

	waitFor := func(name string) Result {
		t.Helper()
		for {
			select {
			case r := <-results:
				if r.Source.Name == name {
					return r
				}
			case <-time.After(10 * time.Second):
				t.Fatalf("timed out waiting for %s", name)
			}
		}
	}

	r := waitFor("initial.png")
	require.NoError(t, r.Err)

	// Write under a hidden name and rename so the watcher sees one complete file.
	hidden := writeCoinPNG(t, src, ".incoming")
	require.NoError(t, os.Rename(hidden, filepath.Join(src, "later.png")))

	r = waitFor("later.png")
	require.NoError(t, r.Err)
	assert.FileExists(t, filepath.Join(dst, "later.png"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}

func TestWatch_SkipsShadowedFile(t *testing.T) {
	old := watchDebounce
	watchDebounce = 20 * time.Millisecond
	t.Cleanup(func() { watchDebounce = old })

	src, dst := t.TempDir(), t.TempDir()
	writeCoinPNG(t, src, "penny.png")
	opts, _ := testOptions()

	results := make(chan Result, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, src, dst, opts, func(r Result) { results <- r })
	}()

	next := func() Result {
		t.Helper()
		select {
		case r := <-results:
			return r
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for a result")
		}
		return Result{}
	}

	r := next()
	require.Equal(t, "penny.png", r.Source.Name)
	require.NoError(t, r.Err)
	icon, err := os.ReadFile(filepath.Join(dst, "penny.png"))
	require.NoError(t, err)

	// penny.jpg sorts before penny.png, so penny.png keeps the icon.
	hidden := writeCoinJPEG(t, src, ".incoming")
	require.NoError(t, os.Rename(hidden, filepath.Join(src, "penny.jpg")))

	r = next()
	assert.Equal(t, "penny.jpg", r.Source.Name)
	assert.True(t, r.Skipped)
	assert.Contains(t, r.Reason, "penny.png")

	after, err := os.ReadFile(filepath.Join(dst, "penny.png"))
	require.NoError(t, err)
	assert.Equal(t, icon, after)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}

func TestWatch_RejectsSameDirectory(t *testing.T) {
	dir := t.TempDir()
	opts, _ := testOptions()

	err := Watch(context.Background(), dir, dir+string(filepath.Separator), opts, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestWatch_MissingSource(t *testing.T) {
	opts, _ := testOptions()

	err := Watch(context.Background(), filepath.Join(t.TempDir(), "absent"), t.TempDir(), opts, nil)
	var pnf *PathNotFoundError
	assert.ErrorAs(t, err, &pnf)
}
