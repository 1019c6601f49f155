package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"
)

// watchDebounce is how long a file must stay quiet before it is converted.
var watchDebounce = 500 * time.Millisecond

// Watch converts everything already in src, then keeps converting files that
// are created or rewritten there until ctx is done.
//
// Each result, from the initial pass and from later events, is passed to
// onResult, which may be nil. Events for a file are debounced so a file still
// being copied is converted once, after it settles. Hidden files are ignored.
// A changed file is held to the same collision rules as the initial pass: if
// a later name in src produces the same icon, the file is skipped.
// Because outputs are PNG files named after their sources, src and dst must
// be different directories.
func Watch(ctx context.Context, src, dst string, opts Options, onResult func(Result)) error {
	if dst == "" {
		dst = DefaultDestination
	}
	same, err := sameDir(src, dst)
	if err != nil {
		return err
	}
	if same {
		return fmt.Errorf("watch source and destination must differ: %s", src)
	}
	if onResult == nil {
		onResult = func(Result) {}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if _, err := Enumerate(src); err != nil {
		return err
	}
	if err := fsw.Add(src); err != nil {
		return &PathNotFoundError{Path: src, Err: err}
	}

	// Initial pass runs after Add so files arriving meanwhile are not missed.
	summary, err := ProcessDirectory(ctx, src, dst, opts)
	if summary != nil {
		for _, r := range summary.Results {
			onResult(r)
		}
	}
	if err != nil {
		return err
	}

	log := opts.logger().WithFields(logrus.Fields{
		"run_id": ksuid.New().String(),
		"source": src,
	})
	log.Info("Watching for new images")

	var (
		mu      sync.Mutex
		pending = make(map[string]*time.Timer)
		ready   = make(chan string)
		stop    = make(chan struct{})
	)
	defer func() {
		close(stop)
		mu.Lock()
		for _, t := range pending {
			t.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("Watch stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}

			name := event.Name
			mu.Lock()
			if t, exists := pending[name]; exists {
				t.Stop()
			}
			pending[name] = time.AfterFunc(watchDebounce, func() {
				mu.Lock()
				delete(pending, name)
				mu.Unlock()
				select {
				case ready <- name:
				case <-stop:
				}
			})
			mu.Unlock()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("Watcher error")

		case path := <-ready:
			s, fileOpts, r, ok := planEvent(log, src, filepath.Base(path), opts)
			if !ok {
				continue
			}
			if r.Skipped {
				onResult(r)
				continue
			}
			if err := EnsureDir(dst); err != nil {
				return err
			}
			r = processFile(ctx, log, s, dst, fileOpts)
			onResult(r)
			if opts.FailFast && r.Failed() {
				return r.Err
			}
		}
	}
}

// planEvent applies the directory's collision rules to one changed file. ok
// is false when the file is gone or not a regular file. A file whose icon
// name belongs to a later file gets a skipped Result.
func planEvent(log *logrus.Entry, src, name string, opts Options) (SourceImage, Options, Result, bool) {
	sources, err := Enumerate(src)
	if err != nil {
		log.WithError(err).Warn("Failed to list source directory")
		return SourceImage{}, opts, Result{}, false
	}
	kept, shadowed, ghostless := resolveCollisions(sources, opts)
	for s, by := range shadowed {
		if s.Name == name {
			return s, opts, shadowedResult(log, s, by), true
		}
	}
	for _, s := range kept {
		if s.Name == name {
			return s, sourceOptions(log, s, opts, ghostless), Result{}, true
		}
	}
	return SourceImage{}, opts, Result{}, false
}

// sameDir reports whether a and b name the same directory. A destination
// that does not exist yet is compared by cleaned absolute path.
func sameDir(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	if absA == absB {
		return true, nil
	}

	fa, errA := os.Stat(absA)
	fb, errB := os.Stat(absB)
	if errA != nil || errB != nil {
		if errA != nil && !errors.Is(errA, os.ErrNotExist) {
			return false, &PathNotFoundError{Path: a, Err: errA}
		}
		return false, nil
	}
	return os.SameFile(fa, fb), nil
}
