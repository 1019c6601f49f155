package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/anwilli5/coinprep/internal/imaging"
)

const (
	// DefaultSource is the directory read when no source is given.
	DefaultSource = "/tmp/cc_images_pre"

	// DefaultDestination is where icons are written when no destination is given.
	DefaultDestination = "/tmp/cc_images"

	// DefaultGhostOpacity is the opacity of the optional faded variant.
	DefaultGhostOpacity = 0.25
)

// ErrTimeout is returned for an image that exceeded Options.Timeout.
var ErrTimeout = errors.New("processing timed out")

// Options controls a batch run.
type Options struct {
	// Image holds the per-image transform settings.
	Image imaging.Options

	// Workers bounds the number of images processed at once.
	// Zero or less means runtime.NumCPU().
	Workers int

	// FailFast aborts the whole run on the first failed image.
	// By default failures are logged and the run continues.
	FailFast bool

	// Ghost also writes a reduced-opacity copy of every icon.
	Ghost bool

	// GhostOpacity is the opacity of the ghost copy, in (0, 1].
	GhostOpacity float64

	// Timeout limits the time spent on one image. Zero disables it.
	//
	// The image is abandoned, not interrupted: a write already in progress
	// when the deadline passes may still complete.
	Timeout time.Duration

	// Logger receives progress and failure records. Nil discards them.
	Logger *logrus.Logger
}

// DefaultOptions returns the default run settings: 92x92 icons, one worker
// per CPU, failed images skipped and no ghost copies.
func DefaultOptions() Options {
	return Options{
		Image:        imaging.DefaultOptions(),
		Workers:      runtime.NumCPU(),
		GhostOpacity: DefaultGhostOpacity,
	}
}

// Validate reports the first invalid option.
func (o Options) Validate() error {
	if err := o.Image.Validate(); err != nil {
		return err
	}
	if o.Ghost && (o.GhostOpacity <= 0 || o.GhostOpacity > 1) {
		return fmt.Errorf("ghost opacity %g outside range (0, 1]", o.GhostOpacity)
	}
	if o.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", o.Timeout)
	}
	return nil
}

func (o Options) logger() *logrus.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

// Result is the outcome for one source file.
type Result struct {
	Source SourceImage `json:"source"`

	// Outputs lists the files written, icon first.
	Outputs []string `json:"outputs,omitempty"`

	// Err is set when the image failed. Error carries its text for JSON.
	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`

	// Skipped is set when the image was not attempted; Reason says why.
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`

	Duration time.Duration `json:"duration_ns"`

	stage string
}

// Failed reports whether the image was attempted and failed.
func (r Result) Failed() bool { return r.Err != nil && !r.Skipped }

func (r *Result) fail(stage string, err error) {
	r.stage = stage
	r.Err = err
	r.Error = err.Error()
}

func (r *Result) skip(reason string) {
	r.Skipped = true
	r.Reason = reason
}

// Summary describes a whole ProcessDirectory run.
type Summary struct {
	RunID       string        `json:"run_id"`
	Source      string        `json:"source"`
	Destination string        `json:"destination"`
	Processed   int           `json:"processed"`
	Failed      int           `json:"failed"`
	Skipped     int           `json:"skipped"`
	Results     []Result      `json:"results"`
	Elapsed     time.Duration `json:"elapsed_ns"`
}

// Err returns nil when every attempted image succeeded, otherwise an error
// naming the first failed file.
func (s *Summary) Err() error {
	for _, r := range s.Results {
		if r.Failed() {
			return fmt.Errorf("%d of %d images failed, first: %w",
				s.Failed, s.Processed+s.Failed, r.Err)
		}
	}
	return nil
}

func (s *Summary) add(r Result) {
	switch {
	case r.Skipped:
		s.Skipped++
	case r.Err != nil:
		s.Failed++
	default:
		s.Processed++
	}
	s.Results = append(s.Results, r)
}

// ProcessFile converts one source image and writes its icon into dst, which
// must already exist.
func ProcessFile(ctx context.Context, src SourceImage, dst string, opts Options) Result {
	log := opts.logger().WithField("run_id", ksuid.New().String())
	return processFile(ctx, log, src, dst, opts)
}

func processFile(ctx context.Context, log *logrus.Entry, src SourceImage, dst string, opts Options) Result {
	log = log.WithField("file", src.Name)
	start := time.Now()

	var r Result
	if opts.Timeout <= 0 {
		r = convert(ctx, log, src, dst, opts)
	} else {
		tctx, cancel := context.WithTimeout(ctx, opts.Timeout)
		defer cancel()

		done := make(chan Result, 1)
		go func() { done <- convert(tctx, log, src, dst, opts) }()

		select {
		case r = <-done:
		case <-tctx.Done():
			r = Result{Source: src}
			r.interrupt(src, "timeout", tctx.Err())
		}
	}

	r.Duration = time.Since(start)
	entry := log.WithField("elapsed", r.Duration.Round(time.Millisecond))
	switch {
	case r.Skipped:
		entry.WithField("reason", r.Reason).Info("Skipped image")
	case r.Err != nil:
		entry.WithField("stage", r.stage).WithError(r.Err).Warn("Failed to convert image")
	default:
		entry.WithField("output", r.Outputs[0]).Info("Converted image")
	}
	return r
}

// convert runs Load, Transform and the writes for one image. ctx is checked
// between stages; a stage already running is not interrupted.
func convert(ctx context.Context, log *logrus.Entry, src SourceImage, dst string, opts Options) Result {
	r := Result{Source: src}
	if err := ctx.Err(); err != nil {
		r.interrupt(src, "load", err)
		return r
	}

	w, err := imaging.Load(src.Path, opts.Image)
	if err != nil {
		r.fail("load", err)
		return r
	}

	if log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		if sample, err := imaging.SampleSeed(w.Pix, opts.Image.Seed); err == nil {
			log.WithFields(logrus.Fields{
				"stage": "sample",
				"seed":  fmt.Sprintf("%d,%d", sample.X, sample.Y),
				"color": sample.Hex,
				"alpha": sample.RGBA.A,
			}).Debug("Background seed color")
		}
	}

	if err := w.Transform(opts.Image); err != nil {
		r.fail("transform", fmt.Errorf("%s: %w", src.Path, err))
		return r
	}
	if err := ctx.Err(); err != nil {
		r.interrupt(src, "write", err)
		return r
	}

	out := filepath.Join(dst, OutputName(src.Name))
	if err := WritePNG(out, w.Pix); err != nil {
		r.fail("write", err)
		return r
	}
	r.Outputs = append(r.Outputs, out)

	if opts.Ghost {
		ghost := filepath.Join(dst, GhostName(src.Name, opts.GhostOpacity))
		if err := WritePNG(ghost, imaging.Ghost(w.Pix, opts.GhostOpacity)); err != nil {
			r.fail("ghost", err)
			return r
		}
		r.Outputs = append(r.Outputs, ghost)
	}
	return r
}

// interrupt records a context error: cancellation skips the image, an
// expired deadline fails it with ErrTimeout.
func (r *Result) interrupt(src SourceImage, stage string, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		r.fail(stage, fmt.Errorf("%s: %w", src.Path, ErrTimeout))
		return
	}
	r.skip("run cancelled")
}

// shadowedResult is the skipped Result of a source whose icon name belongs
// to the later source by.
func shadowedResult(log *logrus.Entry, s SourceImage, by string) Result {
	r := Result{Source: s}
	r.skip(fmt.Sprintf("output %s is produced by %s", OutputName(s.Name), by))
	log.WithFields(logrus.Fields{"file": s.Name, "reason": r.Reason}).Warn("Skipped image")
	return r
}

// sourceOptions turns off the ghost copy for a source listed in ghostless.
func sourceOptions(log *logrus.Entry, s SourceImage, opts Options, ghostless map[SourceImage]string) Options {
	owner, clash := ghostless[s]
	if !clash {
		return opts
	}
	log.WithFields(logrus.Fields{
		"file":  s.Name,
		"ghost": GhostName(s.Name, opts.GhostOpacity),
		"owner": owner,
	}).Warn("Ghost copy skipped, name is another image's icon")
	opts.Ghost = false
	return opts
}

// ProcessDirectory converts every file in src into an icon in dst.
//
// An empty dst means DefaultDestination. The source is listed before anything
// is created, so a missing source returns *PathNotFoundError with nothing
// written. dst is created once, then images are processed by a bounded pool.
//
// Failed images are logged and counted in the Summary; use Summary.Err to
// turn them into an error. With opts.FailFast the first failure cancels the
// remaining images and is returned alongside the partial Summary.
func ProcessDirectory(ctx context.Context, src, dst string, opts Options) (*Summary, error) {
	start := time.Now()
	if dst == "" {
		dst = DefaultDestination
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	sources, err := Enumerate(src)
	if err != nil {
		return nil, err
	}
	if err := EnsureDir(dst); err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:       ksuid.New().String(),
		Source:      src,
		Destination: dst,
	}
	log := opts.logger().WithField("run_id", summary.RunID)
	log.WithFields(logrus.Fields{
		"source":      src,
		"destination": dst,
		"files":       len(sources),
		"workers":     opts.workers(),
	}).Info("Starting run")

	kept, shadowed, ghostless := resolveCollisions(sources, opts)
	for s, by := range shadowed {
		summary.add(shadowedResult(log, s, by))
	}

	results := make([]Result, len(kept))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for i, s := range kept {
		fileOpts := sourceOptions(log, s, opts, ghostless)
		g.Go(func() error {
			results[i] = processFile(gctx, log, s, dst, fileOpts)
			if opts.FailFast && results[i].Failed() {
				return results[i].Err
			}
			return nil
		})
	}
	runErr := g.Wait()

	for _, r := range results {
		summary.add(r)
	}
	sort.SliceStable(summary.Results, func(i, j int) bool {
		return summary.Results[i].Source.Name < summary.Results[j].Source.Name
	})
	summary.Elapsed = time.Since(start)

	log.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
		"elapsed":   summary.Elapsed.Round(time.Millisecond),
	}).Info("Run complete")

	if runErr != nil {
		return summary, runErr
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}
