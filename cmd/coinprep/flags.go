package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/anwilli5/coinprep/internal/config"
	"github.com/anwilli5/coinprep/internal/imaging"
)

type cliFlags struct {
	configPath string
	out        string
	workers    int
	failFast   bool
	ghost      bool
	threshold  float64
	metric     string
	filter     string
	size       string
	timeout    time.Duration
	autoOrient bool
	logLevel   string
	logFormat  string
	json       bool
	watch      bool
}

func newFlagSet(output io.Writer, f *cliFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("coinprep", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&f.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&f.out, "out", "", "Destination directory (same as the second argument)")
	fs.IntVar(&f.workers, "workers", 0, "Number of images converted concurrently (default: number of CPUs)")
	fs.BoolVar(&f.failFast, "fail-fast", false, "Stop at the first image that fails")
	fs.BoolVar(&f.ghost, "ghost", false, "Also write a faded <name>_25.png copy")
	fs.Float64Var(&f.threshold, "threshold", imaging.DefaultThreshold, "Background color tolerance (0-255 rgb, 0-100 lab)")
	fs.StringVar(&f.metric, "metric", "rgb", "Color comparison: rgb or lab")
	fs.StringVar(&f.filter, "filter", imaging.DefaultFilter, "Resampling filter: "+strings.Join(imaging.FilterNames(), ", "))
	fs.StringVar(&f.size, "size", "92x92", "Icon size as WIDTHxHEIGHT")
	fs.DurationVar(&f.timeout, "timeout", 0, "Per-image time limit, e.g. 30s (0 disables)")
	fs.BoolVar(&f.autoOrient, "auto-orient", false, "Apply the EXIF orientation tag")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "Log format: auto, text or json")
	fs.BoolVar(&f.json, "json", false, "Print the run summary as JSON on stdout")
	fs.BoolVar(&f.watch, "watch", false, "Keep watching the source directory after the first pass")
	return fs
}

// loadConfig merges, in increasing priority, the defaults, the config file,
// the environment and the flags that were set explicitly.
func loadConfig(fs *flag.FlagSet, f *cliFlags, getenv func(string) string) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv(getenv)

	var err error
	fs.Visit(func(fl *flag.Flag) {
		if err != nil {
			return
		}
		switch fl.Name {
		case "out":
			cfg.Destination = f.out
		case "workers":
			cfg.Run.Workers = f.workers
		case "fail-fast":
			cfg.Run.FailFast = f.failFast
		case "ghost":
			cfg.Run.Ghost = f.ghost
		case "threshold":
			cfg.Image.Threshold = f.threshold
		case "metric":
			cfg.Image.Metric = f.metric
		case "filter":
			cfg.Image.Filter = f.filter
		case "size":
			var w, h int
			w, h, err = parseSize(f.size)
			cfg.Image.Size = [2]int{w, h}
		case "timeout":
			cfg.Run.Timeout = f.timeout
		case "auto-orient":
			cfg.Image.AutoOrient = f.autoOrient
		case "log-level":
			cfg.Log.Level = f.logLevel
		case "log-format":
			cfg.Log.Format = f.logFormat
		}
	})
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

// resolvePaths picks the source and destination from the positional
// arguments, the -out flag and the configuration.
func resolvePaths(args []string, f *cliFlags, cfg *config.Config) (src, dst string, err error) {
	if len(args) > 2 {
		return "", "", fmt.Errorf("too many arguments: %s", strings.Join(args, " "))
	}
	src, dst = cfg.Source, cfg.Destination
	if len(args) > 0 {
		src = args[0]
	}
	if len(args) > 1 {
		if f.out != "" && f.out != args[1] {
			return "", "", fmt.Errorf("destination given twice: -out %s and %s", f.out, args[1])
		}
		dst = args[1]
	}
	return src, dst, nil
}

// parseSize parses "WIDTHxHEIGHT", or a single number for a square.
func parseSize(s string) (int, int, error) {
	ws, hs, found := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !found {
		hs = ws
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: want WIDTHxHEIGHT", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: want WIDTHxHEIGHT", s)
	}
	return w, h, nil
}
