package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/anwilli5/coinprep/internal/config"
	"github.com/anwilli5/coinprep/internal/pipeline"
	"github.com/anwilli5/coinprep/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	serve := false
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Fprintf(stdout, "coinprep %s\n", Version)
			fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
			return exitOK
		case "--help", "-h", "help":
			printUsage(stdout, newFlagSet(stdout, &cliFlags{}))
			return exitOK
		case "serve":
			serve = true
			args = args[1:]
		}
	}

	var f cliFlags
	fs := newFlagSet(stderr, &f)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := loadConfig(fs, &f, getenv)
	if err != nil {
		fmt.Fprintf(stderr, "coinprep: %v\n", err)
		return exitUsage
	}

	logger := initLogger(cfg.Log, stderr)
	logger.WithFields(logrus.Fields{
		"version": Version,
		"commit":  GitCommit,
	}).Debug("Starting coinprep")

	if serve {
		if fs.NArg() > 0 {
			fmt.Fprintln(stderr, "coinprep: serve takes no arguments")
			return exitUsage
		}
		server.Version = Version
		if err := server.New(cfg, logger).Run(ctx); err != nil {
			logger.WithError(err).Error("Server error")
			return exitFailure
		}
		return exitOK
	}

	src, dst, err := resolvePaths(fs.Args(), &f, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "coinprep: %v\n", err)
		printUsage(stderr, fs)
		return exitUsage
	}

	opts, err := cfg.PipelineOptions(logger)
	if err != nil {
		fmt.Fprintf(stderr, "coinprep: %v\n", err)
		return exitUsage
	}

	if f.watch {
		var failed int
		err := pipeline.Watch(ctx, src, dst, opts, func(r pipeline.Result) {
			if r.Failed() {
				failed++
			}
		})
		if err != nil {
			logger.WithError(err).Error("Watch failed")
			return exitFailure
		}
		if failed > 0 {
			return exitFailure
		}
		return exitOK
	}

	summary, err := pipeline.ProcessDirectory(ctx, src, dst, opts)
	if summary != nil && f.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(summary); encErr != nil {
			logger.WithError(encErr).Error("Failed to write summary")
		}
	}
	if err != nil {
		var pnf *pipeline.PathNotFoundError
		if errors.As(err, &pnf) {
			fmt.Fprintf(stderr, "coinprep: %v\n", err)
		} else {
			logger.WithError(err).Error("Run aborted")
		}
		return exitFailure
	}
	if err := summary.Err(); err != nil {
		logger.WithError(err).Error("Some images failed")
		return exitFailure
	}
	return exitOK
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "coinprep - turn coin photos into 92x92 transparent PNG icons")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  coinprep [flags] [src_dir] [dst_dir]   convert every image in src_dir")
	fmt.Fprintln(w, "  coinprep -watch [flags] [src_dir] [dst_dir]")
	fmt.Fprintln(w, "  coinprep serve [flags]                 MCP server on stdin/stdout")
	fmt.Fprintln(w, "  coinprep version | help")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Defaults: src_dir %s, dst_dir %s\n", pipeline.DefaultSource, pipeline.DefaultDestination)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintf(w, "  %s=debug    Set the log level\n", config.EnvLogLevel)
	fmt.Fprintf(w, "  %s=dir    Set the destination directory\n", config.EnvDestination)
}

// initLogger builds the process logger. Logs go to w (stderr), leaving
// stdout for the summary and the MCP protocol.
func initLogger(cfg config.LogConfig, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	text := cfg.Format == "text"
	if cfg.Format == "auto" {
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			text = true
		}
	}
	if text {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
