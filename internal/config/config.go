// Package config loads coinprep settings from a YAML file, the environment
// and defaults, and converts them into the options used by the pipeline.
package config

import (
	"fmt"
	"image"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/anwilli5/coinprep/internal/imaging"
	"github.com/anwilli5/coinprep/internal/pipeline"
)

// Environment variables that override the file.
const (
	EnvLogLevel    = "COINPREP_LOG_LEVEL"
	EnvDestination = "COINPREP_DESTINATION"
)

// Config represents the application configuration
type Config struct {
	Source      string      `yaml:"source"`
	Destination string      `yaml:"destination"`
	Image       ImageConfig `yaml:"image"`
	Run         RunConfig   `yaml:"run"`
	Log         LogConfig   `yaml:"log"`
}

// ImageConfig holds the per-image transform settings.
type ImageConfig struct {
	Seed         [2]int  `yaml:"seed"`
	Threshold    float64 `yaml:"threshold"`
	Metric       string  `yaml:"metric"`
	Connectivity int     `yaml:"connectivity"`
	Size         [2]int  `yaml:"size"`
	Filter       string  `yaml:"filter"`
	AutoOrient   bool    `yaml:"auto_orient"`
}

// RunConfig holds the batch settings.
type RunConfig struct {
	Workers      int           `yaml:"workers"`
	FailFast     bool          `yaml:"fail_fast"`
	Ghost        bool          `yaml:"ghost"`
	GhostOpacity float64       `yaml:"ghost_opacity"`
	Timeout      time.Duration `yaml:"timeout"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // auto, text or json
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Source:      pipeline.DefaultSource,
		Destination: pipeline.DefaultDestination,
		Image: ImageConfig{
			Seed:         [2]int{imaging.DefaultSeed.X, imaging.DefaultSeed.Y},
			Threshold:    imaging.DefaultThreshold,
			Metric:       imaging.MetricRGB.String(),
			Connectivity: imaging.DefaultConnectivity,
			Size:         [2]int{imaging.DefaultSize.X, imaging.DefaultSize.Y},
			Filter:       imaging.DefaultFilter,
		},
		Run: RunConfig{
			Workers:      runtime.NumCPU(),
			GhostOpacity: pipeline.DefaultGhostOpacity,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads and parses the configuration file. Keys missing from the file
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides settings from the environment. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(getenv(EnvDestination)); v != "" {
		c.Destination = v
	}
}

// Validate checks that every setting is usable
func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("source is required")
	}
	if c.Destination == "" {
		return fmt.Errorf("destination is required")
	}

	if _, err := c.ImageOptions(); err != nil {
		return fmt.Errorf("image: %w", err)
	}

	if c.Run.Workers < 0 {
		return fmt.Errorf("run.workers must not be negative, got %d", c.Run.Workers)
	}
	if c.Run.GhostOpacity <= 0 || c.Run.GhostOpacity > 1 {
		return fmt.Errorf("run.ghost_opacity %g outside range (0, 1]", c.Run.GhostOpacity)
	}
	if c.Run.Timeout < 0 {
		return fmt.Errorf("run.timeout must not be negative, got %s", c.Run.Timeout)
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("log.format must be auto, text or json, got %q", c.Log.Format)
	}
	return nil
}

// ImageOptions converts the image section into transform options.
func (c *Config) ImageOptions() (imaging.Options, error) {
	metric, err := imaging.ParseMetric(c.Image.Metric)
	if err != nil {
		return imaging.Options{}, err
	}
	opts := imaging.Options{
		Seed:         image.Pt(c.Image.Seed[0], c.Image.Seed[1]),
		Threshold:    c.Image.Threshold,
		Metric:       metric,
		Connectivity: c.Image.Connectivity,
		Size:         image.Pt(c.Image.Size[0], c.Image.Size[1]),
		Filter:       c.Image.Filter,
		AutoOrient:   c.Image.AutoOrient,
	}
	if err := opts.Validate(); err != nil {
		return imaging.Options{}, err
	}
	return opts, nil
}

// PipelineOptions converts the configuration into batch options that log
// to logger.
func (c *Config) PipelineOptions(logger *logrus.Logger) (pipeline.Options, error) {
	img, err := c.ImageOptions()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Image:        img,
		Workers:      c.Run.Workers,
		FailFast:     c.Run.FailFast,
		Ghost:        c.Run.Ghost,
		GhostOpacity: c.Run.GhostOpacity,
		Timeout:      c.Run.Timeout,
		Logger:       logger,
	}, nil
}
