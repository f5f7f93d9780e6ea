package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"

	pipeline "github.com/02loveslollipop/marathon-tracker/internal/config"
)

const (
	DefaultInterval  = 30 * time.Second
	DefaultHeartbeat = 5 * time.Minute
)

// Options are the command-line settings of the watcher, already merged with
// their environment variables.
type Options struct {
	Interval  time.Duration
	Heartbeat time.Duration
	Once      bool
	LogLevel  string
}

// Config holds runtime configuration for the watcher service.
type Config struct {
	pipeline.Pipeline

	Interval  time.Duration
	Heartbeat time.Duration
	Once      bool
}

// Load combines the pipeline settings found in v with the command options.
func Load(v *viper.Viper, opts Options) (Config, error) {
	pipeline.SetPipelineDefaults(v)

	cfg := Config{
		Interval:  opts.Interval,
		Heartbeat: opts.Heartbeat,
		Once:      opts.Once,
	}

	p, err := pipeline.LoadPipeline(v)
	if err != nil {
		return cfg, err
	}
	if opts.LogLevel != "" {
		p.LogLevel = opts.LogLevel
	}
	cfg.Pipeline = p

	if cfg.Interval <= 0 {
		return cfg, errors.New("invalid WATCH_INTERVAL: must be positive")
	}
	if cfg.Heartbeat < 0 {
		return cfg, errors.New("invalid WATCH_HEARTBEAT: must not be negative")
	}

	return cfg, nil
}
