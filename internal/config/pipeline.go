// Package config holds the settings shared by every binary that runs the
// lookup pipeline: where checkpoints come from, which course positions are
// placed on, and how logs are written.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/02loveslollipop/marathon-tracker/internal/course"
	"github.com/02loveslollipop/marathon-tracker/internal/extract"
)

const (
	defaultEventID        = "133"
	defaultResultPageBase = "https://myresult.co.kr"
	defaultRequestTimeout = 30 * time.Second
	defaultTableWait      = 10 * time.Second
	defaultBreakerTimeout = 30 * time.Second
)

// Pipeline configures the result source, the course and logging.
type Pipeline struct {
	Env            string
	LogLevel       string
	LogFormat      string
	APIBase        string
	EventID        string
	ResultPageBase string
	RenderMode     string
	ChromiumPath   string
	RequestTimeout time.Duration
	TableWait      time.Duration
	BreakerTimeout time.Duration
	CourseFile     string
}

// SetPipelineDefaults registers the defaults of every pipeline key.
func SetPipelineDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("MARATHON_EVENT_ID", defaultEventID)
	v.SetDefault("RESULT_PAGE_BASE", defaultResultPageBase)
	v.SetDefault("RENDER_MODE", extract.RenderBrowser)
	v.SetDefault("REQUEST_TIMEOUT", defaultRequestTimeout.String())
	v.SetDefault("TABLE_WAIT_TIMEOUT", defaultTableWait.String())
	v.SetDefault("CIRCUIT_BREAKER_TIMEOUT", defaultBreakerTimeout.String())
}

// LoadPipeline reads and validates the pipeline keys from v.
func LoadPipeline(v *viper.Viper) (Pipeline, error) {
	cfg := Pipeline{
		Env:            strings.TrimSpace(v.GetString("ENV")),
		LogLevel:       strings.TrimSpace(v.GetString("LOG_LEVEL")),
		LogFormat:      strings.TrimSpace(v.GetString("LOG_FORMAT")),
		APIBase:        strings.TrimSpace(v.GetString("MARATHON_API_BASE")),
		EventID:        strings.TrimSpace(v.GetString("MARATHON_EVENT_ID")),
		ResultPageBase: strings.TrimSpace(v.GetString("RESULT_PAGE_BASE")),
		RenderMode:     strings.ToLower(strings.TrimSpace(v.GetString("RENDER_MODE"))),
		ChromiumPath:   strings.TrimSpace(v.GetString("CHROMIUM_PATH")),
		CourseFile:     strings.TrimSpace(v.GetString("COURSE_FILE")),
	}

	if cfg.EventID == "" {
		return cfg, errors.New("MARATHON_EVENT_ID is required")
	}
	if cfg.APIBase == "" && cfg.ResultPageBase == "" {
		return cfg, errors.New("one of MARATHON_API_BASE or RESULT_PAGE_BASE is required")
	}
	if cfg.RenderMode != extract.RenderBrowser && cfg.RenderMode != extract.RenderHTTP {
		return cfg, fmt.Errorf("invalid RENDER_MODE: %s", cfg.RenderMode)
	}

	var err error
	if cfg.RequestTimeout, err = Duration(v, "REQUEST_TIMEOUT"); err != nil {
		return cfg, err
	}
	if cfg.TableWait, err = Duration(v, "TABLE_WAIT_TIMEOUT"); err != nil {
		return cfg, err
	}
	if cfg.BreakerTimeout, err = Duration(v, "CIRCUIT_BREAKER_TIMEOUT"); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration reads key as a positive Go duration string.
func Duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %s", key, raw)
	}
	return d, nil
}

// IsDevelopment reports whether logs should be human readable.
func (p Pipeline) IsDevelopment() bool {
	return p.Env == "" || strings.EqualFold(p.Env, "development")
}

// SourceConfig selects the result source for extract.NewSource.
func (p Pipeline) SourceConfig() extract.Config {
	return extract.Config{
		APIBase:        p.APIBase,
		EventID:        p.EventID,
		ResultPageBase: p.ResultPageBase,
		RenderMode:     p.RenderMode,
		ChromiumPath:   p.ChromiumPath,
		RequestTimeout: p.RequestTimeout,
		TableWait:      p.TableWait,
		BreakerTimeout: p.BreakerTimeout,
	}
}

// Course returns the course from COURSE_FILE, or the built-in Seoul course.
func (p Pipeline) Course() (course.Course, error) {
	if p.CourseFile == "" {
		return course.Seoul(), nil
	}
	return course.Load(p.CourseFile)
}
