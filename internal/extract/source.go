package extract

import (
	"context"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/02loveslollipop/marathon-tracker/internal/models"
)

// Source produces the checkpoint history for a bib number or runner name.
type Source interface {
	Name() string
	FetchCheckpoints(ctx context.Context, query string) (*models.Extraction, error)
}

// NameSearcher is implemented by sources that resolve runner names as well
// as bib numbers.
type NameSearcher interface {
	SearchesByName() bool
}

const (
	RenderBrowser = "browser"
	RenderHTTP    = "http"
)

// Config selects and tunes the result source.
type Config struct {
	APIBase        string
	EventID        string
	ResultPageBase string
	RenderMode     string
	ChromiumPath   string
	RequestTimeout time.Duration
	TableWait      time.Duration
	BreakerTimeout time.Duration
}

// NewSource picks the upstream JSON API when it is configured and falls back
// to scraping the per-bib result page otherwise.
func NewSource(cfg Config, logger *logrus.Logger) Source {
	if cfg.APIBase != "" {
		breaker := NewBreaker("upstream-api", cfg.BreakerTimeout, logger)
		client := &http.Client{Timeout: cfg.RequestTimeout}
		return NewUpstreamSource(cfg.APIBase, cfg.EventID, client, breaker, logger)
	}

	var renderer Renderer
	if cfg.RenderMode == RenderHTTP {
		renderer = NewHTTPRenderer(cfg.RequestTimeout)
	} else {
		renderer = NewBrowserRenderer(cfg.ChromiumPath, cfg.TableWait)
	}
	breaker := NewBreaker("result-page", cfg.BreakerTimeout, logger)
	return NewHTMLSource(cfg.ResultPageBase, cfg.EventID, cfg.RequestTimeout, renderer, breaker, logger)
}

// IsBibNumber reports whether q is made of digits only.
func IsBibNumber(q string) bool {
	if q == "" {
		return false
	}
	for _, r := range q {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
