package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/02loveslollipop/marathon-tracker/internal/apperr"
	"github.com/02loveslollipop/marathon-tracker/internal/models"
)

// HTMLSource scrapes the per-bib result page of a single event.
type HTMLSource struct {
	baseURL  string
	eventID  string
	timeout  time.Duration
	renderer Renderer
	breaker  *Breaker
	logger   *logrus.Logger
}

// NewHTMLSource builds a source for pages at {baseURL}/{eventID}/{bib}.
func NewHTMLSource(baseURL, eventID string, timeout time.Duration, renderer Renderer, breaker *Breaker, logger *logrus.Logger) *HTMLSource {
	return &HTMLSource{
		baseURL:  strings.TrimRight(baseURL, "/"),
		eventID:  eventID,
		timeout:  timeout,
		renderer: renderer,
		breaker:  breaker,
		logger:   logger,
	}
}

func (s *HTMLSource) Name() string { return "html" }

// PageURL returns the result page for a bib.
func (s *HTMLSource) PageURL(bib string) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, url.PathEscape(s.eventID), url.PathEscape(bib))
}

// FetchCheckpoints renders the result page of a bib and parses it. Only bib
// numbers can be looked up this way.
func (s *HTMLSource) FetchCheckpoints(ctx context.Context, query string) (*models.Extraction, error) {
	if !IsBibNumber(query) {
		return nil, apperr.NameSearchDisabled()
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	pageURL := s.PageURL(query)
	var page *Page
	err := s.breaker.Do(func() error {
		p, err := s.renderer.Render(ctx, pageURL)
		if err != nil {
			return classifyTransport(err)
		}
		switch {
		case p.Status == http.StatusNotFound:
			return apperr.RunnerNotFound(fmt.Errorf("%s returned %d", pageURL, p.Status))
		case p.Status >= http.StatusBadRequest:
			return apperr.Upstream(&UpstreamError{Status: p.Status, Body: truncate(p.HTML, maxErrorBody)})
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	ex, err := ParseResultPage(page.HTML)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"source": s.Name(),
			"bib":    query,
			"url":    pageURL,
		}).WithError(err).Warn("Failed to parse checkpoint data from result page")
		return nil, err
	}
	ex.BibNumber = query

	s.logger.WithFields(logrus.Fields{
		"source":      s.Name(),
		"bib":         query,
		"checkpoints": len(ex.Checkpoints),
	}).Debug("Parsed result page")
	return ex, nil
}
