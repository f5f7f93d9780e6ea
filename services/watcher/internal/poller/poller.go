// Package poller re-runs runner lookups on a fixed interval and logs every
// runner that moved since the last report.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/02loveslollipop/marathon-tracker/internal/apperr"
	"github.com/02loveslollipop/marathon-tracker/internal/models"
	"github.com/02loveslollipop/marathon-tracker/internal/tracker"
	"github.com/02loveslollipop/marathon-tracker/services/watcher/internal/progress"
)

// ErrAllFailed is returned by RunOnce when no query could be resolved.
var ErrAllFailed = errors.New("every runner lookup failed")

// Lookuper is the lookup pipeline polled by the watcher.
type Lookuper interface {
	Lookup(ctx context.Context, query string) (*models.Runner, error)
	LookupMany(ctx context.Context, queries []string) []tracker.Result
}

// Poller schedules one independent job per query.
type Poller struct {
	tracker   Lookuper
	queries   []string
	interval  time.Duration
	heartbeat time.Duration
	logger    *logrus.Logger
	cron      *cron.Cron
	now       func() time.Time

	mu   sync.Mutex
	last map[string]progress.Observation
}

// New builds a poller for queries. Overlapping runs of the same query are
// skipped rather than queued.
func New(tr Lookuper, queries []string, interval, heartbeat time.Duration, logger *logrus.Logger) *Poller {
	cronLogger := cron.VerbosePrintfLogger(logger)
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	return &Poller{
		tracker:   tr,
		queries:   queries,
		interval:  interval,
		heartbeat: heartbeat,
		logger:    logger,
		cron:      c,
		now:       time.Now,
		last:      make(map[string]progress.Observation),
	}
}

// Schedule returns the cron spec used for every query.
func (p *Poller) Schedule() string {
	return fmt.Sprintf("@every %s", p.interval)
}

// Run polls every query once, then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	for _, q := range p.queries {
		query := q
		if _, err := p.cron.AddFunc(p.Schedule(), func() { p.Poll(ctx, query) }); err != nil {
			return fmt.Errorf("schedule %q: %w", query, err)
		}
	}

	p.logger.WithFields(logrus.Fields{
		"component": "poller",
		"queries":   len(p.queries),
		"schedule":  p.Schedule(),
	}).Info("Starting runner poller")

	_ = p.RunOnce(ctx)
	p.cron.Start()

	<-ctx.Done()

	stopCtx := p.cron.Stop()
	select {
	case <-stopCtx.Done():
		p.logger.WithField("component", "poller").Info("Runner poller stopped")
	case <-time.After(5 * time.Second):
		p.logger.WithField("component", "poller").Warn("Runner poller stop timed out")
	}
	return nil
}

// Poll looks a single query up and reports it when it changed.
func (p *Poller) Poll(ctx context.Context, query string) {
	runner, err := p.tracker.Lookup(ctx, query)
	p.record(tracker.Result{Query: query, Runner: runner, Err: err})
}

// RunOnce looks every query up concurrently. It fails only when every
// lookup failed.
func (p *Poller) RunOnce(ctx context.Context) error {
	results := p.tracker.LookupMany(ctx, p.queries)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
		p.record(r)
	}

	if len(results) > 0 && failed == len(results) {
		return ErrAllFailed
	}
	return nil
}

func (p *Poller) record(r tracker.Result) {
	entry := p.logger.WithFields(logrus.Fields{
		"component": "poller",
		"query":     r.Query,
	})
	if r.Err != nil {
		entry.WithError(r.Err).WithField("kind", apperr.KindOf(r.Err).String()).Warn("Poll failed, retrying on next tick")
		return
	}

	obs := progress.FromRunner(r.Query, r.Runner, p.now())

	p.mu.Lock()
	reportable := progress.FilterReportable([]progress.Observation{obs}, p.last, p.heartbeat)
	if len(reportable) > 0 {
		p.last[r.Query] = obs
	}
	p.mu.Unlock()

	if len(reportable) == 0 {
		entry.Debug("Runner unchanged")
		return
	}

	entry.WithFields(logrus.Fields{
		"bib":        obs.Bib,
		"name":       obs.Name,
		"checkpoint": obs.Checkpoint,
		"elapsed":    obs.Elapsed,
		"pace":       obs.Pace,
		"finish":     obs.Finish,
		"progress":   progress.ProgressString(obs.Progress),
	}).Info("Runner position")
}

// Last returns the last reported observation of query.
func (p *Poller) Last(query string) (progress.Observation, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	obs, ok := p.last[query]
	return obs, ok
}
