// Package tracker turns a bib number or runner name into a complete Runner
// snapshot: it validates the query, fetches the checkpoints from the
// configured source and derives the live figures on the course.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/02loveslollipop/marathon-tracker/internal/apperr"
	"github.com/02loveslollipop/marathon-tracker/internal/course"
	"github.com/02loveslollipop/marathon-tracker/internal/derive"
	"github.com/02loveslollipop/marathon-tracker/internal/extract"
	"github.com/02loveslollipop/marathon-tracker/internal/logger"
	"github.com/02loveslollipop/marathon-tracker/internal/models"
)

// MaxQueryLength bounds a query in runes.
const MaxQueryLength = 64

var (
	errEmptyQuery   = errors.New("query is empty")
	errLongQuery    = fmt.Errorf("query is longer than %d characters", MaxQueryLength)
	errControlQuery = errors.New("query contains control characters")
)

// Tracker looks runners up against one source and one course.
type Tracker struct {
	course course.Course
	source extract.Source
	logger *logrus.Logger
}

// Result is the outcome of one query of a LookupMany batch.
type Result struct {
	Query  string
	Runner *models.Runner
	Err    error
}

// New builds a Tracker. The source is fixed for the Tracker's lifetime.
func New(c course.Course, source extract.Source, logger *logrus.Logger) *Tracker {
	return &Tracker{
		course: c,
		source: source,
		logger: logger,
	}
}

// Course returns the course positions are interpolated on.
func (t *Tracker) Course() course.Course {
	return t.course
}

// SourceName names the configured source.
func (t *Tracker) SourceName() string {
	return t.source.Name()
}

// ValidateQuery trims raw and rejects queries that cannot name a runner.
func ValidateQuery(raw string) (string, error) {
	q := strings.TrimSpace(raw)
	switch {
	case q == "":
		return "", apperr.Malformed(errEmptyQuery)
	case utf8.RuneCountInString(q) > MaxQueryLength:
		return "", apperr.Malformed(errLongQuery)
	case strings.IndexFunc(q, unicode.IsControl) >= 0:
		return "", apperr.Malformed(errControlQuery)
	}
	return q, nil
}

// Lookup resolves a single query into a Runner.
func (t *Tracker) Lookup(ctx context.Context, raw string) (*models.Runner, error) {
	start := time.Now()
	entry := logger.WithLookup(t.logger, t.source.Name(), raw)

	runner, err := t.lookup(ctx, raw)
	entry = entry.WithField("latency", time.Since(start))
	if err != nil {
		entry.WithError(err).WithField("kind", apperr.KindOf(err).String()).Warn("Runner lookup failed")
		return nil, err
	}

	entry.WithFields(logrus.Fields{
		"bib":        runner.BibNumber,
		"checkpoint": runner.CurrentCheckpoint,
	}).Info("Runner lookup completed")
	return runner, nil
}

func (t *Tracker) lookup(ctx context.Context, raw string) (*models.Runner, error) {
	query, err := ValidateQuery(raw)
	if err != nil {
		return nil, err
	}
	if !extract.IsBibNumber(query) && !searchesByName(t.source) {
		return nil, apperr.NameSearchDisabled()
	}

	ex, err := t.source.FetchCheckpoints(ctx, query)
	if err != nil {
		return nil, err
	}
	return Assemble(t.course, ex, query)
}

func searchesByName(source extract.Source) bool {
	ns, ok := source.(extract.NameSearcher)
	return ok && ns.SearchesByName()
}

// LookupMany looks every query up concurrently. Lookups are independent: one
// failing does not affect the others. Results keep the order of queries.
func (t *Tracker) LookupMany(ctx context.Context, queries []string) []Result {
	results := make([]Result, len(queries))

	// A plain group: failures are kept per result and never cancel siblings.
	var g errgroup.Group
	for i, q := range queries {
		g.Go(func() error {
			runner, err := t.Lookup(ctx, q)
			results[i] = Result{Query: q, Runner: runner, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Assemble builds the Runner record from an extraction. The checkpoints must
// already be in race order: result pages list them that way and the player
// API decoder sorts them by distance. Values supplied by the source take
// precedence over values derived from the checkpoints.
func Assemble(c course.Course, ex *models.Extraction, query string) (*models.Runner, error) {
	checkpoints := append([]models.Checkpoint(nil), ex.Checkpoints...)
	snap := derive.Derive(c, checkpoints)
	if !snap.HasPassed {
		return nil, apperr.NoRecords()
	}

	var position *course.Position
	switch {
	case ex.Position != nil:
		p := *ex.Position
		position = &p
	case snap.PositionOk:
		p := snap.Position
		position = &p
	default:
		return nil, apperr.PositionUnknown(fmt.Errorf("last passed distance %q", snap.LastPassed.Distance))
	}

	bib := ex.BibNumber
	if bib == "" {
		bib = query
	}

	runner := &models.Runner{
		BibNumber:         bib,
		Name:              ex.Name,
		Category:          ex.Category,
		Checkpoints:       checkpoints,
		CurrentCheckpoint: snap.CurrentName,
		CurrentPosition:   position,
		TotalDistance:     ex.TotalDistance,
		ElapsedTime:       snap.LastPassed.Time,
		Pace:              ex.Pace,
		EstimatedFinish:   ex.EstimatedFinish,
	}
	if runner.Name == "" {
		runner.Name = models.NamePlaceholder(bib)
	}
	if runner.Category == "" {
		runner.Category = models.DefaultCategory
	}
	if runner.TotalDistance == "" {
		runner.TotalDistance = snap.LastPassed.Distance
	}
	if runner.ElapsedTime == "" {
		runner.ElapsedTime = models.NoElapsedRecord
	}
	if runner.Pace == "" && snap.PaceOk {
		runner.Pace = snap.Pace
	}
	if runner.EstimatedFinish == "" {
		runner.EstimatedFinish = derive.EstimatedFinish(checkpoints, runner.Pace)
	}
	if runner.Pace == "" {
		runner.Pace = models.Calculating
	}
	if snap.ProgressOk {
		progress := snap.Progress
		runner.ProgressPercentage = &progress
	}
	return runner, nil
}
