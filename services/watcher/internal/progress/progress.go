// Package progress decides which polled runner snapshots are worth
// reporting: a runner is reported when it crosses a new timing mat, and
// otherwise at most once per heartbeat interval.
package progress

import (
	"fmt"
	"time"

	"github.com/02loveslollipop/marathon-tracker/internal/models"
)

// Observation is the part of a Runner the watcher compares between polls.
type Observation struct {
	Query      string
	Bib        string
	Name       string
	Checkpoint string
	Passed     int
	Elapsed    string
	Pace       string
	Finish     string
	Progress   *float64
	TS         time.Time
}

// FromRunner summarizes a runner polled at ts.
func FromRunner(query string, r *models.Runner, ts time.Time) Observation {
	passed := 0
	for _, cp := range r.Checkpoints {
		if cp.Passed {
			passed++
		}
	}
	return Observation{
		Query:      query,
		Bib:        r.BibNumber,
		Name:       r.Name,
		Checkpoint: r.CurrentCheckpoint,
		Passed:     passed,
		Elapsed:    r.ElapsedTime,
		Pace:       r.Pace,
		Finish:     r.EstimatedFinish,
		Progress:   NormalizeProgress(r.ProgressPercentage),
		TS:         ts,
	}
}

// NormalizeProgress copies a percentage and clamps it to [0, 100].
func NormalizeProgress(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	switch {
	case v < 0:
		v = 0
	case v > 100:
		v = 100
	}
	return &v
}

// Advanced reports whether cur shows the runner further along than prev.
func Advanced(prev, cur Observation) bool {
	return cur.Passed != prev.Passed || cur.Checkpoint != prev.Checkpoint || cur.Elapsed != prev.Elapsed
}

// FilterReportable selects the observations that should be reported, given
// the last reported observation per query.
func FilterReportable(candidates []Observation, last map[string]Observation, heartbeat time.Duration) []Observation {
	out := make([]Observation, 0, len(candidates))
	for _, cand := range candidates {
		prev, ok := last[cand.Query]
		if !ok {
			out = append(out, cand)
			continue
		}

		if Advanced(prev, cand) {
			out = append(out, cand)
			continue
		}

		if heartbeat > 0 && cand.TS.Sub(prev.TS) >= heartbeat {
			out = append(out, cand)
		}
	}
	return out
}

// ProgressString prints an optional percentage for logging.
func ProgressString(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *p)
}
