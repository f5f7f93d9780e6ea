// Package derive computes the live race figures of a runner from the ordered
// list of timing mats they have crossed.
package derive

import (
	"github.com/samber/lo"

	"github.com/02loveslollipop/marathon-tracker/internal/course"
	"github.com/02loveslollipop/marathon-tracker/internal/models"
	"github.com/02loveslollipop/marathon-tracker/internal/parse"
)

// Snapshot collects every derived figure of a runner. Fields whose Ok flag is
// false could not be computed from the checkpoints alone.
type Snapshot struct {
	LastPassed  models.Checkpoint
	HasPassed   bool
	CurrentName string
	Progress    float64
	ProgressOk  bool
	Pace        string
	PaceOk      bool
	Finish      string
	Position    course.Position
	PositionOk  bool
}

// timedCheckpoint is a passed checkpoint whose distance and time both parse.
type timedCheckpoint struct {
	km      float64
	minutes float64
}

// LastPassed returns the furthest passed checkpoint of an ordered list.
func LastPassed(cps []models.Checkpoint) (models.Checkpoint, bool) {
	cp, _, ok := lo.FindLastIndexOf(cps, func(cp models.Checkpoint) bool {
		return cp.Passed
	})
	return cp, ok
}

// CurrentCheckpoint is the name of the furthest passed checkpoint, or "".
func CurrentCheckpoint(cps []models.Checkpoint) string {
	cp, ok := LastPassed(cps)
	if !ok {
		return ""
	}
	return cp.Name
}

// ProgressPercentage is the share of checkpoints passed, in percent.
func ProgressPercentage(cps []models.Checkpoint) (float64, bool) {
	if len(cps) == 0 {
		return 0, false
	}
	passed := lo.CountBy(cps, func(cp models.Checkpoint) bool {
		return cp.Passed
	})
	return float64(passed) / float64(len(cps)) * 100, true
}

func timedCheckpoints(cps []models.Checkpoint) []timedCheckpoint {
	return lo.FilterMap(cps, func(cp models.Checkpoint, _ int) (timedCheckpoint, bool) {
		if !cp.Passed {
			return timedCheckpoint{}, false
		}
		km, ok := parse.DistanceKm(cp.Distance)
		if !ok {
			return timedCheckpoint{}, false
		}
		minutes, ok := parse.ClockMinutes(cp.Time)
		if !ok {
			return timedCheckpoint{}, false
		}
		return timedCheckpoint{km: km, minutes: minutes}, true
	})
}

// Pace is the speed between the two furthest passed checkpoints that carry
// both a distance and a time, formatted as M'SS"/km.
func Pace(cps []models.Checkpoint) (string, bool) {
	timed := timedCheckpoints(cps)
	if len(timed) < 2 {
		return "", false
	}
	prev, last := timed[len(timed)-2], timed[len(timed)-1]

	distDiff := last.km - prev.km
	timeDiff := last.minutes - prev.minutes
	if distDiff <= 0 || timeDiff <= 0 {
		return "", false
	}
	return parse.FormatPace(timeDiff / distDiff), true
}

// EstimatedFinish projects the finish clock from the last passed checkpoint
// at the given pace. The pace is read back from its formatted form, so the
// result carries whole minutes only. Calculating is returned whenever the
// projection is not possible.
func EstimatedFinish(cps []models.Checkpoint, pace string) string {
	paceMinutes, ok := parse.PaceMinutes(pace)
	if !ok {
		return models.Calculating
	}
	last, ok := LastPassed(cps)
	if !ok {
		return models.Calculating
	}
	lastKm, ok := parse.DistanceKm(last.Distance)
	if !ok || lastKm >= course.FullMarathonKm {
		return models.Calculating
	}
	lastMinutes, ok := parse.ClockMinutes(last.Time)
	if !ok {
		return models.Calculating
	}

	total := lastMinutes + (course.FullMarathonKm-lastKm)*paceMinutes
	return parse.FormatFinishClock(total)
}

// Position places the runner on the course at the last passed distance.
func Position(c course.Course, cps []models.Checkpoint) (course.Position, bool) {
	last, ok := LastPassed(cps)
	if !ok {
		return course.Position{}, false
	}
	km, ok := parse.DistanceKm(last.Distance)
	if !ok {
		return course.Position{}, false
	}
	return c.Interpolate(km), true
}

// Derive computes every figure for checkpoints already in course order.
func Derive(c course.Course, cps []models.Checkpoint) Snapshot {
	var s Snapshot
	s.LastPassed, s.HasPassed = LastPassed(cps)
	s.CurrentName = s.LastPassed.Name
	s.Progress, s.ProgressOk = ProgressPercentage(cps)
	s.Pace, s.PaceOk = Pace(cps)
	s.Finish = EstimatedFinish(cps, s.Pace)
	s.Position, s.PositionOk = Position(c, cps)
	return s
}
