package course

import (
	"errors"
	"fmt"
	"math"
)

// FullMarathonKm is the official marathon distance.
const FullMarathonKm = 42.195

// Position is a point on the map.
type Position struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Checkpoint is a named point on the course with a known km-mark.
type Checkpoint struct {
	Name          string  `json:"name" yaml:"name"`
	DistanceLabel string  `json:"distance" yaml:"distance"`
	DistanceKm    float64 `json:"distanceKm" yaml:"distanceKm"`
	Lat           float64 `json:"lat" yaml:"lat"`
	Lng           float64 `json:"lng" yaml:"lng"`
}

// Position returns the checkpoint coordinates.
func (c Checkpoint) Position() Position {
	return Position{Lat: c.Lat, Lng: c.Lng}
}

// Course is the ordered checkpoint list used for interpolation plus the
// detailed path drawn on the map.
type Course struct {
	Name        string       `json:"name" yaml:"name"`
	Checkpoints []Checkpoint `json:"checkpoints" yaml:"checkpoints"`
	Path        []Position   `json:"path,omitempty" yaml:"path"`
}

// Validate checks the course invariants: strictly increasing km-marks from
// the start line to the finish line.
func (c Course) Validate() error {
	if len(c.Checkpoints) < 2 {
		return errors.New("course needs at least a start and a finish checkpoint")
	}

	first := c.Checkpoints[0]
	if first.DistanceKm != 0 {
		return fmt.Errorf("first checkpoint %q must be at 0km, got %v", first.Name, first.DistanceKm)
	}

	last := c.Checkpoints[len(c.Checkpoints)-1]
	if math.Abs(last.DistanceKm-FullMarathonKm) > 1e-9 {
		return fmt.Errorf("last checkpoint %q must be at %vkm, got %v", last.Name, FullMarathonKm, last.DistanceKm)
	}

	for i := 1; i < len(c.Checkpoints); i++ {
		prev, cur := c.Checkpoints[i-1], c.Checkpoints[i]
		if cur.DistanceKm <= prev.DistanceKm {
			return fmt.Errorf("checkpoint %q (%vkm) does not follow %q (%vkm)", cur.Name, cur.DistanceKm, prev.Name, prev.DistanceKm)
		}
	}
	return nil
}

// Interpolate returns the position on this course at the given distance.
func (c Course) Interpolate(distanceKm float64) Position {
	return Interpolate(c.Checkpoints, distanceKm)
}

// Interpolate linearly places distanceKm between the two checkpoints that
// bracket it. Distances past the last checkpoint clamp to the last checkpoint
// and distances before the first clamp to the first.
func Interpolate(checkpoints []Checkpoint, distanceKm float64) Position {
	if len(checkpoints) == 0 {
		return Position{}
	}
	if distanceKm <= checkpoints[0].DistanceKm {
		return checkpoints[0].Position()
	}

	for i := 0; i < len(checkpoints)-1; i++ {
		current := checkpoints[i]
		next := checkpoints[i+1]
		if distanceKm < current.DistanceKm || distanceKm > next.DistanceKm {
			continue
		}

		segment := next.DistanceKm - current.DistanceKm
		if segment <= 0 {
			return current.Position()
		}

		t := (distanceKm - current.DistanceKm) / segment
		if t >= 1 {
			return next.Position()
		}
		return Position{
			Lat: current.Lat + (next.Lat-current.Lat)*t,
			Lng: current.Lng + (next.Lng-current.Lng)*t,
		}
	}

	return checkpoints[len(checkpoints)-1].Position()
}
