package models

import "github.com/02loveslollipop/marathon-tracker/internal/course"

// Placeholders shown to the UI instead of leaving a field empty.
const (
	Calculating     = "계산중"
	NoElapsedRecord = "기록 없음"
	DefaultCategory = "Full"
)

// NamePlaceholder is the display name used when the source has none.
func NamePlaceholder(bib string) string {
	return "러너 #" + bib
}

// Checkpoint is one timing mat as read from the result source.
type Checkpoint struct {
	Name     string `json:"name"`
	Distance string `json:"distance"`
	Time     string `json:"time,omitempty"`
	Passed   bool   `json:"passed"`
}

// Runner is the canonical snapshot returned for a lookup.
type Runner struct {
	BibNumber          string           `json:"bibNumber"`
	Name               string           `json:"name"`
	Category           string           `json:"category,omitempty"`
	Checkpoints        []Checkpoint     `json:"checkpoints"`
	CurrentCheckpoint  string           `json:"currentCheckpoint,omitempty"`
	CurrentPosition    *course.Position `json:"currentPosition,omitempty"`
	TotalDistance      string           `json:"totalDistance,omitempty"`
	ElapsedTime        string           `json:"elapsedTime,omitempty"`
	Pace               string           `json:"pace,omitempty"`
	EstimatedFinish    string           `json:"estimatedFinish,omitempty"`
	ProgressPercentage *float64         `json:"progressPercentage,omitempty"`
}

// Extraction is what a result source yields for a single query. The hint
// fields are only filled when the source supplies them itself.
type Extraction struct {
	BibNumber   string
	Name        string
	Category    string
	Checkpoints []Checkpoint

	Position        *course.Position
	TotalDistance   string
	Pace            string
	EstimatedFinish string
}
