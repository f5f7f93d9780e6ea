package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/02loveslollipop/marathon-tracker/internal/models"
)

func ptr(v float64) *float64 { return &v }

func TestFromRunner(t *testing.T) {
	ts := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	r := &models.Runner{
		BibNumber:         "1234",
		Name:              "홍길동",
		CurrentCheckpoint: "10K",
		ElapsedTime:       "0:50:00",
		Pace:              `5'00"/km`,
		EstimatedFinish:   "03:30:00",
		Checkpoints: []models.Checkpoint{
			{Name: "5K", Passed: true},
			{Name: "10K", Passed: true},
			{Name: "15K"},
		},
		ProgressPercentage: ptr(66.6),
	}

	obs := FromRunner("1234", r, ts)
	assert.Equal(t, "1234", obs.Query)
	assert.Equal(t, "10K", obs.Checkpoint)
	assert.Equal(t, 2, obs.Passed)
	assert.Equal(t, ts, obs.TS)
	require.NotNil(t, obs.Progress)
	assert.InDelta(t, 66.6, *obs.Progress, 1e-9)

	*r.ProgressPercentage = 10
	assert.InDelta(t, 66.6, *obs.Progress, 1e-9, "observation keeps its own copy")
}

func TestNormalizeProgress(t *testing.T) {
	assert.Nil(t, NormalizeProgress(nil))
	assert.Equal(t, 0.0, *NormalizeProgress(ptr(-5)))
	assert.Equal(t, 100.0, *NormalizeProgress(ptr(120)))
	assert.Equal(t, 42.0, *NormalizeProgress(ptr(42)))
}

func TestFilterReportable(t *testing.T) {
	base := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	last := map[string]Observation{
		"1": {Query: "1", Checkpoint: "5K", Passed: 2, Elapsed: "0:25:00", TS: base},
		"2": {Query: "2", Checkpoint: "5K", Passed: 2, Elapsed: "0:25:00", TS: base},
		"3": {Query: "3", Checkpoint: "5K", Passed: 2, Elapsed: "0:25:00", TS: base},
	}
	candidates := []Observation{
		{Query: "1", Checkpoint: "10K", Passed: 3, Elapsed: "0:50:00", TS: base.Add(30 * time.Second)},
		{Query: "2", Checkpoint: "5K", Passed: 2, Elapsed: "0:25:00", TS: base.Add(30 * time.Second)},
		{Query: "3", Checkpoint: "5K", Passed: 2, Elapsed: "0:25:00", TS: base.Add(6 * time.Minute)},
		{Query: "4", Checkpoint: "출발", Passed: 1, Elapsed: "0:00:00", TS: base},
	}

	got := FilterReportable(candidates, last, 5*time.Minute)

	queries := make([]string, len(got))
	for i, o := range got {
		queries[i] = o.Query
	}
	assert.Equal(t, []string{"1", "3", "4"}, queries)

	got = FilterReportable(candidates, last, 0)
	assert.Len(t, got, 2, "no heartbeat reports unchanged runners never")
}

func TestProgressString(t *testing.T) {
	assert.Equal(t, "n/a", ProgressString(nil))
	assert.Equal(t, "57.1%", ProgressString(ptr(57.14)))
}
