package tracker

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/02loveslollipop/marathon-tracker/internal/apperr"
	"github.com/02loveslollipop/marathon-tracker/internal/course"
	"github.com/02loveslollipop/marathon-tracker/internal/extract"
	"github.com/02loveslollipop/marathon-tracker/internal/models"
)

type fakeSource struct {
	mu      sync.Mutex
	byQuery map[string]*models.Extraction
	errs    map[string]error
	names   bool
	queries []string
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) SearchesByName() bool { return f.names }

func (f *fakeSource) FetchCheckpoints(_ context.Context, query string) (*models.Extraction, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	if err, ok := f.errs[query]; ok {
		return nil, err
	}
	ex, ok := f.byQuery[query]
	if !ok {
		return nil, apperr.RunnerNotFound(nil)
	}
	copied := *ex
	copied.Checkpoints = append([]models.Checkpoint(nil), ex.Checkpoints...)
	return &copied, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func midRace() *models.Extraction {
	return &models.Extraction{
		Name:     "홍길동",
		Category: "Full",
		Checkpoints: []models.Checkpoint{
			{Name: "출발", Distance: "0km", Time: "0:00:00", Passed: true},
			{Name: "5K", Distance: "5km", Time: "0:25:00", Passed: true},
			{Name: "10K", Distance: "10km", Time: "0:50:00", Passed: true},
			{Name: "하프", Distance: "21.0975km"},
			{Name: "도착", Distance: "42.195km"},
		},
	}
}

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  string
		valid bool
	}{
		{"bib", "1234", "1234", true},
		{"trimmed", "  1234\t", "1234", true},
		{"name", "홍길동", "홍길동", true},
		{"empty", "", "", false},
		{"blank", "   ", "", false},
		{"too long", strings.Repeat("가", MaxQueryLength+1), "", false},
		{"at the limit", strings.Repeat("가", MaxQueryLength), strings.Repeat("가", MaxQueryLength), true},
		{"control character", "12\x0034", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateQuery(tt.raw)
			if !tt.valid {
				require.Error(t, err)
				assert.Equal(t, apperr.MalformedQuery, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssemble(t *testing.T) {
	seoul := course.Seoul()

	runner, err := Assemble(seoul, midRace(), "1234")
	require.NoError(t, err)

	assert.Equal(t, "1234", runner.BibNumber)
	assert.Equal(t, "홍길동", runner.Name)
	assert.Equal(t, "Full", runner.Category)
	assert.Equal(t, "10K", runner.CurrentCheckpoint)
	assert.Equal(t, "10km", runner.TotalDistance)
	assert.Equal(t, "0:50:00", runner.ElapsedTime)
	assert.Equal(t, `5'00"/km`, runner.Pace)
	assert.Equal(t, "03:30:00", runner.EstimatedFinish)
	require.NotNil(t, runner.ProgressPercentage)
	assert.InDelta(t, 60.0, *runner.ProgressPercentage, 1e-9)
	require.NotNil(t, runner.CurrentPosition)
	assert.Equal(t, seoul.Interpolate(10), *runner.CurrentPosition)

	names := make([]string, len(runner.Checkpoints))
	for i, cp := range runner.Checkpoints {
		names[i] = cp.Name
	}
	assert.Equal(t, []string{"출발", "5K", "10K", "하프", "도착"}, names)
}

func TestAssembleKeepsRowOrder(t *testing.T) {
	page := `<html><body><h2>홍길동</h2><table>
<tr><th>구간명</th><th>통과시간</th><th>구간기록</th><th>누적기록</th></tr>
<tr><td>출발</td><td>08:00:00</td><td>-</td><td>0:00:00</td></tr>
<tr><td>5K</td><td>08:25:00</td><td>0:25:00</td><td>0:25:00</td></tr>
<tr><td>10K</td><td>08:50:00</td><td>0:25:00</td><td>0:50:00</td></tr>
<tr><td>32.2K</td><td>10:40:00</td><td>1:50:00</td><td>2:40:00</td></tr>
</table></body></html>`

	ex, err := extract.ParseResultPage(page)
	require.NoError(t, err)

	runner, err := Assemble(course.Seoul(), ex, "1234")
	require.NoError(t, err)

	names := make([]string, len(runner.Checkpoints))
	for i, cp := range runner.Checkpoints {
		names[i] = cp.Name
	}
	assert.Equal(t, []string{"출발", "5K", "10K", "32.2K"}, names)
	assert.Equal(t, "32.2K", runner.CurrentCheckpoint)
	assert.Equal(t, "2:40:00", runner.ElapsedTime)
	assert.Equal(t, models.Calculating, runner.Pace)
	assert.Equal(t, models.Calculating, runner.EstimatedFinish)
}

func TestAssembleDoesNotShareInput(t *testing.T) {
	ex := midRace()
	runner, err := Assemble(course.Seoul(), ex, "1234")
	require.NoError(t, err)

	runner.Checkpoints[0].Name = "changed"
	assert.Equal(t, "출발", ex.Checkpoints[0].Name)
}

func TestAssemblePlaceholders(t *testing.T) {
	ex := &models.Extraction{
		Checkpoints: []models.Checkpoint{
			{Name: "출발", Distance: "0km", Passed: true},
			{Name: "5K", Distance: "5km"},
		},
	}

	runner, err := Assemble(course.Seoul(), ex, "777")
	require.NoError(t, err)

	assert.Equal(t, "777", runner.BibNumber)
	assert.Equal(t, "러너 #777", runner.Name)
	assert.Equal(t, models.DefaultCategory, runner.Category)
	assert.Equal(t, models.NoElapsedRecord, runner.ElapsedTime)
	assert.Equal(t, models.Calculating, runner.Pace)
	assert.Equal(t, models.Calculating, runner.EstimatedFinish)
	assert.Equal(t, "0km", runner.TotalDistance)
	assert.Equal(t, course.Seoul().Checkpoints[0].Position(), *runner.CurrentPosition)
}

func TestAssembleSourceHints(t *testing.T) {
	hint := course.Position{Lat: 37.1, Lng: 127.1}
	ex := midRace()
	ex.BibNumber = "5555"
	ex.Position = &hint
	ex.Pace = `5'30"/km`
	ex.EstimatedFinish = "03:45:12"
	ex.TotalDistance = "42.195km"

	runner, err := Assemble(course.Seoul(), ex, "홍길동")
	require.NoError(t, err)

	assert.Equal(t, "5555", runner.BibNumber)
	assert.Equal(t, hint, *runner.CurrentPosition)
	assert.Equal(t, `5'30"/km`, runner.Pace)
	assert.Equal(t, "03:45:12", runner.EstimatedFinish)
	assert.Equal(t, "42.195km", runner.TotalDistance)
}

func TestAssembleHintPaceDrivesFinish(t *testing.T) {
	ex := midRace()
	ex.Pace = `6'00"/km`

	runner, err := Assemble(course.Seoul(), ex, "1234")
	require.NoError(t, err)
	// 50 + 32.195 * 6 = 243.17 minutes
	assert.Equal(t, "04:03:00", runner.EstimatedFinish)
}

func TestAssembleFailures(t *testing.T) {
	t.Run("nothing passed", func(t *testing.T) {
		ex := &models.Extraction{Checkpoints: []models.Checkpoint{
			{Name: "출발", Distance: "0km"},
			{Name: "5K", Distance: "5km"},
		}}
		_, err := Assemble(course.Seoul(), ex, "1234")
		require.Error(t, err)
		assert.Equal(t, apperr.NoRecordsYet, apperr.KindOf(err))
	})

	t.Run("no checkpoints at all", func(t *testing.T) {
		_, err := Assemble(course.Seoul(), &models.Extraction{}, "1234")
		require.Error(t, err)
		assert.Equal(t, apperr.NoRecordsYet, apperr.KindOf(err))
	})

	t.Run("unparseable last distance", func(t *testing.T) {
		ex := &models.Extraction{Checkpoints: []models.Checkpoint{
			{Name: "반환점", Distance: "반환점", Time: "0:40:00", Passed: true},
		}}
		_, err := Assemble(course.Seoul(), ex, "1234")
		require.Error(t, err)
		assert.Equal(t, apperr.PositionUnresolvable, apperr.KindOf(err))
	})

	t.Run("unparseable distance with position hint", func(t *testing.T) {
		ex := &models.Extraction{
			Position: &course.Position{Lat: 37.5, Lng: 127.0},
			Checkpoints: []models.Checkpoint{
				{Name: "반환점", Distance: "반환점", Time: "0:40:00", Passed: true},
			},
		}
		runner, err := Assemble(course.Seoul(), ex, "1234")
		require.NoError(t, err)
		assert.Equal(t, "반환점", runner.CurrentCheckpoint)
	})
}

func TestLookup(t *testing.T) {
	src := &fakeSource{byQuery: map[string]*models.Extraction{"1234": midRace()}}
	tr := New(course.Seoul(), src, quietLogger())

	runner, err := tr.Lookup(context.Background(), " 1234 ")
	require.NoError(t, err)
	assert.Equal(t, "1234", runner.BibNumber)
	assert.Equal(t, []string{"1234"}, src.queries)
	assert.Equal(t, "fake", tr.SourceName())
}

func TestLookupErrors(t *testing.T) {
	src := &fakeSource{
		byQuery: map[string]*models.Extraction{},
		errs:    map[string]error{"500": apperr.Upstream(errors.New("boom"))},
	}
	tr := New(course.Seoul(), src, quietLogger())

	tests := []struct {
		query string
		kind  apperr.Kind
	}{
		{"", apperr.MalformedQuery},
		{"홍길동", apperr.Configuration},
		{"404", apperr.NotFound},
		{"500", apperr.UpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			_, err := tr.Lookup(context.Background(), tt.query)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
	assert.NotContains(t, src.queries, "홍길동")
}

func TestLookupByName(t *testing.T) {
	src := &fakeSource{names: true, byQuery: map[string]*models.Extraction{"홍길동": midRace()}}
	tr := New(course.Seoul(), src, quietLogger())

	runner, err := tr.Lookup(context.Background(), "홍길동")
	require.NoError(t, err)
	assert.Equal(t, "홍길동", runner.Name)
	assert.Equal(t, "홍길동", runner.BibNumber)
}

func TestLookupMany(t *testing.T) {
	src := &fakeSource{byQuery: map[string]*models.Extraction{
		"1": midRace(),
		"3": midRace(),
	}}
	tr := New(course.Seoul(), src, quietLogger())

	results := tr.LookupMany(context.Background(), []string{"1", "2", "3", ""})
	require.Len(t, results, 4)

	assert.Equal(t, "1", results[0].Query)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "1", results[0].Runner.BibNumber)

	assert.Equal(t, apperr.NotFound, apperr.KindOf(results[1].Err))
	assert.Nil(t, results[1].Runner)

	require.NoError(t, results[2].Err)
	assert.Equal(t, "3", results[2].Runner.BibNumber)

	assert.Equal(t, apperr.MalformedQuery, apperr.KindOf(results[3].Err))
}
