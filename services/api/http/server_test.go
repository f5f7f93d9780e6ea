package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/02loveslollipop/marathon-tracker/internal/apperr"
	"github.com/02loveslollipop/marathon-tracker/internal/course"
	"github.com/02loveslollipop/marathon-tracker/internal/models"
	"github.com/02loveslollipop/marathon-tracker/internal/tracker"
	"github.com/02loveslollipop/marathon-tracker/services/api/config"
)

type fakeTracker struct {
	runners map[string]*models.Runner
	errs    map[string]error
}

func (f *fakeTracker) Lookup(_ context.Context, query string) (*models.Runner, error) {
	if err, ok := f.errs[query]; ok {
		return nil, err
	}
	if r, ok := f.runners[query]; ok {
		return r, nil
	}
	return nil, apperr.RunnerNotFound(nil)
}

func (f *fakeTracker) LookupMany(ctx context.Context, queries []string) []tracker.Result {
	results := make([]tracker.Result, len(queries))
	for i, q := range queries {
		r, err := f.Lookup(ctx, q)
		results[i] = tracker.Result{Query: q, Runner: r, Err: err}
	}
	return results
}

func (f *fakeTracker) Course() course.Course { return course.Seoul() }

func (f *fakeTracker) SourceName() string { return "fake" }

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	progress := 50.0
	ft := &fakeTracker{
		runners: map[string]*models.Runner{
			"1234": {
				BibNumber:          "1234",
				Name:               "홍길동",
				Category:           "Full",
				CurrentCheckpoint:  "10K",
				CurrentPosition:    &course.Position{Lat: 37.57, Lng: 126.97},
				Pace:               `5'00"/km`,
				EstimatedFinish:    "03:30:00",
				ProgressPercentage: &progress,
				Checkpoints: []models.Checkpoint{
					{Name: "10K", Distance: "10km", Time: "0:50:00", Passed: true},
				},
			},
		},
		errs: map[string]error{
			"홍길동": apperr.NameSearchDisabled(),
			"1":   apperr.NoRecords(),
			"2":   apperr.Upstream(errors.New("connection refused")),
			"3":   apperr.Parse(errors.New("no rows")),
			"4":   apperr.PositionUnknown(nil),
			" ":   apperr.Malformed(nil),
		},
	}

	cfg := config.Config{Port: 8080, CORSOrigins: []string{"*"}}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg, ft, logger)
}

func doRequest(s *Server, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doRequest(s, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRequestIDEcho(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/healthz", http.Header{"x-request-id": {"trace-42"}})
	assert.Equal(t, "trace-42", rec.Header().Get(requestIDHeader))

	first := doRequest(s, http.MethodGet, "/healthz", nil).Header().Get(requestIDHeader)
	second := doRequest(s, http.MethodGet, "/healthz", nil).Header().Get(requestIDHeader)
	assert.NotEqual(t, first, second)
}

func TestGetRunner(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doRequest(s, http.MethodGet, "/api/runner/1234", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "1234", body["bibNumber"])
	assert.Equal(t, "홍길동", body["name"])
	assert.Equal(t, "10K", body["currentCheckpoint"])
	assert.Equal(t, 50.0, body["progressPercentage"])
	assert.NotContains(t, body, "elapsedTime", "unknown optional fields are omitted")
	assert.NotContains(t, body, "totalDistance")
}

func TestGetRunnerErrors(t *testing.T) {
	tests := []struct {
		query  string
		status int
		msg    string
	}{
		{url.PathEscape("홍길동"), http.StatusBadRequest, apperr.NameSearchDisabled().Message},
		{"%20", http.StatusBadRequest, apperr.Malformed(nil).Message},
		{"9999", http.StatusNotFound, apperr.RunnerNotFound(nil).Message},
		{"1", http.StatusNotFound, apperr.NoRecords().Message},
		{"2", http.StatusInternalServerError, apperr.Upstream(nil).Message},
		{"3", http.StatusInternalServerError, apperr.Parse(nil).Message},
		{"4", http.StatusInternalServerError, apperr.PositionUnknown(nil).Message},
	}

	s := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := doRequest(s, http.MethodGet, "/api/runner/"+tt.query, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, map[string]any{"error": tt.msg}, decode(t, rec))
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(apperr.Malformed(nil)))
	assert.Equal(t, http.StatusBadRequest, StatusFor(apperr.NameSearchDisabled()))
	assert.Equal(t, http.StatusNotFound, StatusFor(apperr.RunnerNotFound(nil)))
	assert.Equal(t, http.StatusNotFound, StatusFor(apperr.NoRecords()))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(apperr.Timeout(nil)))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("unclassified")))
}

func TestV1GetRunner(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doRequest(s, http.MethodGet, "/api/v1/runners/1234", http.Header{requestIDHeader: {"req-1"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v1", rec.Header().Get("X-API-Version"))
	assert.Equal(t, "req-1", rec.Header().Get(requestIDHeader))

	body := decode(t, rec)
	data := body["data"].(map[string]any)
	assert.Equal(t, "1234", data["bibNumber"])
	meta := body["meta"].(map[string]any)
	assert.Equal(t, "fake", meta["source"])
	assert.Equal(t, "req-1", meta["request_id"])

	rec = doRequest(s, http.MethodGet, "/api/v1/runners/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no_records_yet", decode(t, rec)["kind"])
}

func TestV1ListRunners(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doRequest(s, http.MethodGet, "/api/v1/runners?q=1234&q=2&q=9999", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	data := body["data"].([]any)
	require.Len(t, data, 3)

	first := data[0].(map[string]any)
	assert.Equal(t, "1234", first["query"])
	assert.Equal(t, float64(http.StatusOK), first["status"])
	assert.Equal(t, "홍길동", first["runner"].(map[string]any)["name"])

	second := data[1].(map[string]any)
	assert.Equal(t, float64(http.StatusInternalServerError), second["status"])
	assert.Equal(t, "upstream_unavailable", second["kind"])

	third := data[2].(map[string]any)
	assert.Equal(t, float64(http.StatusNotFound), third["status"])

	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(3), meta["count"])
	assert.Equal(t, float64(2), meta["failed"])
}

func TestV1ListRunnersValidation(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/api/v1/runners", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	target := "/api/v1/runners?"
	for i := 0; i <= MaxBatchQueries; i++ {
		target += "q=1234&"
	}
	rec = doRequest(s, http.MethodGet, target, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestV1Course(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doRequest(s, http.MethodGet, "/api/v1/course", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	data := body["data"].(map[string]any)
	assert.Len(t, data["checkpoints"], len(course.Seoul().Checkpoints))
	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(len(course.Seoul().Path)), meta["path_points"])
}

func TestBearerAuth(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.BearerToken = "secret" })

	rec := doRequest(s, http.MethodGet, "/api/runner/1234", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(s, http.MethodGet, "/api/runner/1234", http.Header{"Authorization": {"Bearer wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(s, http.MethodGet, "/api/runner/1234", http.Header{"Authorization": {"Bearer secret"}})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.CORSOrigins = []string{"https://map.example.com"} })

	rec := doRequest(s, http.MethodGet, "/api/runner/1234", http.Header{"Origin": {"https://map.example.com"}})
	assert.Equal(t, "https://map.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = doRequest(s, http.MethodGet, "/api/runner/1234", http.Header{"Origin": {"https://evil.example.com"}})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = doRequest(s, http.MethodOptions, "/api/runner/1234", http.Header{
		"Origin":                        {"https://map.example.com"},
		"Access-Control-Request-Method": {http.MethodGet},
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://map.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimitRPS = 0.001
		cfg.RateLimitBurst = 2
	})

	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/api/runner/1234", nil).Code)
	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/api/v1/runners/1234", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(s, http.MethodGet, "/api/runner/1234", nil).Code)
	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/healthz", nil).Code)
}
