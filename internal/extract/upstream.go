package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/sirupsen/logrus"

	"github.com/02loveslollipop/marathon-tracker/internal/apperr"
	"github.com/02loveslollipop/marathon-tracker/internal/course"
	"github.com/02loveslollipop/marathon-tracker/internal/models"
	"github.com/02loveslollipop/marathon-tracker/internal/parse"
)

const (
	maxPayloadBytes = 2 << 20
	maxErrorBody    = 512
)

// UpstreamError is a non-2xx answer from a result source.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %d: %s", e.Status, e.Body)
}

var (
	pathRecords      = jp.C("records")
	pathPointName    = jp.C("point").C("name")
	pathPointDist    = jp.C("point").C("distance")
	pathPointLat     = jp.C("point").C("lat")
	pathPointLng     = jp.C("point").C("lng")
	pathTimePoint    = jp.C("time_point")
	pathNum          = jp.C("num")
	pathTag          = jp.C("tag")
	pathName         = jp.C("name")
	pathCourseCode   = jp.C("course_cd")
	pathCourseName   = jp.C("course").C("name")
	pathCourseDist   = jp.C("course").C("distance")
	pathCoursePath   = jp.C("course").C("path")
	pathLat          = jp.C("lat")
	pathLng          = jp.C("lng")
	pathPaceNetTime  = jp.C("pace_nettime")
	pathResultNet    = jp.C("result_nettime")
	errNoCheckpoints = errors.New("payload has no named checkpoint records")
)

// UpstreamSource queries the event's player API, which accepts both bib
// numbers and runner names.
type UpstreamSource struct {
	baseURL string
	eventID string
	client  *http.Client
	breaker *Breaker
	logger  *logrus.Logger
}

// NewUpstreamSource builds a source for {baseURL}/api/event/{eventID}/player.
func NewUpstreamSource(baseURL, eventID string, client *http.Client, breaker *Breaker, logger *logrus.Logger) *UpstreamSource {
	return &UpstreamSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		eventID: eventID,
		client:  client,
		breaker: breaker,
		logger:  logger,
	}
}

func (s *UpstreamSource) Name() string { return "upstream" }

// SearchesByName reports that the player API accepts names.
func (s *UpstreamSource) SearchesByName() bool { return true }

// PlayerURL returns the player lookup endpoint for query.
func (s *UpstreamSource) PlayerURL(query string) string {
	return fmt.Sprintf("%s/api/event/%s/player?%s", s.baseURL, url.PathEscape(s.eventID), url.Values{"q": {query}}.Encode())
}

func (s *UpstreamSource) FetchCheckpoints(ctx context.Context, query string) (*models.Extraction, error) {
	playerURL := s.PlayerURL(query)

	var body []byte
	err := s.breaker.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, playerURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return classifyTransport(fmt.Errorf("request player: %w", err))
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
		if err != nil {
			return classifyTransport(fmt.Errorf("read player payload: %w", err))
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			uerr := &UpstreamError{Status: resp.StatusCode, Body: truncate(strings.TrimSpace(string(data)), maxErrorBody)}
			if resp.StatusCode == http.StatusNotFound {
				return apperr.RunnerNotFound(uerr)
			}
			return apperr.Upstream(uerr)
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	ex, err := DecodePlayer(body, query)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"source": s.Name(),
			"query":  query,
		}).WithError(err).Warn("Failed to decode player payload")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"source":      s.Name(),
		"query":       query,
		"bib":         ex.BibNumber,
		"checkpoints": len(ex.Checkpoints),
	}).Debug("Decoded player payload")
	return ex, nil
}

type upstreamRecord struct {
	distance float64
	value    any
}

// DecodePlayer normalizes a player payload into an extraction. Numbers may
// arrive as JSON numbers or strings; unknown fields are ignored.
func DecodePlayer(data []byte, query string) (*models.Extraction, error) {
	doc, err := oj.Parse(data)
	if err != nil {
		return nil, apperr.Parse(fmt.Errorf("decode player payload: %w", err))
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, apperr.Parse(errors.New("player payload is not an object"))
	}

	var records []upstreamRecord
	if list, ok := pathRecords.First(doc).([]any); ok {
		records = make([]upstreamRecord, 0, len(list))
		for _, rec := range list {
			dist, _ := asFloat(pathPointDist.First(rec))
			records = append(records, upstreamRecord{distance: dist, value: rec})
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].distance < records[j].distance
	})

	ex := &models.Extraction{
		BibNumber:       firstString(doc, query, pathNum, pathTag),
		Name:            firstString(doc, "", pathName),
		Category:        firstString(doc, models.DefaultCategory, pathCourseCode, pathCourseName),
		Pace:            firstString(doc, "", pathPaceNetTime),
		EstimatedFinish: firstString(doc, "", pathResultNet),
	}
	if label, ok := parse.DistanceLabelFromString(firstString(doc, "", pathCourseDist)); ok {
		ex.TotalDistance = label
	}

	for _, rec := range records {
		name, _ := asString(pathPointName.First(rec.value))
		if name == "" {
			continue
		}
		distance := name
		if raw, ok := asString(pathPointDist.First(rec.value)); ok {
			if label, ok := parse.DistanceLabelFromString(raw); ok {
				distance = label
			}
		}
		timePoint, _ := asString(pathTimePoint.First(rec.value))

		ex.Checkpoints = append(ex.Checkpoints, models.Checkpoint{
			Name:     name,
			Distance: distance,
			Time:     timePoint,
			Passed:   timePoint != "",
		})
	}
	if len(ex.Checkpoints) == 0 {
		return nil, apperr.Parse(errNoCheckpoints)
	}

	ex.Position = lastRecordPosition(records)
	if ex.Position == nil {
		ex.Position = lastPathPosition(pathCoursePath.First(doc))
	}
	return ex, nil
}

func lastRecordPosition(records []upstreamRecord) *course.Position {
	for i := len(records) - 1; i >= 0; i-- {
		lat, latOK := asNumber(pathPointLat.First(records[i].value))
		lng, lngOK := asNumber(pathPointLng.First(records[i].value))
		if latOK && lngOK {
			return &course.Position{Lat: lat, Lng: lng}
		}
	}
	return nil
}

func lastPathPosition(path any) *course.Position {
	points, ok := path.([]any)
	if !ok || len(points) == 0 {
		return nil
	}
	last := points[len(points)-1]
	lat, latOK := asFloat(pathLat.First(last))
	lng, lngOK := asFloat(pathLng.First(last))
	if !latOK || !lngOK || lat == 0 || lng == 0 {
		return nil
	}
	return &course.Position{Lat: lat, Lng: lng}
}

func firstString(doc any, fallback string, paths ...jp.Expr) string {
	for _, p := range paths {
		if s, ok := asString(p.First(doc)); ok && s != "" {
			return s
		}
	}
	return fallback
}

func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

// asNumber accepts JSON numbers only.
func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

// asFloat accepts JSON numbers and numeric strings.
func asFloat(v any) (float64, bool) {
	if f, ok := asNumber(v); ok {
		return f, true
	}
	switch t := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
