package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/02loveslollipop/marathon-tracker/internal/apperr"
)

// MaxBatchQueries bounds the queries of a single multi-runner request.
const MaxBatchQueries = 20

func errorBody(err error) gin.H {
	return gin.H{
		"error": apperr.MessageOf(err),
		"kind":  apperr.KindOf(err).String(),
	}
}

// handleV1GetRunner returns one runner with request metadata
// GET /api/v1/runners/:query
func (s *Server) handleV1GetRunner(c *gin.Context) {
	runner, err := s.tracker.Lookup(c.Request.Context(), c.Param("query"))
	if err != nil {
		c.JSON(StatusFor(err), errorBody(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": runner,
		"meta": gin.H{
			"source":     s.tracker.SourceName(),
			"request_id": requestID(c),
			"fetched_at": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// handleV1ListRunners looks several runners up at once; each entry carries
// either a runner or its own error
// GET /api/v1/runners?q=1234&q=5678
func (s *Server) handleV1ListRunners(c *gin.Context) {
	queries := c.QueryArray("q")
	if len(queries) == 0 {
		err := apperr.Malformed(nil)
		c.JSON(StatusFor(err), errorBody(err))
		return
	}
	if len(queries) > MaxBatchQueries {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "too many queries",
			"kind":  apperr.MalformedQuery.String(),
			"max":   MaxBatchQueries,
		})
		return
	}

	results := s.tracker.LookupMany(c.Request.Context(), queries)

	data := make([]gin.H, 0, len(results))
	failed := 0
	for _, r := range results {
		entry := gin.H{"query": r.Query}
		if r.Err != nil {
			failed++
			entry["status"] = StatusFor(r.Err)
			for k, v := range errorBody(r.Err) {
				entry[k] = v
			}
		} else {
			entry["status"] = http.StatusOK
			entry["runner"] = r.Runner
		}
		data = append(data, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"meta": gin.H{
			"count":      len(data),
			"failed":     failed,
			"source":     s.tracker.SourceName(),
			"request_id": requestID(c),
			"fetched_at": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// handleV1Course returns the course checkpoints and drawing path
// GET /api/v1/course
func (s *Server) handleV1Course(c *gin.Context) {
	course := s.tracker.Course()
	c.JSON(http.StatusOK, gin.H{
		"data": course,
		"meta": gin.H{
			"checkpoints": len(course.Checkpoints),
			"path_points": len(course.Path),
		},
	})
}
