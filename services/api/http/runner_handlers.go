package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/02loveslollipop/marathon-tracker/internal/apperr"
)

// StatusFor maps a lookup failure to its HTTP status.
func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.MalformedQuery, apperr.Configuration:
		return http.StatusBadRequest
	case apperr.NotFound, apperr.NoRecordsYet:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// handleRunner returns the bare Runner record the map UI polls.
// GET /api/runner/:query
func (s *Server) handleRunner(c *gin.Context) {
	runner, err := s.tracker.Lookup(c.Request.Context(), c.Param("query"))
	if err != nil {
		c.JSON(StatusFor(err), gin.H{"error": apperr.MessageOf(err)})
		return
	}
	c.JSON(http.StatusOK, runner)
}
