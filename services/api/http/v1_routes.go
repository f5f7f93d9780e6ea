package http

// registerV1Routes sets up the v1 API structure
// Groups: /api/v1/runners, /api/v1/course
func (s *Server) registerV1Routes() {
	v1 := s.engine.Group("/api/v1")
	v1.Use(apiVersionMiddleware()) // Add X-API-Version: v1 header
	v1.Use(s.limit)

	runners := v1.Group("/runners")
	{
		runners.GET("", s.handleV1ListRunners)
		runners.GET("/:query", s.handleV1GetRunner)
	}

	v1.GET("/course", s.handleV1Course)
}
