package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health/live", s.liveness)
	s.echo.GET("/health/ready", s.readiness)
	s.echo.GET("/health/report", s.report)
	s.echo.GET("/metrics", s.metricsEndpoint)
}
