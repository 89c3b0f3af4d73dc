package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/relialab/healthprobe/internal/core/domain/target"
)

type healthReport struct {
	Status    string                     `json:"status"`
	Timestamp string                     `json:"timestamp"`
	Targets   []target.HealthCheckResult `json:"targets"`
}

// Liveness handler: the process is up, no dependencies probed.
func (s *Server) liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handler: probes every registered target and reports 503 when
// any of them is unhealthy.
func (s *Server) readiness(c echo.Context) error {
	report := s.runCheck(c)
	code := http.StatusOK
	if report.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, report)
}

// Report handler: same snapshot as readiness but always 200, for dashboards
// that want the full result list without interpreting the status code.
func (s *Server) report(c echo.Context) error {
	return c.JSON(http.StatusOK, s.runCheck(c))
}

func (s *Server) runCheck(c echo.Context) healthReport {
	timeout := s.config.CheckTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
	defer cancel()

	results := s.health.Check(ctx)
	status := "healthy"
	for _, r := range results {
		if !r.Healthy {
			status = "degraded"
			break
		}
	}
	return healthReport{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Targets:   results,
	}
}
