package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/relialab/healthprobe/internal/core/domain/target"
	"github.com/sirupsen/logrus"
)

// defaultProbeQuery deliberately exercises the write path, so that
// write-permission or disk-full failures surface; validation at
// registration time stays read-only.
const defaultProbeQuery = `INSERT INTO "Healthcheck" ("ClientIdentifier") VALUES ($1)`

// Check probes every registered target and returns one result per target.
// All targets of a kind are probed concurrently with each other and the
// three kinds run concurrently too; a failing target only affects its own
// result. Within each kind results keep registration order; kinds are
// concatenated as messaging, database, service.
func (s *HealthService) Check(ctx context.Context) []target.HealthCheckResult {
	runID := uuid.New()

	messaging := make([]target.HealthCheckResult, len(s.messaging))
	databases := make([]target.HealthCheckResult, len(s.databases))
	srvs := make([]target.HealthCheckResult, len(s.services))

	var wg sync.WaitGroup
	for i, t := range s.messaging {
		i, t := i, t
		wg.Add(1)
		go func() {
			defer wg.Done()
			messaging[i] = s.probe(ctx, t, func(ctx context.Context) error {
				return s.probeMessaging(ctx, t)
			})
		}()
	}
	for i, t := range s.databases {
		i, t := i, t
		wg.Add(1)
		go func() {
			defer wg.Done()
			databases[i] = s.probe(ctx, t, func(ctx context.Context) error {
				return s.probeDatabase(ctx, t)
			})
		}()
	}
	for i, t := range s.services {
		i, t := i, t
		wg.Add(1)
		go func() {
			defer wg.Done()
			srvs[i] = s.probe(ctx, t, func(ctx context.Context) error {
				return s.probeService(ctx, t)
			})
		}()
	}
	wg.Wait()

	results := make([]target.HealthCheckResult, 0, len(messaging)+len(databases)+len(srvs))
	results = append(results, messaging...)
	results = append(results, databases...)
	results = append(results, srvs...)

	if s.logger != nil {
		unhealthy := 0
		for _, r := range results {
			if !r.Healthy {
				unhealthy++
			}
		}
		s.logger.WithFields(logrus.Fields{"run_id": runID, "targets": len(results), "unhealthy": unhealthy}).Debug("health check completed")
	}
	return results
}

// probe times fn and folds its outcome into a result. Errors never escape:
// one unreachable target must not disturb the report for the others.
func (s *HealthService) probe(ctx context.Context, t target.Target, fn func(ctx context.Context) error) target.HealthCheckResult {
	result := target.HealthCheckResult{
		Kind:   t.Kind(),
		Target: t.Identifier(),
	}

	start := time.Now()
	err := fn(ctx)
	result.ResponseTime = time.Since(start)

	if err != nil {
		result.Err = err.Error()
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"kind": result.Kind, "target": result.Target}).WithError(err).Warn("probe failed")
		}
	} else {
		result.Healthy = true
	}

	if s.observer != nil {
		s.observer.ObserveProbe(result.Kind, result.Healthy, result.ResponseTime)
	}
	return result
}

// probeMessaging publishes a timestamp through the infrastructure that
// setup validation provisioned. It does not wait for a consumer.
func (s *HealthService) probeMessaging(ctx context.Context, t target.Messaging) error {
	body := []byte(time.Now().UTC().Format(time.RFC3339Nano))
	return t.Client.Publish(ctx, target.Exchange, target.RoutingKey, body)
}

func (s *HealthService) probeDatabase(ctx context.Context, t target.Database) error {
	session, err := t.Handle.Open(ctx)
	if err != nil {
		return fmt.Errorf("open connection: %w", err)
	}
	defer session.Close()

	if t.OverrideQuery != "" {
		return session.Exec(ctx, t.OverrideQuery)
	}
	return session.Exec(ctx, defaultProbeQuery, s.procID)
}

func (s *HealthService) probeService(ctx context.Context, t target.Service) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.Address.String(), nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
