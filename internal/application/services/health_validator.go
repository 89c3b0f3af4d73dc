package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/relialab/healthprobe/internal/core/domain/target"
)

// defaultValidationQuery proves schema and connectivity without reading
// data: the predicate never matches a row.
const defaultValidationQuery = `SELECT "ClientIdentifier" FROM "Healthcheck" WHERE 1 = 0`

// validate runs the kind-specific setup check for a required registration.
// It returns a *SetupError on failure; the target must not be added.
func (s *HealthService) validate(ctx context.Context, t target.Target, opts target.RegisterOptions) error {
	switch v := t.(type) {
	case target.Messaging:
		return s.validateMessaging(ctx, v)
	case target.Database:
		return s.validateDatabase(ctx, v, opts)
	case target.Service:
		return s.validateService(ctx, v)
	default:
		return fmt.Errorf("health: unsupported target type %T: %w", t, target.ErrUnsupportedKind)
	}
}

// validateMessaging provisions the exchange, the per-process queue and the
// binding the probe publishes through later. Declaring them doubles as the
// connectivity check.
func (s *HealthService) validateMessaging(ctx context.Context, t target.Messaging) error {
	queue := target.QueuePrefix + s.procID

	if err := t.Client.DeclareExchange(ctx, target.Exchange); err != nil {
		return &SetupError{Kind: t.Kind(), Target: t.Identifier(), Cause: fmt.Errorf("declare exchange %q: %w", target.Exchange, err)}
	}
	if err := t.Client.DeclareQueue(ctx, queue); err != nil {
		return &SetupError{Kind: t.Kind(), Target: t.Identifier(), Cause: fmt.Errorf("declare queue %q: %w", queue, err)}
	}
	if err := t.Client.BindQueue(ctx, queue, target.Exchange, target.RoutingKey); err != nil {
		return &SetupError{Kind: t.Kind(), Target: t.Identifier(), Cause: fmt.Errorf("bind queue %q to %q: %w", queue, target.Exchange, err)}
	}
	return nil
}

func (s *HealthService) validateDatabase(ctx context.Context, t target.Database, opts target.RegisterOptions) error {
	query := opts.Query
	if query == "" {
		query = t.OverrideQuery
	}
	if query == "" {
		query = defaultValidationQuery
	}

	session, err := t.Handle.Open(ctx)
	if err != nil {
		return &SetupError{Kind: t.Kind(), Target: t.Identifier(), Cause: fmt.Errorf("open connection: %w", err)}
	}
	defer session.Close()

	if err := session.Exec(ctx, query); err != nil {
		return &SetupError{Kind: t.Kind(), Target: t.Identifier(), Cause: fmt.Errorf("run validation query: %w", err)}
	}
	return nil
}

func (s *HealthService) validateService(ctx context.Context, t target.Service) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.Address.String(), nil)
	if err != nil {
		return &SetupError{Kind: t.Kind(), Target: t.Identifier(), Cause: err}
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &SetupError{Kind: t.Kind(), Target: t.Identifier(), Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &SetupError{Kind: t.Kind(), Target: t.Identifier(), Cause: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	return nil
}
