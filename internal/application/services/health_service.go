package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/relialab/healthprobe/internal/core/domain/target"
	"github.com/relialab/healthprobe/internal/core/ports"
	"github.com/sirupsen/logrus"
)

// HealthService holds the registered targets and probes them on demand.
// Registration is not synchronized: register everything during startup,
// before the first Check.
type HealthService struct {
	messaging []target.Messaging
	databases []target.Database
	services  []target.Service

	factory    ports.TargetFactory
	httpClient *http.Client
	observer   ports.ProbeObserver
	procID     string
	logger     *logrus.Logger
}

// HealthServiceDeps wires the collaborators a HealthService needs.
type HealthServiceDeps struct {
	Factory    ports.TargetFactory
	HTTPClient *http.Client
	Observer   ports.ProbeObserver
	// ProcessID overrides the default process identifier; used in tests.
	ProcessID string
}

func NewHealthService(deps HealthServiceDeps, logger *logrus.Logger) *HealthService {
	client := deps.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	procID := deps.ProcessID
	if procID == "" {
		procID = target.ProcessIdentifier()
	}
	return &HealthService{
		factory:    deps.Factory,
		httpClient: client,
		observer:   deps.Observer,
		procID:     procID,
		logger:     logger,
	}
}

// Register adds a target to the registry. Required targets pass setup
// validation first; a validation failure leaves the registry unchanged.
func (s *HealthService) Register(ctx context.Context, t target.Target, required bool, opts target.RegisterOptions) error {
	if t == nil {
		return fmt.Errorf("health: %w", ErrNilTarget)
	}

	if required {
		if err := s.validate(ctx, t, opts); err != nil {
			if s.logger != nil {
				s.logger.WithFields(logrus.Fields{"kind": t.Kind(), "target": t.Identifier()}).WithError(err).Error("required target failed setup validation")
			}
			return err
		}
	}

	switch v := t.(type) {
	case target.Messaging:
		s.messaging = append(s.messaging, v)
	case target.Database:
		if opts.Query != "" {
			v.OverrideQuery = opts.Query
		}
		s.databases = append(s.databases, v)
	case target.Service:
		s.services = append(s.services, v)
	default:
		return fmt.Errorf("health: unsupported target type %T: %w", t, target.ErrUnsupportedKind)
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"kind": t.Kind(), "target": t.Identifier(), "required": required}).Info("target registered")
	}
	return nil
}

// RegisterAddress builds a target from its string form and registers it.
func (s *HealthService) RegisterAddress(ctx context.Context, kind target.Kind, address string, required bool, opts target.RegisterOptions) error {
	if s.factory == nil {
		return fmt.Errorf("health: no target factory configured: %w", target.ErrUnsupportedKind)
	}
	t, err := s.factory.Create(kind, address, opts)
	if err != nil {
		return err
	}
	return s.Register(ctx, t, required, opts)
}

// TargetCount returns the total number of registered targets.
func (s *HealthService) TargetCount() int {
	return len(s.messaging) + len(s.databases) + len(s.services)
}

var _ ports.HealthService = (*HealthService)(nil)
