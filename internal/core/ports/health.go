package ports

import (
	"context"
	"time"

	"github.com/relialab/healthprobe/internal/core/domain/target"
)

// HealthService is the public contract of the target registry and probe
// engine.
//
// Registration is not synchronized against concurrent Register or Check
// calls: register every target during single-threaded startup, then probe
// freely.
type HealthService interface {
	// Register adds a target. When required is true the setup validation for
	// the target's kind runs inline and a failure rejects the registration,
	// leaving the registry unchanged.
	Register(ctx context.Context, t target.Target, required bool, opts target.RegisterOptions) error
	// RegisterAddress builds the target from its string form (broker URL,
	// database DSN, or service URL) and registers it. Unknown kinds fail
	// with a configuration error.
	RegisterAddress(ctx context.Context, kind target.Kind, address string, required bool, opts target.RegisterOptions) error
	// Check probes every registered target concurrently and returns one
	// result per target. Within each kind results follow registration
	// order; kinds are concatenated as messaging, database, service.
	Check(ctx context.Context) []target.HealthCheckResult
}

// TargetFactory builds a target from its string address form.
type TargetFactory interface {
	Create(kind target.Kind, address string, opts target.RegisterOptions) (target.Target, error)
}

// ProbeObserver receives the outcome of every completed probe, e.g. for
// metrics. Probes run concurrently, so implementations must be safe for
// concurrent use and must not block.
type ProbeObserver interface {
	ObserveProbe(kind target.Kind, healthy bool, elapsed time.Duration)
}
