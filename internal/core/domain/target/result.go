package target

import "time"

// HealthCheckResult is the outcome of one probe against one target.
// Exactly one is produced per registered target per check run.
type HealthCheckResult struct {
	Kind         Kind          `json:"kind"`
	Target       string        `json:"target"`
	Healthy      bool          `json:"healthy"`
	ResponseTime time.Duration `json:"response_time_ns"`
	// Err is empty iff Healthy.
	Err string `json:"error,omitempty"`
}
