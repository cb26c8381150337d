package health

import "context"

// BackendChecker checks vector-store backend availability.
type BackendChecker interface {
	HealthCheck(ctx context.Context) error
}
