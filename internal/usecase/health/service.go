package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results. Config reports each required
// setting as "set" or "missing" by name only; secret values are never
// included.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
	Config map[string]string      `json:"config"`
}

// Service coordinates health checks.
type Service struct {
	backend BackendChecker
	present map[string]bool
}

// New creates a Service. backend can be nil, in which case only config
// presence is reported.
func New(backend BackendChecker, present map[string]bool) *Service {
	return &Service{backend: backend, present: present}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.backend != nil {
		if err := s.backend.HealthCheck(ctx); err != nil {
			checks["backend"] = CheckError
		} else {
			checks["backend"] = CheckOK
		}
	}

	config := make(map[string]string, len(s.present))
	for name, ok := range s.present {
		if ok {
			config[name] = "set"
		} else {
			config[name] = "missing"
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	for _, v := range config {
		if v == "missing" {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, Config: config}
}
