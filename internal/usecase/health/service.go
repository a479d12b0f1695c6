package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the search backend is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Check names.
const (
	CheckBackend = "backend"
	CheckContent = "content"
)

// Report aggregates health check results.
type Report struct {
	Status  Status
	Checks  map[string]CheckResult
	Domains []string
}

// Service coordinates health checks.
type Service struct {
	backend BackendPinger
	content ContentChecker
	domains DomainLister
}

// New creates a Service. content and domains can be nil.
func New(backend BackendPinger, content ContentChecker, domains DomainLister) *Service {
	return &Service{backend: backend, content: content, domains: domains}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[CheckBackend] = result(s.backend.Ping(ctx))
	if s.content != nil {
		checks[CheckContent] = result(s.content.HealthCheck(ctx))
	}

	status := Healthy
	switch {
	case checks[CheckBackend] == CheckError:
		status = Unhealthy
	case checks[CheckContent] == CheckError:
		status = Degraded
	}

	var domains []string
	if s.domains != nil {
		domains = s.domains.Domains()
	}
	return Report{Status: status, Checks: checks, Domains: domains}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
