package health

import "context"

// BackendPinger checks search backend availability.
type BackendPinger interface {
	Ping(ctx context.Context) error
}

// ContentChecker checks content store availability.
type ContentChecker interface {
	HealthCheck(ctx context.Context) error
}

// DomainLister lists the domains created so far.
type DomainLister interface {
	Domains() []string
}
