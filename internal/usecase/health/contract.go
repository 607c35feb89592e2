package health

import "context"

// StoragePinger checks session storage availability.
type StoragePinger interface {
	Ping(ctx context.Context) error
}

// ArchiveChecker checks reachability of the upstream search backend.
type ArchiveChecker interface {
	HealthCheck(ctx context.Context) error
}
