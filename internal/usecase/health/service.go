package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the upstream archive is unreachable; sessions still
	// serve cached state and report fetch errors.
	Degraded Status = "degraded"
	// Unhealthy indicates session storage is down.
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

// Component names used as report keys.
const (
	ComponentStorage = "storage"
	ComponentArchive = "archive_api"
)

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	storage StoragePinger
	archive ArchiveChecker
}

// New creates a Service. archive can be nil.
func New(storage StoragePinger, archive ArchiveChecker) *Service {
	return &Service{storage: storage, archive: archive}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 2)
	status := Healthy

	if err := s.storage.Ping(ctx); err != nil {
		checks[ComponentStorage] = CheckError
		status = Unhealthy
	} else {
		checks[ComponentStorage] = CheckOK
	}

	if s.archive != nil {
		if err := s.archive.HealthCheck(ctx); err != nil {
			checks[ComponentArchive] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks[ComponentArchive] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
