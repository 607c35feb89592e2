package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockArchive struct {
	err error
}

func (m *mockArchive) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck(t *testing.T) {
	down := errors.New("conn refused")
	tests := []struct {
		name        string
		storageErr  error
		archive     ArchiveChecker
		wantStatus  Status
		wantStorage CheckResult
		wantArchive CheckResult
	}{
		{"all healthy", nil, &mockArchive{}, Healthy, CheckOK, CheckOK},
		{"archive down", nil, &mockArchive{err: down}, Degraded, CheckOK, CheckError},
		{"storage down", down, &mockArchive{}, Unhealthy, CheckError, CheckOK},
		{"both down", down, &mockArchive{err: down}, Unhealthy, CheckError, CheckError},
		{"no archive checker", nil, nil, Healthy, CheckOK, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := New(&mockPinger{err: tc.storageErr}, tc.archive)
			r := svc.Check(context.Background())

			if r.Status != tc.wantStatus {
				t.Errorf("status = %q, want %q", r.Status, tc.wantStatus)
			}
			if r.Checks[ComponentStorage] != tc.wantStorage {
				t.Errorf("storage = %q, want %q", r.Checks[ComponentStorage], tc.wantStorage)
			}
			if r.Checks[ComponentArchive] != tc.wantArchive {
				t.Errorf("archive = %q, want %q", r.Checks[ComponentArchive], tc.wantArchive)
			}
		})
	}
}
