package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable signals a transport failure talking to the archive API.
	ErrProviderUnavailable = errors.New("search provider unavailable")
	// ErrMalformedResponse signals an unexpected response shape from the archive API.
	ErrMalformedResponse = errors.New("malformed provider response")
	// ErrUnknownArtifactKind signals an artifact kind no store can serve.
	ErrUnknownArtifactKind = errors.New("unknown artifact kind")
	// ErrUnknownEntityType signals an entity type outside the known enum.
	ErrUnknownEntityType = errors.New("unknown entity type")
	// ErrComparisonNeedsTwo signals a comparison request with fewer than two artefacts.
	ErrComparisonNeedsTwo = errors.New("comparison needs at least two artefacts")
	// ErrSessionNotFound signals a missing browsing session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidFilter signals a filter action with unusable arguments.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidQuery signals a URL query that cannot be parsed.
	ErrInvalidQuery = errors.New("invalid url query")
)

// ProviderStatusError wraps ErrProviderUnavailable with the upstream HTTP status.
type ProviderStatusError struct {
	StatusCode int
	Body       string
}

func (e *ProviderStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", ErrProviderUnavailable.Error(), e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrProviderUnavailable.Error(), e.StatusCode, e.Body)
}

func (e *ProviderStatusError) Unwrap() error { return ErrProviderUnavailable }

// NewProviderStatus creates a provider status error.
func NewProviderStatus(statusCode int, body string) error {
	return &ProviderStatusError{StatusCode: statusCode, Body: body}
}
