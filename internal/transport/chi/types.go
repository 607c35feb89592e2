package chi

import "github.com/cranach-archive/lighttable/internal/rootstore"

// ErrorCode is the machine-readable error code of an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest          ErrorCode = "bad_request"
	CodeUnauthorized        ErrorCode = "unauthorized"
	CodeValidationFailed    ErrorCode = "validation_failed"
	CodeSessionNotFound     ErrorCode = "session_not_found"
	CodeProviderUnavailable ErrorCode = "provider_unavailable"
	CodeComparisonNeedsTwo  ErrorCode = "comparison_needs_two"
	CodeInternalError       ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// CreateSessionRequest opens a session at a URL query.
type CreateSessionRequest struct {
	Query        string `json:"query"`
	Lang         string `json:"lang" validate:"omitempty,alpha,max=8"`
	ArtifactKind string `json:"artifact_kind" validate:"omitempty,oneof=WORKS ARCHIVALS LITERATURE_REFERENCES"`
}

// CreateSessionResponse carries the new session id and its first state.
type CreateSessionResponse struct {
	ID    string          `json:"id"`
	State rootstore.State `json:"state"`
}

// NavigateRequest moves a session to a new URL query.
type NavigateRequest struct {
	Query string `json:"query"`
}

// ArtifactKindRequest switches the selected artifact kind.
type ArtifactKindRequest struct {
	ArtifactKind string `json:"artifact_kind" validate:"required,oneof=WORKS ARCHIVALS LITERATURE_REFERENCES"`
}

// LanguageRequest switches the session language.
type LanguageRequest struct {
	Lang string `json:"lang" validate:"required,alpha,max=8"`
}

// ViewRequest changes how results are rendered.
type ViewRequest struct {
	ViewType       string `json:"view_type" validate:"omitempty,oneof=CARD CARD_SMALL LIST TABLE"`
	SidebarVisible *bool  `json:"sidebar_visible"`
}

// PageParams are the query parameters of the page endpoint.
type PageParams struct {
	Pos   *int `schema:"pos"`
	Delta *int `schema:"delta"`
}

// SizeParams are the query parameters of the size endpoint.
type SizeParams struct {
	Size int `schema:"size,required" validate:"min=1,max=500"`
}

// DatingRequest sets the dating range. Years outside the archive range are
// clamped.
type DatingRequest struct {
	FromYear int `json:"from_year"`
	ToYear   int `json:"to_year"`
}

// BestOfRequest toggles the best-of restriction.
type BestOfRequest struct {
	Value bool `json:"value"`
}

// EntityTypeRequest restricts the search to one entity type. Empty means all.
type EntityTypeRequest struct {
	EntityType string `json:"entity_type"`
}

// FacetToggleRequest toggles one facet item.
type FacetToggleRequest struct {
	Group string `json:"group" validate:"required,max=128,excludesall=0x2C;:&="`
	ID    string `json:"id" validate:"required,max=256,excludesall=0x2C;:&="`
}

// FreetextRequest edits free text fields and optionally applies them.
type FreetextRequest struct {
	Fields map[string]string `json:"fields"`
	Apply  bool              `json:"apply"`
}

// CollectionResponse lists the favorite artefact ids.
type CollectionResponse struct {
	Items []string `json:"items"`
}

// ComparisonResponse carries the comparison page URL.
type ComparisonResponse struct {
	URL string `json:"url"`
}
