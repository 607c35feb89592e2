package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cranach-archive/lighttable/internal/domain"
	"github.com/cranach-archive/lighttable/internal/domain/artifact"
	"github.com/cranach-archive/lighttable/internal/domain/search/filter"
	logpkg "github.com/cranach-archive/lighttable/internal/logger"
	"github.com/cranach-archive/lighttable/internal/rootstore"
	"github.com/cranach-archive/lighttable/internal/session"
	"github.com/cranach-archive/lighttable/internal/usecase/facetsearch"
	healthuc "github.com/cranach-archive/lighttable/internal/usecase/health"
	"github.com/cranach-archive/lighttable/internal/usecase/ui"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the session API.
type Server struct {
	sessions      *session.Registry
	health        *healthuc.Service
	logger        *zap.Logger
	validate      *validator.Validate
	query         *schema.Decoder
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(sessions *session.Registry, health *healthuc.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	query := schema.NewDecoder()
	query.IgnoreUnknownKeys(true)

	s := &Server{
		sessions: sessions,
		health:   health,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		query:    query,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound, CodeSessionNotFound),
		sentinelHandler(domain.ErrComparisonNeedsTwo, http.StatusConflict, CodeComparisonNeedsTwo),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeBadRequest),
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrUnknownArtifactKind, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrUnknownEntityType, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrProviderUnavailable, http.StatusBadGateway, CodeProviderUnavailable),
		sentinelHandler(domain.ErrMalformedResponse, http.StatusBadGateway, CodeProviderUnavailable),
	}
	return s
}

// Routes mounts every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/navigate", s.Navigate)
			r.Post("/kind", s.SetArtifactKind)
			r.Post("/lang", s.SetLanguage)
			r.Post("/view", s.SetView)
			r.Post("/page", s.SetPage)
			r.Post("/size", s.SetSize)

			r.Route("/search/{kind}", func(r chi.Router) {
				r.Post("/dating", s.SetDating)
				r.Post("/best-of", s.SetBestOf)
				r.Post("/entity-type", s.SetEntityType)
				r.Post("/facets/toggle", s.ToggleFacet)
				r.Post("/freetext", s.SetFreetext)
				r.Post("/reset", s.ResetFilters)
			})

			r.Post("/collection/show", s.ShowCollection)
			r.Post("/collection/compare", s.CompareCollection)
			r.Post("/collection/{artefactID}", s.AddToCollection)
			r.Delete("/collection/{artefactID}", s.RemoveFromCollection)
		})
	})
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	// Sessions outlive the request that created them.
	sess, err := s.sessions.Create(context.WithoutCancel(r.Context()), req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	rs := sess.Store
	if req.Lang != "" {
		rs.UI.SetLanguage(req.Lang)
	}
	if req.ArtifactKind != "" {
		if err := rs.UI.SetArtifactKind(artifact.Kind(req.ArtifactKind)); err != nil {
			_ = s.sessions.Delete(sess.ID)
			s.handleDomainError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, CreateSessionResponse{ID: sess.ID, State: rs.State()})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.store(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rs.State())
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Navigate handles POST /sessions/{id}/navigate.
func (s *Server) Navigate(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.store(w, r)
	if !ok {
		return
	}
	var req NavigateRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if err := rs.Navigate(req.Query); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rs.State())
}

// SetArtifactKind handles POST /sessions/{id}/kind.
func (s *Server) SetArtifactKind(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.store(w, r)
	if !ok {
		return
	}
	var req ArtifactKindRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if err := rs.UI.SetArtifactKind(artifact.Kind(req.ArtifactKind)); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rs.State())
}

// SetLanguage handles POST /sessions/{id}/lang.
func (s *Server) SetLanguage(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.store(w, r)
	if !ok {
		return
	}
	var req LanguageRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	rs.UI.SetLanguage(req.Lang)
	writeJSON(w, http.StatusOK, rs.State())
}

// SetView handles POST /sessions/{id}/view.
func (s *Server) SetView(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.store(w, r)
	if !ok {
		return
	}
	var req ViewRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.ViewType != "" {
		if err := rs.UI.SetViewType(ui.ViewType(req.ViewType)); err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
			return
		}
	}
	if req.SidebarVisible != nil {
		rs.UI.SetSidebarVisible(*req.SidebarVisible)
	}
	writeJSON(w, http.StatusOK, rs.State())
}

// SetPage handles POST /sessions/{id}/page?pos=&delta=. pos jumps to a
// 0-indexed page, delta moves relative to the current one.
func (s *Server) SetPage(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.store(w, r)
	if !ok {
		return
	}
	var params PageParams
	if !s.decodeQuery(w, r, &params) {
		return
	}

	h := rs.Holder()
	switch {
	case params.Pos != nil:
		h.JumpToPagePos(*params.Pos)
	case params.Delta != nil:
		h.SetPagination(*params.Delta)
	default:
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "pos or delta is required")
		return
	}
	rs.Refetch()
	writeJSON(w, http.StatusOK, rs.State())
}

// SetSize handles POST /sessions/{id}/size?size=.
func (s *Server) SetSize(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.store(w, r)
	if !ok {
		return
	}
	var params SizeParams
	if !s.decodeQuery(w, r, &params) {
		return
	}
	if rs.Holder().SetSize(params.Size) {
		rs.Refetch()
	}
	writeJSON(w, http.StatusOK, rs.State())
}

// SetDating handles POST /sessions/{id}/search/{kind}/dating.
func (s *Server) SetDating(w http.ResponseWriter, r *http.Request) {
	rs, c, ok := s.search(w, r)
	if !ok {
		return
	}
	var req DatingRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	c.SetDating(req.FromYear, req.ToYear)
	writeJSON(w, http.StatusOK, rs.State())
}

// SetBestOf handles POST /sessions/{id}/search/{kind}/best-of.
func (s *Server) SetBestOf(w http.ResponseWriter, r *http.Request) {
	rs, c, ok := s.search(w, r)
	if !ok {
		return
	}
	var req BestOfRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	c.SetIsBestOf(req.Value)
	writeJSON(w, http.StatusOK, rs.State())
}

// SetEntityType handles POST /sessions/{id}/search/{kind}/entity-type.
func (s *Server) SetEntityType(w http.ResponseWriter, r *http.Request) {
	rs, c, ok := s.search(w, r)
	if !ok {
		return
	}
	var req EntityTypeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	t, err := artifact.ParseEntityType(req.EntityType)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	c.SetEntityType(t)
	writeJSON(w, http.StatusOK, rs.State())
}

// ToggleFacet handles POST /sessions/{id}/search/{kind}/facets/toggle.
func (s *Server) ToggleFacet(w http.ResponseWriter, r *http.Request) {
	rs, c, ok := s.search(w, r)
	if !ok {
		return
	}
	var req FacetToggleRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	c.ToggleFilterItemActiveStatus(req.Group, req.ID)
	writeJSON(w, http.StatusOK, rs.State())
}

// SetFreetext handles POST /sessions/{id}/search/{kind}/freetext.
func (s *Server) SetFreetext(w http.ResponseWriter, r *http.Request) {
	rs, c, ok := s.search(w, r)
	if !ok {
		return
	}
	var req FreetextRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	partial := make(filter.FreeText, len(req.Fields))
	for k, v := range req.Fields {
		partial[filter.FieldName(k)] = v
	}
	c.SetFreetextFields(partial)
	if req.Apply {
		c.ApplyFreetextFields()
	}
	writeJSON(w, http.StatusOK, rs.State())
}

// ResetFilters handles POST /sessions/{id}/search/{kind}/reset.
func (s *Server) ResetFilters(w http.ResponseWriter, r *http.Request) {
	rs, c, ok := s.search(w, r)
	if !ok {
		return
	}
	c.ResetAllFilters()
	writeJSON(w, http.StatusOK, rs.State())
}

// AddToCollection handles POST /sessions/{id}/collection/{artefactID}.
func (s *Server) AddToCollection(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.store(w, r)
	if !ok {
		return
	}
	if err := rs.Collection.AddArtefactToCollection(r.Context(), chi.URLParam(r, "artefactID")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CollectionResponse{Items: rs.Collection.Items()})
}

// RemoveFromCollection handles DELETE /sessions/{id}/collection/{artefactID}.
func (s *Server) RemoveFromCollection(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.store(w, r)
	if !ok {
		return
	}
	if err := rs.Collection.RemoveArtefactFromCollection(r.Context(), chi.URLParam(r, "artefactID")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CollectionResponse{Items: rs.Collection.Items()})
}

// ShowCollection handles POST /sessions/{id}/collection/show.
func (s *Server) ShowCollection(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.store(w, r)
	if !ok {
		return
	}
	if err := rs.Collection.ShowCollection(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rs.State())
}

// CompareCollection handles POST /sessions/{id}/collection/compare.
func (s *Server) CompareCollection(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.store(w, r)
	if !ok {
		return
	}
	u, err := rs.Collection.StartComparison(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ComparisonResponse{URL: u})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) store(w http.ResponseWriter, r *http.Request) (*rootstore.RootStore, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return nil, false
	}
	return sess.Store, true
}

// search resolves the session and the controller serving the {kind} path
// parameter.
func (s *Server) search(w http.ResponseWriter, r *http.Request) (*rootstore.RootStore, *facetsearch.Controller, bool) {
	rs, ok := s.store(w, r)
	if !ok {
		return nil, nil, false
	}
	kind, err := artifact.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return nil, nil, false
	}
	c := rs.Search(kind)
	if c == nil {
		s.handleDomainError(w, fmt.Errorf("no search configured for %s: %w", kind, domain.ErrUnknownArtifactKind))
		return nil, nil, false
	}
	return rs, c, true
}

// decodeBody decodes and validates a JSON body. An empty body decodes to
// the zero value.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(v); err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
			return false
		}
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, validationMessage(err))
		return false
	}
	return true
}

// decodeQuery decodes and validates URL query parameters.
func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := s.query.Decode(v, r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid query parameters: "+err.Error())
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("field %s failed on %q", fe.Field(), fe.Tag())
	}
	return "validation failed"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrSessionNotFound,
		domain.ErrComparisonNeedsTwo,
		domain.ErrInvalidQuery,
		domain.ErrInvalidFilter,
		domain.ErrUnknownArtifactKind,
		domain.ErrUnknownEntityType,
		domain.ErrProviderUnavailable,
		domain.ErrMalformedResponse,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger).With(zap.String("session_id", chi.URLParam(r, "id")))
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
