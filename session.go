package lighttable

import (
	"fmt"
	"time"

	"github.com/cranach-archive/lighttable/internal/domain/artifact"
	"github.com/cranach-archive/lighttable/internal/rootstore"
	"github.com/cranach-archive/lighttable/internal/usecase/collection"
	"github.com/cranach-archive/lighttable/internal/usecase/facetsearch"
	"github.com/cranach-archive/lighttable/internal/usecase/globalsearch"
	"github.com/cranach-archive/lighttable/internal/usecase/lighttable"
	"github.com/cranach-archive/lighttable/internal/usecase/results"
	"github.com/cranach-archive/lighttable/internal/usecase/ui"
)

// Session is one browsing session: the stores behind a single browser tab.
type Session struct {
	id     string
	store  *rootstore.RootStore
	client *Client
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// State returns a snapshot of everything the session shows.
func (s *Session) State() rootstore.State { return s.store.State() }

// Query returns the current URL query string.
func (s *Session) Query() string { return s.store.Router.Encode() }

// Navigate moves the session to another URL query, as the browser back
// button does.
func (s *Session) Navigate(query string) (err error) {
	start := time.Now()
	defer func() { s.client.obs.observe("navigate", start, err) }()
	return s.store.Navigate(query)
}

// Refetch schedules a debounced fetch for the current state.
func (s *Session) Refetch() { s.store.Refetch() }

// UI returns the presentation store.
func (s *Session) UI() *ui.UI { return s.store.UI }

// Results returns the holder of the visible result set.
func (s *Session) Results() *results.Holder { return s.store.Holder() }

// Lighttable returns the shared result store, nil in global mode.
func (s *Session) Lighttable() *lighttable.Lighttable { return s.store.Lighttable }

// Global returns the global search, nil in lighttable mode.
func (s *Session) Global() *globalsearch.GlobalSearch { return s.store.Global }

// Works returns the works search.
func (s *Session) Works() *facetsearch.Controller { return s.store.Search(artifact.KindWorks) }

// Archivals returns the archivals search.
func (s *Session) Archivals() *facetsearch.Controller { return s.store.Search(artifact.KindArchivals) }

// LiteratureReferences returns the literature references search.
func (s *Session) LiteratureReferences() *facetsearch.Controller {
	return s.store.Search(artifact.KindLiteratureReferences)
}

// Search returns the search of an artifact kind (WORKS, ARCHIVALS or
// LITERATURE_REFERENCES).
func (s *Session) Search(kind string) (*facetsearch.Controller, error) {
	k, err := artifact.ParseKind(kind)
	if err != nil {
		return nil, fmt.Errorf("lighttable: %w", err)
	}
	return s.store.Search(k), nil
}

// Collection returns the favorites collection.
func (s *Session) Collection() *collection.Service { return s.store.Collection }

// Close closes the session and cancels its pending requests.
func (s *Session) Close() error {
	if err := s.client.sessions.Delete(s.id); err != nil {
		return fmt.Errorf("lighttable: %w", err)
	}
	s.client.obs.sessionsOpen(s.client.sessions.Len())
	return nil
}
