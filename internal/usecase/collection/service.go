// Package collection manages the user's favorited artefacts.
package collection

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cranach-archive/lighttable/internal/domain"
	"github.com/cranach-archive/lighttable/internal/domain/favorites"
	"github.com/cranach-archive/lighttable/internal/repository/localstore"
)

// Service owns the in-memory collection and persists every change.
type Service struct {
	mu    sync.Mutex
	items favorites.List

	storage       Storage
	searcher      IDSearcher
	resetter      EntityTypeResetter
	opener        Opener
	comparisonURL string
	logger        *zap.Logger
}

// Deps are the collaborators of a Service. Searcher, Resetter and Opener
// may be nil.
type Deps struct {
	Storage       Storage
	Searcher      IDSearcher
	Resetter      EntityTypeResetter
	Opener        Opener
	ComparisonURL string
	Logger        *zap.Logger
}

// New creates a collection service. Call ReadCollectionFromLocalStorage to
// load the persisted state.
func New(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		items:         favorites.List{},
		storage:       d.Storage,
		searcher:      d.Searcher,
		resetter:      d.Resetter,
		opener:        d.Opener,
		comparisonURL: d.ComparisonURL,
		logger:        logger.Named("collection"),
	}
}

// AddArtefactToCollection appends id and persists. Duplicates are not
// filtered; ToggleArtefact checks membership first.
func (s *Service) AddArtefactToCollection(ctx context.Context, id string) error {
	s.mu.Lock()
	s.items = append(s.items, id)
	value := s.items.String()
	s.mu.Unlock()
	return s.persist(ctx, value)
}

// RemoveArtefactFromCollection drops id and persists.
func (s *Service) RemoveArtefactFromCollection(ctx context.Context, id string) error {
	s.mu.Lock()
	s.items = s.items.Remove(id)
	value := s.items.String()
	s.mu.Unlock()
	return s.persist(ctx, value)
}

// CollectionIncludesArtefact reports membership of id.
func (s *Service) CollectionIncludesArtefact(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Includes(id)
}

// ToggleArtefact adds id when missing and removes it otherwise. It
// reports whether id is in the collection afterwards.
func (s *Service) ToggleArtefact(ctx context.Context, id string) (bool, error) {
	if s.CollectionIncludesArtefact(id) {
		return false, s.RemoveArtefactFromCollection(ctx, id)
	}
	return true, s.AddArtefactToCollection(ctx, id)
}

// ReadCollectionFromLocalStorage replaces the in-memory state with the
// persisted one.
func (s *Service) ReadCollectionFromLocalStorage(ctx context.Context) error {
	value, _, err := s.storage.GetItem(ctx, localstore.KeyCollection)
	if err != nil {
		return fmt.Errorf("read collection: %w", err)
	}
	s.mu.Lock()
	s.items = favorites.Parse(value)
	s.mu.Unlock()
	return nil
}

// Items returns a copy of the collected ids.
func (s *Service) Items() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.items...)
}

// Size returns the number of collected ids.
func (s *Service) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// ShowCollection re-reads the persisted state, clears the entity type
// filter and shows exactly the collected artefacts.
func (s *Service) ShowCollection(ctx context.Context) error {
	if err := s.ReadCollectionFromLocalStorage(ctx); err != nil {
		return err
	}
	if s.resetter != nil {
		s.resetter.ClearEntityType()
	}
	if s.searcher == nil {
		return nil
	}

	s.mu.Lock()
	ids := s.items.IDs()
	s.mu.Unlock()

	if err := s.searcher.SearchByIDs(ctx, ids); err != nil {
		return fmt.Errorf("show collection: %w", err)
	}
	return nil
}

// ComparisonURL builds the comparison tool URL for the collected ids.
func (s *Service) ComparisonURL() (string, error) {
	s.mu.Lock()
	items := append(favorites.List{}, s.items...)
	s.mu.Unlock()

	if len(items) < 2 {
		return "", domain.ErrComparisonNeedsTwo
	}
	escaped := make([]string, len(items))
	for i, id := range items {
		escaped[i] = url.QueryEscape(id)
	}
	sep := "?"
	if strings.Contains(s.comparisonURL, "?") {
		sep = "&"
	}
	return s.comparisonURL + sep + "ids=" + strings.Join(escaped, ","), nil
}

// StartComparison opens the comparison tool for the collected ids and
// returns the URL it opened.
func (s *Service) StartComparison(ctx context.Context) (string, error) {
	u, err := s.ComparisonURL()
	if err != nil {
		return "", err
	}
	if s.opener != nil {
		if err := s.opener.Open(ctx, u); err != nil {
			return "", fmt.Errorf("open comparison: %w", err)
		}
	}
	return u, nil
}

func (s *Service) persist(ctx context.Context, value string) error {
	if err := s.storage.SetItem(ctx, localstore.KeyCollection, value); err != nil {
		s.logger.Warn("persist collection failed", zap.Error(err))
		return fmt.Errorf("persist collection: %w", err)
	}
	return nil
}
