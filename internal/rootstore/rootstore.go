// Package rootstore creates and wires every store of one browsing session.
package rootstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cranach-archive/lighttable/internal/debounce"
	"github.com/cranach-archive/lighttable/internal/domain/artifact"
	"github.com/cranach-archive/lighttable/internal/domain/search/mode"
	"github.com/cranach-archive/lighttable/internal/routing"
	"github.com/cranach-archive/lighttable/internal/usecase/collection"
	"github.com/cranach-archive/lighttable/internal/usecase/facetsearch"
	"github.com/cranach-archive/lighttable/internal/usecase/globalsearch"
	"github.com/cranach-archive/lighttable/internal/usecase/lighttable"
	"github.com/cranach-archive/lighttable/internal/usecase/results"
	"github.com/cranach-archive/lighttable/internal/usecase/ui"
)

// Mode selects who owns the results.
type Mode string

// Root store modes.
const (
	// ModeLighttable registers one controller per artifact kind with the
	// shared lighttable.
	ModeLighttable Mode = "lighttable"
	// ModeGlobal uses the self-contained global search.
	ModeGlobal Mode = "global"
)

// ErrStorageRequired is returned when no storage is configured.
var ErrStorageRequired = errors.New("storage is required")

// Deps are the external collaborators. Lookup and Scheduler may be nil.
type Deps struct {
	Providers map[artifact.Kind]facetsearch.SearchProvider
	Lookup    LookupProvider
	Storage   Storage
	Logger    *zap.Logger
	Scheduler debounce.Scheduler
}

// Options tune one root store.
type Options struct {
	Mode                  Mode
	Debounce              time.Duration
	PageSize              int
	ExtendedPageFactor    int
	DiscardStaleResponses bool
	Lang                  string
	ArtifactKind          artifact.Kind
	ComparisonURL         string
	Opener                collection.Opener
}

// RootStore owns the stores of one session. Exactly one of Lighttable and
// Global is set, depending on the mode.
type RootStore struct {
	Router     *routing.Bridge
	UI         *ui.UI
	Lighttable *lighttable.Lighttable
	Works      *facetsearch.Controller
	Archivals  *facetsearch.Controller
	Literature *facetsearch.Controller
	Global     *globalsearch.GlobalSearch
	Collection *collection.Service

	mode   Mode
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
}

// State is a view-facing copy of everything a session shows.
type State struct {
	Mode           Mode                                `json:"mode"`
	Query          string                              `json:"query"`
	UI             ui.State                            `json:"ui"`
	Results        results.State                       `json:"results"`
	CurrentPagePos int                                 `json:"current_page_pos"`
	MaxResultPages int                                 `json:"max_result_pages"`
	SearchMode     mode.Mode                           `json:"search_mode,omitempty"`
	Searches       map[artifact.Kind]facetsearch.State `json:"searches"`
	Collection     []string                            `json:"collection"`
}

// New wires a root store. ctx bounds the store lifetime; Close cancels it.
func New(ctx context.Context, d Deps, o Options) (*RootStore, error) {
	if d.Storage == nil {
		return nil, ErrStorageRequired
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if o.Mode == "" {
		o.Mode = ModeLighttable
	}
	if o.Mode != ModeLighttable && o.Mode != ModeGlobal {
		return nil, fmt.Errorf("unknown root store mode %q", o.Mode)
	}

	ctx, cancel := context.WithCancel(ctx)
	rs := &RootStore{
		Router: routing.NewBridge(logger),
		mode:   o.Mode,
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
	rs.UI = ui.New(o.Lang, o.ArtifactKind, rs.Router)

	fsOpts := facetsearch.Options{
		DiscardStaleResponses: o.DiscardStaleResponses,
		ExtendedPageFactor:    o.ExtendedPageFactor,
	}
	newDebouncer := func(name string) *debounce.Debouncer {
		return debounce.New(name, o.Debounce, d.Scheduler)
	}

	colDeps := collection.Deps{
		Storage:       d.Storage,
		Opener:        o.Opener,
		ComparisonURL: o.ComparisonURL,
		Logger:        logger,
	}

	switch o.Mode {
	case ModeGlobal:
		var lookup globalsearch.LookupProvider
		if d.Lookup != nil {
			lookup = d.Lookup
		}
		rs.Global = globalsearch.New(ctx, globalsearch.Deps{
			Works:     d.Providers[artifact.KindWorks],
			Archivals: d.Providers[artifact.KindArchivals],
			Lookup:    lookup,
			Router:    rs.Router,
			Storage:   d.Storage,
			Lang:      rs.UI,
			Debouncer: newDebouncer("global"),
			Logger:    logger,
			PageSize:  o.PageSize,
			Options:   fsOpts,
		})
		colDeps.Searcher = rs.Global
		colDeps.Resetter = rs.Global

	default:
		var lookup lighttable.LookupProvider
		if d.Lookup != nil {
			lookup = d.Lookup
		}
		holder := results.NewHolder(o.PageSize, rs.Router)
		rs.Lighttable = lighttable.New(ctx, lighttable.Deps{
			Holder:    holder,
			Kinds:     rs.UI,
			Lang:      rs.UI,
			Lookup:    lookup,
			Debouncer: newDebouncer("lighttable"),
			Logger:    logger,
		})

		build := func(cfgFn func(facetsearch.SearchProvider) facetsearch.KindConfig, kind artifact.Kind) *facetsearch.Controller {
			p, ok := d.Providers[kind]
			if !ok || p == nil {
				logger.Info("no search provider configured", zap.String("kind", string(kind)))
				return nil
			}
			cfg := cfgFn(p)
			c := facetsearch.New(ctx, facetsearch.Deps{
				Config:    cfg,
				Holder:    holder,
				Router:    rs.Router,
				Storage:   d.Storage,
				Lang:      rs.UI,
				Debouncer: newDebouncer(cfg.Name),
				Logger:    logger,
				Options:   fsOpts,
			})
			rs.Lighttable.RegisterProvider(c)
			return c
		}
		rs.Works = build(facetsearch.WorksConfig, artifact.KindWorks)
		rs.Archivals = build(facetsearch.ArchivalsConfig, artifact.KindArchivals)
		rs.Literature = build(facetsearch.LiteratureReferencesConfig, artifact.KindLiteratureReferences)

		colDeps.Searcher = rs.Lighttable
		if rs.Works != nil {
			colDeps.Resetter = rs.Works
		}
	}

	rs.Collection = collection.New(colDeps)
	rs.UI.OnChange(func(ui.Event) { rs.Refetch() })
	return rs, nil
}

// Mode returns the configured mode.
func (rs *RootStore) Mode() Mode { return rs.mode }

// Context returns the store lifetime context.
func (rs *RootStore) Context() context.Context { return rs.ctx }

// Init applies the initial URL query, loads the persisted collection and
// schedules the first fetch.
func (rs *RootStore) Init(rawQuery string) error {
	if err := rs.Router.Init(rawQuery); err != nil {
		return fmt.Errorf("init routing: %w", err)
	}
	if err := rs.Collection.ReadCollectionFromLocalStorage(rs.ctx); err != nil {
		rs.logger.Warn("load collection failed", zap.Error(err))
	}
	rs.Refetch()
	return nil
}

// Navigate applies a URL change and schedules a fetch.
func (rs *RootStore) Navigate(rawQuery string) error {
	if err := rs.Router.Navigate(rawQuery); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	rs.Refetch()
	return nil
}

// Refetch schedules a debounced fetch for the current state.
func (rs *RootStore) Refetch() {
	if rs.Global != nil {
		rs.Global.Fetch()
		return
	}
	rs.Lighttable.Fetch()
}

// Holder returns the result holder the view renders.
func (rs *RootStore) Holder() *results.Holder {
	if rs.Global != nil {
		return rs.Global.Holder()
	}
	return rs.Lighttable.Holder
}

// Search returns the controller serving kind. In global mode every kind
// maps to the global search controller. It returns nil when the kind has
// no provider.
func (rs *RootStore) Search(kind artifact.Kind) *facetsearch.Controller {
	if rs.Global != nil {
		return rs.Global.Controller
	}
	switch kind {
	case artifact.KindWorks:
		return rs.Works
	case artifact.KindArchivals:
		return rs.Archivals
	case artifact.KindLiteratureReferences:
		return rs.Literature
	}
	return nil
}

// ActiveSearch returns the controller of the selected artifact kind.
func (rs *RootStore) ActiveSearch() *facetsearch.Controller {
	return rs.Search(rs.UI.ArtifactKind())
}

// State returns a view-facing copy of the session.
func (rs *RootStore) State() State {
	h := rs.Holder()
	s := State{
		Mode:           rs.mode,
		Query:          rs.Router.Encode(),
		UI:             rs.UI.State(),
		Results:        h.State(),
		CurrentPagePos: h.CurrentResultPagePos(),
		MaxResultPages: h.MaxResultPages(),
		Searches:       make(map[artifact.Kind]facetsearch.State),
		Collection:     rs.Collection.Items(),
	}
	if rs.Global != nil {
		s.SearchMode = rs.Global.SearchMode()
		s.Searches[artifact.KindWorks] = rs.Global.Snapshot()
		return s
	}
	for _, c := range []*facetsearch.Controller{rs.Works, rs.Archivals, rs.Literature} {
		if c != nil {
			s.Searches[c.Kind()] = c.Snapshot()
		}
	}
	return s
}

// Close cancels the lifetime context and every pending debounce timer.
func (rs *RootStore) Close() {
	rs.cancel()
	for _, c := range []*facetsearch.Controller{rs.Works, rs.Archivals, rs.Literature} {
		if c != nil {
			c.Close()
		}
	}
	if rs.Lighttable != nil {
		rs.Lighttable.Close()
	}
	if rs.Global != nil {
		rs.Global.Close()
	}
	rs.UI.Close()
}
