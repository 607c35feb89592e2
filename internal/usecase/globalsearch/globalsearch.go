// Package globalsearch is the self-contained search covering works and
// archivals. Unlike the lighttable stores it owns its result holder.
package globalsearch

import (
	"context"

	"go.uber.org/zap"

	"github.com/cranach-archive/lighttable/internal/debounce"
	"github.com/cranach-archive/lighttable/internal/domain/search/mode"
	"github.com/cranach-archive/lighttable/internal/usecase/facetsearch"
	"github.com/cranach-archive/lighttable/internal/usecase/results"
)

// GlobalSearch embeds the generic controller and exposes its private
// result holder.
type GlobalSearch struct {
	*facetsearch.Controller

	holder *results.Holder
	lookup LookupProvider
	lang   facetsearch.LangSource
	logger *zap.Logger
}

// Deps are the collaborators of a GlobalSearch. Lookup, Storage and Lang
// may be nil.
type Deps struct {
	Works     facetsearch.SearchProvider
	Archivals facetsearch.SearchProvider
	Lookup    LookupProvider
	Router    facetsearch.Router
	Storage   facetsearch.Storage
	Lang      facetsearch.LangSource
	Debouncer *debounce.Debouncer
	Logger    *zap.Logger
	PageSize  int
	Options   facetsearch.Options
}

// New creates a GlobalSearch with its own result holder.
func New(ctx context.Context, d Deps) *GlobalSearch {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var router results.Router
	if d.Router != nil {
		router = d.Router
	}
	holder := results.NewHolder(d.PageSize, router)
	provider := &modeProvider{works: d.Works, archivals: d.Archivals}

	ctrl := facetsearch.New(ctx, facetsearch.Deps{
		Config:    facetsearch.GlobalConfig(provider),
		Holder:    holder,
		Router:    d.Router,
		Storage:   d.Storage,
		Lang:      d.Lang,
		Debouncer: d.Debouncer,
		Logger:    logger,
		Options:   d.Options,
	})
	return &GlobalSearch{
		Controller: ctrl,
		holder:     holder,
		lookup:     d.Lookup,
		lang:       d.Lang,
		logger:     logger.With(zap.String("store", "global")),
	}
}

// Holder returns the private result holder.
func (g *GlobalSearch) Holder() *results.Holder { return g.holder }

// SearchMode is ARCHIVALS when the ARCHIVAL entity type is selected and
// WORKS otherwise.
func (g *GlobalSearch) SearchMode() mode.Mode {
	return mode.ForEntityType(g.EntityType())
}

// Fetch schedules a debounced request keeping the current page.
func (g *GlobalSearch) Fetch() {
	g.TriggerFilterRequest(false)
}

// SearchByIDs shows exactly the given artefacts, bypassing the filters.
func (g *GlobalSearch) SearchByIDs(ctx context.Context, ids []string) error {
	if g.lookup == nil {
		return nil
	}
	lang := ""
	if g.lang != nil {
		lang = g.lang.Lang()
	}

	g.holder.SetResultLoading(true)
	defer g.holder.SetResultLoading(false)

	res, err := g.lookup.QueryByIDs(ctx, ids, lang)
	if err != nil {
		g.logger.Warn("lookup by ids failed", zap.Int("ids", len(ids)), zap.Error(err))
		g.holder.SetResultFetchingFailed(err.Error())
		return err
	}
	g.holder.SetResult(res)
	return nil
}

// Close cancels the pending request and releases the holder.
func (g *GlobalSearch) Close() {
	g.Controller.Close()
	g.holder.Close()
}
