// Package facetsearch implements the faceted search stores. One Controller
// type serves every artifact kind; a KindConfig carries the differences.
package facetsearch

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/cranach-archive/lighttable/internal/debounce"
	"github.com/cranach-archive/lighttable/internal/domain/artifact"
	"github.com/cranach-archive/lighttable/internal/domain/search/filter"
	"github.com/cranach-archive/lighttable/internal/domain/search/request"
	"github.com/cranach-archive/lighttable/internal/domain/search/result"
	"github.com/cranach-archive/lighttable/internal/metrics"
	"github.com/cranach-archive/lighttable/internal/repository/localstore"
	"github.com/cranach-archive/lighttable/internal/routing"
)

// DefaultExtendedPageFactor multiplies the page size of the request whose
// items are cached for the detail view navigation.
const DefaultExtendedPageFactor = 2

// Options tune the request pipeline.
type Options struct {
	// DiscardStaleResponses drops responses of requests superseded by a
	// newer one. Off by default: the last response to arrive wins.
	DiscardStaleResponses bool
	ExtendedPageFactor    int
}

// Deps are the collaborators of a Controller. Storage and Lang may be nil.
type Deps struct {
	Config    KindConfig
	Holder    ResultHolder
	Router    Router
	Storage   Storage
	Lang      LangSource
	Debouncer *debounce.Debouncer
	Logger    *zap.Logger
	Options   Options
}

// State is the view-facing copy of a controller.
type State struct {
	Kind                  artifact.Kind       `json:"kind"`
	FromYear              int                 `json:"from_year"`
	ToYear                int                 `json:"to_year"`
	EntityType            artifact.EntityType `json:"entity_type"`
	Groups                map[string][]string `json:"groups"`
	IsBestOf              bool                `json:"is_best_of"`
	FreeText              filter.FreeText     `json:"freetext"`
	AppliedFreeText       filter.FreeText     `json:"applied_freetext"`
	AmountOfActiveFilters int                 `json:"amount_of_active_filters"`
}

// cachedItem is one entry of the searchResult storage value.
type cachedItem struct {
	ID         string              `json:"id"`
	ImgSrc     string              `json:"imgSrc"`
	EntityType artifact.EntityType `json:"entityType"`
}

// Controller owns the filter state of one faceted search and drives
// requests against its provider.
type Controller struct {
	cfg       KindConfig
	holder    ResultHolder
	router    Router
	storage   Storage
	lang      LangSource
	debouncer *debounce.Debouncer
	logger    *zap.Logger
	opts      Options
	ctx       context.Context

	mu       sync.Mutex
	filters  Filters
	freetext filter.FreeText
	applied  filter.FreeText
	sorting  []request.SortingItem
	seq      uint64
	unsubs   []func()
}

// New creates a controller and subscribes it to its routing parameters.
// ctx bounds every debounced request.
func New(ctx context.Context, d Deps) *Controller {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	deb := d.Debouncer
	if deb == nil {
		deb = debounce.New(d.Config.Name, 0, nil)
	}
	if d.Options.ExtendedPageFactor <= 0 {
		d.Options.ExtendedPageFactor = DefaultExtendedPageFactor
	}
	cfg := d.Config
	if cfg.DefaultFilters.Groups == nil {
		cfg.DefaultFilters = DefaultFilters()
	}

	c := &Controller{
		cfg:       cfg,
		holder:    d.Holder,
		router:    d.Router,
		storage:   d.Storage,
		lang:      d.Lang,
		debouncer: deb,
		logger:    logger.With(zap.String("store", cfg.Name)),
		opts:      d.Options,
		ctx:       ctx,
		filters:   cfg.DefaultFilters.clone(),
		freetext:  make(filter.FreeText),
		applied:   make(filter.FreeText),
		sorting:   append([]request.SortingItem(nil), cfg.DefaultSorting...),
	}
	if c.router != nil {
		c.subscribe()
	}
	return c
}

// Kind returns the artifact kind this controller searches.
func (c *Controller) Kind() artifact.Kind { return c.cfg.Kind }

// Name returns the store name used in logs and metrics.
func (c *Controller) Name() string { return c.cfg.Name }

// SupportsArtifactKind reports whether kind is served by this controller.
func (c *Controller) SupportsArtifactKind(kind artifact.Kind) bool {
	return kind == c.cfg.Kind
}

// SetFreetextFields merges partial into the edited free text. Nothing is
// applied or requested.
func (c *Controller) SetFreetextFields(partial filter.FreeText) {
	c.mu.Lock()
	c.freetext.Merge(partial.Restrict(c.cfg.FreeTextFields))
	c.mu.Unlock()
}

// ApplyFreetextFields makes the edited free text part of the query, mirrors
// it to the URL and triggers a filter request.
func (c *Controller) ApplyFreetextFields() {
	c.mu.Lock()
	c.applied = c.freetext.Clone()
	changes := make([]routing.Change, 0, len(c.cfg.FreeTextFields))
	for _, f := range c.cfg.FreeTextFields {
		changes = append(changes, routing.AddOrRemove(c.cfg.RoutingParamMap[f], c.applied.Get(f)))
	}
	c.mu.Unlock()

	c.route(changes...)
	c.TriggerFilterRequest(true)
}

// SetDating sets the dating range. The default range removes both URL
// parameters.
func (c *Controller) SetDating(fromYear, toYear int) {
	d := filter.NewDating(fromYear, toYear)
	c.mu.Lock()
	c.filters.Dating = d
	c.mu.Unlock()

	if d.IsDefault() {
		c.route(routing.RemoveParam(routing.ParamFromYear), routing.RemoveParam(routing.ParamToYear))
	} else {
		c.route(
			routing.AddParam(routing.ParamFromYear, d.FormatFromYear()),
			routing.AddParam(routing.ParamToYear, d.FormatToYear()),
		)
	}
	c.TriggerFilterRequest(true)
}

// SetIsBestOf toggles the best-of restriction.
func (c *Controller) SetIsBestOf(isBestOf bool) {
	c.mu.Lock()
	c.filters.IsBestOf = isBestOf
	c.mu.Unlock()

	if isBestOf {
		c.route(routing.AddParam(routing.ParamIsBestOf, routing.BestOfValue))
	} else {
		c.route(routing.RemoveParam(routing.ParamIsBestOf))
	}
	c.TriggerFilterRequest(true)
}

// SetEntityType restricts the search to one entity type. EntityUnknown
// means all types of the kind.
func (c *Controller) SetEntityType(t artifact.EntityType) {
	if t == "" {
		t = artifact.EntityUnknown
	}
	c.mu.Lock()
	c.filters.EntityType = t
	c.mu.Unlock()

	c.route(entityTypeChange(t))
	c.TriggerFilterRequest(true)
}

// ClearEntityType resets the entity type and its URL parameter without
// triggering a request.
func (c *Controller) ClearEntityType() {
	c.mu.Lock()
	c.filters.EntityType = artifact.EntityUnknown
	c.mu.Unlock()
	c.route(routing.RemoveParam(routing.ParamKind))
}

// ToggleFilterItemActiveStatus adds id to or removes it from a facet group.
func (c *Controller) ToggleFilterItemActiveStatus(groupKey, id string) {
	c.mu.Lock()
	c.filters.Groups.Toggle(groupKey, id)
	encoded := filter.EncodeGroups(c.filters.Groups)
	c.mu.Unlock()

	c.route(routing.AddOrRemove(routing.ParamFilters, encoded))
	c.TriggerFilterRequest(true)
}

// SetSorting replaces the sort order of subsequent requests.
func (c *Controller) SetSorting(items []request.SortingItem) {
	c.mu.Lock()
	c.sorting = append([]request.SortingItem(nil), items...)
	c.mu.Unlock()
}

// ResetAllFilters restores the defaults, clears the free text and the
// matching URL parameters and triggers a request from the first page.
func (c *Controller) ResetAllFilters() {
	c.mu.Lock()
	c.filters = c.cfg.DefaultFilters.clone()
	c.freetext = make(filter.FreeText)
	c.applied = make(filter.FreeText)
	changes := []routing.Change{
		routing.RemoveParam(routing.ParamFromYear),
		routing.RemoveParam(routing.ParamToYear),
		routing.RemoveParam(routing.ParamFilters),
		routing.RemoveParam(routing.ParamIsBestOf),
	}
	if c.cfg.SupportsEntityType {
		changes = append(changes, routing.RemoveParam(routing.ParamKind))
	}
	for _, f := range c.cfg.FreeTextFields {
		changes = append(changes, routing.RemoveParam(c.cfg.RoutingParamMap[f]))
	}
	c.mu.Unlock()

	c.route(changes...)
	c.TriggerFilterRequest(true)
}

// AmountOfActiveFilters counts the filters differing from the defaults.
func (c *Controller) AmountOfActiveFilters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeFiltersLocked()
}

// EntityType returns the selected entity type.
func (c *Controller) EntityType() artifact.EntityType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters.EntityType
}

// Filters returns a copy of the filter state.
func (c *Controller) Filters() Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters.clone()
}

// Snapshot returns the view-facing state copy.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Kind:                  c.cfg.Kind,
		FromYear:              c.filters.Dating.FromYear,
		ToYear:                c.filters.Dating.ToYear,
		EntityType:            c.filters.EntityType,
		Groups:                c.filters.Groups.Sorted(),
		IsBestOf:              c.filters.IsBestOf,
		FreeText:              c.freetext.Clone(),
		AppliedFreeText:       c.applied.Clone(),
		AmountOfActiveFilters: c.activeFiltersLocked(),
	}
}

// RequestSnapshot builds the filter snapshot for the given page window.
func (c *Controller) RequestSnapshot(size, from int) request.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(size, from)
}

// TriggerFilterRequest schedules a debounced request. The last call within
// the window wins.
func (c *Controller) TriggerFilterRequest(resetPagePos bool) {
	c.debouncer.Trigger(func() {
		_ = c.runRequest(c.ctx, resetPagePos)
	})
}

// TriggerRequest runs a request immediately without resetting the page.
// Callers that debounce on their own use it.
func (c *Controller) TriggerRequest(ctx context.Context) error {
	return c.runRequest(ctx, false)
}

// Close cancels the pending request and drops the routing subscriptions.
func (c *Controller) Close() {
	c.debouncer.Close()
	c.mu.Lock()
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()
	for _, u := range unsubs {
		u()
	}
}

func (c *Controller) runRequest(ctx context.Context, resetPagePos bool) error {
	if resetPagePos {
		c.holder.ResetPagePos()
	}
	pg := c.holder.Pagination()

	c.mu.Lock()
	snap := c.snapshotLocked(pg.Size, pg.From)
	freetext := c.applied.Clone()
	sorting := append([]request.SortingItem(nil), c.sorting...)
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	lang := c.langValue()

	c.holder.SetResultLoading(true)

	res, err := c.cfg.Provider.QueryByFilters(ctx, snap, freetext, sorting, lang)
	if c.superseded(seq) {
		// The newer request still owns the loading flag.
		metrics.StaleResponsesTotal.WithLabelValues(c.cfg.Name).Inc()
		c.logger.Debug("dropping stale response", zap.Uint64("seq", seq))
		return nil
	}
	c.holder.SetResultLoading(false)
	if err != nil {
		c.logger.Warn("search request failed", zap.Error(err))
		c.holder.SetResultFetchingFailed(err.Error())
		return err
	}
	c.holder.SetResult(res)

	c.cacheExtended(ctx, snap, freetext, sorting, lang)
	return nil
}

// cacheExtended fetches a wider window with the same filters and stores its
// items under the searchResult key. Failures are only logged: the visible
// result is already in place.
func (c *Controller) cacheExtended(
	ctx context.Context,
	snap request.Snapshot,
	freetext filter.FreeText,
	sorting []request.SortingItem,
	lang string,
) {
	if c.storage == nil {
		return
	}
	ext := snap.WithPage(snap.Size*c.opts.ExtendedPageFactor, snap.From)
	if ext.Size > request.MaxSize {
		ext.Size = request.MaxSize
	}
	res, err := c.cfg.Provider.QueryByFilters(ctx, ext, freetext, sorting, lang)
	if err != nil {
		c.logger.Warn("extended search request failed", zap.Error(err))
		return
	}

	payload, err := encodeCachedItems(res)
	if err != nil {
		c.logger.Error("encode search result cache", zap.Error(err))
		return
	}
	if err := c.storage.SetItem(ctx, localstore.KeySearchResult, payload); err != nil {
		c.logger.Warn("store search result cache", zap.Error(err))
	}
}

func encodeCachedItems(res *result.Result) (string, error) {
	items := res.FlattenedItems()
	out := make([]cachedItem, 0, len(items))
	for _, it := range items {
		out = append(out, cachedItem{ID: it.ID, ImgSrc: it.ImgSrc, EntityType: it.EntityType})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Controller) superseded(seq uint64) bool {
	if !c.opts.DiscardStaleResponses {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return seq != c.seq
}

func (c *Controller) snapshotLocked(size, from int) request.Snapshot {
	entityType := artifact.EntityUnknown
	if c.cfg.SupportsEntityType {
		entityType = c.filters.EntityType
	}
	isBestOf := c.cfg.SupportsBestOf && c.filters.IsBestOf
	dating := filter.DefaultDating()
	if c.cfg.SupportsDating {
		dating = c.filters.Dating
	}
	return request.NewSnapshot(dating, entityType, c.cfg.EntityTypes, c.filters.Groups, isBestOf, size, from)
}

func (c *Controller) activeFiltersLocked() int {
	n := 0
	if !c.filters.Dating.IsDefault() {
		n++
	}
	n += len(c.filters.Groups.Keys())
	if c.filters.IsBestOf {
		n++
	}
	if c.cfg.SupportsEntityType && c.filters.EntityType != artifact.EntityUnknown {
		n++
	}
	return n
}

func (c *Controller) langValue() string {
	if c.lang == nil {
		return ""
	}
	return c.lang.Lang()
}

func (c *Controller) route(changes ...routing.Change) {
	if c.router == nil || len(changes) == 0 {
		return
	}
	c.router.UpdateSearchQueryParams(changes)
}

func entityTypeChange(t artifact.EntityType) routing.Change {
	if t == artifact.EntityUnknown {
		return routing.RemoveParam(routing.ParamKind)
	}
	return routing.AddParam(routing.ParamKind, string(t))
}
