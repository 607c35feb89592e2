// Package lighttable is the shared result and pagination manager. It
// delegates fetches to the registered search store matching the selected
// artifact kind.
package lighttable

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/cranach-archive/lighttable/internal/debounce"
	"github.com/cranach-archive/lighttable/internal/domain/artifact"
	"github.com/cranach-archive/lighttable/internal/usecase/results"
)

// Lighttable embeds the shared result holder.
type Lighttable struct {
	*results.Holder

	mu        sync.Mutex
	providers []Provider
	kinds     KindSource
	lang      LangSource
	lookup    LookupProvider
	debouncer *debounce.Debouncer
	ctx       context.Context
	logger    *zap.Logger
}

// Deps are the collaborators of a Lighttable. Lookup and Lang may be nil
// when collection lookups are not served.
type Deps struct {
	Holder    *results.Holder
	Kinds     KindSource
	Lang      LangSource
	Lookup    LookupProvider
	Debouncer *debounce.Debouncer
	Logger    *zap.Logger
}

// New creates a Lighttable. ctx bounds every debounced fetch.
func New(ctx context.Context, d Deps) *Lighttable {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	deb := d.Debouncer
	if deb == nil {
		deb = debounce.New("lighttable", 0, nil)
	}
	return &Lighttable{
		Holder:    d.Holder,
		kinds:     d.Kinds,
		lang:      d.Lang,
		lookup:    d.Lookup,
		debouncer: deb,
		ctx:       ctx,
		logger:    logger,
	}
}

// RegisterProvider appends a provider. Registering one twice yields
// duplicate fetches; callers register each store once.
func (l *Lighttable) RegisterProvider(p Provider) {
	l.mu.Lock()
	l.providers = append(l.providers, p)
	l.mu.Unlock()
}

// Fetch schedules a debounced request through the provider of the selected
// kind. Without a matching provider the result is cleared.
func (l *Lighttable) Fetch() {
	kind := l.kinds.ArtifactKind()
	p := l.providerFor(kind)
	if p == nil {
		l.logger.Debug("no provider for artifact kind", zap.String("kind", string(kind)))
		l.debouncer.Cancel()
		l.ResetResult()
		return
	}

	l.debouncer.Trigger(func() {
		l.SetResultLoading(true)
		defer l.SetResultLoading(false)

		if err := p.TriggerRequest(l.ctx); err != nil {
			l.logger.Warn("lighttable fetch failed", zap.String("kind", string(kind)), zap.Error(err))
			l.SetResultFetchingFailed(err.Error())
		}
	})
}

// SearchByIDs shows exactly the given artefacts, bypassing the filters.
func (l *Lighttable) SearchByIDs(ctx context.Context, ids []string) error {
	if l.lookup == nil {
		return nil
	}
	lang := ""
	if l.lang != nil {
		lang = l.lang.Lang()
	}

	l.debouncer.Cancel()
	l.SetResultLoading(true)
	defer l.SetResultLoading(false)

	res, err := l.lookup.QueryByIDs(ctx, ids, lang)
	if err != nil {
		l.logger.Warn("lookup by ids failed", zap.Int("ids", len(ids)), zap.Error(err))
		l.SetResultFetchingFailed(err.Error())
		return err
	}
	l.SetResult(res)
	return nil
}

// EntityTypes returns the entity types of the selected artifact kind.
func (l *Lighttable) EntityTypes() []artifact.EntityType {
	return artifact.EntityTypesForKind(l.kinds.ArtifactKind())
}

// Close cancels the pending fetch and releases the holder.
func (l *Lighttable) Close() {
	l.debouncer.Close()
	l.Holder.Close()
}

func (l *Lighttable) providerFor(kind artifact.Kind) Provider {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range l.providers {
		if p.SupportsArtifactKind(kind) {
			return p
		}
	}
	return nil
}
