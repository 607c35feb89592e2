package globalsearch

import (
	"context"
	"fmt"
	"slices"

	"github.com/cranach-archive/lighttable/internal/domain"
	"github.com/cranach-archive/lighttable/internal/domain/artifact"
	"github.com/cranach-archive/lighttable/internal/domain/search/filter"
	"github.com/cranach-archive/lighttable/internal/domain/search/mode"
	"github.com/cranach-archive/lighttable/internal/domain/search/request"
	"github.com/cranach-archive/lighttable/internal/domain/search/result"
	"github.com/cranach-archive/lighttable/internal/usecase/facetsearch"
)

// modeProvider routes a request to the works or the archivals provider
// depending on the selected entity type.
type modeProvider struct {
	works     facetsearch.SearchProvider
	archivals facetsearch.SearchProvider
}

func (p *modeProvider) QueryByFilters(
	ctx context.Context,
	snap request.Snapshot,
	freetext filter.FreeText,
	sort []request.SortingItem,
	lang string,
) (*result.Result, error) {
	m := mode.ForEntityType(snap.EntityType)
	target := p.works
	if m == mode.Archivals {
		target = p.archivals
	}
	if target == nil {
		return nil, fmt.Errorf("%w: no provider for %s", domain.ErrProviderUnavailable, m)
	}

	snap.EntityTypes = artifact.EntityTypesForKind(m.Kind())
	if m == mode.Archivals {
		// ARCHIVAL selects the provider; the archivals index has no
		// entity type filter of its own.
		snap.EntityType = artifact.EntityUnknown
		return target.QueryByFilters(ctx, snap, freetext, sort, lang)
	}
	if !slices.Contains(snap.EntityTypes, snap.EntityType) {
		snap.EntityType = artifact.EntityUnknown
	}
	return target.QueryByFilters(ctx, snap, freetext, sort, lang)
}
