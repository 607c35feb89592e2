package facetsearch

import (
	"context"

	"github.com/cranach-archive/lighttable/internal/domain/pagination"
	"github.com/cranach-archive/lighttable/internal/domain/search/filter"
	"github.com/cranach-archive/lighttable/internal/domain/search/request"
	"github.com/cranach-archive/lighttable/internal/domain/search/result"
	"github.com/cranach-archive/lighttable/internal/routing"
)

// SearchProvider queries one entity kind of the archive.
type SearchProvider interface {
	QueryByFilters(
		ctx context.Context,
		snapshot request.Snapshot,
		freetext filter.FreeText,
		sort []request.SortingItem,
		lang string,
	) (*result.Result, error)
}

// ResultHolder receives what a request produced. Lighttable's shared holder
// and the private holder of the global search both satisfy it.
type ResultHolder interface {
	Pagination() pagination.Pagination
	ResetPagePos()
	SetResult(r *result.Result)
	SetResultLoading(loading bool)
	SetResultFetchingFailed(msg string)
}

// Router is the routing bridge subset a controller needs.
type Router interface {
	UpdateSearchQueryParams(changes []routing.Change)
	Get(param routing.Param) (string, bool)
	Subscribe(param routing.Param, fn routing.HandlerFunc) func()
}

// Storage persists per-session items.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
}

// LangSource yields the current UI language.
type LangSource interface {
	Lang() string
}
