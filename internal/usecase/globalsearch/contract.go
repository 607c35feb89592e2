package globalsearch

import (
	"context"

	"github.com/cranach-archive/lighttable/internal/domain/search/result"
)

// LookupProvider fetches artefacts by id.
type LookupProvider interface {
	QueryByIDs(ctx context.Context, ids []string, lang string) (*result.Result, error)
}
