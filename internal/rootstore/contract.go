package rootstore

import (
	"context"

	"github.com/cranach-archive/lighttable/internal/domain/search/result"
)

// LookupProvider fetches artefacts by id for the collection view.
type LookupProvider interface {
	QueryByIDs(ctx context.Context, ids []string, lang string) (*result.Result, error)
}

// Storage persists per-session items.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
}
