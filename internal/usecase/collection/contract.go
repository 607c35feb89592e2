package collection

import "context"

// Storage persists the collection value.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
}

// IDSearcher shows exactly the given artefacts. Lighttable and the global
// search both implement it.
type IDSearcher interface {
	SearchByIDs(ctx context.Context, ids []string) error
}

// EntityTypeResetter clears the entity type filter of the owning search.
type EntityTypeResetter interface {
	ClearEntityType()
}

// Opener hands a URL to whatever displays it.
type Opener interface {
	Open(ctx context.Context, url string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, url string) error

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, url string) error { return f(ctx, url) }
