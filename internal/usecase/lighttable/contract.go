package lighttable

import (
	"context"

	"github.com/cranach-archive/lighttable/internal/domain/artifact"
	"github.com/cranach-archive/lighttable/internal/domain/search/result"
)

// Provider is a search store able to fill the lighttable for one artifact kind.
type Provider interface {
	SupportsArtifactKind(kind artifact.Kind) bool
	TriggerRequest(ctx context.Context) error
}

// KindSource yields the artifact kind currently selected in the UI.
type KindSource interface {
	ArtifactKind() artifact.Kind
}

// LangSource yields the current UI language.
type LangSource interface {
	Lang() string
}

// LookupProvider fetches artefacts by id.
type LookupProvider interface {
	QueryByIDs(ctx context.Context, ids []string, lang string) (*result.Result, error)
}
