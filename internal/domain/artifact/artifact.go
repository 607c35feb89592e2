// Package artifact models the browsable artefacts of the archive: works,
// archival documents and literature references.
package artifact

import (
	"fmt"

	"github.com/cranach-archive/lighttable/internal/domain"
)

// Kind is the artefact category selected in the UI.
type Kind string

// Artifact kinds.
const (
	KindWorks                Kind = "WORKS"
	KindArchivals            Kind = "ARCHIVALS"
	KindLiteratureReferences Kind = "LITERATURE_REFERENCES"
)

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	return k == KindWorks || k == KindArchivals || k == KindLiteratureReferences
}

// ParseKind validates a raw kind string.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownArtifactKind, s)
	}
	return k, nil
}

// EntityType is the archive's entity classification. Unknown means "all".
type EntityType string

// Entity types.
const (
	EntityUnknown             EntityType = "UNKNOWN"
	EntityPainting            EntityType = "PAINTING"
	EntityGraphic             EntityType = "GRAPHIC"
	EntityArchival            EntityType = "ARCHIVAL"
	EntityLiteratureReference EntityType = "LITERATURE_REFERENCE"
)

// IsValid checks if the entity type is one of the supported values.
func (t EntityType) IsValid() bool {
	switch t {
	case EntityUnknown, EntityPainting, EntityGraphic, EntityArchival, EntityLiteratureReference:
		return true
	}
	return false
}

// ParseEntityType validates a raw entity type. Empty input maps to EntityUnknown.
func ParseEntityType(s string) (EntityType, error) {
	if s == "" {
		return EntityUnknown, nil
	}
	t := EntityType(s)
	if !t.IsValid() {
		return EntityUnknown, fmt.Errorf("%w: %q", domain.ErrUnknownEntityType, s)
	}
	return t, nil
}

var kindEntityTypes = map[Kind][]EntityType{
	KindWorks:                {EntityPainting, EntityGraphic},
	KindArchivals:            {EntityArchival},
	KindLiteratureReferences: {EntityLiteratureReference},
}

// EntityTypesForKind returns the fixed entity type set of a kind.
// Unknown kinds yield nil.
func EntityTypesForKind(k Kind) []EntityType {
	types := kindEntityTypes[k]
	if types == nil {
		return nil
	}
	out := make([]EntityType, len(types))
	copy(out, types)
	return out
}

// KindForEntityType maps an entity type back to its kind.
func KindForEntityType(t EntityType) (Kind, bool) {
	for k, types := range kindEntityTypes {
		for _, et := range types {
			if et == t {
				return k, true
			}
		}
	}
	return "", false
}

// WorkDetails holds the fields specific to paintings and graphics.
type WorkDetails struct {
	Artist          string `json:"artist,omitempty"`
	Inventor        string `json:"inventor,omitempty"`
	Medium          string `json:"medium,omitempty"`
	Dimensions      string `json:"dimensions,omitempty"`
	Repository      string `json:"repository,omitempty"`
	Owner           string `json:"owner,omitempty"`
	InventoryNumber string `json:"inventory_number,omitempty"`
	SortingNumber   string `json:"sorting_number,omitempty"`
}

// ArchivalDetails holds the fields specific to archival documents.
type ArchivalDetails struct {
	Repository string `json:"repository,omitempty"`
	Summary    string `json:"summary,omitempty"`
	Signature  string `json:"signature,omitempty"`
}

// LiteratureDetails holds the fields specific to literature references.
type LiteratureDetails struct {
	Authors         string `json:"authors,omitempty"`
	PublishLocation string `json:"publish_location,omitempty"`
	PublishDate     string `json:"publish_date,omitempty"`
	ReferenceNumber string `json:"reference_number,omitempty"`
}

// Artifact is a single search hit. Kind selects which details pointer is set.
type Artifact struct {
	Kind       Kind                `json:"kind"`
	ID         string              `json:"id"`
	EntityType EntityType          `json:"entity_type"`
	Title      string              `json:"title"`
	Date       string              `json:"date,omitempty"`
	ImgSrc     string              `json:"img_src,omitempty"`
	Highlight  map[string][]string `json:"_highlight,omitempty"`

	Work                *WorkDetails       `json:"work,omitempty"`
	Archival            *ArchivalDetails   `json:"archival,omitempty"`
	LiteratureReference *LiteratureDetails `json:"literature_reference,omitempty"`
}

// NewWork creates a work artefact.
func NewWork(id string, entityType EntityType, title, date, imgSrc string, d WorkDetails) Artifact {
	return Artifact{
		Kind: KindWorks, ID: id, EntityType: entityType,
		Title: title, Date: date, ImgSrc: imgSrc, Work: &d,
	}
}

// NewArchival creates an archival artefact.
func NewArchival(id, title, date, imgSrc string, d ArchivalDetails) Artifact {
	return Artifact{
		Kind: KindArchivals, ID: id, EntityType: EntityArchival,
		Title: title, Date: date, ImgSrc: imgSrc, Archival: &d,
	}
}

// NewLiteratureReference creates a literature reference artefact.
func NewLiteratureReference(id, title, date string, d LiteratureDetails) Artifact {
	return Artifact{
		Kind: KindLiteratureReferences, ID: id, EntityType: EntityLiteratureReference,
		Title: title, Date: date, LiteratureReference: &d,
	}
}

// WithHighlight attaches matched snippets per field.
func (a Artifact) WithHighlight(h map[string][]string) Artifact {
	a.Highlight = h
	return a
}
