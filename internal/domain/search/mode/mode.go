// Package mode holds the search mode of the self-contained global search.
package mode

import "github.com/cranach-archive/lighttable/internal/domain/artifact"

// Mode decides which filter panel and provider the global search uses.
type Mode string

// Search mode constants.
const (
	Works     Mode = "WORKS"
	Archivals Mode = "ARCHIVALS"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Works || m == Archivals
}

// ForEntityType derives the mode from the selected entity type.
// Only ARCHIVAL switches away from the default works mode.
func ForEntityType(t artifact.EntityType) Mode {
	if t == artifact.EntityArchival {
		return Archivals
	}
	return Works
}

// Kind maps the mode to the artifact kind whose provider serves it.
func (m Mode) Kind() artifact.Kind {
	if m == Archivals {
		return artifact.KindArchivals
	}
	return artifact.KindWorks
}
