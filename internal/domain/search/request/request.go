// Package request builds the request-ready filter snapshot handed to a search provider.
package request

import (
	"fmt"
	"sort"

	"github.com/cranach-archive/lighttable/internal/domain/artifact"
	"github.com/cranach-archive/lighttable/internal/domain/search/filter"
)

// Page size limits.
const (
	DefaultSize = 60
	MaxSize     = 500
)

// DatingRange is the normalized dating bound. To == 0 means unbounded.
type DatingRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Snapshot is an immutable copy of a filter state, ready to be encoded.
type Snapshot struct {
	Dating      DatingRange           `json:"dating"`
	EntityType  artifact.EntityType   `json:"entity_type"`
	EntityTypes []artifact.EntityType `json:"entity_types"`
	Groups      map[string][]string   `json:"groups"`
	IsBestOf    bool                  `json:"is_best_of"`
	Size        int                   `json:"size"`
	From        int                   `json:"from"`
}

// NewSnapshot copies the filter values and normalizes the open-ended dating
// sentinel. Size falls back to DefaultSize and is capped at MaxSize.
func NewSnapshot(
	dating filter.Dating,
	entityType artifact.EntityType,
	entityTypes []artifact.EntityType,
	groups filter.Groups,
	isBestOf bool,
	size, from int,
) Snapshot {
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	if from < 0 {
		from = 0
	}
	if entityType == "" {
		entityType = artifact.EntityUnknown
	}
	types := make([]artifact.EntityType, len(entityTypes))
	copy(types, entityTypes)

	return Snapshot{
		Dating:      DatingRange{From: dating.FromYear, To: dating.UpperBoundForRequest()},
		EntityType:  entityType,
		EntityTypes: types,
		Groups:      groups.Sorted(),
		IsBestOf:    isBestOf,
		Size:        size,
		From:        from,
	}
}

// WithPage returns a copy addressing another page window.
func (s Snapshot) WithPage(size, from int) Snapshot {
	s.Size = size
	s.From = from
	return s
}

// HasDatingLowerBound reports whether the lower bound narrows the default range.
func (s Snapshot) HasDatingLowerBound() bool {
	return s.Dating.From > filter.MinLowerDatingYear
}

// GroupKeys returns the selected group keys in sorted order.
func (s Snapshot) GroupKeys() []string {
	keys := make([]string, 0, len(s.Groups))
	for k := range s.Groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortingItem orders results by one field.
type SortingItem struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

// NewSortingItem validates the direction.
func NewSortingItem(field string, dir Direction) (SortingItem, error) {
	if field == "" {
		return SortingItem{}, fmt.Errorf("sort field is required")
	}
	if dir != Asc && dir != Desc {
		return SortingItem{}, fmt.Errorf("invalid sort direction: %q", dir)
	}
	return SortingItem{Field: field, Direction: dir}, nil
}

// String renders "field.direction", the upstream sort_by value.
func (s SortingItem) String() string {
	return s.Field + "." + string(s.Direction)
}
