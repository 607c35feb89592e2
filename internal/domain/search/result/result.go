// Package result holds the normalized answer of a search provider.
package result

import "github.com/cranach-archive/lighttable/internal/domain/artifact"

// Meta carries result-set level counters.
type Meta struct {
	Hits int `json:"hits"`
}

// FilterItem is a selectable facet value. Children form nested hierarchies
// (institution and sub-institution, for example).
type FilterItem struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	DocCount    int          `json:"doc_count"`
	IsAvailable bool         `json:"is_available"`
	Children    []FilterItem `json:"children,omitempty"`
}

// Selectable reports whether the value may be toggled. Zero counts are
// rendered unavailable but stay selectable.
func (f FilterItem) Selectable() bool { return f.ID != "" }

// FilterGroupItem is a facet category with its values.
type FilterGroupItem struct {
	Key      string       `json:"key"`
	Text     string       `json:"text"`
	Children []FilterItem `json:"children"`
}

// Result is one page of artefacts plus the facets that apply to it.
type Result struct {
	Items         []artifact.Artifact `json:"items"`
	Meta          Meta                `json:"meta"`
	FilterGroups  []FilterGroupItem   `json:"filter_groups"`
	SingleFilters []FilterItem        `json:"single_filters"`
}

// Empty returns a result with no hits.
func Empty() *Result {
	return &Result{Items: []artifact.Artifact{}}
}

// FlattenedItems returns the items, never nil.
func (r *Result) FlattenedItems() []artifact.Artifact {
	if r == nil || r.Items == nil {
		return []artifact.Artifact{}
	}
	return r.Items
}

// Hits returns the total hit count (0 for a nil result).
func (r *Result) Hits() int {
	if r == nil {
		return 0
	}
	return r.Meta.Hits
}

// FindFilter walks the facet tree of a group looking for id.
func (r *Result) FindFilter(groupKey, id string) (FilterItem, bool) {
	if r == nil {
		return FilterItem{}, false
	}
	for _, g := range r.FilterGroups {
		if g.Key != groupKey {
			continue
		}
		if item, ok := findIn(g.Children, id); ok {
			return item, true
		}
	}
	return FilterItem{}, false
}

func findIn(items []FilterItem, id string) (FilterItem, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
		if found, ok := findIn(it.Children, id); ok {
			return found, true
		}
	}
	return FilterItem{}, false
}
