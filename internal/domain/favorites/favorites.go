// Package favorites models the user's collection of artefact ids.
package favorites

import "strings"

const (
	separator      = ","
	entityTypeMark = ":"
)

// List is an ordered list of artefact ids ("id" or "id:entityType").
// Uniqueness is left to callers.
type List []string

// Parse splits a persisted value. Empty input yields an empty list.
func Parse(s string) List {
	if strings.TrimSpace(s) == "" {
		return List{}
	}
	parts := strings.Split(s, separator)
	out := make(List, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// String joins the list for persistence.
func (l List) String() string {
	return strings.Join(l, separator)
}

// Includes reports membership of id.
func (l List) Includes(id string) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Remove drops every occurrence of id.
func (l List) Remove(id string) List {
	out := make(List, 0, len(l))
	for _, v := range l {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// IDs returns the ids with any entity type suffix stripped.
func (l List) IDs() []string {
	out := make([]string, len(l))
	for i, v := range l {
		out[i] = StripEntityType(v)
	}
	return out
}

// StripEntityType removes a trailing ":entityType" marker.
func StripEntityType(id string) string {
	if i := strings.Index(id, entityTypeMark); i >= 0 {
		return id[:i]
	}
	return id
}
