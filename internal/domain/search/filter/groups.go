package filter

import (
	"sort"
	"strings"
)

const (
	groupSeparator = ";"
	keySeparator   = ":"
	idSeparator    = ","
)

// reservedChars may not appear in group keys or ids. They either delimit the
// "filters" URL value or a query string.
const reservedChars = ";:,&="

// ValidToken reports whether s can be used as a group key or facet id.
func ValidToken(s string) bool {
	return s != "" && !strings.ContainsAny(s, reservedChars)
}

// Groups maps a facet group key to its selected facet value ids.
// A key with no selected ids is never kept.
type Groups map[string]map[string]struct{}

// NewGroups builds Groups from plain slices, skipping empty selections.
func NewGroups(m map[string][]string) Groups {
	g := make(Groups, len(m))
	for key, ids := range m {
		for _, id := range ids {
			g.add(key, id)
		}
	}
	return g
}

// Toggle flips the membership of id within groupKey. Applying it twice
// restores the previous state, including absence of the key. Invalid keys
// or ids are ignored.
func (g Groups) Toggle(groupKey, id string) {
	if !ValidToken(groupKey) || !ValidToken(id) {
		return
	}
	set, ok := g[groupKey]
	if !ok {
		g.add(groupKey, id)
		return
	}
	if _, selected := set[id]; selected {
		delete(set, id)
		if len(set) == 0 {
			delete(g, groupKey)
		}
		return
	}
	set[id] = struct{}{}
}

// Has reports whether id is selected in groupKey.
func (g Groups) Has(groupKey, id string) bool {
	_, ok := g[groupKey][id]
	return ok
}

// Clone returns a deep copy.
func (g Groups) Clone() Groups {
	out := make(Groups, len(g))
	for key, set := range g {
		cp := make(map[string]struct{}, len(set))
		for id := range set {
			cp[id] = struct{}{}
		}
		out[key] = cp
	}
	return out
}

// Equal reports whether both selections hold the same keys and ids.
func (g Groups) Equal(other Groups) bool {
	if len(g) != len(other) {
		return false
	}
	for key, set := range g {
		o, ok := other[key]
		if !ok || len(o) != len(set) {
			return false
		}
		for id := range set {
			if _, ok := o[id]; !ok {
				return false
			}
		}
	}
	return true
}

// Keys returns the group keys in sorted order.
func (g Groups) Keys() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IDs returns the selected ids of a group in sorted order.
func (g Groups) IDs(groupKey string) []string {
	set := g[groupKey]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Sorted returns the selection as sorted slices.
func (g Groups) Sorted() map[string][]string {
	out := make(map[string][]string, len(g))
	for _, k := range g.Keys() {
		out[k] = g.IDs(k)
	}
	return out
}

func (g Groups) add(key, id string) {
	if !ValidToken(key) || !ValidToken(id) {
		return
	}
	set, ok := g[key]
	if !ok {
		set = make(map[string]struct{})
		g[key] = set
	}
	set[id] = struct{}{}
}

// EncodeGroups renders the selection as the "filters" URL value:
// "groupKey:id1,id2;other:id3", keys and ids sorted.
func EncodeGroups(g Groups) string {
	parts := make([]string, 0, len(g))
	for _, key := range g.Keys() {
		ids := g.IDs(key)
		if len(ids) == 0 {
			continue
		}
		parts = append(parts, key+keySeparator+strings.Join(ids, idSeparator))
	}
	return strings.Join(parts, groupSeparator)
}

// DecodeGroups parses a "filters" URL value. Malformed segments and ids
// holding reserved characters are skipped.
func DecodeGroups(s string) Groups {
	g := make(Groups)
	for _, segment := range strings.Split(s, groupSeparator) {
		key, ids, ok := strings.Cut(strings.TrimSpace(segment), keySeparator)
		if !ok || key == "" {
			continue
		}
		for _, id := range strings.Split(ids, idSeparator) {
			g.add(key, strings.TrimSpace(id))
		}
	}
	return g
}
