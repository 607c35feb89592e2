package archiveapi

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/cranach-archive/lighttable/internal/domain/artifact"
	"github.com/cranach-archive/lighttable/internal/domain/search/filter"
	"github.com/cranach-archive/lighttable/internal/domain/search/request"
)

// freetextFields maps free text inputs to API field names. Fields missing
// here are not sent.
var freetextFields = map[filter.FieldName]string{
	filter.FieldAllFieldsTerm:   "searchterm",
	filter.FieldTitle:           "title",
	filter.FieldFRNr:            "catalog_work_reference_number",
	filter.FieldLocation:        "location",
	filter.FieldInventoryNumber: "inventory_number",
	filter.FieldSignature:       "signature",
	filter.FieldAuthors:         "authors",
	filter.FieldYear:            "publish_date",
}

// exactFields are matched with :eq instead of :sim.
var exactFields = map[filter.FieldName]bool{
	filter.FieldYear: true,
}

// query collects name:op=value pairs in insertion order. Names are sent
// verbatim so the operator colon stays readable.
type query struct {
	parts []string
}

func (q *query) add(name, value string) {
	q.parts = append(q.parts, name+"="+escapeList(value))
}

func (q *query) addInt(name string, v int) {
	q.parts = append(q.parts, name+"="+strconv.Itoa(v))
}

func (q *query) encode() string {
	return strings.Join(q.parts, "&")
}

// escapeList escapes every comma-separated element but keeps the commas.
func escapeList(v string) string {
	elems := strings.Split(v, ",")
	for i, e := range elems {
		elems[i] = url.QueryEscape(e)
	}
	return strings.Join(elems, ",")
}

// EncodeQuery renders a filter snapshot as archive API query string.
// Defaults are omitted and the parameter order is fixed.
func EncodeQuery(
	snap request.Snapshot,
	freetext filter.FreeText,
	sorting []request.SortingItem,
	lang string,
) string {
	q := &query{}
	q.addInt("size", snap.Size)
	q.addInt("from", snap.From)

	if snap.HasDatingLowerBound() {
		q.addInt("dating_begin:gte", snap.Dating.From)
	}
	if snap.Dating.To > 0 {
		q.addInt("dating_end:lte", snap.Dating.To)
	}
	if snap.EntityType != "" && snap.EntityType != artifact.EntityUnknown {
		q.add("entity_type:eq", string(snap.EntityType))
	}
	if snap.IsBestOf {
		q.add("is_best_of:eq", "true")
	}
	for _, key := range snap.GroupKeys() {
		if ids := snap.Groups[key]; len(ids) > 0 {
			q.add(url.QueryEscape(key)+":eq", strings.Join(ids, ","))
		}
	}

	names := make([]string, 0, len(freetext))
	byName := make(map[string]filter.FieldName, len(freetext))
	for field, value := range freetext {
		apiName, ok := freetextFields[field]
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		names = append(names, apiName)
		byName[apiName] = field
	}
	sort.Strings(names)
	for _, name := range names {
		field := byName[name]
		op := ":sim"
		if exactFields[field] {
			op = ":eq"
		}
		q.add(name+op, strings.TrimSpace(freetext[field]))
	}

	if len(sorting) > 0 {
		keys := make([]string, len(sorting))
		for i, s := range sorting {
			keys[i] = s.String()
		}
		q.add("sort_by", strings.Join(keys, ","))
	}
	if lang != "" {
		q.add("lang", lang)
	}
	return q.encode()
}
