package facetsearch

import (
	"github.com/cranach-archive/lighttable/internal/domain/artifact"
	"github.com/cranach-archive/lighttable/internal/domain/search/filter"
	"github.com/cranach-archive/lighttable/internal/domain/search/request"
	"github.com/cranach-archive/lighttable/internal/routing"
)

// Filters is the filter state one controller owns.
type Filters struct {
	Dating     filter.Dating
	EntityType artifact.EntityType
	Groups     filter.Groups
	IsBestOf   bool
}

// DefaultFilters is the unfiltered state.
func DefaultFilters() Filters {
	return Filters{
		Dating:     filter.DefaultDating(),
		EntityType: artifact.EntityUnknown,
		Groups:     make(filter.Groups),
	}
}

func (f Filters) clone() Filters {
	f.Groups = f.Groups.Clone()
	return f
}

// KindConfig captures everything that differs between the search variants.
type KindConfig struct {
	Kind artifact.Kind
	// Name labels logs and metrics.
	Name string
	// EntityTypes is the "all" entity type set sent with every request.
	EntityTypes        []artifact.EntityType
	DefaultFilters     Filters
	FreeTextFields     []filter.FieldName
	RoutingParamMap    map[filter.FieldName]routing.Param
	SupportsBestOf     bool
	SupportsEntityType bool
	SupportsDating     bool
	DefaultSorting     []request.SortingItem
	Provider           SearchProvider
}

// defaultParamMap maps internal free text field names to URL names.
var defaultParamMap = map[filter.FieldName]routing.Param{
	filter.FieldAllFieldsTerm:   routing.ParamSearchTerm,
	filter.FieldTitle:           routing.ParamTitle,
	filter.FieldFRNr:            routing.ParamFRNr,
	filter.FieldLocation:        routing.ParamLocation,
	filter.FieldInventoryNumber: routing.ParamInventoryNumber,
	filter.FieldSignature:       routing.ParamSignature,
	filter.FieldAuthors:         routing.ParamAuthors,
	filter.FieldYear:            routing.ParamYear,
}

func paramMapFor(fields []filter.FieldName) map[filter.FieldName]routing.Param {
	m := make(map[filter.FieldName]routing.Param, len(fields))
	for _, f := range fields {
		m[f] = defaultParamMap[f]
	}
	return m
}

// WorksConfig configures the paintings and graphics search.
func WorksConfig(p SearchProvider) KindConfig {
	fields := []filter.FieldName{
		filter.FieldAllFieldsTerm,
		filter.FieldTitle,
		filter.FieldFRNr,
		filter.FieldLocation,
		filter.FieldInventoryNumber,
	}
	return KindConfig{
		Kind:               artifact.KindWorks,
		Name:               "works",
		EntityTypes:        artifact.EntityTypesForKind(artifact.KindWorks),
		DefaultFilters:     DefaultFilters(),
		FreeTextFields:     fields,
		RoutingParamMap:    paramMapFor(fields),
		SupportsBestOf:     true,
		SupportsEntityType: true,
		SupportsDating:     true,
		DefaultSorting:     []request.SortingItem{{Field: "sorting_number", Direction: request.Asc}},
		Provider:           p,
	}
}

// ArchivalsConfig configures the archival documents search.
func ArchivalsConfig(p SearchProvider) KindConfig {
	fields := []filter.FieldName{
		filter.FieldAllFieldsTerm,
		filter.FieldLocation,
		filter.FieldSignature,
	}
	return KindConfig{
		Kind:            artifact.KindArchivals,
		Name:            "archivals",
		EntityTypes:     artifact.EntityTypesForKind(artifact.KindArchivals),
		DefaultFilters:  DefaultFilters(),
		FreeTextFields:  fields,
		RoutingParamMap: paramMapFor(fields),
		SupportsDating:  true,
		DefaultSorting:  []request.SortingItem{{Field: "date", Direction: request.Asc}},
		Provider:        p,
	}
}

// LiteratureReferencesConfig configures the literature references search.
func LiteratureReferencesConfig(p SearchProvider) KindConfig {
	fields := []filter.FieldName{
		filter.FieldAllFieldsTerm,
		filter.FieldTitle,
		filter.FieldAuthors,
		filter.FieldYear,
	}
	return KindConfig{
		Kind:            artifact.KindLiteratureReferences,
		Name:            "literature_references",
		EntityTypes:     artifact.EntityTypesForKind(artifact.KindLiteratureReferences),
		DefaultFilters:  DefaultFilters(),
		FreeTextFields:  fields,
		RoutingParamMap: paramMapFor(fields),
		DefaultSorting:  []request.SortingItem{{Field: "publish_date", Direction: request.Desc}},
		Provider:        p,
	}
}

// GlobalConfig configures the self-contained search covering works and
// archivals. The provider is expected to route by entity type.
func GlobalConfig(p SearchProvider) KindConfig {
	fields := []filter.FieldName{
		filter.FieldAllFieldsTerm,
		filter.FieldTitle,
		filter.FieldFRNr,
		filter.FieldLocation,
		filter.FieldInventoryNumber,
		filter.FieldSignature,
	}
	types := append(artifact.EntityTypesForKind(artifact.KindWorks), artifact.EntityArchival)
	return KindConfig{
		Kind:               artifact.KindWorks,
		Name:               "global",
		EntityTypes:        types,
		DefaultFilters:     DefaultFilters(),
		FreeTextFields:     fields,
		RoutingParamMap:    paramMapFor(fields),
		SupportsBestOf:     true,
		SupportsEntityType: true,
		SupportsDating:     true,
		Provider:           p,
	}
}
