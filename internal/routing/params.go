package routing

// Param is a URL query parameter name recognized by the search stores.
type Param string

// URL query parameters.
const (
	ParamPage            Param = "page"
	ParamKind            Param = "kind"
	ParamFromYear        Param = "from_year"
	ParamToYear          Param = "to_year"
	ParamIsBestOf        Param = "is_best_of"
	ParamFilters         Param = "filters"
	ParamSearchTerm      Param = "search_term"
	ParamTitle           Param = "title"
	ParamFRNr            Param = "fr_nr"
	ParamLocation        Param = "location"
	ParamInventoryNumber Param = "inventory_number"
	ParamSignature       Param = "signature"
	ParamAuthors         Param = "authors"
	ParamYear            Param = "year"
	ParamLang            Param = "lang"
)

// BestOfValue is the literal is_best_of carries when set.
const BestOfValue = "1"

// Op is the kind of a query parameter change.
type Op int

// Change operations.
const (
	OpAdd Op = iota
	OpRemove
)

func (o Op) String() string {
	if o == OpRemove {
		return "REMOVE"
	}
	return "ADD"
}

// Change adds (or replaces) or removes one query parameter.
type Change struct {
	Op    Op
	Name  Param
	Value string
}

// AddParam builds an ADD change.
func AddParam(name Param, value string) Change {
	return Change{Op: OpAdd, Name: name, Value: value}
}

// RemoveParam builds a REMOVE change.
func RemoveParam(name Param) Change {
	return Change{Op: OpRemove, Name: name}
}

// AddOrRemove adds the parameter when value is non-empty and removes it otherwise.
func AddOrRemove(name Param, value string) Change {
	if value == "" {
		return RemoveParam(name)
	}
	return AddParam(name, value)
}
