package filter

// FieldName identifies a free text input.
type FieldName string

// Free text fields across all entity kinds.
const (
	FieldAllFieldsTerm   FieldName = "allFieldsTerm"
	FieldTitle           FieldName = "title"
	FieldFRNr            FieldName = "frNr"
	FieldLocation        FieldName = "location"
	FieldInventoryNumber FieldName = "inventoryNumber"
	FieldSignature       FieldName = "signature"
	FieldAuthors         FieldName = "authors"
	FieldYear            FieldName = "year"
)

// FreeText is a flat record of named text inputs.
type FreeText map[FieldName]string

// Merge shallow-merges partial into f.
func (f FreeText) Merge(partial FreeText) {
	for k, v := range partial {
		f[k] = v
	}
}

// Clone returns a copy.
func (f FreeText) Clone() FreeText {
	out := make(FreeText, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Get returns the value of a field ("" when unset).
func (f FreeText) Get(name FieldName) string {
	return f[name]
}

// Restrict drops every field not listed in names.
func (f FreeText) Restrict(names []FieldName) FreeText {
	out := make(FreeText, len(names))
	for _, n := range names {
		if v, ok := f[n]; ok {
			out[n] = v
		}
	}
	return out
}
