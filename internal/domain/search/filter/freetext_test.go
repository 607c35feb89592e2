package filter

import "testing"

func TestFreeText_MergeAndRestrict(t *testing.T) {
	f := FreeText{FieldTitle: "Venus"}
	f.Merge(FreeText{FieldLocation: "Weimar", FieldTitle: "Lucretia"})

	if f.Get(FieldTitle) != "Lucretia" || f.Get(FieldLocation) != "Weimar" {
		t.Errorf("unexpected merge result: %v", f)
	}

	r := f.Restrict([]FieldName{FieldTitle, FieldYear})
	if len(r) != 1 || r[FieldTitle] != "Lucretia" {
		t.Errorf("Restrict = %v", r)
	}

	c := f.Clone()
	c[FieldTitle] = "changed"
	if f[FieldTitle] == "changed" {
		t.Error("Clone shares storage with the original")
	}
}
