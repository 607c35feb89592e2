package favorites

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"  ", 0},
		{"A", 1},
		{"A,B:PAINTING,,C", 3},
	}
	for _, tt := range tests {
		if got := Parse(tt.in); len(got) != tt.want {
			t.Errorf("Parse(%q) = %v, want %d items", tt.in, got, tt.want)
		}
	}
}

func TestList_RoundTrip(t *testing.T) {
	l := List{"INV001", "INV002:GRAPHIC"}
	if got := l.String(); got != "INV001,INV002:GRAPHIC" {
		t.Errorf("String() = %q", got)
	}
	back := Parse(l.String())
	if len(back) != 2 || back[1] != "INV002:GRAPHIC" {
		t.Errorf("Parse(String()) = %v", back)
	}
}

func TestList_RemoveAndIncludes(t *testing.T) {
	l := List{"A", "B", "A"}
	if !l.Includes("A") {
		t.Error("Includes(A) = false")
	}
	l = l.Remove("A")
	if l.Includes("A") || len(l) != 1 {
		t.Errorf("Remove(A) = %v", l)
	}
	if got := (List{}).String(); got != "" {
		t.Errorf("empty String() = %q", got)
	}
}

func TestStripEntityType(t *testing.T) {
	if got := StripEntityType("INV001:PAINTING"); got != "INV001" {
		t.Errorf("StripEntityType = %q", got)
	}
	if got := StripEntityType("INV001"); got != "INV001" {
		t.Errorf("StripEntityType = %q", got)
	}
	ids := List{"A:GRAPHIC", "B"}.IDs()
	if ids[0] != "A" || ids[1] != "B" {
		t.Errorf("IDs() = %v", ids)
	}
}
