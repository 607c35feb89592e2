// Package filter holds the filter values a faceted search keeps per entity kind:
// dating range, facet group selections and free text fields.
package filter

import (
	"strconv"
	"strings"
)

// Dating bounds. MaxUpperDatingYear is the open-ended "to present" sentinel,
// KnownUpperDatingYear the last year with real data.
const (
	MinLowerDatingYear   = 1470
	KnownUpperDatingYear = 1600
	MaxUpperDatingYear   = 1601

	// OpenEndedYear is the URL representation of MaxUpperDatingYear.
	OpenEndedYear = "max"
)

// Dating is a clamped year range with FromYear <= ToYear.
type Dating struct {
	FromYear int
	ToYear   int
}

// NewDating clamps both years into [MinLowerDatingYear, MaxUpperDatingYear]
// and swaps them when reversed.
func NewDating(from, to int) Dating {
	from = clampYear(from)
	to = clampYear(to)
	if from > to {
		from, to = to, from
	}
	return Dating{FromYear: from, ToYear: to}
}

// DefaultDating covers the whole known range, open-ended.
func DefaultDating() Dating {
	return Dating{FromYear: MinLowerDatingYear, ToYear: MaxUpperDatingYear}
}

// IsDefault reports whether the range equals DefaultDating.
func (d Dating) IsDefault() bool {
	return d == DefaultDating()
}

// IsOpenEnded reports whether ToYear lies beyond the known data range.
func (d Dating) IsOpenEnded() bool {
	return d.ToYear > KnownUpperDatingYear
}

// UpperBoundForRequest returns ToYear, or 0 (unbounded) for open-ended ranges.
func (d Dating) UpperBoundForRequest() int {
	if d.IsOpenEnded() {
		return 0
	}
	return d.ToYear
}

// FormatFromYear renders the lower bound as a URL value.
func (d Dating) FormatFromYear() string {
	return strconv.Itoa(d.FromYear)
}

// FormatToYear renders the upper bound as a URL value ("max" when open-ended).
func (d Dating) FormatToYear() string {
	if d.ToYear >= MaxUpperDatingYear {
		return OpenEndedYear
	}
	return strconv.Itoa(d.ToYear)
}

// ParseYear parses a URL year value. "max" maps to MaxUpperDatingYear.
// Unparsable input returns fallback.
func ParseYear(s string, fallback int) int {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, OpenEndedYear) {
		return MaxUpperDatingYear
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return clampYear(y)
}

func clampYear(y int) int {
	if y < MinLowerDatingYear {
		return MinLowerDatingYear
	}
	if y > MaxUpperDatingYear {
		return MaxUpperDatingYear
	}
	return y
}
