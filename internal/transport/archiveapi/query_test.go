package archiveapi

import (
	"testing"

	"github.com/cranach-archive/lighttable/internal/domain/artifact"
	"github.com/cranach-archive/lighttable/internal/domain/search/filter"
	"github.com/cranach-archive/lighttable/internal/domain/search/request"
)

func TestEncodeQuery(t *testing.T) {
	tests := []struct {
		name     string
		snap     request.Snapshot
		freetext filter.FreeText
		sort     []request.SortingItem
		lang     string
		want     string
	}{
		{
			name: "defaults omitted",
			snap: request.NewSnapshot(filter.DefaultDating(), artifact.EntityUnknown, nil, nil, false, 60, 0),
			want: "size=60&from=0",
		},
		{
			name: "open-ended dating sends only the lower bound",
			snap: request.NewSnapshot(filter.NewDating(1500, 1601), artifact.EntityUnknown, nil, nil, false, 30, 30),
			want: "size=30&from=30&dating_begin:gte=1500",
		},
		{
			name: "all filters",
			snap: request.NewSnapshot(
				filter.NewDating(1510, 1550),
				artifact.EntityPainting,
				nil,
				filter.NewGroups(map[string][]string{"technique": {"b", "a"}, "function": {"x"}}),
				true,
				60, 0,
			),
			freetext: filter.FreeText{
				filter.FieldTitle:         "Venus und Amor",
				filter.FieldAllFieldsTerm: "  ",
			},
			sort: []request.SortingItem{{Field: "sorting_number", Direction: request.Asc}},
			lang: "de",
			want: "size=60&from=0&dating_begin:gte=1510&dating_end:lte=1550&entity_type:eq=PAINTING" +
				"&is_best_of:eq=true&function:eq=x&technique:eq=a,b&title:sim=Venus+und+Amor" +
				"&sort_by=sorting_number.asc&lang=de",
		},
		{
			name:     "year matches exactly",
			snap:     request.NewSnapshot(filter.DefaultDating(), artifact.EntityUnknown, nil, nil, false, 60, 0),
			freetext: filter.FreeText{filter.FieldYear: "1530", filter.FieldAuthors: "Luther"},
			want:     "size=60&from=0&authors:sim=Luther&publish_date:eq=1530",
		},
		{
			name: "values escaped, commas kept",
			snap: request.Snapshot{
				Groups: map[string][]string{"collection": {"a&b", "c d"}},
				Size:   60,
			},
			want: "size=60&from=0&collection:eq=a%26b,c+d",
		},
		{
			name: "group keys escaped",
			snap: request.Snapshot{
				Groups: map[string][]string{"x&size=100000&y": {"1"}},
				Size:   60,
			},
			want: "size=60&from=0&x%26size%3D100000%26y:eq=1",
		},
		{
			name: "injected filters value dropped",
			snap: request.NewSnapshot(
				filter.DefaultDating(), artifact.EntityUnknown, nil,
				filter.DecodeGroups("x&size=100000&y:1;function:x"),
				false, 60, 0,
			),
			want: "size=60&from=0&function:eq=x",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeQuery(tt.snap, tt.freetext, tt.sort, tt.lang); got != tt.want {
				t.Errorf("EncodeQuery()\n got %s\nwant %s", got, tt.want)
			}
		})
	}
}
