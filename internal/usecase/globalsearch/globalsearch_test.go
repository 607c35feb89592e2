package globalsearch

import (
	"context"
	"errors"
	"testing"

	"github.com/cranach-archive/lighttable/internal/debounce"
	"github.com/cranach-archive/lighttable/internal/domain"
	"github.com/cranach-archive/lighttable/internal/domain/artifact"
	"github.com/cranach-archive/lighttable/internal/domain/search/filter"
	"github.com/cranach-archive/lighttable/internal/domain/search/mode"
	"github.com/cranach-archive/lighttable/internal/domain/search/request"
	"github.com/cranach-archive/lighttable/internal/domain/search/result"
	"github.com/cranach-archive/lighttable/internal/routing"
)

// --- Mocks ---

type mockProvider struct {
	calls []request.Snapshot
	hits  int
}

func (m *mockProvider) QueryByFilters(
	_ context.Context,
	snap request.Snapshot,
	_ filter.FreeText,
	_ []request.SortingItem,
	_ string,
) (*result.Result, error) {
	m.calls = append(m.calls, snap)
	return &result.Result{Meta: result.Meta{Hits: m.hits}}, nil
}

type mockLookup struct {
	ids  []string
	lang string
	err  error
}

func (m *mockLookup) QueryByIDs(_ context.Context, ids []string, lang string) (*result.Result, error) {
	m.ids, m.lang = ids, lang
	if m.err != nil {
		return nil, m.err
	}
	return &result.Result{Meta: result.Meta{Hits: len(ids)}}, nil
}

type fixedLang string

func (l fixedLang) Lang() string { return string(l) }

func newTestGlobal(t *testing.T) (*GlobalSearch, *mockProvider, *mockProvider, *mockLookup, *debounce.Manual) {
	t.Helper()
	works := &mockProvider{hits: 10}
	archivals := &mockProvider{hits: 3}
	lookup := &mockLookup{}
	sched := debounce.NewManual()
	g := New(context.Background(), Deps{
		Works:     works,
		Archivals: archivals,
		Lookup:    lookup,
		Router:    routing.NewBridge(nil),
		Lang:      fixedLang("en"),
		Debouncer: debounce.New("global-test", 0, sched),
		PageSize:  60,
	})
	t.Cleanup(g.Close)
	return g, works, archivals, lookup, sched
}

// --- Tests ---

func TestGlobalSearch_SearchMode(t *testing.T) {
	tests := []struct {
		entity artifact.EntityType
		want   mode.Mode
	}{
		{artifact.EntityUnknown, mode.Works},
		{artifact.EntityPainting, mode.Works},
		{artifact.EntityGraphic, mode.Works},
		{artifact.EntityArchival, mode.Archivals},
	}
	for _, tt := range tests {
		t.Run(string(tt.entity), func(t *testing.T) {
			g, _, _, _, _ := newTestGlobal(t)
			g.SetEntityType(tt.entity)
			if got := g.SearchMode(); got != tt.want {
				t.Errorf("SearchMode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGlobalSearch_RoutesArchivalsProvider(t *testing.T) {
	g, works, archivals, _, sched := newTestGlobal(t)

	g.SetEntityType(artifact.EntityArchival)
	sched.Flush()

	if len(works.calls) != 0 {
		t.Errorf("works provider called %d times", len(works.calls))
	}
	if len(archivals.calls) == 0 {
		t.Fatal("archivals provider not called")
	}
	snap := archivals.calls[0]
	if snap.EntityType != artifact.EntityUnknown {
		t.Errorf("entity type = %s, want cleared", snap.EntityType)
	}
	if len(snap.EntityTypes) != 1 || snap.EntityTypes[0] != artifact.EntityArchival {
		t.Errorf("entity types = %v", snap.EntityTypes)
	}
	if got := g.Holder().Result().Hits(); got != 3 {
		t.Errorf("hits = %d, want 3", got)
	}
}

func TestGlobalSearch_RoutesWorksProvider(t *testing.T) {
	g, works, archivals, _, sched := newTestGlobal(t)

	g.SetEntityType(artifact.EntityPainting)
	sched.Flush()

	if len(archivals.calls) != 0 {
		t.Errorf("archivals provider called %d times", len(archivals.calls))
	}
	if len(works.calls) == 0 {
		t.Fatal("works provider not called")
	}
	snap := works.calls[0]
	if snap.EntityType != artifact.EntityPainting {
		t.Errorf("entity type = %s", snap.EntityType)
	}
	for _, et := range snap.EntityTypes {
		if et == artifact.EntityArchival {
			t.Error("works request carries ARCHIVAL")
		}
	}
}

func TestGlobalSearch_SearchByIDs(t *testing.T) {
	g, _, _, lookup, _ := newTestGlobal(t)

	if err := g.SearchByIDs(context.Background(), []string{"A", "B"}); err != nil {
		t.Fatal(err)
	}
	if len(lookup.ids) != 2 || lookup.lang != "en" {
		t.Errorf("lookup = %v %q", lookup.ids, lookup.lang)
	}
	if got := g.Holder().Result().Hits(); got != 2 {
		t.Errorf("hits = %d", got)
	}

	lookup.err = errors.New("timeout")
	if err := g.SearchByIDs(context.Background(), []string{"A"}); err == nil {
		t.Fatal("expected error")
	}
	if g.Holder().Error() != "timeout" || g.Holder().Loading() {
		t.Errorf("error/loading = %q/%v", g.Holder().Error(), g.Holder().Loading())
	}
}

func TestGlobalSearch_FetchKeepsPage(t *testing.T) {
	g, works, _, _, sched := newTestGlobal(t)
	g.Holder().JumpToPagePos(1)

	g.Fetch()
	sched.Flush()

	if len(works.calls) == 0 || works.calls[0].From != 60 {
		t.Errorf("calls = %+v", works.calls)
	}
}

func TestGlobalSearch_MissingProvider(t *testing.T) {
	g := New(context.Background(), Deps{
		Works:     &mockProvider{},
		Router:    routing.NewBridge(nil),
		Debouncer: debounce.New("global-test", 0, debounce.NewManual()),
	})
	defer g.Close()

	g.SetEntityType(artifact.EntityArchival)
	err := g.TriggerRequest(context.Background())
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}
	if g.Holder().Error() == "" {
		t.Error("holder error not set")
	}
}
