package facetsearch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/cranach-archive/lighttable/internal/debounce"
	"github.com/cranach-archive/lighttable/internal/domain/artifact"
	"github.com/cranach-archive/lighttable/internal/domain/search/filter"
	"github.com/cranach-archive/lighttable/internal/domain/search/request"
	"github.com/cranach-archive/lighttable/internal/domain/search/result"
	"github.com/cranach-archive/lighttable/internal/repository/localstore"
	"github.com/cranach-archive/lighttable/internal/routing"
	"github.com/cranach-archive/lighttable/internal/usecase/results"
)

// --- Mocks ---

type call struct {
	snapshot request.Snapshot
	freetext filter.FreeText
	sort     []request.SortingItem
	lang     string
}

type mockProvider struct {
	mu    sync.Mutex
	calls []call
	hits  int
	items []artifact.Artifact
	err   error
	// hook runs inside QueryByFilters before returning.
	hook func(n int)
}

func (m *mockProvider) QueryByFilters(
	_ context.Context,
	snap request.Snapshot,
	ft filter.FreeText,
	sort []request.SortingItem,
	lang string,
) (*result.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, call{snapshot: snap, freetext: ft, sort: sort, lang: lang})
	n := len(m.calls)
	hook := m.hook
	m.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &result.Result{Items: m.items, Meta: result.Meta{Hits: m.hits}}, nil
}

func (m *mockProvider) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockProvider) first() call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[0]
}

type memStorage struct {
	items map[string]string
}

func (m *memStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *memStorage) SetItem(_ context.Context, key, value string) error {
	m.items[key] = value
	return nil
}

type fixedLang string

func (l fixedLang) Lang() string { return string(l) }

type fixture struct {
	ctrl     *Controller
	provider *mockProvider
	holder   *results.Holder
	bridge   *routing.Bridge
	sched    *debounce.Manual
	storage  *memStorage
}

func newFixture(t *testing.T, cfgFn func(SearchProvider) KindConfig, opts Options) *fixture {
	t.Helper()
	p := &mockProvider{hits: 100}
	bridge := routing.NewBridge(nil)
	holder := results.NewHolder(60, bridge)
	sched := debounce.NewManual()
	storage := &memStorage{items: map[string]string{}}
	ctrl := New(context.Background(), Deps{
		Config:    cfgFn(p),
		Holder:    holder,
		Router:    bridge,
		Storage:   storage,
		Lang:      fixedLang("de"),
		Debouncer: debounce.New("facetsearch-test", 0, sched),
		Options:   opts,
	})
	t.Cleanup(ctrl.Close)
	return &fixture{ctrl: ctrl, provider: p, holder: holder, bridge: bridge, sched: sched, storage: storage}
}

func queryParam(b *routing.Bridge, p routing.Param) string {
	v, _ := b.Get(p)
	return v
}

// --- Tests ---

func TestController_DebounceCollapsesToLastState(t *testing.T) {
	f := newFixture(t, WorksConfig, Options{})

	f.ctrl.SetDating(1500, 1520)
	f.ctrl.SetIsBestOf(true)
	f.ctrl.ToggleFilterItemActiveStatus("function", "x")

	if f.provider.count() != 0 {
		t.Fatalf("provider called before window elapsed: %d", f.provider.count())
	}
	if n := f.sched.Flush(); n != 1 {
		t.Fatalf("fired timers = %d, want 1", n)
	}
	// main request plus the extended cache request
	if f.provider.count() != 2 {
		t.Fatalf("provider calls = %d, want 2", f.provider.count())
	}

	got := f.provider.first().snapshot
	if got.Dating != (request.DatingRange{From: 1500, To: 1520}) {
		t.Errorf("dating = %+v", got.Dating)
	}
	if !got.IsBestOf {
		t.Error("expected is_best_of in snapshot")
	}
	if ids := got.Groups["function"]; len(ids) != 1 || ids[0] != "x" {
		t.Errorf("groups = %v", got.Groups)
	}
	if f.provider.first().lang != "de" {
		t.Errorf("lang = %q", f.provider.first().lang)
	}
}

func TestController_PageSizeScenario(t *testing.T) {
	f := newFixture(t, WorksConfig, Options{})
	f.provider.hits = 95
	f.holder.JumpToPagePos(3)

	if !f.holder.SetSize(30) {
		t.Fatal("SetSize reported no change")
	}
	f.ctrl.TriggerFilterRequest(true)
	f.sched.Flush()

	snap := f.provider.first().snapshot
	if snap.Size != 30 || snap.From != 0 {
		t.Errorf("size/from = %d/%d, want 30/0", snap.Size, snap.From)
	}
	if got := f.holder.MaxResultPages(); got != 4 {
		t.Errorf("MaxResultPages = %d, want 4", got)
	}
	if _, ok := f.bridge.Get(routing.ParamPage); ok {
		t.Error("page param should be removed on reset")
	}
}

func TestController_OpenEndedDatingScenario(t *testing.T) {
	f := newFixture(t, WorksConfig, Options{})

	f.ctrl.SetDating(1500, 1601)
	f.sched.Flush()

	if got := f.provider.first().snapshot.Dating; got.From != 1500 || got.To != 0 {
		t.Errorf("dating = %+v, want {1500 0}", got)
	}
	if got := queryParam(f.bridge, routing.ParamToYear); got != "max" {
		t.Errorf("to_year = %q, want max", got)
	}
	if got := queryParam(f.bridge, routing.ParamFromYear); got != "1500" {
		t.Errorf("from_year = %q, want 1500", got)
	}
}

func TestController_DefaultDatingRemovesParams(t *testing.T) {
	f := newFixture(t, WorksConfig, Options{})

	f.ctrl.SetDating(1500, 1550)
	f.ctrl.SetDating(1470, 1601)

	if _, ok := f.bridge.Get(routing.ParamFromYear); ok {
		t.Error("from_year still present")
	}
	if _, ok := f.bridge.Get(routing.ParamToYear); ok {
		t.Error("to_year still present")
	}
}

func TestController_FacetToggleScenario(t *testing.T) {
	f := newFixture(t, WorksConfig, Options{})

	f.ctrl.ToggleFilterItemActiveStatus("function", "x")
	if got := queryParam(f.bridge, routing.ParamFilters); got != "function:x" {
		t.Errorf("filters = %q, want function:x", got)
	}

	f.ctrl.ToggleFilterItemActiveStatus("function", "x")
	if _, ok := f.bridge.Get(routing.ParamFilters); ok {
		t.Error("filters param should be removed when empty")
	}
	if f.ctrl.AmountOfActiveFilters() != 0 {
		t.Errorf("active filters = %d", f.ctrl.AmountOfActiveFilters())
	}
}

func TestController_CachesExtendedResult(t *testing.T) {
	f := newFixture(t, WorksConfig, Options{})
	f.provider.items = []artifact.Artifact{
		artifact.NewWork("DE_1", artifact.EntityPainting, "A", "", "a.jpg", artifact.WorkDetails{}),
		artifact.NewWork("DE_2", artifact.EntityGraphic, "B", "", "", artifact.WorkDetails{}),
	}

	f.ctrl.TriggerFilterRequest(true)
	f.sched.Flush()

	if f.provider.count() != 2 {
		t.Fatalf("provider calls = %d, want 2", f.provider.count())
	}
	f.provider.mu.Lock()
	ext := f.provider.calls[1].snapshot
	f.provider.mu.Unlock()
	if ext.Size != 120 {
		t.Errorf("extended size = %d, want 120", ext.Size)
	}

	raw, ok := f.storage.items[localstore.KeySearchResult]
	if !ok {
		t.Fatal("searchResult not stored")
	}
	var cached []map[string]string
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		t.Fatalf("decode cache: %v", err)
	}
	if len(cached) != 2 || cached[0]["id"] != "DE_1" || cached[0]["imgSrc"] != "a.jpg" || cached[1]["entityType"] != "GRAPHIC" {
		t.Errorf("cached = %v", cached)
	}
}

func TestController_ProviderFailure(t *testing.T) {
	f := newFixture(t, ArchivalsConfig, Options{})
	f.provider.err = errors.New("upstream down")

	if err := f.ctrl.TriggerRequest(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if f.holder.Error() != "upstream down" {
		t.Errorf("error = %q", f.holder.Error())
	}
	if f.holder.Loading() {
		t.Error("loading left set")
	}
	if _, ok := f.storage.items[localstore.KeySearchResult]; ok {
		t.Error("cache written after failure")
	}
}

func TestController_TriggerRequestKeepsPage(t *testing.T) {
	f := newFixture(t, WorksConfig, Options{})
	f.holder.JumpToPagePos(2)

	if err := f.ctrl.TriggerRequest(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := f.provider.first().snapshot.From; got != 120 {
		t.Errorf("from = %d, want 120", got)
	}
	if got := queryParam(f.bridge, routing.ParamPage); got != "3" {
		t.Errorf("page = %q, want 3", got)
	}
}

func TestController_DiscardStaleResponses(t *testing.T) {
	tests := []struct {
		name     string
		discard  bool
		wantHits int
	}{
		{name: "last response wins by default", discard: false, wantHits: 1},
		{name: "superseded response dropped", discard: true, wantHits: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, LiteratureReferencesConfig, Options{DiscardStaleResponses: tt.discard})
			// The first request observes a second one starting while it
			// is in flight; the inner one answers first.
			f.provider.hook = func(n int) {
				if n != 1 {
					return
				}
				f.provider.mu.Lock()
				f.provider.hits = 2
				f.provider.hook = nil
				f.provider.mu.Unlock()
				_ = f.ctrl.TriggerRequest(context.Background())
				f.provider.mu.Lock()
				f.provider.hits = 1
				f.provider.mu.Unlock()
			}
			_ = f.ctrl.TriggerRequest(context.Background())

			if got := f.holder.Result().Hits(); got != tt.wantHits {
				t.Errorf("hits = %d, want %d", got, tt.wantHits)
			}
		})
	}
}

func TestController_SupersededRequestKeepsLoading(t *testing.T) {
	f := newFixture(t, LiteratureReferencesConfig, Options{DiscardStaleResponses: true})

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	// The first request starts a second one and returns while the second
	// is still waiting for its response.
	f.provider.hook = func(n int) {
		switch n {
		case 1:
			go func() {
				defer close(done)
				_ = f.ctrl.TriggerRequest(context.Background())
			}()
			<-started
		case 2:
			close(started)
			<-release
		}
	}
	_ = f.ctrl.TriggerRequest(context.Background())

	if !f.holder.Loading() {
		t.Error("loading cleared while the newer request is in flight")
	}

	close(release)
	<-done
	if f.holder.Loading() {
		t.Error("loading still set after the newer request finished")
	}
	if got := f.holder.Result().Hits(); got != 100 {
		t.Errorf("hits = %d, want 100", got)
	}
}

func TestController_ExtendedRequestFailureKeepsResult(t *testing.T) {
	f := newFixture(t, WorksConfig, Options{})
	f.provider.hook = func(n int) {
		if n == 2 {
			f.provider.err = errors.New("upstream down")
		}
	}

	if err := f.ctrl.TriggerRequest(context.Background()); err != nil {
		t.Fatalf("TriggerRequest: %v", err)
	}
	if f.provider.count() != 2 {
		t.Fatalf("provider calls = %d, want 2", f.provider.count())
	}
	if msg := f.holder.Error(); msg != "" {
		t.Errorf("holder error = %q, want none", msg)
	}
	if got := f.holder.Result().Hits(); got != 100 {
		t.Errorf("hits = %d, want 100", got)
	}
	if _, ok := f.storage.items[localstore.KeySearchResult]; ok {
		t.Error("search result cached from a failed request")
	}
}

func TestController_RoutingUpdatesStateOnly(t *testing.T) {
	f := newFixture(t, WorksConfig, Options{})

	err := f.bridge.Init("filters=function:x%3Btechnique:a&from_year=1500&to_year=max&is_best_of=1&kind=PAINTING&title=Venus")
	if err != nil {
		t.Fatal(err)
	}
	if f.sched.Pending() != 0 {
		t.Error("routing triggered a request")
	}

	s := f.ctrl.Snapshot()
	if s.FromYear != 1500 || s.ToYear != filter.MaxUpperDatingYear {
		t.Errorf("dating = %d..%d", s.FromYear, s.ToYear)
	}
	if !s.IsBestOf || s.EntityType != artifact.EntityPainting {
		t.Errorf("best-of/entity = %v/%s", s.IsBestOf, s.EntityType)
	}
	if len(s.Groups) != 2 {
		t.Errorf("groups = %v", s.Groups)
	}
	if s.AppliedFreeText.Get(filter.FieldTitle) != "Venus" {
		t.Errorf("title = %q", s.AppliedFreeText.Get(filter.FieldTitle))
	}
	// dating, two facet groups, best-of, entity type
	if s.AmountOfActiveFilters != 5 {
		t.Errorf("active filters = %d, want 5", s.AmountOfActiveFilters)
	}

	if err := f.bridge.Navigate("title=Venus"); err != nil {
		t.Fatal(err)
	}
	s = f.ctrl.Snapshot()
	if s.AmountOfActiveFilters != 0 {
		t.Errorf("active filters after navigate = %d, want 0", s.AmountOfActiveFilters)
	}
	if s.FromYear != filter.MinLowerDatingYear {
		t.Errorf("from year = %d", s.FromYear)
	}
}

func TestController_NavigateMovesBothDatingBounds(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		from, to int
	}{
		{"both above old range", "from_year=1500&to_year=1520", 1500, 1520},
		{"both below old range", "from_year=1471&to_year=1472", 1471, 1472},
		{"only upper bound", "to_year=1490", filter.MinLowerDatingYear, 1490},
		{"open ended", "from_year=1550&to_year=max", 1550, filter.MaxUpperDatingYear},
		{"reversed in url", "from_year=1520&to_year=1500", 1500, 1520},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, WorksConfig, Options{})
			f.ctrl.SetDating(1475, 1480)

			if err := f.bridge.Navigate(tt.query); err != nil {
				t.Fatal(err)
			}
			s := f.ctrl.Snapshot()
			if s.FromYear != tt.from || s.ToYear != tt.to {
				t.Errorf("dating = %d..%d, want %d..%d", s.FromYear, s.ToYear, tt.from, tt.to)
			}
		})
	}
}

func TestController_EntityTypeIgnoredWhenUnsupported(t *testing.T) {
	f := newFixture(t, ArchivalsConfig, Options{})

	if err := f.bridge.Init("kind=PAINTING"); err != nil {
		t.Fatal(err)
	}
	f.ctrl.TriggerFilterRequest(true)
	f.sched.Flush()

	snap := f.provider.first().snapshot
	if snap.EntityType != artifact.EntityUnknown {
		t.Errorf("entity type = %s", snap.EntityType)
	}
	if len(snap.EntityTypes) != 1 || snap.EntityTypes[0] != artifact.EntityArchival {
		t.Errorf("entity types = %v", snap.EntityTypes)
	}
}

func TestController_ApplyFreetextFields(t *testing.T) {
	f := newFixture(t, WorksConfig, Options{})

	f.ctrl.SetFreetextFields(filter.FreeText{filter.FieldTitle: "Venus", filter.FieldSignature: "ignored"})
	if _, ok := f.bridge.Get(routing.ParamTitle); ok {
		t.Fatal("SetFreetextFields must not touch routing")
	}
	f.ctrl.ApplyFreetextFields()
	f.sched.Flush()

	if got := queryParam(f.bridge, routing.ParamTitle); got != "Venus" {
		t.Errorf("title = %q", got)
	}
	if _, ok := f.bridge.Get(routing.ParamSignature); ok {
		t.Error("works do not carry signature")
	}
	if got := f.provider.first().freetext.Get(filter.FieldTitle); got != "Venus" {
		t.Errorf("request title = %q", got)
	}

	f.ctrl.SetFreetextFields(filter.FreeText{filter.FieldTitle: ""})
	f.ctrl.ApplyFreetextFields()
	if _, ok := f.bridge.Get(routing.ParamTitle); ok {
		t.Error("empty title should remove the param")
	}
}

func TestController_ResetAllFilters(t *testing.T) {
	f := newFixture(t, WorksConfig, Options{})

	f.ctrl.SetDating(1500, 1550)
	f.ctrl.SetEntityType(artifact.EntityGraphic)
	f.ctrl.ToggleFilterItemActiveStatus("function", "x")
	f.ctrl.SetFreetextFields(filter.FreeText{filter.FieldTitle: "Venus"})
	f.ctrl.ApplyFreetextFields()
	f.holder.JumpToPagePos(2)

	f.ctrl.ResetAllFilters()
	f.sched.Flush()

	if q := f.bridge.Encode(); q != "" {
		t.Errorf("query = %q, want empty", q)
	}
	if n := f.ctrl.AmountOfActiveFilters(); n != 0 {
		t.Errorf("active filters = %d", n)
	}
	if f.provider.first().snapshot.From != 0 {
		t.Errorf("from = %d", f.provider.first().snapshot.From)
	}
}

func TestController_ClearEntityType(t *testing.T) {
	f := newFixture(t, WorksConfig, Options{})

	f.ctrl.SetEntityType(artifact.EntityPainting)
	f.sched.Flush()
	before := f.provider.count()

	f.ctrl.ClearEntityType()
	if f.ctrl.EntityType() != artifact.EntityUnknown {
		t.Errorf("entity type = %s", f.ctrl.EntityType())
	}
	if _, ok := f.bridge.Get(routing.ParamKind); ok {
		t.Error("kind param still present")
	}
	if f.sched.Pending() != 0 || f.provider.count() != before {
		t.Error("ClearEntityType triggered a request")
	}
}

func TestController_SupportsArtifactKind(t *testing.T) {
	f := newFixture(t, LiteratureReferencesConfig, Options{})
	if !f.ctrl.SupportsArtifactKind(artifact.KindLiteratureReferences) {
		t.Error("expected literature references")
	}
	if f.ctrl.SupportsArtifactKind(artifact.KindWorks) {
		t.Error("unexpected works")
	}
}
