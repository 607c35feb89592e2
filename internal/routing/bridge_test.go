package routing

import (
	"testing"
)

type recorder struct {
	notes []Notification
}

func (r *recorder) Notify(n Notification) { r.notes = append(r.notes, n) }

func TestBridge_InitDispatchesPerParam(t *testing.T) {
	b := NewBridge(nil)
	rec := &recorder{}
	b.AddObserver(rec)

	var pages []ParamValue
	var types []NotificationType
	b.Subscribe(ParamPage, func(nt NotificationType, p ParamValue) {
		types = append(types, nt)
		pages = append(pages, p)
	})
	var filters int
	b.Subscribe(ParamFilters, func(NotificationType, ParamValue) { filters++ })

	if err := b.Init("page=3&lang=de"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if len(rec.notes) != 1 || rec.notes[0].Type != SearchInit || len(rec.notes[0].Params) != 2 {
		t.Fatalf("observer got %+v", rec.notes)
	}
	if len(pages) != 1 || pages[0].Value != "3" || types[0] != SearchInit {
		t.Errorf("page handler got %+v", pages)
	}
	if filters != 0 {
		t.Errorf("filters handler called %d times without a filters param", filters)
	}
	if b.Lang() != "de" {
		t.Errorf("Lang() = %q", b.Lang())
	}
}

func TestBridge_NavigateEmitsDiff(t *testing.T) {
	b := NewBridge(nil)
	if err := b.Init("page=2&title=venus&lang=de"); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	b.AddObserver(rec)

	if err := b.Navigate("page=2&lang=en&filters=function:x"); err != nil {
		t.Fatal(err)
	}
	if len(rec.notes) != 1 {
		t.Fatalf("notifications = %d", len(rec.notes))
	}
	n := rec.notes[0]
	if n.Type != SearchChange {
		t.Errorf("Type = %q", n.Type)
	}

	got := map[Param]ParamValue{}
	for _, p := range n.Params {
		got[p.Name] = p
	}
	if _, ok := got[ParamPage]; ok {
		t.Error("unchanged page must not be emitted")
	}
	if got[ParamLang].Value != "en" || got[ParamFilters].Value != "function:x" {
		t.Errorf("changed params = %+v", got)
	}
	if !got[ParamTitle].Removed {
		t.Errorf("title should be flagged removed: %+v", got[ParamTitle])
	}

	if err := b.Navigate("page=2&lang=en&filters=function:x"); err != nil {
		t.Fatal(err)
	}
	if len(rec.notes) != 1 {
		t.Error("navigating to the same query must not notify")
	}
}

func TestBridge_StoreUpdatesDoNotNotify(t *testing.T) {
	b := NewBridge(nil)
	rec := &recorder{}
	b.AddObserver(rec)
	called := false
	b.Subscribe(ParamToYear, func(NotificationType, ParamValue) { called = true })

	b.UpdateSearchQueryParams([]Change{
		AddParam(ParamFromYear, "1500"),
		AddParam(ParamToYear, "max"),
		AddParam(ParamPage, "2"),
		RemoveParam(ParamPage),
	})
	b.UpdateLanguageParam("en")

	if len(rec.notes) != 0 || called {
		t.Error("store updates must not notify")
	}
	if got := b.Encode(); got != "from_year=1500&lang=en&to_year=max" {
		t.Errorf("Encode() = %q", got)
	}
	if _, ok := b.Get(ParamPage); ok {
		t.Error("page should be removed")
	}
}

func TestBridge_Unsubscribe(t *testing.T) {
	b := NewBridge(nil)
	calls := 0
	unsubscribe := b.Subscribe(ParamPage, func(NotificationType, ParamValue) { calls++ })
	b.Subscribe(ParamPage, func(NotificationType, ParamValue) { calls += 10 })

	unsubscribe()
	if err := b.Init("page=1"); err != nil {
		t.Fatal(err)
	}
	if calls != 10 {
		t.Errorf("calls = %d, want only the remaining handler", calls)
	}
}

func TestBridge_HandlerMayCallBack(t *testing.T) {
	b := NewBridge(nil)
	b.Subscribe(ParamPage, func(NotificationType, ParamValue) {
		b.UpdateSearchQueryParams([]Change{RemoveParam(ParamPage)})
	})
	if err := b.Init("page=9"); err != nil {
		t.Fatal(err)
	}
	if _, ok := b.Get(ParamPage); ok {
		t.Error("handler update was not applied")
	}
}

func TestBridge_QueryIsCopy(t *testing.T) {
	b := NewBridge(nil)
	b.UpdateSearchQueryParams([]Change{AddParam(ParamKind, "PAINTING")})
	q := b.Query()
	q.Set("kind", "GRAPHIC")
	if v, _ := b.Get(ParamKind); v != "PAINTING" {
		t.Errorf("Query() leaked internal state: %q", v)
	}
}

func TestAddOrRemove(t *testing.T) {
	if c := AddOrRemove(ParamTitle, ""); c.Op != OpRemove {
		t.Errorf("empty value op = %s", c.Op)
	}
	if c := AddOrRemove(ParamTitle, "x"); c.Op != OpAdd || c.Value != "x" {
		t.Errorf("AddOrRemove = %+v", c)
	}
}

func TestInit_InvalidQuery(t *testing.T) {
	b := NewBridge(nil)
	if err := b.Init("a=%zz"); err == nil {
		t.Error("expected parse error")
	}
}
