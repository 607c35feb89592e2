package results

import (
	"testing"

	"github.com/cranach-archive/lighttable/internal/domain/search/result"
	"github.com/cranach-archive/lighttable/internal/routing"
)

func TestHolder_JumpToPagePosSyncsRouting(t *testing.T) {
	bridge := routing.NewBridge(nil)
	h := NewHolder(30, bridge)

	h.JumpToPagePos(3)
	if h.Pagination().From != 90 {
		t.Errorf("From = %d, want 90", h.Pagination().From)
	}
	if v, _ := bridge.Get(routing.ParamPage); v != "4" {
		t.Errorf("page = %q, want 4", v)
	}

	h.SetPagination(-10)
	if h.Pagination().From != 0 {
		t.Errorf("negative move not floored: From = %d", h.Pagination().From)
	}
	if v, _ := bridge.Get(routing.ParamPage); v != "1" {
		t.Errorf("page = %q, want 1", v)
	}
}

func TestHolder_JumpToZeroIsIdempotent(t *testing.T) {
	h := NewHolder(60, nil)
	moves := []func(){
		func() { h.JumpToPagePos(5) },
		func() { h.SetPagination(2) },
		func() { h.SetFrom(17) },
		func() { h.SetPagination(-1) },
	}
	for _, move := range moves {
		move()
		h.JumpToPagePos(0)
		if h.Pagination().From != 0 {
			t.Fatalf("JumpToPagePos(0) left From = %d", h.Pagination().From)
		}
	}
}

func TestHolder_ResetPagePosRemovesParam(t *testing.T) {
	bridge := routing.NewBridge(nil)
	h := NewHolder(60, bridge)
	h.JumpToPagePos(2)

	h.ResetPagePos()
	if h.Pagination().From != 0 {
		t.Errorf("From = %d", h.Pagination().From)
	}
	if _, ok := bridge.Get(routing.ParamPage); ok {
		t.Error("page param should be removed")
	}
}

func TestHolder_FollowsPageParam(t *testing.T) {
	bridge := routing.NewBridge(nil)
	h := NewHolder(20, bridge)

	if err := bridge.Init("page=3"); err != nil {
		t.Fatal(err)
	}
	if h.Pagination().From != 40 {
		t.Errorf("From after init = %d, want 40", h.Pagination().From)
	}

	if err := bridge.Navigate("page=-2"); err != nil {
		t.Fatal(err)
	}
	if h.Pagination().From != 0 {
		t.Errorf("negative page not clamped: %d", h.Pagination().From)
	}

	_ = bridge.Navigate("page=2")
	_ = bridge.Navigate("")
	if h.Pagination().From != 0 {
		t.Errorf("removed page should reset From, got %d", h.Pagination().From)
	}

	h.Close()
	_ = bridge.Navigate("page=5")
	if h.Pagination().From != 0 {
		t.Error("closed holder still follows routing")
	}
}

func TestHolder_SetSize(t *testing.T) {
	h := NewHolder(60, nil)
	if h.SetSize(60) {
		t.Error("unchanged size reported as change")
	}
	if !h.SetSize(30) {
		t.Error("size change not reported")
	}
	if h.SetSize(0) {
		t.Error("zero size accepted")
	}

	h.SetResult(&result.Result{Meta: result.Meta{Hits: 61}})
	if h.MaxResultPages() != 3 {
		t.Errorf("MaxResultPages = %d, want 3", h.MaxResultPages())
	}
}

func TestHolder_ResultFlags(t *testing.T) {
	h := NewHolder(60, nil)
	if got := h.FlattenedResultItems(); got == nil || len(got) != 0 {
		t.Errorf("FlattenedResultItems = %v", got)
	}

	h.SetResultLoading(true)
	h.SetResultFetchingFailed("boom")
	if !h.Loading() || h.Error() != "boom" {
		t.Errorf("state = %+v", h.State())
	}

	h.SetResult(&result.Result{Meta: result.Meta{Hits: 1}})
	if h.Error() != "" {
		t.Error("SetResult must clear the error")
	}
	h.ResetResult()
	if h.Result() != nil {
		t.Error("ResetResult kept the result")
	}
}

func TestHolder_Watch(t *testing.T) {
	h := NewHolder(60, nil)
	var seen []State
	unwatch := h.Watch(func(s State) { seen = append(seen, s) })

	h.SetResultLoading(true)
	h.SetResultLoading(false)
	unwatch()
	h.SetResultLoading(true)

	if len(seen) != 2 {
		t.Fatalf("watcher saw %d states, want 2", len(seen))
	}
	if !seen[0].Loading || seen[1].Loading {
		t.Errorf("unexpected states: %+v", seen)
	}
}
