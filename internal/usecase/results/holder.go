// Package results holds what is currently shown: the result set, its
// loading and error flags and the pagination window.
package results

import (
	"sync"

	"github.com/cranach-archive/lighttable/internal/domain/artifact"
	"github.com/cranach-archive/lighttable/internal/domain/pagination"
	"github.com/cranach-archive/lighttable/internal/domain/search/result"
	"github.com/cranach-archive/lighttable/internal/routing"
)

// State is a copy of the holder state handed to watchers and views.
type State struct {
	Result     *result.Result        `json:"result"`
	Loading    bool                  `json:"loading"`
	Error      string                `json:"error,omitempty"`
	Pagination pagination.Pagination `json:"pagination"`
}

// Holder owns a result set and its pagination. When built with a router it
// mirrors the page position to the "page" URL parameter (1-indexed) and
// follows page changes coming from the URL.
type Holder struct {
	mu          sync.Mutex
	state       State
	router      Router
	watchers    map[int]func(State)
	nextWatch   int
	unsubscribe func()
}

// NewHolder creates a holder with the given page size. router may be nil.
func NewHolder(size int, router Router) *Holder {
	h := &Holder{
		state:    State{Pagination: pagination.New(size)},
		router:   router,
		watchers: make(map[int]func(State)),
	}
	if router != nil {
		h.unsubscribe = router.Subscribe(routing.ParamPage, h.handlePageParam)
	}
	return h
}

// Close drops the routing subscription and all watchers.
func (h *Holder) Close() {
	h.mu.Lock()
	unsubscribe := h.unsubscribe
	h.unsubscribe = nil
	h.watchers = make(map[int]func(State))
	h.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Watch registers fn to receive a state copy after every mutation.
func (h *Holder) Watch(fn func(State)) func() {
	h.mu.Lock()
	h.nextWatch++
	id := h.nextWatch
	h.watchers[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.watchers, id)
		h.mu.Unlock()
	}
}

// State returns a copy of the current state.
func (h *Holder) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Result returns the current result (nil before the first fetch).
func (h *Holder) Result() *result.Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Result
}

// Loading reports whether a fetch is in flight.
func (h *Holder) Loading() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Loading
}

// Error returns the message of the last failed fetch.
func (h *Holder) Error() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Error
}

// Pagination returns the current window.
func (h *Holder) Pagination() pagination.Pagination {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Pagination
}

// FlattenedResultItems returns the current items, never nil.
func (h *Holder) FlattenedResultItems() []artifact.Artifact {
	return h.Result().FlattenedItems()
}

// CurrentResultPagePos returns the 0-indexed page.
func (h *Holder) CurrentResultPagePos() int {
	return h.Pagination().PagePos()
}

// MaxResultPages returns ceil(hits / size).
func (h *Holder) MaxResultPages() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Pagination.MaxPages(h.state.Result.Hits())
}

// SetResult stores a successful result and clears the error.
func (h *Holder) SetResult(r *result.Result) {
	h.mutate(func(s *State) {
		s.Result = r
		s.Error = ""
	})
}

// ResetResult clears the result and the error.
func (h *Holder) ResetResult() {
	h.mutate(func(s *State) {
		s.Result = nil
		s.Error = ""
	})
}

// SetResultLoading sets the loading flag.
func (h *Holder) SetResultLoading(loading bool) {
	h.mutate(func(s *State) { s.Loading = loading })
}

// SetResultFetchingFailed records a failed fetch. The last result stays.
func (h *Holder) SetResultFetchingFailed(msg string) {
	h.mutate(func(s *State) { s.Error = msg })
}

// SetSize changes the page size and reports whether it changed.
// It never fetches; callers refetch explicitly.
func (h *Holder) SetSize(size int) bool {
	if size <= 0 {
		return false
	}
	changed := false
	h.mutate(func(s *State) {
		if s.Pagination.Size == size {
			return
		}
		s.Pagination.Size = size
		changed = true
	})
	return changed
}

// SetFrom sets the window offset, floored at 0.
func (h *Holder) SetFrom(from int) {
	h.mutate(func(s *State) { s.Pagination = s.Pagination.WithFrom(from) })
}

// ResetPagePos returns to the first page and drops the page URL parameter.
func (h *Holder) ResetPagePos() {
	h.mutate(func(s *State) { s.Pagination.From = 0 })
	h.route(routing.RemoveParam(routing.ParamPage))
}

// JumpToPagePos moves to a 0-indexed page, floored at 0.
func (h *Holder) JumpToPagePos(pos int) {
	h.updatePagePos(func(int) int { return pos })
}

// SetPagination moves relative to the current page.
func (h *Holder) SetPagination(delta int) {
	h.updatePagePos(func(cur int) int { return cur + delta })
}

func (h *Holder) updatePagePos(next func(cur int) int) {
	var page string
	h.mutate(func(s *State) {
		s.Pagination = s.Pagination.AtPagePos(next(s.Pagination.PagePos()))
		page = s.Pagination.PageParam()
	})
	h.route(routing.AddParam(routing.ParamPage, page))
}

func (h *Holder) handlePageParam(_ routing.NotificationType, p routing.ParamValue) {
	h.mutate(func(s *State) {
		if p.Removed {
			s.Pagination.From = 0
			return
		}
		s.Pagination.From = s.Pagination.FromPageParam(p.Value)
	})
}

func (h *Holder) route(c routing.Change) {
	if h.router != nil {
		h.router.UpdateSearchQueryParams([]routing.Change{c})
	}
}

// mutate applies fn under the lock, then notifies watchers outside it.
func (h *Holder) mutate(fn func(s *State)) {
	h.mu.Lock()
	fn(&h.state)
	snapshot := h.state
	watchers := make([]func(State), 0, len(h.watchers))
	for _, w := range h.watchers {
		watchers = append(watchers, w)
	}
	h.mu.Unlock()

	for _, w := range watchers {
		w(snapshot)
	}
}
