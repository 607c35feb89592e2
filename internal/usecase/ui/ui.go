// Package ui holds presentation state shared by the search stores: language,
// selected artifact kind, sidebar and view type.
package ui

import (
	"fmt"
	"sync"

	"github.com/cranach-archive/lighttable/internal/domain"
	"github.com/cranach-archive/lighttable/internal/domain/artifact"
	"github.com/cranach-archive/lighttable/internal/routing"
)

// DefaultLang is used when neither config nor URL name a language.
const DefaultLang = "de"

// ViewType selects how results are rendered.
type ViewType string

// View types.
const (
	ViewCard      ViewType = "CARD"
	ViewCardSmall ViewType = "CARD_SMALL"
	ViewList      ViewType = "LIST"
	ViewTable     ViewType = "TABLE"
)

// IsValid checks if the view type is one of the supported values.
func (v ViewType) IsValid() bool {
	switch v {
	case ViewCard, ViewCardSmall, ViewList, ViewTable:
		return true
	}
	return false
}

// Event names what changed in a UI store callback.
type Event string

// UI events.
const (
	EventLang         Event = "lang"
	EventArtifactKind Event = "artifact_kind"
)

// State is a copy of the UI store.
type State struct {
	Lang           string        `json:"lang"`
	ArtifactKind   artifact.Kind `json:"artifact_kind"`
	SidebarVisible bool          `json:"sidebar_visible"`
	ViewType       ViewType      `json:"view_type"`
}

// UI is the presentation store.
type UI struct {
	mu       sync.Mutex
	state    State
	router   Router
	onChange []func(Event)
	unsub    func()
}

// New creates a UI store. An empty lang falls back to DefaultLang, an
// empty kind to works. router may be nil.
func New(lang string, kind artifact.Kind, router Router) *UI {
	if lang == "" {
		lang = DefaultLang
	}
	if !kind.IsValid() {
		kind = artifact.KindWorks
	}
	u := &UI{
		state: State{
			Lang:           lang,
			ArtifactKind:   kind,
			SidebarVisible: true,
			ViewType:       ViewCard,
		},
		router: router,
	}
	if router != nil {
		u.unsub = router.Subscribe(routing.ParamLang, u.handleLang)
	}
	return u
}

// OnChange registers fn to run after a user-driven language or artifact
// kind change. The root store uses it to refetch.
func (u *UI) OnChange(fn func(Event)) {
	u.mu.Lock()
	u.onChange = append(u.onChange, fn)
	u.mu.Unlock()
}

// Lang returns the current language.
func (u *UI) Lang() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.Lang
}

// SetLanguage switches the language, mirrors it to the URL and notifies
// the change hooks.
func (u *UI) SetLanguage(lang string) {
	if lang == "" {
		return
	}
	u.mu.Lock()
	if u.state.Lang == lang {
		u.mu.Unlock()
		return
	}
	u.state.Lang = lang
	u.mu.Unlock()

	if u.router != nil {
		u.router.UpdateLanguageParam(lang)
	}
	u.emit(EventLang)
}

// ArtifactKind returns the selected artifact kind.
func (u *UI) ArtifactKind() artifact.Kind {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.ArtifactKind
}

// SetArtifactKind selects another artifact kind and notifies the change hooks.
func (u *UI) SetArtifactKind(kind artifact.Kind) error {
	if !kind.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownArtifactKind, kind)
	}
	u.mu.Lock()
	u.state.ArtifactKind = kind
	u.mu.Unlock()
	u.emit(EventArtifactKind)
	return nil
}

// SetSidebarVisible shows or hides the filter sidebar.
func (u *UI) SetSidebarVisible(visible bool) {
	u.mu.Lock()
	u.state.SidebarVisible = visible
	u.mu.Unlock()
}

// ToggleSidebar flips the sidebar visibility.
func (u *UI) ToggleSidebar() {
	u.mu.Lock()
	u.state.SidebarVisible = !u.state.SidebarVisible
	u.mu.Unlock()
}

// SetViewType changes the result rendering.
func (u *UI) SetViewType(v ViewType) error {
	if !v.IsValid() {
		return fmt.Errorf("unknown view type %q", v)
	}
	u.mu.Lock()
	u.state.ViewType = v
	u.mu.Unlock()
	return nil
}

// State returns a copy of the store.
func (u *UI) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Close drops the routing subscription.
func (u *UI) Close() {
	u.mu.Lock()
	unsub := u.unsub
	u.unsub = nil
	u.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// handleLang follows the URL language without refetching; the URL change
// that carried it already drives the stores.
func (u *UI) handleLang(_ routing.NotificationType, p routing.ParamValue) {
	if p.Removed || p.Value == "" {
		return
	}
	u.mu.Lock()
	u.state.Lang = p.Value
	u.mu.Unlock()
}

func (u *UI) emit(e Event) {
	u.mu.Lock()
	hooks := append([]func(Event) nil, u.onChange...)
	u.mu.Unlock()
	for _, fn := range hooks {
		fn(e)
	}
}
