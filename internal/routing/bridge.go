// Package routing keeps the URL query state of a session and notifies the
// search stores when it changes from the outside.
package routing

import (
	"fmt"
	"net/url"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/cranach-archive/lighttable/internal/domain"
)

// NotificationType distinguishes the initial URL parse from later changes.
type NotificationType string

// Notification types.
const (
	SearchInit   NotificationType = "SEARCH_INIT"
	SearchChange NotificationType = "SEARCH_CHANGE"
)

// ParamValue is one parameter carried by a notification.
// Removed is set when a change dropped the parameter from the URL.
type ParamValue struct {
	Name    Param  `json:"name"`
	Value   string `json:"value"`
	Removed bool   `json:"removed,omitempty"`
}

// Notification is delivered to observers on init and on every URL change.
type Notification struct {
	Type   NotificationType `json:"type"`
	Params []ParamValue     `json:"params"`
}

// Observer receives every notification.
type Observer interface {
	Notify(Notification)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Notification)

// Notify implements Observer.
func (f ObserverFunc) Notify(n Notification) { f(n) }

// HandlerFunc handles one parameter of a notification.
type HandlerFunc func(t NotificationType, p ParamValue)

type subscription struct {
	id int
	fn HandlerFunc
}

// Bridge owns the query parameters of one session.
// Updates issued by stores never produce notifications.
type Bridge struct {
	mu        sync.Mutex
	values    url.Values
	observers []Observer
	handlers  map[Param][]subscription
	nextID    int
	logger    *zap.Logger
}

// NewBridge creates an empty bridge.
func NewBridge(logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		values:   url.Values{},
		handlers: make(map[Param][]subscription),
		logger:   logger.Named("routing"),
	}
}

// AddObserver registers an observer for all notifications.
func (b *Bridge) AddObserver(o Observer) {
	b.mu.Lock()
	b.observers = append(b.observers, o)
	b.mu.Unlock()
}

// Subscribe registers fn for one parameter and returns its unsubscribe func.
func (b *Bridge) Subscribe(param Param, fn HandlerFunc) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[param] = append(b.handlers[param], subscription{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[param]
		for i, s := range subs {
			if s.id == id {
				b.handlers[param] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
		if len(b.handlers[param]) == 0 {
			delete(b.handlers, param)
		}
	}
}

// Init replaces the query state and emits SEARCH_INIT with every parameter.
func (b *Bridge) Init(rawQuery string) error {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	b.mu.Lock()
	b.values = values
	b.mu.Unlock()

	params := make([]ParamValue, 0, len(values))
	for _, name := range sortedKeys(values) {
		params = append(params, ParamValue{Name: Param(name), Value: values.Get(name)})
	}
	b.dispatch(Notification{Type: SearchInit, Params: params})
	return nil
}

// Navigate moves to a new query and emits SEARCH_CHANGE for every parameter
// that was added, changed or removed. Nothing is emitted when the query is
// unchanged.
func (b *Bridge) Navigate(rawQuery string) error {
	next, err := url.ParseQuery(rawQuery)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	b.mu.Lock()
	prev := b.values
	b.values = next
	b.mu.Unlock()

	var params []ParamValue
	for _, name := range sortedKeys(next) {
		if v := next.Get(name); !prev.Has(name) || prev.Get(name) != v {
			params = append(params, ParamValue{Name: Param(name), Value: v})
		}
	}
	for _, name := range sortedKeys(prev) {
		if !next.Has(name) {
			params = append(params, ParamValue{Name: Param(name), Removed: true})
		}
	}
	if len(params) == 0 {
		return nil
	}
	b.dispatch(Notification{Type: SearchChange, Params: params})
	return nil
}

// UpdateSearchQueryParams applies store-originated changes in order.
func (b *Bridge) UpdateSearchQueryParams(changes []Change) {
	if len(changes) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range changes {
		switch c.Op {
		case OpAdd:
			b.values.Set(string(c.Name), c.Value)
		case OpRemove:
			b.values.Del(string(c.Name))
		}
	}
}

// UpdateLanguageParam sets the lang parameter.
func (b *Bridge) UpdateLanguageParam(lang string) {
	b.UpdateSearchQueryParams([]Change{AddOrRemove(ParamLang, lang)})
}

// Get returns the current value of a parameter.
func (b *Bridge) Get(param Param) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.values.Has(string(param)) {
		return "", false
	}
	return b.values.Get(string(param)), true
}

// Lang returns the lang parameter ("" when unset).
func (b *Bridge) Lang() string {
	v, _ := b.Get(ParamLang)
	return v
}

// Query returns a copy of the current query parameters.
func (b *Bridge) Query() url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(url.Values, len(b.values))
	for k, v := range b.values {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Encode renders the current query string with keys sorted.
func (b *Bridge) Encode() string {
	return b.Query().Encode()
}

// dispatch runs observers and handlers outside the lock so they may call
// back into the bridge.
func (b *Bridge) dispatch(n Notification) {
	b.mu.Lock()
	observers := append([]Observer(nil), b.observers...)
	calls := make([]func(), 0, len(n.Params))
	for _, p := range n.Params {
		for _, s := range b.handlers[p.Name] {
			fn, p := s.fn, p
			calls = append(calls, func() { fn(n.Type, p) })
		}
	}
	b.mu.Unlock()

	b.logger.Debug("routing notification",
		zap.String("type", string(n.Type)),
		zap.Int("params", len(n.Params)),
		zap.Int("handlers", len(calls)),
	)

	for _, o := range observers {
		o.Notify(n)
	}
	for _, call := range calls {
		call()
	}
}

func sortedKeys(v url.Values) []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
