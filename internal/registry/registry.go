// Package registry keeps the versioned set of watchable elements.
//
// Every rebuild produces a new WatchSet under a fresh token and publishes it
// to the gaze tracker. Element indices are only meaningful together with the
// token they were issued under, so a rebuild invalidates every index handed
// out before it.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bryanchriswhite/EyeFocus/internal/geometry"
	"github.com/bryanchriswhite/EyeFocus/internal/logger"
	"github.com/google/uuid"
)

var (
	// ErrStaleRegistry is returned by Lookup when the token does not match
	// the current WatchSet.
	ErrStaleRegistry = errors.New("stale registry id")

	// ErrIndexOutOfRange is returned by Lookup for an index outside the
	// current WatchSet.
	ErrIndexOutOfRange = errors.New("element index out of range")
)

// Element is a watchable element. Bounds is read live on every call so
// callers always see the current layout. Implementations must be comparable
// (pointer types) because element identity is checked with ==.
type Element interface {
	// Key is a stable, human readable identity sent to the tracker.
	Key() string

	// Bounds returns the element's current bounding box. A removed element
	// returns a zero rect.
	Bounds() geometry.Rect
}

// Source discovers the watchable elements in document order.
type Source interface {
	Watchables() ([]Element, error)
}

// Publisher receives every rebuilt WatchSet in wire form.
type Publisher interface {
	PublishElements(p Payload) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(p Payload) error

// PublishElements calls f(p).
func (f PublisherFunc) PublishElements(p Payload) error {
	return f(p)
}

// Option configures a Registry.
type Option func(*Registry)

// WithIDFunc replaces the token generator. Tests use it for predictable ids.
func WithIDFunc(fn func() string) Option {
	return func(r *Registry) {
		r.newID = fn
	}
}

// WithPublishers attaches publishers at construction.
func WithPublishers(pubs ...Publisher) Option {
	return func(r *Registry) {
		r.publishers = append(r.publishers, pubs...)
	}
}

// Registry owns the current WatchSet.
type Registry struct {
	source Source
	newID  func() string

	// rebuildMu orders scan + publish so publications never interleave.
	rebuildMu sync.Mutex

	mu         sync.RWMutex
	current    *WatchSet
	publishers []Publisher
	listeners  []chan *WatchSet
}

// New creates a registry over source. Call Rebuild (or Invalidate) once to
// publish the initial WatchSet.
func New(source Source, opts ...Option) *Registry {
	r := &Registry{
		source:  source,
		newID:   uuid.NewString,
		current: &WatchSet{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddPublisher attaches a publisher. It receives WatchSets from the next
// rebuild on.
func (r *Registry) AddPublisher(p Publisher) {
	r.mu.Lock()
	r.publishers = append(r.publishers, p)
	r.mu.Unlock()
}

// Rebuild scans the source, installs a new WatchSet under a fresh token and
// publishes it. If the scan fails an empty WatchSet is installed anyway, so
// indices from the previous set can no longer resolve.
func (r *Registry) Rebuild() (*WatchSet, error) {
	r.rebuildMu.Lock()
	defer r.rebuildMu.Unlock()

	log := logger.WithComponent("registry")

	elements, scanErr := r.source.Watchables()
	if scanErr != nil {
		elements = nil
	}

	ws := &WatchSet{
		ID:       r.newID(),
		Elements: elements,
		Bounds:   make([]geometry.Rect, len(elements)),
	}
	for i, el := range elements {
		ws.Bounds[i] = el.Bounds()
	}

	r.mu.Lock()
	r.current = ws
	publishers := append([]Publisher(nil), r.publishers...)
	r.mu.Unlock()

	metricRebuilds.Inc()
	metricWatchables.Set(float64(len(elements)))

	payload := ws.Payload()
	for _, p := range publishers {
		if err := p.PublishElements(payload); err != nil {
			log.Warn().Err(err).Str("id", ws.ID).Msg("Failed to publish watch set")
		}
	}

	r.notifyListeners(ws)

	log.Debug().
		Str("id", ws.ID).
		Int("elements", len(elements)).
		Msg("Watch set rebuilt")

	if scanErr != nil {
		return ws, fmt.Errorf("failed to scan watchable elements: %w", scanErr)
	}
	return ws, nil
}

// Invalidate rebuilds and logs failures. It is the callback handed to change
// notifiers (file watchers, pollers, resize hooks).
func (r *Registry) Invalidate() {
	if _, err := r.Rebuild(); err != nil {
		logger.WithComponent("registry").Warn().Err(err).Msg("Rebuild after invalidation failed")
	}
}

// Current returns the current WatchSet. It is never nil; before the first
// rebuild it is empty with an empty ID.
func (r *Registry) Current() *WatchSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Lookup resolves an index issued under token id.
func (r *Registry) Lookup(id string, index int) (Element, error) {
	ws := r.Current()
	if ws.ID == "" || id != ws.ID {
		return nil, ErrStaleRegistry
	}
	if index < 0 || index >= len(ws.Elements) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(ws.Elements))
	}
	return ws.Elements[index], nil
}

// Subscribe returns a channel that receives every new WatchSet.
func (r *Registry) Subscribe() chan *WatchSet {
	ch := make(chan *WatchSet, 10)
	r.mu.Lock()
	r.listeners = append(r.listeners, ch)
	r.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a listener.
func (r *Registry) Unsubscribe(ch chan *WatchSet) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, listener := range r.listeners {
		if listener == ch {
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			close(ch)
			break
		}
	}
}

func (r *Registry) notifyListeners(ws *WatchSet) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, listener := range r.listeners {
		select {
		case listener <- ws:
		default:
			// Skip if channel is full
		}
	}
}
