package page

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/bryanchriswhite/EyeFocus/internal/focus"
	"github.com/bryanchriswhite/EyeFocus/internal/logger"
	"github.com/bryanchriswhite/EyeFocus/internal/registry"
)

// DOM event names dispatched on watchable elements.
const (
	EventEnter = "eye-enter"
	EventExit  = "eye-exit"
	EventStay  = "eye-stay"
	EventClick = "click"
)

// Event is one synthetic DOM event.
type Event struct {
	Type   string         `json:"type"`
	Target string         `json:"target"`
	Detail map[string]any `json:"detail"`
}

// EventSink implements focus.Sink by writing each event as a JSON line.
type EventSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewEventSink writes events to w.
func NewEventSink(w io.Writer) *EventSink {
	return &EventSink{enc: json.NewEncoder(w)}
}

func (s *EventSink) Enter(el registry.Element, src focus.Source) {
	s.dispatch(EventEnter, el, originDetail(src))
}

func (s *EventSink) Exit(el registry.Element, src focus.Source) {
	s.dispatch(EventExit, el, originDetail(src))
}

func (s *EventSink) Stay(el registry.Element, dwell time.Duration) {
	s.dispatch(EventStay, el, map[string]any{"time": dwell.Milliseconds()})
}

func (s *EventSink) Activate(el registry.Element) {
	s.dispatch(EventClick, el, map[string]any{})
}

// originDetail marks gaze-originated events with eye: true.
func originDetail(src focus.Source) map[string]any {
	if src == focus.SourceGaze {
		return map[string]any{"eye": true}
	}
	return map[string]any{}
}

func (s *EventSink) dispatch(typ string, el registry.Element, detail map[string]any) {
	ev := Event{Type: typ, Target: el.Key(), Detail: detail}

	s.mu.Lock()
	err := s.enc.Encode(ev)
	s.mu.Unlock()

	log := logger.WithComponent("page-events")
	if err != nil {
		log.Warn().Err(err).Str("type", typ).Msg("Failed to write event")
		return
	}
	log.Debug().Str("type", typ).Str("target", ev.Target).Msg("Dispatched event")
}
