package focus

import (
	"time"

	"github.com/bryanchriswhite/EyeFocus/internal/registry"
)

// Source identifies where a focus change originated.
type Source string

const (
	SourceGaze     Source = "gaze"
	SourceKeyboard Source = "keyboard"
)

// Sink receives the synthetic events the navigator dispatches on elements.
// Calls are made while the navigator holds its lock, so a Sink must not call
// back into the Navigator.
type Sink interface {
	Enter(el registry.Element, src Source)
	Exit(el registry.Element, src Source)
	Stay(el registry.Element, dwell time.Duration)
	Activate(el registry.Element)
}

// Sinks fans every event out to each sink in order.
type Sinks []Sink

func (s Sinks) Enter(el registry.Element, src Source) {
	for _, sink := range s {
		sink.Enter(el, src)
	}
}

func (s Sinks) Exit(el registry.Element, src Source) {
	for _, sink := range s {
		sink.Exit(el, src)
	}
}

func (s Sinks) Stay(el registry.Element, dwell time.Duration) {
	for _, sink := range s {
		sink.Stay(el, dwell)
	}
}

func (s Sinks) Activate(el registry.Element) {
	for _, sink := range s {
		sink.Activate(el)
	}
}
