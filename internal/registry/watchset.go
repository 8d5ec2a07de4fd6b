package registry

import "github.com/bryanchriswhite/EyeFocus/internal/geometry"

// WatchSet is one immutable snapshot of the watchable elements.
// Elements[i] and Bounds[i] describe the same element.
type WatchSet struct {
	ID       string
	Elements []Element
	Bounds   []geometry.Rect
}

// Len returns the number of elements.
func (w *WatchSet) Len() int {
	if w == nil {
		return 0
	}
	return len(w.Elements)
}

// IndexOf returns the index of el in the set, or -1.
func (w *WatchSet) IndexOf(el Element) int {
	if w == nil || el == nil {
		return -1
	}
	for i, e := range w.Elements {
		if e == el {
			return i
		}
	}
	return -1
}

// ElementInfo is the plain form of an element sent to the tracker.
type ElementInfo struct {
	Index int    `json:"index"`
	Key   string `json:"key"`
}

// Payload is the body of the eye-elements message.
type Payload struct {
	ID       string          `json:"id"`
	Elements []ElementInfo   `json:"elements"`
	Bounds   []geometry.Rect `json:"bounds"`
}

// Payload converts the set to its wire form.
func (w *WatchSet) Payload() Payload {
	p := Payload{
		ID:       w.ID,
		Elements: make([]ElementInfo, len(w.Elements)),
		Bounds:   make([]geometry.Rect, len(w.Bounds)),
	}
	for i, el := range w.Elements {
		p.Elements[i] = ElementInfo{Index: i, Key: el.Key()}
	}
	copy(p.Bounds, w.Bounds)
	return p
}
