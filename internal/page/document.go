// Package page adapts a static HTML page to the navigator. Watchable
// elements carry the marker class and describe their layout with data-x,
// data-y, data-width and data-height attributes (CSS pixels).
package page

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/bryanchriswhite/EyeFocus/internal/geometry"
	"github.com/bryanchriswhite/EyeFocus/internal/registry"
)

// Default viewport, matching a 1080p window.
const (
	DefaultViewportWidth  = 1920
	DefaultViewportHeight = 1080
)

// Element is a watchable node of the page. The same *Element survives
// reloads as long as a node with its key is still present.
type Element struct {
	doc    *Document
	key    string
	rect   geometry.Rect
	right  bool
	bottom bool
	hidden bool
	// attached is false once the node disappeared from the page.
	attached bool
}

// Key returns the node's id attribute, or "#<n>" for the n-th marker node
// when it has none. Positional keys follow the node's place on the page, so
// inserting a node before it hands its identity to another node.
func (e *Element) Key() string {
	return e.key
}

// Bounds returns the node's rect in the current viewport. Detached and
// hidden nodes report a zero rect.
func (e *Element) Bounds() geometry.Rect {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()

	if !e.attached || e.hidden {
		return geometry.Rect{}
	}
	r := e.rect
	if e.right {
		r.X = e.doc.width - e.rect.X - e.rect.Width
	}
	if e.bottom {
		r.Y = e.doc.height - e.rect.Y - e.rect.Height
	}
	return r
}

// Document is the parsed page.
type Document struct {
	path   string
	marker string

	mu       sync.RWMutex
	width    float64
	height   float64
	elements []*Element
	byKey    map[string]*Element
}

// NewDocument creates an empty document. Use Update or Reload to fill it.
func NewDocument(path, marker string) *Document {
	return &Document{
		path:   path,
		marker: marker,
		width:  DefaultViewportWidth,
		height: DefaultViewportHeight,
		byKey:  make(map[string]*Element),
	}
}

// Load reads and parses the page at path.
func Load(path, marker string) (*Document, error) {
	d := NewDocument(path, marker)
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

// Path returns the file the document was loaded from.
func (d *Document) Path() string {
	return d.path
}

// Reload re-reads the page from disk.
func (d *Document) Reload() error {
	f, err := os.Open(d.path)
	if err != nil {
		return fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()
	return d.Update(f)
}

// Update replaces the page content with the HTML read from r. Nodes are
// matched to existing elements by key; unmatched old elements are detached.
func (d *Document) Update(r io.Reader) error {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return fmt.Errorf("failed to parse page: %w", err)
	}

	type parsed struct {
		key    string
		rect   geometry.Rect
		right  bool
		bottom bool
		hidden bool
	}
	var nodes []parsed
	var parseErr error

	doc.Find("." + d.marker).EachWithBreak(func(i int, s *goquery.Selection) bool {
		key, ok := s.Attr("id")
		if !ok || key == "" {
			key = "#" + strconv.Itoa(i)
		}
		rect, err := parseRect(s)
		if err != nil {
			parseErr = fmt.Errorf("element %q: %w", key, err)
			return false
		}
		anchor := strings.Fields(s.AttrOr("data-anchor", ""))
		_, hidden := s.Attr("hidden")
		nodes = append(nodes, parsed{
			key:    key,
			rect:   rect,
			right:  contains(anchor, "right"),
			bottom: contains(anchor, "bottom"),
			hidden: hidden,
		})
		return true
	})
	if parseErr != nil {
		return parseErr
	}

	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if seen[n.key] {
			return fmt.Errorf("duplicate element id %q", n.key)
		}
		seen[n.key] = true
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	next := make([]*Element, 0, len(nodes))
	nextByKey := make(map[string]*Element, len(nodes))
	for _, n := range nodes {
		el, ok := d.byKey[n.key]
		if !ok {
			el = &Element{doc: d, key: n.key}
		}
		el.rect = n.rect
		el.right = n.right
		el.bottom = n.bottom
		el.hidden = n.hidden
		el.attached = true
		next = append(next, el)
		nextByKey[n.key] = el
	}
	for key, el := range d.byKey {
		if _, ok := nextByKey[key]; !ok {
			el.attached = false
		}
	}

	d.elements = next
	d.byKey = nextByKey
	return nil
}

// Watchables returns the attached marker elements in document order.
func (d *Document) Watchables() ([]registry.Element, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]registry.Element, len(d.elements))
	for i, el := range d.elements {
		out[i] = el
	}
	return out, nil
}

// Element returns the attached element with the given key.
func (d *Document) Element(key string) (*Element, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	el, ok := d.byKey[key]
	return el, ok
}

// Resize changes the viewport. Anchored elements move with it.
func (d *Document) Resize(width, height float64) {
	d.mu.Lock()
	d.width = width
	d.height = height
	d.mu.Unlock()
}

func parseRect(s *goquery.Selection) (geometry.Rect, error) {
	var vals [4]float64
	for i, attr := range []string{"data-x", "data-y", "data-width", "data-height"} {
		raw, ok := s.Attr(attr)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return geometry.Rect{}, fmt.Errorf("invalid %s %q", attr, raw)
		}
		vals[i] = v
	}
	return geometry.Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
