package focus

import (
	"fmt"
	"time"

	"github.com/bryanchriswhite/EyeFocus/internal/geometry"
	"github.com/bryanchriswhite/EyeFocus/internal/registry"
)

// node is a test element whose geometry can change between calls.
type node struct {
	key  string
	rect geometry.Rect
}

func (n *node) Key() string { return n.key }

func (n *node) Bounds() geometry.Rect { return n.rect }

// at returns a 10x10 node centered on (cx, cy).
func at(key string, cx, cy float64) *node {
	return &node{key: key, rect: geometry.Rect{X: cx - 5, Y: cy - 5, Width: 10, Height: 10}}
}

type listSource struct {
	elements []registry.Element
}

func (s *listSource) Watchables() ([]registry.Element, error) {
	return s.elements, nil
}

func newTestRegistry(elements ...*node) (*registry.Registry, *listSource) {
	src := &listSource{}
	for _, n := range elements {
		src.elements = append(src.elements, n)
	}
	n := 0
	reg := registry.New(src, registry.WithIDFunc(func() string {
		n++
		return fmt.Sprintf("T%d", n)
	}))
	reg.Invalidate()
	return reg, src
}

// recorder captures sink calls as "kind:key[:detail]" strings.
type recorder struct {
	events []string
}

func (r *recorder) Enter(el registry.Element, src Source) {
	r.events = append(r.events, fmt.Sprintf("enter:%s:%s", el.Key(), src))
}

func (r *recorder) Exit(el registry.Element, src Source) {
	r.events = append(r.events, fmt.Sprintf("exit:%s:%s", el.Key(), src))
}

func (r *recorder) Stay(el registry.Element, dwell time.Duration) {
	r.events = append(r.events, fmt.Sprintf("stay:%s:%s", el.Key(), dwell))
}

func (r *recorder) Activate(el registry.Element) {
	r.events = append(r.events, fmt.Sprintf("activate:%s", el.Key()))
}

func (r *recorder) reset() {
	r.events = nil
}
