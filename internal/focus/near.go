package focus

import (
	"math"

	"github.com/bryanchriswhite/EyeFocus/internal/geometry"
	"github.com/bryanchriswhite/EyeFocus/internal/registry"
)

// perpendicularWeight scales the axis perpendicular to the search direction,
// so a candidate in the same row (or column) always beats one that is
// closer along the primary axis but offset sideways.
const perpendicularWeight = 1000

// findNear returns the element nearest to current in direction dir.
// Geometry is read from the elements at call time. When no candidate lies
// strictly on the requested side, current itself is returned.
func findNear(current registry.Element, candidates []registry.Element, dir Direction) registry.Element {
	if current == nil {
		return nil
	}
	if !dir.Spatial() {
		return current
	}

	origin := current.Bounds().Center()

	if next := strictDirectionalPass(current, origin, candidates, dir); next != nil {
		return next
	}
	return anyCandidateFallbackPass(current, origin, candidates, dir)
}

// strictDirectionalPass considers every candidate except current.
func strictDirectionalPass(current registry.Element, origin geometry.Point, candidates []registry.Element, dir Direction) registry.Element {
	var best registry.Element
	bestDistance := math.MaxFloat64
	for _, el := range candidates {
		if el == current {
			continue
		}
		if d, ok := weightedDistance(origin, el.Bounds().Center(), dir); ok && d < bestDistance {
			bestDistance = d
			best = el
		}
	}
	return best
}

// anyCandidateFallbackPass repeats the search with current allowed as a
// candidate. Only reached when the strict pass found nothing, so the result
// is current unless the candidate list changed between passes.
func anyCandidateFallbackPass(current registry.Element, origin geometry.Point, candidates []registry.Element, dir Direction) registry.Element {
	best := current
	bestDistance := math.MaxFloat64
	for _, el := range candidates {
		if d, ok := weightedDistance(origin, el.Bounds().Center(), dir); ok && d < bestDistance {
			bestDistance = d
			best = el
		}
	}
	return best
}

// weightedDistance returns the anisotropic distance from origin to c, and
// false when c is not strictly on the dir side of origin.
func weightedDistance(origin, c geometry.Point, dir Direction) (float64, bool) {
	switch dir {
	case DirLeft:
		if c.X >= origin.X {
			return 0, false
		}
	case DirRight:
		if c.X <= origin.X {
			return 0, false
		}
	case DirUp:
		if c.Y >= origin.Y {
			return 0, false
		}
	case DirDown:
		if c.Y <= origin.Y {
			return 0, false
		}
	default:
		return 0, false
	}

	sx, sy := float64(perpendicularWeight), 1.0
	if dir.horizontal() {
		sx, sy = 1.0, perpendicularWeight
	}
	return geometry.Distance(c.Scale(sx, sy), origin.Scale(sx, sy)), true
}
