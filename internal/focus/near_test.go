package focus

import (
	"testing"

	"github.com/bryanchriswhite/EyeFocus/internal/registry"
	"github.com/stretchr/testify/assert"
)

func elems(nodes ...*node) []registry.Element {
	out := make([]registry.Element, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out
}

func TestFindNear_ThreeElementScenario(t *testing.T) {
	origin := at("origin", 0, 0)
	east := at("east", 100, 0)
	south := at("south", 0, 100)
	all := elems(origin, east, south)

	assert.Same(t, east, findNear(origin, all, DirRight))
	assert.Same(t, south, findNear(origin, all, DirDown))
	assert.Same(t, origin, findNear(origin, all, DirLeft), "no candidate to the left")
	assert.Same(t, origin, findNear(origin, all, DirUp), "no candidate above")
}

func TestFindNear_PrefersSameRow(t *testing.T) {
	cur := at("cur", 0, 0)
	diagonal := at("diagonal", 50, 40)
	farSameRow := at("far", 300, 0)

	assert.Same(t, farSameRow, findNear(cur, elems(cur, diagonal, farSameRow), DirRight))
}

func TestFindNear_PrefersSameColumn(t *testing.T) {
	cur := at("cur", 200, 200)
	offset := at("offset", 230, 150)
	farSameColumn := at("far", 200, -500)

	assert.Same(t, farSameColumn, findNear(cur, elems(cur, offset, farSameColumn), DirUp))
}

func TestFindNear_NearestAlongPrimaryAxis(t *testing.T) {
	cur := at("cur", 0, 0)
	near := at("near", 40, 0)
	far := at("far", 80, 0)

	assert.Same(t, near, findNear(cur, elems(far, cur, near), DirRight))
	assert.Same(t, cur, findNear(near, elems(far, cur, near), DirLeft))
}

func TestFindNear_StrictInequality(t *testing.T) {
	cur := at("cur", 0, 0)
	sameX := at("same-x", 0, 50)

	// A candidate exactly in line on the primary axis is not "right of" cur.
	assert.Same(t, cur, findNear(cur, elems(cur, sameX), DirRight))
	assert.Same(t, sameX, findNear(cur, elems(cur, sameX), DirDown))
}

func TestFindNear_TieKeepsDocumentOrder(t *testing.T) {
	cur := at("cur", 0, 0)
	up := at("up", 100, -10)
	down := at("down", 100, 10)

	assert.Same(t, up, findNear(cur, elems(cur, up, down), DirRight))
	assert.Same(t, down, findNear(cur, elems(cur, down, up), DirRight))
}

func TestFindNear_DirectionConsistent(t *testing.T) {
	var grid []*node
	for x := 0; x < 4; x++ {
		for y := 0; y < 3; y++ {
			grid = append(grid, at("n", float64(x*60+y*7), float64(y*45-x*3)))
		}
	}
	all := elems(grid...)

	for _, cur := range grid {
		c := cur.Bounds().Center()
		for _, dir := range []Direction{DirLeft, DirRight, DirUp, DirDown} {
			got := findNear(cur, all, dir)
			if got == registry.Element(cur) {
				// Only allowed when nothing lies on that side.
				for _, other := range grid {
					if other == cur {
						continue
					}
					_, ok := weightedDistance(c, other.Bounds().Center(), dir)
					assert.False(t, ok, "findNear(%v) returned current although a candidate exists", dir)
				}
				continue
			}
			gc := got.Bounds().Center()
			switch dir {
			case DirLeft:
				assert.Less(t, gc.X, c.X)
			case DirRight:
				assert.Greater(t, gc.X, c.X)
			case DirUp:
				assert.Less(t, gc.Y, c.Y)
			case DirDown:
				assert.Greater(t, gc.Y, c.Y)
			}
		}
	}
}

func TestFindNear_Idempotent(t *testing.T) {
	cur := at("cur", 10, 10)
	all := elems(cur, at("a", 90, 15), at("b", 60, 80), at("c", -40, 10))

	first := findNear(cur, all, DirRight)
	for i := 0; i < 5; i++ {
		assert.Same(t, first, findNear(cur, all, DirRight))
	}
}

func TestFindNear_ReadsLiveGeometry(t *testing.T) {
	cur := at("cur", 0, 0)
	mover := at("mover", 100, 0)
	all := elems(cur, mover)

	assert.Same(t, mover, findNear(cur, all, DirRight))

	mover.rect.X = -200
	assert.Same(t, cur, findNear(cur, all, DirRight))
	assert.Same(t, mover, findNear(cur, all, DirLeft))
}

func TestFindNear_EdgeCases(t *testing.T) {
	cur := at("cur", 0, 0)

	assert.Nil(t, findNear(nil, elems(cur), DirRight))
	assert.Same(t, cur, findNear(cur, elems(cur, at("x", 50, 0)), DirEnter))
	assert.Same(t, cur, findNear(cur, nil, DirDown))
}
