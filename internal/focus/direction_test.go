package focus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	for _, d := range Directions {
		got, err := ParseDirection(string(d))
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}

	got, err := ParseDirection(" Left ")
	require.NoError(t, err)
	assert.Equal(t, DirLeft, got)

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}

func TestDirectionSpatial(t *testing.T) {
	assert.True(t, DirLeft.Spatial())
	assert.True(t, DirDown.Spatial())
	assert.False(t, DirEnter.Spatial())
}

func TestKeyMapLookup(t *testing.T) {
	m := DefaultKeyMap()

	d, ok := m.Lookup("ArrowUp")
	assert.True(t, ok)
	assert.Equal(t, DirUp, d)

	d, ok = m.Lookup("NumpadEnter")
	assert.True(t, ok)
	assert.Equal(t, DirEnter, d)

	_, ok = m.Lookup("Escape")
	assert.False(t, ok)
}

func TestKeyMapLookup_FirstDirectionWins(t *testing.T) {
	m := KeyMap{
		DirEnter: {"KeyX"},
		DirLeft:  {"KeyX"},
	}
	d, ok := m.Lookup("KeyX")
	assert.True(t, ok)
	assert.Equal(t, DirLeft, d)
}
