package tuvi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tartampluch/go-amlich/internal/almanac"
)

func TestDestinyForKey_FallsBackToEarth(t *testing.T) {
	for key := 0; key < 12; key++ {
		_, ok := destinyByKey[key]
		assert.True(t, ok, "key %d", key)
	}
	assert.Equal(t, almanac.Earth, destinyForKey(12))
	assert.Equal(t, almanac.Earth, destinyForKey(-3))
	assert.Equal(t, almanac.Earth, DestinyElementFor(-5, 1), "negative years produce a negative key")
}

func TestWeightOf_UnknownElement(t *testing.T) {
	assert.Equal(t, 5, weightOf(almanac.Element("?")))
	assert.Equal(t, 4, AnchorStarPosition(almanac.Element("?"), 12))
}

func TestPlace_FirstWriteWins(t *testing.T) {
	var p Palace
	first := Star{ID: "tu_vi", Name: "Tử Vi", Brightness: 5}
	second := Star{ID: "tu_vi", Name: "Tử Vi (bis)", Brightness: 1}

	assert.True(t, place(&p, first))
	assert.False(t, place(&p, second))
	assert.Equal(t, []Star{first}, p.Stars)
}

func TestPlaceGroup_SkipsCollisions(t *testing.T) {
	ring := palaceRing(0)
	group := []offsetStar{
		{Star{"x", "X", Minor, true, 1}, 2},
		{Star{"x", "X", Minor, true, 1}, 14},
		{Star{"y", "Y", Minor, true, 1}, 2},
	}
	placed := placeGroup(&ring, 0, group)

	assert.Len(t, placed, 2)
	assert.Equal(t, []string{"x", "y"}, []string{ring[2].Stars[0].ID, ring[2].Stars[1].ID})
}
