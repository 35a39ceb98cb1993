package arb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestDepthHelpers(t *testing.T) {
	t.Run("Exhausted budget yields empty values", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			assert.Nil(rt, PtrDepth(0, rapid.Int()).Draw(rt, "ptr"))
			assert.Nil(rt, SliceDepth(0, rapid.Int()).Draw(rt, "slice"))
			assert.Nil(rt, MapDepth(0, rapid.Int(), rapid.Int()).Draw(rt, "map"))
		})
	})

	t.Run("Fanout is capped", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			assert.LessOrEqual(rt, len(SliceDepth(2, rapid.Int()).Draw(rt, "slice")), MaxFanout)
			assert.LessOrEqual(rt, len(MapDepth(2, rapid.Int(), rapid.Int()).Draw(rt, "map")), MaxFanout)
		})
	})

	t.Run("Nil pointer is reachable with budget left", func(t *testing.T) {
		gen := PtrDepth(2, rapid.Int())
		nils := 0
		for seed := range 200 {
			if gen.Example(seed) == nil {
				nils++
			}
		}
		assert.Positive(t, nils)
		assert.Less(t, nils, 200)
	})
}

func TestNext(t *testing.T) {
	assert.Equal(t, 2, Next(3, 0))
	assert.Equal(t, 1, Next(3, 1))
	assert.Equal(t, 2, Next(3, 5))
	assert.Equal(t, -1, Next(0, 2))
}
