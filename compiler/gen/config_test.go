package gen

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaults(t *testing.T) {
	t.Run("zero config falls back to defaults", func(t *testing.T) {
		c := &Config{}

		assert.Equal(t, DefaultDepth, c.depth())
		assert.Equal(t, DefaultOutput, c.output())
		assert.Equal(t, DefaultHeader, c.header())
		assert.Equal(t, DefaultTagKey, c.tagKey())
		assert.Equal(t, DefaultRuntimePackage, c.runtimePackage())
		assert.Equal(t, runtime.GOMAXPROCS(0), c.workers())
		assert.NotNil(t, c.logger())
	})

	t.Run("explicit values win", func(t *testing.T) {
		c := &Config{Depth: 7, Output: "gen_arb.go", Header: "custom", TagKey: "gen", RuntimePackage: "example.com/rt", Workers: 2}

		assert.Equal(t, 7, c.depth())
		assert.Equal(t, "gen_arb.go", c.output())
		assert.Equal(t, "custom", c.header())
		assert.Equal(t, "gen", c.tagKey())
		assert.Equal(t, "example.com/rt", c.runtimePackage())
		assert.Equal(t, 2, c.workers())
	})
}

func TestConfigFeatureEnabled(t *testing.T) {
	t.Run("returns true for enabled feature", func(t *testing.T) {
		c := &Config{Features: []Feature{FeatureDraw}}

		assert.True(t, c.FeatureEnabled("draw"))
		assert.False(t, c.FeatureEnabled("slices"))
	})

	t.Run("falls back to the feature default", func(t *testing.T) {
		c := &Config{}

		for _, f := range AllFeatures {
			assert.Equal(t, f.Default, c.FeatureEnabled(f.Name), f.Name)
		}
		assert.False(t, c.FeatureEnabled("unknown"))
	})
}

func TestFeatureByName(t *testing.T) {
	f, err := FeatureByName("slices")
	assert.NoError(t, err)
	assert.Equal(t, FeatureSlices, f)

	_, err = FeatureByName("privacy")
	assert.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestFeatureStageString(t *testing.T) {
	assert.Equal(t, "experimental", Experimental.String())
	assert.Equal(t, "alpha", Alpha.String())
	assert.Equal(t, "beta", Beta.String())
	assert.Equal(t, "stable", Stable.String())
	assert.Equal(t, "FeatureStage(9)", FeatureStage(9).String())
}
