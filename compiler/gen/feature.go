package gen

import (
	"fmt"
	"slices"
)

var (
	// FeatureSlices emits an Arbitrary<Plural> generator of slices next to
	// every derived type.
	FeatureSlices = Feature{
		Name:        "slices",
		Stage:       Stable,
		Default:     false,
		Description: "Slices emits Arbitrary<Plural> generators producing slices of each derived type",
	}

	// FeatureDraw emits a Draw<Name>(t, label) helper for every derived type
	// without type parameters.
	//
	// Example:
	//
	//	rapid.Check(t, func(t *rapid.T) {
	//	    p := DrawPoint(t, "p")
	//	    ...
	//	})
	FeatureDraw = Feature{
		Name:        "draw",
		Stage:       Beta,
		Default:     false,
		Description: "Draw emits Draw<Name> helpers for non-generic types",
	}

	// AllFeatures holds a list of all feature-flags.
	AllFeatures = []Feature{
		FeatureSlices,
		FeatureDraw,
	}
)

// FeatureStage describes the stage of the codegen feature.
type FeatureStage int

const (
	_ FeatureStage = iota

	// Experimental features are in development and may change or go away.
	Experimental

	// Alpha features are complete but their output may still change.
	Alpha

	// Beta features are documented and their output is not expected to change.
	Beta

	// Stable features are Beta features that were in use for a while.
	Stable
)

// String returns the stage name.
func (s FeatureStage) String() string {
	switch s {
	case Experimental:
		return "experimental"
	case Alpha:
		return "alpha"
	case Beta:
		return "beta"
	case Stable:
		return "stable"
	default:
		return fmt.Sprintf("FeatureStage(%d)", int(s))
	}
}

// A Feature of the arbgen codegen.
type Feature struct {
	// Name of the feature.
	Name string

	// Stage of the feature.
	Stage FeatureStage

	// Default values indicates if this feature is enabled by default.
	Default bool

	// A Description of this feature.
	Description string
}

// FeatureByName returns the feature registered under name.
func FeatureByName(name string) (Feature, error) {
	i := slices.IndexFunc(AllFeatures, func(f Feature) bool { return f.Name == name })
	if i < 0 {
		return Feature{}, NewConfigError("Features", name, "unknown feature")
	}
	return AllFeatures[i], nil
}

// FeatureEnabled reports whether the named feature is enabled, either
// explicitly or by default.
func (c *Config) FeatureEnabled(name string) bool {
	for _, f := range c.Features {
		if f.Name == name {
			return true
		}
	}
	for _, f := range AllFeatures {
		if f.Name == name {
			return f.Default
		}
	}
	return false
}
