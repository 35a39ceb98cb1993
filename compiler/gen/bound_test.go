package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/arbgen/compiler/load"
)

func TestPropagate(t *testing.T) {
	t.Run("generated parameters take a generator", func(t *testing.T) {
		g := mustGraph(t, generic(record("Box", field("Value", param("T"), "")), "T"))
		box := mustType(t, g, "Box")
		tp, _ := box.Param("T")

		assert.True(t, tp.Generator)
		assert.False(t, tp.Comparable)
		assert.Len(t, box.BoundParams(), 1)
	})

	t.Run("parameters behind skipped fields stay unbound", func(t *testing.T) {
		g := mustGraph(t, generic(record("Tagged",
			field("Meta", param("T"), `arb:"skip"`),
			field("Name", basic("string"), ""),
		), "T"))
		tagged := mustType(t, g, "Tagged")

		assert.Empty(t, tagged.BoundParams())
	})

	t.Run("nobound overrides usage", func(t *testing.T) {
		d := generic(record("Holder", field("Value", param("T"), "")), "T")
		d.Directives = directives("arb:nobound T")
		g := mustGraph(t, d)
		holder := mustType(t, g, "Holder")

		assert.Empty(t, holder.BoundParams())
		plan := holder.Strategy.(*Record).Fields[0]
		assert.IsType(t, &Reflect{}, plan.Gen)
	})

	t.Run("bounds flow through derived generic types", func(t *testing.T) {
		g := mustGraph(t,
			generic(record("Tagged", field("Meta", param("T"), `arb:"skip"`)), "T"),
			generic(record("Box", field("Value", param("T"), "")), "T"),
			generic(record("Outer", field("In", named("Box", param("U")), "")), "U"),
			generic(record("Label", field("In", named("Tagged", param("U")), "")), "U"),
		)
		outer, _ := mustType(t, g, "Outer").Param("U")
		label, _ := mustType(t, g, "Label").Param("U")

		assert.True(t, outer.Generator)
		assert.False(t, label.Generator)
	})

	t.Run("filters escalate to comparable", func(t *testing.T) {
		g := mustGraph(t,
			generic(record("Keyed", field("Value", param("T"), `arb:"filter=nonZero"`)), "T"),
			generic(record("Outer", field("In", named("Keyed", param("U")), "")), "U"),
			generic(record("Plain", field("In", named("Outer", param("V")), "")), "V"),
		)
		for _, name := range []string{"Keyed", "Outer", "Plain"} {
			typ := mustType(t, g, name)
			tp := typ.TypeParams[0]
			assert.True(t, tp.Generator, name)
			assert.True(t, tp.Comparable, name)
		}
	})

	t.Run("filter literals escalate only when they need equality", func(t *testing.T) {
		g := mustGraph(t,
			generic(record("Loose", field("Value", param("T"), `arb:"filter=func(v T) bool { return true }"`)), "T"),
			generic(record("Strict", field("Value", param("T"), `arb:"filter=func(v T) bool { var zero T; return v != zero }"`)), "T"),
		)
		loose, _ := mustType(t, g, "Loose").Param("T")
		strict, _ := mustType(t, g, "Strict").Param("T")

		assert.True(t, loose.Generator)
		assert.False(t, loose.Comparable)
		assert.True(t, strict.Comparable)
	})

	t.Run("declared comparable is not escalated", func(t *testing.T) {
		d := record("Set", field("Value", param("T"), `arb:"filter=nonZero"`))
		d.TypeParams = []*load.TypeParam{{Name: "T", Constraint: &load.TypeExpr{Kind: load.KindNamed, Name: "comparable"}}}
		g := mustGraph(t, d)
		tp, _ := mustType(t, g, "Set").Param("T")

		assert.True(t, tp.Generator)
		assert.False(t, tp.Comparable)
	})

	t.Run("escalated parameters reject incomparable arguments", func(t *testing.T) {
		_, err := newTestGraph(t,
			generic(record("Keyed", field("Value", param("T"), `arb:"filter=nonZero"`)), "T"),
			record("Bad", field("In", named("Keyed", sliceOf(basic("int"))), "")),
		)
		require.Error(t, err)
		assert.True(t, IsBoundError(err))
		assert.Contains(t, err.Error(), "Bad.In")

		names := &load.TypeExpr{Kind: load.KindNamed, Name: "Names", PkgPath: "example.com/other", Underlying: load.KindSlice}
		_, err = newTestGraph(t,
			generic(record("Keyed", field("Value", param("T"), `arb:"filter=nonZero"`)), "T"),
			record("Bad", field("In", named("Keyed", names), "")),
		)
		require.Error(t, err)
		assert.True(t, IsBoundError(err))
	})
}

func TestFilterNeedsEquality(t *testing.T) {
	tests := []struct {
		pred  string
		needs bool
	}{
		{"nonZero", true},
		{"pkg.NonZero[T]", true},
		{"func(v T) bool { return true }", false},
		{"func(v []T) bool { return len(v) > 0 }", true},
		{"func(v T) bool { var zero T; return v == zero }", true},
		{"func(v T) bool { switch v { default: return true } }", true},
		{"func(v T) bool { switch { default: return false } }", false},
		{"func(", true},
	}
	for _, tt := range tests {
		t.Run(tt.pred, func(t *testing.T) {
			assert.Equal(t, tt.needs, filterNeedsEquality(tt.pred))
		})
	}
}

func TestComparableKind(t *testing.T) {
	assert.True(t, comparableKind(basic("int")))
	assert.True(t, comparableKind(ptr(basic("int"))))
	assert.False(t, comparableKind(sliceOf(basic("int"))))
	assert.False(t, comparableKind(mapOf(basic("int"), basic("int"))))
	assert.False(t, comparableKind(&load.TypeExpr{Kind: load.KindFunc, Source: "func()"}))
	assert.False(t, comparableKind(&load.TypeExpr{Kind: load.KindNamed, Name: "Fn", Underlying: load.KindFunc}))
}
