package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponents(t *testing.T) {
	link := func(from int, to ...int) []edge {
		es := make([]edge, len(to))
		for i, t := range to {
			es[i] = edge{from: from, to: t}
		}
		return es
	}

	t.Run("separate nodes", func(t *testing.T) {
		comp := components([][]edge{nil, nil, nil})
		assert.Len(t, comp, 3)
		assert.NotEqual(t, comp[0], comp[1])
		assert.NotEqual(t, comp[1], comp[2])
	})

	t.Run("cycles and chains", func(t *testing.T) {
		// 0 -> 1 -> 2 -> 0, 2 -> 3, 3 -> 3, 4 -> 0
		comp := components([][]edge{
			link(0, 1),
			link(1, 2),
			link(2, 0, 3),
			link(3, 3),
			link(4, 0),
		})
		assert.Equal(t, comp[0], comp[1])
		assert.Equal(t, comp[1], comp[2])
		assert.NotEqual(t, comp[2], comp[3])
		assert.NotEqual(t, comp[0], comp[4])
		assert.NotEqual(t, comp[3], comp[4])
	})

	t.Run("long chains do not grow the call stack", func(t *testing.T) {
		const n = 100000
		adj := make([][]edge, n)
		for i := range n - 1 {
			adj[i] = link(i, i+1)
		}
		adj[n-1] = link(n-1, 0)
		comp := components(adj)
		assert.Equal(t, comp[0], comp[n-1])
	})
}

func TestGuard(t *testing.T) {
	t.Run("recursive union with a base variant", func(t *testing.T) {
		g := mustGraph(t, union("Expr",
			variant("Lit", field("Value", basic("int"), "")),
			variant("Neg", field("Inner", named("Expr"), "")),
			variant("Add", field("Terms", sliceOf(named("Expr")), "")),
		))
		expr := mustType(t, g, "Expr")

		assert.True(t, expr.Recursive)
		assert.True(t, expr.Variants[0].Base)
		assert.False(t, expr.Variants[1].Base)
		assert.True(t, expr.Variants[2].Base, "an empty slice terminates")
		assert.True(t, expr.Variants[1].Fields[0].Recursive)
		assert.True(t, expr.Variants[2].Fields[0].Recursive)
		assert.False(t, expr.Variants[0].Fields[0].Recursive)
	})

	t.Run("recursive records", func(t *testing.T) {
		g := mustGraph(t,
			record("Tree", field("Value", basic("int"), ""), field("Left", ptr(named("Tree")), ""), field("Right", ptr(named("Tree")), "")),
			record("Forest", field("Trees", sliceOf(named("Tree")), "")),
		)
		assert.True(t, mustType(t, g, "Tree").Recursive)
		assert.False(t, mustType(t, g, "Forest").Recursive)
	})

	t.Run("mutual recursion", func(t *testing.T) {
		g := mustGraph(t,
			record("Dir", field("Entries", sliceOf(named("Entry")), "")),
			union("Entry",
				variant("File", field("Name", basic("string"), "")),
				variant("Sub", field("Dir", named("Dir"), "")),
			),
		)
		dir := mustType(t, g, "Dir")
		entry := mustType(t, g, "Entry")
		assert.True(t, dir.Recursive)
		assert.True(t, entry.Recursive)
		assert.True(t, g.sameCycle(dir, named("Entry")))
		assert.True(t, g.sameCycle(entry, sliceOf(named("Dir"))))
		assert.False(t, g.sameCycle(dir, basic("string")))
	})

	t.Run("union without a base variant", func(t *testing.T) {
		_, err := newTestGraph(t, union("Loop", variant("Wrap", field("Inner", named("Loop"), ""))))
		require.Error(t, err)
		assert.True(t, IsRecursionError(err))
		assert.ErrorIs(t, err, ErrNoBaseCase)
		assert.Contains(t, err.Error(), "(cycle: Loop -> Loop)")
	})

	t.Run("a zero weight base variant does not terminate", func(t *testing.T) {
		leaf := variant("Leaf")
		leaf.Directives = directives("arb:weight 0")
		_, err := newTestGraph(t, union("Loop", leaf, variant("Wrap", field("Inner", named("Loop"), ""))))
		require.Error(t, err)
		assert.True(t, IsRecursionError(err))
	})

	t.Run("a variant terminates through a nilable field of another type", func(t *testing.T) {
		g := mustGraph(t,
			union("U", variant("A", field("R", named("R"), ""))),
			record("R", field("P", ptr(named("U")), "")),
		)
		u := mustType(t, g, "U")
		assert.True(t, u.Recursive)
		assert.True(t, mustType(t, g, "R").Recursive)
		assert.True(t, u.Variants[0].Base)

		choices := u.Strategy.(*Union).Choices
		require.Len(t, choices, 1)
		assert.False(t, choices[0].Recursive)
	})

	t.Run("variants reaching their own union by value are not base", func(t *testing.T) {
		g := mustGraph(t,
			union("U",
				variant("A", field("X", named("X"), "")),
				variant("B", field("Value", basic("int"), "")),
			),
			record("X", field("Back", named("U"), "")),
		)
		u := mustType(t, g, "U")
		assert.False(t, u.Variants[0].Base)
		assert.True(t, u.Variants[1].Base)
	})

	t.Run("a cycle of mandatory edges through records does not terminate", func(t *testing.T) {
		_, err := newTestGraph(t,
			union("U", variant("A", field("R", named("R"), ""))),
			record("R", field("Back", named("U"), "")),
		)
		require.Error(t, err)
		assert.True(t, IsRecursionError(err))
		assert.Contains(t, err.Error(), "(cycle: U -> R -> U)")
	})

	t.Run("skipped fields are not edges", func(t *testing.T) {
		g := mustGraph(t, union("Loop",
			variant("Wrap", field("Inner", named("Loop"), `arb:"skip"`)),
		))
		assert.False(t, mustType(t, g, "Loop").Recursive)
	})

	t.Run("arrays keep the edge mandatory", func(t *testing.T) {
		_, err := newTestGraph(t, union("Pair",
			variant("Both", field("Items", arrayOf(2, named("Pair")), "")),
		))
		require.Error(t, err)
		assert.True(t, IsRecursionError(err))

		g := mustGraph(t, union("Pair",
			variant("None", field("Items", arrayOf(0, named("Pair")), "")),
		))
		assert.True(t, mustType(t, g, "Pair").Variants[0].Base)
	})
}
