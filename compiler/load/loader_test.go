package load

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadShapes(t *testing.T, types ...string) *Package {
	t.Helper()
	cfg := &Config{Patterns: []string{"./testdata/shapes"}, Types: types}
	pkgs, err := cfg.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	return pkgs[0]
}

func declaration(t *testing.T, p *Package, name string) *Declaration {
	t.Helper()
	for _, d := range p.Declarations {
		if d.Name == name {
			return d
		}
	}
	require.Failf(t, "missing declaration", "%s not loaded", name)
	return nil
}

func TestLoad(t *testing.T) {
	p := loadShapes(t)

	t.Run("Selects derived declarations in source order", func(t *testing.T) {
		var names []string
		for _, d := range p.Declarations {
			names = append(names, d.Name)
		}
		assert.Equal(t, []string{"Point", "Shape", "Pair", "Tree"}, names)
		assert.Equal(t, "shapes", p.Name)
	})

	t.Run("Struct fields keep tags and types", func(t *testing.T) {
		d := declaration(t, p, "Point")
		assert.Equal(t, KindStruct, d.Kind)
		require.Len(t, d.Fields, 6)
		assert.Equal(t, "X", d.Fields[0].Name)
		assert.Equal(t, `arb:"min=0;max=10"`, d.Fields[0].Tag)
		assert.Equal(t, &TypeExpr{Kind: KindBasic, Name: "int"}, d.Fields[0].Type)

		color := d.Fields[3].Type
		assert.Equal(t, KindNamed, color.Kind)
		assert.Equal(t, "uint8", color.Basic)
		assert.Equal(t, []string{"Red", "Green", "Blue"}, color.Enum)

		seen := d.Fields[4].Type
		assert.Equal(t, "time", seen.PkgPath)
		assert.Equal(t, "Time", seen.Name)
		assert.False(t, seen.Makeable)

		next := d.Fields[5]
		assert.False(t, next.Exported)
		assert.Equal(t, KindPointer, next.Type.Kind)
		assert.Equal(t, "Point", next.Type.Elem.Name)
	})

	t.Run("Directives are collected from doc comments", func(t *testing.T) {
		d := declaration(t, p, "Pair")
		var texts []string
		for _, dir := range d.Directives {
			texts = append(texts, dir.Text)
			assert.Contains(t, dir.Pos, "shapes.go")
		}
		assert.Equal(t, []string{"arb:derive", "arb:nobound B"}, texts)
		require.Len(t, d.TypeParams, 2)
		assert.Equal(t, "any", d.TypeParams[0].Constraint.Source)
		assert.Equal(t, "comparable", d.TypeParams[1].Constraint.Name)
	})

	t.Run("Interface variants resolve with receivers", func(t *testing.T) {
		d := declaration(t, p, "Shape")
		assert.Equal(t, KindInterface, d.Kind)
		assert.False(t, d.EmptyInterface)
		require.Len(t, d.Variants, 2)
		assert.Equal(t, "Circle", d.Variants[0].Name)
		assert.False(t, d.Variants[0].Pointer)
		require.Len(t, d.Variants[0].Directives, 1)
		assert.Equal(t, "arb:weight 3", d.Variants[0].Directives[0].Text)
		assert.Equal(t, "Square", d.Variants[1].Name)
		assert.True(t, d.Variants[1].Pointer)
	})

	t.Run("Generic variants are instantiated with the union parameters", func(t *testing.T) {
		d := declaration(t, p, "Tree")
		require.Len(t, d.Variants, 2)
		assert.Equal(t, "Leaf", d.Variants[0].Name)
		assert.Equal(t, "Node", d.Variants[1].Name)
		left := d.Variants[1].Fields[0].Type
		assert.Equal(t, "Tree", left.Name)
		require.Len(t, left.Args, 1)
		assert.Equal(t, KindParam, left.Args[0].Kind)
	})

	t.Run("Types can be selected by name", func(t *testing.T) {
		p := loadShapes(t, "Celsius")
		d := declaration(t, p, "Celsius")
		assert.Equal(t, KindBasic, d.Kind)
	})
}

func TestLoadUnusedDirectives(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{
		Patterns: []string{"./testdata/shapes"},
		Logger:   slog.New(slog.NewTextHandler(&buf, nil)),
	}
	_, err := cfg.Load(context.Background())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "directive has no effect")
	assert.Contains(t, buf.String(), "type=Stray")
	assert.Contains(t, buf.String(), "directive=arb:derve")
	assert.NotContains(t, buf.String(), "type=Circle", "variants of derived unions use their directives")
	assert.NotContains(t, buf.String(), "type=Ignored")
}

func TestLoadStaleOutput(t *testing.T) {
	t.Run("Previous output is hidden from the type checker", func(t *testing.T) {
		cfg := &Config{Patterns: []string{"./testdata/stale"}, Output: "arbitrary_gen.go"}
		pkgs, err := cfg.Load(context.Background())
		require.NoError(t, err)
		require.Len(t, pkgs, 1)
		require.Len(t, pkgs[0].Declarations, 1)
		assert.Equal(t, "Item", pkgs[0].Declarations[0].Name)
	})

	t.Run("Stale output breaks loading without the overlay", func(t *testing.T) {
		cfg := &Config{Patterns: []string{"./testdata/stale"}}
		_, err := cfg.Load(context.Background())
		require.Error(t, err)
	})
}

func TestLoadErrors(t *testing.T) {
	_, err := (&Config{}).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no package patterns")
}

func TestTypeExprString(t *testing.T) {
	e := &TypeExpr{Kind: KindMap,
		Key:  &TypeExpr{Kind: KindBasic, Name: "string"},
		Elem: &TypeExpr{Kind: KindSlice, Elem: &TypeExpr{Kind: KindNamed, Name: "Pair", PkgPath: "example.com/x/pairs", Args: []*TypeExpr{{Kind: KindParam, Name: "T"}, {Kind: KindArray, Len: 2, Elem: &TypeExpr{Kind: KindBasic, Name: "int"}}}}},
	}
	assert.Equal(t, "map[string][]pairs.Pair[T, [2]int]", e.String())
}

func TestMarshalPackages(t *testing.T) {
	p := loadShapes(t)
	buf, err := MarshalPackages([]*Package{p})
	require.NoError(t, err)
	back, err := UnmarshalPackages(buf)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, p, back[0])
}

func TestLoadBuildFlags(t *testing.T) {
	names := func(flags ...string) []string {
		cfg := &Config{Patterns: []string{"./testdata/buildflags"}, BuildFlags: flags}
		pkgs, err := cfg.Load(context.Background())
		require.NoError(t, err)
		require.Len(t, pkgs, 1)
		var out []string
		for _, d := range pkgs[0].Declarations {
			out = append(out, d.Name)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"User", "Group"}, names())
	assert.Equal(t, []string{"User"}, names("-tags=hidegroups"))
}

func TestLoadTypeErrors(t *testing.T) {
	cfg := &Config{Patterns: []string{"./testdata/failure"}}
	_, err := cfg.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing")
}

func TestLoadImportedGenerators(t *testing.T) {
	const boxPath = "github.com/syssam/arbgen/compiler/testdata/imported/box"
	cfg := &Config{Patterns: []string{"../testdata/imported/holder"}}
	pkgs, err := cfg.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	d := declaration(t, pkgs[0], "Holder")
	require.Len(t, d.Fields, 3)

	t.Run("Lower case type parameters are bound by generator type", func(t *testing.T) {
		ref := d.Fields[0].Type.Generator
		require.NotNil(t, ref)
		assert.Equal(t, &GeneratorRef{Func: "ArbitraryBox", PkgPath: boxPath, Bound: []int{0}}, ref)
	})

	t.Run("Bound follows the parameter order of the generator", func(t *testing.T) {
		ref := d.Fields[1].Type.Generator
		require.NotNil(t, ref)
		assert.Equal(t, []int{1, 0}, ref.Bound)
	})

	t.Run("Functions taking other parameters are not generators", func(t *testing.T) {
		assert.Nil(t, d.Fields[2].Type.Generator)
	})
}
