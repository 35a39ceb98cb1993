package gen

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/arbgen/compiler/load"
)

func testPackage(dir string, decls ...*load.Declaration) *load.Package {
	return &load.Package{Path: testPkg, Name: "shapes", Dir: dir, Declarations: decls}
}

func TestJenniferGenerator(t *testing.T) {
	point := func() *load.Declaration {
		return record("Point", field("X", basic("int"), ""), field("Y", basic("int"), `arb:"min=0;max=9"`))
	}

	t.Run("writes one file per package", func(t *testing.T) {
		dir := t.TempDir()
		c := MustNewConfig()
		g, err := NewGraph(c, testPackage(dir, point()))
		require.NoError(t, err)

		gen := NewJenniferGenerator(c, g)
		require.NoError(t, gen.Generate(context.Background()))

		path := filepath.Join(dir, DefaultOutput)
		assert.Equal(t, path, gen.Path(g))
		b, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(b), "// "+DefaultHeader))
		assert.Contains(t, string(b), "func ArbitraryPoint() *rapid.Generator[Point] {")

		out, ok := gen.Writer().Output(path)
		require.True(t, ok)
		assert.Equal(t, b, out)

		m := gen.Writer().Metrics()
		assert.Equal(t, 1, m.FilesGenerated)
		assert.Equal(t, int64(len(b)), m.TotalBytes)
	})

	t.Run("dry run keeps the output in memory", func(t *testing.T) {
		dir := t.TempDir()
		c := MustNewConfig(WithDryRun(true), WithOutput("arb_gen.go"))
		g, err := NewGraph(c, testPackage(dir, point()))
		require.NoError(t, err)

		gen := NewJenniferGenerator(c, g)
		require.NoError(t, gen.Generate(context.Background()))

		path := filepath.Join(dir, "arb_gen.go")
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
		out, ok := gen.Writer().Output(path)
		require.True(t, ok)
		assert.Contains(t, string(out), "package shapes")
	})

	t.Run("generates packages in parallel", func(t *testing.T) {
		c := MustNewConfig(WithDryRun(true))
		var graphs []*Graph
		for range 4 {
			g, err := NewGraph(c, testPackage(t.TempDir(), point()))
			require.NoError(t, err)
			graphs = append(graphs, g)
		}

		gen := NewJenniferGenerator(c, graphs...).WithWorkers(2)
		require.NoError(t, gen.Generate(context.Background()))
		assert.Equal(t, 4, gen.Writer().Metrics().FilesGenerated)
		outputs := gen.Writer().Outputs()
		assert.Len(t, outputs, 4)
		for _, g := range graphs {
			assert.Contains(t, outputs, gen.Path(g))
		}
	})

	t.Run("removes stale generated files", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, DefaultOutput)
		require.NoError(t, os.WriteFile(path, []byte("// "+DefaultHeader+"\n\npackage shapes\n"), 0o644))

		var buf bytes.Buffer
		c := MustNewConfig(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
		g, err := NewGraph(c, testPackage(dir))
		require.NoError(t, err)

		gen := NewJenniferGenerator(c, g)
		require.NoError(t, gen.Generate(context.Background()))

		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
		assert.Equal(t, 1, gen.Writer().Metrics().FilesRemoved)
		assert.Contains(t, buf.String(), "removed stale file")
	})

	t.Run("keeps hand written files", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, DefaultOutput)
		require.NoError(t, os.WriteFile(path, []byte("package shapes\n"), 0o644))
		c := MustNewConfig()
		g, err := NewGraph(c, testPackage(dir))
		require.NoError(t, err)

		gen := NewJenniferGenerator(c, g)
		require.NoError(t, gen.Generate(context.Background()))

		_, err = os.Stat(path)
		assert.NoError(t, err)
		assert.Zero(t, gen.Writer().Metrics().FilesRemoved)
	})

	t.Run("requires a package directory", func(t *testing.T) {
		c := MustNewConfig()
		g, err := NewGraph(c, testPackage("", point()))
		require.NoError(t, err)

		err = NewJenniferGenerator(c, g).Generate(context.Background())
		require.Error(t, err)
		assert.True(t, IsGenerationError(err))
		assert.Contains(t, err.Error(), "has no directory")
	})

	t.Run("stops on a canceled context", func(t *testing.T) {
		c := MustNewConfig(WithDryRun(true))
		g, err := NewGraph(c, testPackage(t.TempDir(), point()))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err = NewJenniferGenerator(c, g).Generate(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestGenerate(t *testing.T) {
	err := Generate(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))

	dir := t.TempDir()
	c := MustNewConfig()
	g, err := NewGraph(c, testPackage(dir, record("Point", field("X", basic("int"), ""))))
	require.NoError(t, err)
	require.NoError(t, Generate(context.Background(), c, g))
	assert.FileExists(t, filepath.Join(dir, DefaultOutput))
}
