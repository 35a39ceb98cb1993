package gen

import (
	"errors"
	"log/slog"
	"runtime"

	"github.com/syssam/arbgen/compiler/load"
)

// Defaults of the generator configuration.
const (
	DefaultDepth          = 3
	DefaultOutput         = "arbitrary_gen.go"
	DefaultHeader         = "Code generated by arbgen. DO NOT EDIT."
	DefaultTagKey         = "arb"
	DefaultRuntimePackage = "github.com/syssam/arbgen/arb"
)

const rapidPkg = "pgregory.net/rapid"

type (
	// Config holds the global codegen configuration to be
	// shared between all generated packages.
	Config struct {
		// Depth is the default recursion budget of recursive types.
		Depth int
		// Output is the name of the generated file in every package.
		Output string
		// Header is the code generation header comment.
		Header string
		// TagKey is the struct tag key and the directive prefix.
		TagKey string
		// RuntimePackage is the import path of the support package used by
		// generated code.
		RuntimePackage string
		// Features defines a list of additional features to add to the codegen phase.
		Features []Feature
		// Types selects declarations by name in addition to the ones
		// carrying the derive directive.
		Types []string
		// BuildFlags holds a list of custom build flags to use
		// when loading packages.
		BuildFlags []string
		// Workers is the number of packages generated in parallel.
		Workers int
		// Logger receives progress and warnings. Nil discards them.
		Logger *slog.Logger
		// DryRun renders and formats files without writing them.
		DryRun bool
	}

	// Graph holds the derived types of one package. A graph owns its types,
	// nothing is shared between graphs.
	Graph struct {
		*Config
		// Package is the package the types are declared in.
		Package *load.Package
		// Nodes are the derived types, in source order.
		Nodes []*Type

		nodes map[string]*Type
	}
)

// NewGraph creates a new graph for the declarations of a loaded package and
// synthesizes the generator of every declaration. Every failing declaration
// contributes one error to the returned joined error.
func NewGraph(c *Config, pkg *load.Package) (*Graph, error) {
	if c == nil {
		return nil, NewConfigError("Config", nil, "config cannot be nil")
	}
	if pkg == nil || pkg.Path == "" {
		return nil, NewConfigError("Package", nil, "package path cannot be empty")
	}
	g := &Graph{Config: c, Package: pkg, nodes: make(map[string]*Type)}
	var errs []error
	for _, d := range pkg.Declarations {
		if _, ok := g.nodes[d.Name]; ok {
			errs = append(errs, NewShapeError(d.Name, string(d.Kind), "declared twice"))
			continue
		}
		t, err := NewType(c, pkg.Path, d)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		t.index = len(g.Nodes)
		g.Nodes = append(g.Nodes, t)
		g.nodes[t.Name] = t
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	g.analyze()
	for _, step := range []func() error{g.guard, g.propagate, g.synthesize} {
		if err := step(); err != nil {
			return nil, err
		}
	}
	for _, t := range g.Nodes {
		c.logger().Debug("derived type", "package", pkg.Path, "type", t.Name, "shape", t.Shape.String(), "recursive", t.Recursive)
	}
	return g, nil
}

// Type returns the derived type with the given name.
func (g *Graph) Type(name string) (*Type, bool) {
	t, ok := g.nodes[name]
	return t, ok
}

// lookup returns the derived type referenced by e, or nil if e does not
// refer to a type of the graph.
func (g *Graph) lookup(e *load.TypeExpr) *Type {
	if e == nil || e.Kind != load.KindNamed || e.PkgPath != g.Package.Path {
		return nil
	}
	return g.nodes[e.Name]
}

func (c *Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

func (c *Config) depth() int {
	if c.Depth < 1 {
		return DefaultDepth
	}
	return c.Depth
}

func (c *Config) output() string {
	if c.Output == "" {
		return DefaultOutput
	}
	return c.Output
}

func (c *Config) header() string {
	if c.Header == "" {
		return DefaultHeader
	}
	return c.Header
}

func (c *Config) tagKey() string {
	if c.TagKey == "" {
		return DefaultTagKey
	}
	return c.TagKey
}

func (c *Config) runtimePackage() string {
	if c.RuntimePackage == "" {
		return DefaultRuntimePackage
	}
	return c.RuntimePackage
}

func (c *Config) workers() int {
	if c.Workers < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}

// LoadConfig returns the loader configuration matching c.
func (c *Config) LoadConfig(patterns ...string) *load.Config {
	return &load.Config{
		Patterns:   patterns,
		Key:        c.tagKey(),
		Types:      c.Types,
		Output:     c.output(),
		BuildFlags: c.BuildFlags,
		Logger:     c.logger(),
	}
}
