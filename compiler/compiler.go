// Package compiler provides the entry points for deriving rapid generators
// from Go packages: load the packages, build one graph per package and write
// the generated files.
//
//	cfg, err := gen.NewConfig(gen.WithDepth(5))
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := compiler.Generate(ctx, cfg, "./..."); err != nil {
//		log.Fatal(err)
//	}
package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/syssam/arbgen/compiler/gen"
	"github.com/syssam/arbgen/compiler/load"
)

// Load loads the packages matching patterns with the loader settings of cfg.
func Load(ctx context.Context, cfg *gen.Config, patterns ...string) ([]*load.Package, error) {
	if cfg == nil {
		return nil, gen.NewConfigError("Config", nil, "config cannot be nil")
	}
	pkgs, err := cfg.LoadConfig(patterns...).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("arbgen/load: %w", err)
	}
	for _, p := range pkgs {
		logger(cfg).Debug("loaded package", "package", p.Path, "declarations", len(p.Declarations))
	}
	return pkgs, nil
}

// LoadGraphs loads the packages matching patterns and builds their graphs.
// Packages failing synthesis are left out of the result and their
// diagnostics are joined into the returned error.
func LoadGraphs(ctx context.Context, cfg *gen.Config, patterns ...string) ([]*gen.Graph, error) {
	pkgs, err := Load(ctx, cfg, patterns...)
	if err != nil {
		return nil, err
	}
	return Graphs(cfg, pkgs...)
}

// Graphs builds the graph of every package.
func Graphs(cfg *gen.Config, pkgs ...*load.Package) ([]*gen.Graph, error) {
	var (
		graphs []*gen.Graph
		errs   []error
	)
	for _, p := range pkgs {
		g, err := gen.NewGraph(cfg, p)
		if err != nil {
			errs = append(errs, fmt.Errorf("package %s: %w", p.Path, err))
			continue
		}
		graphs = append(graphs, g)
	}
	return graphs, errors.Join(errs...)
}

// Check loads the packages matching patterns and reports every diagnostic
// without writing anything.
func Check(ctx context.Context, cfg *gen.Config, patterns ...string) error {
	_, err := LoadGraphs(ctx, cfg, patterns...)
	return err
}

// Generate loads the packages matching patterns and writes the generated
// file of every package that synthesizes. A package with diagnostics is not
// written, the others are.
func Generate(ctx context.Context, cfg *gen.Config, patterns ...string) error {
	_, err := Run(ctx, cfg, patterns...)
	return err
}

// Run is like Generate and also returns the writer holding the metrics and,
// in dry-run mode, the generated outputs.
func Run(ctx context.Context, cfg *gen.Config, patterns ...string) (*gen.Writer, error) {
	if cfg == nil {
		return nil, gen.NewConfigError("Config", nil, "config cannot be nil")
	}
	graphs, synthErr := LoadGraphs(ctx, cfg, patterns...)
	if len(graphs) == 0 {
		return gen.NewWriter(cfg), synthErr
	}
	g := gen.NewJenniferGenerator(cfg, graphs...)
	if err := g.Generate(ctx); err != nil {
		return g.Writer(), errors.Join(synthErr, err)
	}
	m := g.Writer().Metrics()
	logger(cfg).Info("generation finished",
		"packages", len(graphs),
		"files", m.FilesGenerated,
		"removed", m.FilesRemoved,
		"bytes", m.TotalBytes,
	)
	return g.Writer(), synthErr
}

func logger(cfg *gen.Config) *slog.Logger {
	if cfg.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return cfg.Logger
}
