package gen

import (
	"context"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// JenniferGenerator generates the generator files of a set of graphs. Every
// graph is rendered into one file in the directory of its package, and
// packages are processed in parallel.
type JenniferGenerator struct {
	config  *Config
	graphs  []*Graph
	workers int
	writer  *Writer
}

// NewJenniferGenerator creates a new generator for the given graphs.
//
// Example:
//
//	g, err := gen.NewGraph(cfg, pkg)
//	if err != nil {
//		return err
//	}
//	err = gen.NewJenniferGenerator(cfg, g).Generate(ctx)
func NewJenniferGenerator(c *Config, graphs ...*Graph) *JenniferGenerator {
	return &JenniferGenerator{
		config:  c,
		graphs:  graphs,
		workers: c.workers(),
		writer:  NewWriter(c),
	}
}

// WithWorkers sets the number of parallel workers.
func (g *JenniferGenerator) WithWorkers(n int) *JenniferGenerator {
	if n > 0 {
		g.workers = n
	}
	return g
}

// Writer returns the writer used by the generator, which holds the metrics
// and the outputs of a dry run.
func (g *JenniferGenerator) Writer() *Writer {
	return g.writer
}

// Path returns the path of the generated file of a graph.
func (g *JenniferGenerator) Path(gr *Graph) string {
	return filepath.Join(gr.Package.Dir, g.config.output())
}

// Generate renders and writes the file of every graph. A package without
// derived types loses the file generated by a previous run.
func (g *JenniferGenerator) Generate(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for _, gr := range g.graphs {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return g.generate(gr)
			}
		})
	}
	return eg.Wait()
}

func (g *JenniferGenerator) generate(gr *Graph) error {
	if gr.Package.Dir == "" {
		return NewGenerationError("write", "", "package "+gr.Package.Path+" has no directory", nil)
	}
	path := g.Path(gr)
	if len(gr.Nodes) == 0 {
		return g.writer.RemoveStale(path)
	}
	f, err := gr.Emit()
	if err != nil {
		return err
	}
	return g.writer.WriteFile(path, f)
}

// Generate is the convenience function to generate the files of graphs with
// the default number of workers.
func Generate(ctx context.Context, c *Config, graphs ...*Graph) error {
	if c == nil {
		return NewConfigError("Config", nil, "config cannot be nil")
	}
	return NewJenniferGenerator(c, graphs...).Generate(ctx)
}
