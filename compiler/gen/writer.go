package gen

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/imports"
)

// Writer renders, formats and writes generated files. It is safe for
// concurrent use.
type Writer struct {
	header string
	dryRun bool
	log    *slog.Logger

	// Metrics for performance monitoring
	mu      sync.Mutex
	metrics WriterMetrics
	outputs map[string][]byte
}

// WriterMetrics tracks generation performance
type WriterMetrics struct {
	FilesGenerated int
	FilesRemoved   int
	TotalBytes     int64
	RenderTime     time.Duration
	FormatTime     time.Duration
	WriteTime      time.Duration
}

// NewWriter creates a writer for the given configuration.
func NewWriter(c *Config) *Writer {
	return &Writer{
		header:  c.header(),
		dryRun:  c.DryRun,
		log:     c.logger(),
		outputs: make(map[string][]byte),
	}
}

// Metrics returns a snapshot of the generation metrics.
func (w *Writer) Metrics() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}

// Output returns the formatted content produced for path.
func (w *Writer) Output(path string) ([]byte, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.outputs[path]
	return b, ok
}

// Outputs returns a copy of every output produced so far, keyed by path.
func (w *Writer) Outputs() map[string][]byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return maps.Clone(w.outputs)
}

// WriteFile renders f, formats it and writes it to path. In dry-run mode
// nothing is written to disk.
func (w *Writer) WriteFile(path string, f *jen.File) error {
	// 1. Render
	start := time.Now()
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return NewGenerationError("render", path, "render generated code", err)
	}
	rendered := time.Since(start)

	// 2. Format using goimports
	start = time.Now()
	formatted, err := imports.Process(path, buf.Bytes(), nil)
	if err != nil {
		if w.dryRun {
			return NewGenerationError("format", path, "format generated code", err)
		}
		// Write unformatted file for debugging (errors intentionally ignored as we're already in error state)
		debugPath := path + ".error"
		_ = os.MkdirAll(filepath.Dir(debugPath), 0o755)
		_ = os.WriteFile(debugPath, buf.Bytes(), 0o644)
		return NewGenerationError("format", path, fmt.Sprintf("unformatted output written to %s", debugPath), err)
	}
	formatting := time.Since(start)

	// 3. Write
	start = time.Now()
	if !w.dryRun {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return NewGenerationError("write", path, "create directory", err)
		}
		if err := os.WriteFile(path, formatted, 0o644); err != nil {
			return NewGenerationError("write", path, "write file", err)
		}
	}
	writing := time.Since(start)

	w.mu.Lock()
	w.outputs[path] = formatted
	w.metrics.FilesGenerated++
	w.metrics.TotalBytes += int64(len(formatted))
	w.metrics.RenderTime += rendered
	w.metrics.FormatTime += formatting
	w.metrics.WriteTime += writing
	w.mu.Unlock()

	w.log.Info("generated file", "path", path, "bytes", len(formatted), "dry_run", w.dryRun)
	return nil
}

// RemoveStale removes a file generated by an earlier run, recognized by its
// header. Missing files and files without the header are left alone.
func (w *Writer) RemoveStale(path string) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return NewGenerationError("remove", path, "read file", err)
	}
	if !bytes.HasPrefix(b, []byte("// "+w.header)) {
		return nil
	}
	if !w.dryRun {
		if err := os.Remove(path); err != nil {
			return NewGenerationError("remove", path, "remove file", err)
		}
	}
	w.mu.Lock()
	w.metrics.FilesRemoved++
	w.mu.Unlock()
	w.log.Info("removed stale file", "path", path, "dry_run", w.dryRun)
	return nil
}
