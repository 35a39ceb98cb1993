package gen

import (
	"errors"
	"go/token"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
)

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
// The header is added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithDepth sets the default recursion budget of recursive types.
// Types and fields may override it with the depth directive.
func WithDepth(depth int) Option {
	return func(c *Config) error {
		if depth < 1 {
			return NewConfigError("Depth", depth, "depth must be at least 1")
		}
		c.Depth = depth
		return nil
	}
}

// WithOutput sets the name of the generated file.
// The file is written next to the declarations it derives.
func WithOutput(name string) Option {
	return func(c *Config) error {
		switch {
		case name == "":
			return NewConfigError("Output", nil, "output file name cannot be empty")
		case filepath.Base(name) != name:
			return NewConfigError("Output", name, "output must be a file name, not a path")
		case !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go"):
			return NewConfigError("Output", name, "output must be a non-test .go file")
		}
		c.Output = name
		return nil
	}
}

// WithFeatures enables specific features.
// Features control optional code generation capabilities.
// Features enabled twice are kept once.
func WithFeatures(features ...Feature) Option {
	return func(c *Config) error {
		for _, f := range features {
			c.enable(f)
		}
		return nil
	}
}

// WithFeatureNames enables features by name. Unknown names are rejected.
func WithFeatureNames(names ...string) Option {
	return func(c *Config) error {
		for _, name := range names {
			f, err := FeatureByName(name)
			if err != nil {
				return err
			}
			c.enable(f)
		}
		return nil
	}
}

func (c *Config) enable(f Feature) {
	if !slices.ContainsFunc(c.Features, func(e Feature) bool { return e.Name == f.Name }) {
		c.Features = append(c.Features, f)
	}
}

// WithTagKey sets the struct tag key and directive prefix.
// For example "arb" reads `arb:"..."` tags and //arb: comments.
func WithTagKey(key string) Option {
	return func(c *Config) error {
		if !token.IsIdentifier(key) {
			return NewConfigError("TagKey", key, "tag key must be a valid identifier")
		}
		c.TagKey = key
		return nil
	}
}

// WithRuntimePackage sets the import path of the support package used by
// generated code.
func WithRuntimePackage(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return NewConfigError("RuntimePackage", nil, "runtime package cannot be empty")
		}
		c.RuntimePackage = path
		return nil
	}
}

// WithTypes selects declarations by name in addition to the ones carrying
// the derive directive.
func WithTypes(names ...string) Option {
	return func(c *Config) error {
		for _, name := range names {
			if !token.IsIdentifier(name) {
				return NewConfigError("Types", name, "type name must be a valid identifier")
			}
		}
		c.Types = append(c.Types, names...)
		return nil
	}
}

// WithBuildFlags sets custom build flags for loading packages.
func WithBuildFlags(flags ...string) Option {
	return func(c *Config) error {
		c.BuildFlags = append(c.BuildFlags, flags...)
		return nil
	}
}

// WithWorkers sets the number of packages generated in parallel.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return NewConfigError("Workers", n, "workers must be at least 1")
		}
		c.Workers = n
		return nil
	}
}

// WithLogger sets the logger used for progress and warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// WithDryRun renders and formats generated files without writing them.
func WithDryRun(dry bool) Option {
	return func(c *Config) error {
		c.DryRun = dry
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a config with defaults and applies the options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Depth:          DefaultDepth,
		Output:         DefaultOutput,
		Header:         DefaultHeader,
		TagKey:         DefaultTagKey,
		RuntimePackage: DefaultRuntimePackage,
	}
	if err := c.ApplyAll(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig is like NewConfig but panics on error.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
