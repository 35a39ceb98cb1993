package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/syssam/arbgen/compiler/gen"
)

// defaultConfigFiles are looked up in the working directory when --config is
// not given. The first one found wins.
var defaultConfigFiles = []string{"arbgen.yaml", "arbgen.yml", "arbgen.toml"}

// fileConfig is the content of arbgen.yaml or arbgen.toml. Zero values leave the compiler
// defaults in place.
type fileConfig struct {
	Depth          int      `yaml:"depth" toml:"depth"`
	Output         string   `yaml:"output" toml:"output"`
	Header         string   `yaml:"header" toml:"header"`
	TagKey         string   `yaml:"tag_key" toml:"tag_key"`
	RuntimePackage string   `yaml:"runtime_package" toml:"runtime_package"`
	Features       []string `yaml:"features" toml:"features"`
	Types          []string `yaml:"types" toml:"types"`
	BuildFlags     []string `yaml:"build_flags" toml:"build_flags"`
	Workers        int      `yaml:"workers" toml:"workers"`
	Patterns       []string `yaml:"patterns" toml:"patterns"`
}

// readConfig reads the config file at path. An empty path reads the first
// default config file that exists, or returns an empty config.
func readConfig(path string) (*fileConfig, error) {
	if path == "" {
		for _, name := range defaultConfigFiles {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
		if path == "" {
			return &fileConfig{}, nil
		}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parseConfig(path, b)
}

// parseConfig decodes b as TOML or YAML depending on the extension of path.
func parseConfig(path string, b []byte) (*fileConfig, error) {
	fc := &fileConfig{}
	if filepath.Ext(path) == ".toml" {
		meta, err := toml.Decode(string(b), fc)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
		}
		return fc, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
	}
	return fc, nil
}

// options returns the gen options set by the file.
func (fc *fileConfig) options() []gen.Option {
	var opts []gen.Option
	if fc.Depth != 0 {
		opts = append(opts, gen.WithDepth(fc.Depth))
	}
	if fc.Output != "" {
		opts = append(opts, gen.WithOutput(fc.Output))
	}
	if fc.Header != "" {
		opts = append(opts, gen.WithHeader(fc.Header))
	}
	if fc.TagKey != "" {
		opts = append(opts, gen.WithTagKey(fc.TagKey))
	}
	if fc.RuntimePackage != "" {
		opts = append(opts, gen.WithRuntimePackage(fc.RuntimePackage))
	}
	if len(fc.Features) > 0 {
		opts = append(opts, gen.WithFeatureNames(fc.Features...))
	}
	if len(fc.Types) > 0 {
		opts = append(opts, gen.WithTypes(fc.Types...))
	}
	if len(fc.BuildFlags) > 0 {
		opts = append(opts, gen.WithBuildFlags(fc.BuildFlags...))
	}
	if fc.Workers != 0 {
		opts = append(opts, gen.WithWorkers(fc.Workers))
	}
	return opts
}

// buildConfig merges the config file with the flags of cmd. Flags override
// the file, and patterns given as arguments replace the file's patterns.
func buildConfig(cmd *cobra.Command, args []string) (*gen.Config, []string, error) {
	path, _ := cmd.Flags().GetString("config")
	fc, err := readConfig(path)
	if err != nil {
		return nil, nil, err
	}
	opts := fc.options()
	opts = append(opts, gen.WithLogger(newLogger(cmd)))
	flags := cmd.Flags()
	if flags.Changed("depth") {
		depth, _ := flags.GetInt("depth")
		opts = append(opts, gen.WithDepth(depth))
	}
	if flags.Changed("output") {
		output, _ := flags.GetString("output")
		opts = append(opts, gen.WithOutput(output))
	}
	if flags.Changed("type") {
		types, _ := flags.GetStringSlice("type")
		opts = append(opts, replace(func(c *gen.Config) { c.Types = nil }), gen.WithTypes(types...))
	}
	if flags.Changed("feature") {
		features, _ := flags.GetStringSlice("feature")
		opts = append(opts, replace(func(c *gen.Config) { c.Features = nil }), gen.WithFeatureNames(features...))
	}
	if flags.Changed("tags") {
		tags, _ := flags.GetString("tags")
		opts = append(opts, replace(func(c *gen.Config) { c.BuildFlags = nil }), gen.WithBuildFlags("-tags="+tags))
	}
	if flags.Changed("dry-run") {
		dry, _ := flags.GetBool("dry-run")
		opts = append(opts, gen.WithDryRun(dry))
	}
	cfg, err := gen.NewConfig(opts...)
	if err != nil {
		return nil, nil, err
	}
	patterns := args
	if len(patterns) == 0 {
		patterns = fc.Patterns
	}
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	return cfg, patterns, nil
}

// replace clears a list value of the file config before a flag sets it.
func replace(reset func(*gen.Config)) gen.Option {
	return func(c *gen.Config) error {
		reset(c)
		return nil
	}
}

// addConfigFlags registers the flags read by buildConfig.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().Int("depth", gen.DefaultDepth, "default recursion budget of recursive types")
	cmd.Flags().StringSlice("type", nil, "derive the named types even without a derive directive")
	cmd.Flags().StringSlice("feature", nil, "enable a codegen feature (see arbgen features)")
	cmd.Flags().String("tags", "", "build tags used when loading packages")
}
