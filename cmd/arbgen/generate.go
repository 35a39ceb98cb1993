package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/syssam/arbgen/compiler"
	"github.com/syssam/arbgen/compiler/gen"
)

var generateCmd = &cobra.Command{
	Use:   "generate [patterns]",
	Short: "Write the generator file of every matched package",
	Long: `Generate loads the packages matched by the patterns, derives a generator for
every type carrying the derive directive and writes arbitrary_gen.go next to
it. Packages with diagnostics are reported and left untouched.`,
	Example: `  arbgen generate ./...
  arbgen generate --depth 5 --feature slices ./internal/model
  arbgen generate --watch ./internal/model`,
	RunE: runGenerate,
}

func init() {
	addConfigFlags(generateCmd)
	generateCmd.Flags().String("output", gen.DefaultOutput, "name of the generated file")
	generateCmd.Flags().Bool("dry-run", false, "print generated code instead of writing it")
	generateCmd.Flags().Bool("watch", false, "regenerate when the matched packages change")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, patterns, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	run := func() error {
		w, err := compiler.Run(cmd.Context(), cfg, patterns...)
		if w != nil && cfg.DryRun {
			printOutputs(cmd, w)
		}
		return err
	}
	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		return watchPackages(cmd.Context(), cfg, patterns, run)
	}
	return run()
}

// printOutputs writes the files a dry run would have written to stdout, in
// path order.
func printOutputs(cmd *cobra.Command, w *gen.Writer) {
	outputs := w.Outputs()
	for _, path := range slices.Sorted(maps.Keys(outputs)) {
		fmt.Fprintf(cmd.OutOrStdout(), "// %s\n%s\n", path, outputs[path])
	}
}
