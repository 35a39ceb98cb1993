// arbgen derives pgregory.net/rapid generators for the Go types of a package.
//
// Usage:
//
//	arbgen generate ./...
//	arbgen check ./internal/model
//	arbgen dump --format yaml ./internal/model
//	arbgen features
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "arbgen",
	Short:         "Derive rapid generators for Go types",
	Long:          "arbgen reads //arb: directives and `arb` struct tags and writes a file of rapid generators next to the annotated types.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(featuresCmd)

	rootCmd.PersistentFlags().String("config", "", "path to the arbgen.yaml or arbgen.toml config file")
	rootCmd.PersistentFlags().CountP("verbose", "v", "increase log verbosity (-v info, -vv debug)")

	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("arbgen:", err)
		os.Exit(1)
	}
}

// newLogger returns the stderr logger for the verbosity requested on cmd.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if v, _ := cmd.Flags().GetCount("verbose"); v == 1 {
		level = slog.LevelInfo
	} else if v > 1 {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
