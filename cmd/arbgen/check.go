package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/syssam/arbgen/compiler"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed)
)

var checkCmd = &cobra.Command{
	Use:   "check [patterns]",
	Short: "Report diagnostics without writing files",
	RunE:  runCheck,
}

func init() {
	addConfigFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, patterns, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	graphs, err := compiler.LoadGraphs(cmd.Context(), cfg, patterns...)
	for _, g := range graphs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d types\n", okColor.Sprint("ok"), g.Package.Path, len(g.Nodes))
	}
	if err == nil {
		return nil
	}
	n := printDiagnostics(cmd, err)
	return fmt.Errorf("check failed with %d diagnostics", n)
}

// printDiagnostics prints one line per diagnostic of err to stderr and
// returns their count.
func printDiagnostics(cmd *cobra.Command, err error) int {
	n := 0
	for _, e := range flatten(err) {
		for _, line := range strings.Split(e.Error(), "\n") {
			failColor.Fprintln(cmd.ErrOrStderr(), line)
			n++
		}
	}
	return n
}

// flatten unfolds errors joined with errors.Join.
func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}
