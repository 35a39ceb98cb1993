package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/syssam/arbgen/compiler"
	"github.com/syssam/arbgen/compiler/load"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [patterns]",
	Short: "Print the declarations selected for derivation",
	Long: `Dump prints the declarations the loader selected, with their directives,
fields and variants, for editor integrations and debugging.`,
	RunE: runDump,
}

func init() {
	addConfigFlags(dumpCmd)
	dumpCmd.Flags().String("format", "json", "output format (json|yaml|msgpack)")
}

func runDump(cmd *cobra.Command, args []string) error {
	cfg, patterns, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	pkgs, err := compiler.Load(cmd.Context(), cfg, patterns...)
	if err != nil {
		return err
	}
	return encodeDump(cmd.OutOrStdout(), format, pkgs)
}

// encodeDump writes pkgs to w in the given format.
func encodeDump(w io.Writer, format string, pkgs []*load.Package) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(pkgs)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(pkgs); err != nil {
			return err
		}
		return enc.Close()
	case "msgpack":
		return msgpack.NewEncoder(w).Encode(pkgs)
	default:
		return fmt.Errorf("unknown dump format %q", format)
	}
}
