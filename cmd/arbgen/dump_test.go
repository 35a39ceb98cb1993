package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/syssam/arbgen/compiler/load"
)

func TestEncodeDump(t *testing.T) {
	pkgs := []*load.Package{{
		Path: "example.com/shapes",
		Name: "shapes",
		Declarations: []*load.Declaration{{
			Name:       "Point",
			Kind:       load.KindStruct,
			Directives: []*load.Directive{{Text: "arb:derive", Pos: "shapes.go:3:1"}},
			Fields: []*load.Field{
				{Name: "X", Exported: true, Type: &load.TypeExpr{Kind: load.KindBasic, Name: "int"}, Tag: `arb:"min=0"`},
			},
		}},
	}}

	decoders := map[string]func([]byte, any) error{
		"json":    json.Unmarshal,
		"yaml":    yaml.Unmarshal,
		"msgpack": msgpack.Unmarshal,
	}
	for format, decode := range decoders {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, encodeDump(&buf, format, pkgs))

			var back []*load.Package
			require.NoError(t, decode(buf.Bytes(), &back))
			require.Len(t, back, 1)
			require.Len(t, back[0].Declarations, 1)
			d := back[0].Declarations[0]
			assert.Equal(t, "Point", d.Name)
			assert.Equal(t, "arb:derive", d.Directives[0].Text)
			assert.Equal(t, `arb:"min=0"`, d.Fields[0].Tag)
		})
	}

	t.Run("unknown format", func(t *testing.T) {
		err := encodeDump(&bytes.Buffer{}, "xml", pkgs)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "xml")
	})
}
