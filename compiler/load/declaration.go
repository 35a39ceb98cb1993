package load

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TypeKind classifies a type reference.
type TypeKind string

// Type reference kinds.
const (
	KindBasic     TypeKind = "basic"
	KindNamed     TypeKind = "named"
	KindParam     TypeKind = "param"
	KindPointer   TypeKind = "pointer"
	KindSlice     TypeKind = "slice"
	KindArray     TypeKind = "array"
	KindMap       TypeKind = "map"
	KindChan      TypeKind = "chan"
	KindFunc      TypeKind = "func"
	KindInterface TypeKind = "interface"
	KindStruct    TypeKind = "struct"
)

// Package is a loaded Go package and the declarations selected for derivation.
type Package struct {
	Path         string         `json:"path" yaml:"path" msgpack:"path"`
	Name         string         `json:"name" yaml:"name" msgpack:"name"`
	Dir          string         `json:"dir,omitempty" yaml:"dir,omitempty" msgpack:"dir,omitempty"`
	Declarations []*Declaration `json:"declarations,omitempty" yaml:"declarations,omitempty" msgpack:"declarations,omitempty"`
}

// Declaration is a type declaration that was loaded from a compiled user package.
type Declaration struct {
	Name       string       `json:"name" yaml:"name" msgpack:"name"`
	Pos        string       `json:"pos,omitempty" yaml:"pos,omitempty" msgpack:"pos,omitempty"`
	Kind       TypeKind     `json:"kind" yaml:"kind" msgpack:"kind"`
	TypeParams []*TypeParam `json:"type_params,omitempty" yaml:"type_params,omitempty" msgpack:"type_params,omitempty"`
	Directives []*Directive `json:"directives,omitempty" yaml:"directives,omitempty" msgpack:"directives,omitempty"`
	// Fields holds the fields of a struct declaration.
	Fields []*Field `json:"fields,omitempty" yaml:"fields,omitempty" msgpack:"fields,omitempty"`
	// Variants holds the struct types implementing an interface declaration,
	// in source order.
	Variants []*Variant `json:"variants,omitempty" yaml:"variants,omitempty" msgpack:"variants,omitempty"`
	// EmptyInterface is set for interfaces without methods; every struct
	// type satisfies them.
	EmptyInterface bool `json:"empty_interface,omitempty" yaml:"empty_interface,omitempty" msgpack:"empty_interface,omitempty"`
}

// TypeParam is a type parameter of a declaration.
type TypeParam struct {
	Name       string    `json:"name" yaml:"name" msgpack:"name"`
	Constraint *TypeExpr `json:"constraint,omitempty" yaml:"constraint,omitempty" msgpack:"constraint,omitempty"`
}

// Directive is a raw annotation line attached to a declaration, with the
// comment marker removed. For example "arb:weight 3".
type Directive struct {
	Text string `json:"text" yaml:"text" msgpack:"text"`
	Pos  string `json:"pos,omitempty" yaml:"pos,omitempty" msgpack:"pos,omitempty"`
}

// Field is a struct field.
type Field struct {
	Name     string    `json:"name" yaml:"name" msgpack:"name"`
	Index    int       `json:"index" yaml:"index" msgpack:"index"`
	Embedded bool      `json:"embedded,omitempty" yaml:"embedded,omitempty" msgpack:"embedded,omitempty"`
	Exported bool      `json:"exported,omitempty" yaml:"exported,omitempty" msgpack:"exported,omitempty"`
	Type     *TypeExpr `json:"type" yaml:"type" msgpack:"type"`
	Tag      string    `json:"tag,omitempty" yaml:"tag,omitempty" msgpack:"tag,omitempty"`
	Pos      string    `json:"pos,omitempty" yaml:"pos,omitempty" msgpack:"pos,omitempty"`
}

// Variant is a struct type implementing an interface declaration.
type Variant struct {
	Name string `json:"name" yaml:"name" msgpack:"name"`
	Pos  string `json:"pos,omitempty" yaml:"pos,omitempty" msgpack:"pos,omitempty"`
	// Pointer is set when only the pointer type implements the interface.
	Pointer    bool         `json:"pointer,omitempty" yaml:"pointer,omitempty" msgpack:"pointer,omitempty"`
	TypeParams []*TypeParam `json:"type_params,omitempty" yaml:"type_params,omitempty" msgpack:"type_params,omitempty"`
	Directives []*Directive `json:"directives,omitempty" yaml:"directives,omitempty" msgpack:"directives,omitempty"`
	Fields     []*Field     `json:"fields,omitempty" yaml:"fields,omitempty" msgpack:"fields,omitempty"`
}

// TypeExpr is a structured reference to a Go type.
type TypeExpr struct {
	Kind TypeKind `json:"kind" yaml:"kind" msgpack:"kind"`
	// Name holds the basic type name, the named type name or the type
	// parameter name.
	Name    string      `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty"`
	PkgPath string      `json:"pkg_path,omitempty" yaml:"pkg_path,omitempty" msgpack:"pkg_path,omitempty"`
	Args    []*TypeExpr `json:"args,omitempty" yaml:"args,omitempty" msgpack:"args,omitempty"`
	Elem    *TypeExpr   `json:"elem,omitempty" yaml:"elem,omitempty" msgpack:"elem,omitempty"`
	Key     *TypeExpr   `json:"key,omitempty" yaml:"key,omitempty" msgpack:"key,omitempty"`
	Len     int64       `json:"len,omitempty" yaml:"len,omitempty" msgpack:"len,omitempty"`
	// Basic is the underlying basic type of a named type, if any.
	Basic string `json:"basic,omitempty" yaml:"basic,omitempty" msgpack:"basic,omitempty"`
	// Underlying is the kind of the underlying type of a named type.
	Underlying TypeKind `json:"underlying,omitempty" yaml:"underlying,omitempty" msgpack:"underlying,omitempty"`
	// Enum lists the constants declared with a named basic type.
	Enum []string `json:"enum,omitempty" yaml:"enum,omitempty" msgpack:"enum,omitempty"`
	// Makeable reports whether rapid.Make can build values of the type.
	Makeable bool `json:"makeable,omitempty" yaml:"makeable,omitempty" msgpack:"makeable,omitempty"`
	// Generator references an existing derived generator of a named type
	// from another package.
	Generator *GeneratorRef `json:"generator,omitempty" yaml:"generator,omitempty" msgpack:"generator,omitempty"`
	// Source is the printed form of interface, func and struct literals.
	Source string `json:"source,omitempty" yaml:"source,omitempty" msgpack:"source,omitempty"`
}

// GeneratorRef is a derived generator function found in an imported package.
type GeneratorRef struct {
	Func    string `json:"func" yaml:"func" msgpack:"func"`
	PkgPath string `json:"pkg_path" yaml:"pkg_path" msgpack:"pkg_path"`
	// Bound holds the indexes of the type parameters that take a generator
	// argument.
	Bound []int `json:"bound,omitempty" yaml:"bound,omitempty" msgpack:"bound,omitempty"`
}

// String returns the Go spelling of the type, with package paths shortened
// to their last element.
func (t *TypeExpr) String() string {
	if t == nil {
		return "<nil>"
	}
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *TypeExpr) write(b *strings.Builder) {
	switch t.Kind {
	case KindBasic, KindParam:
		b.WriteString(t.Name)
	case KindNamed:
		if t.PkgPath != "" {
			b.WriteString(t.PkgPath[strings.LastIndex(t.PkgPath, "/")+1:])
			b.WriteByte('.')
		}
		b.WriteString(t.Name)
		if len(t.Args) > 0 {
			b.WriteByte('[')
			for i, a := range t.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				a.write(b)
			}
			b.WriteByte(']')
		}
	case KindPointer:
		b.WriteByte('*')
		t.Elem.write(b)
	case KindSlice:
		b.WriteString("[]")
		t.Elem.write(b)
	case KindArray:
		fmt.Fprintf(b, "[%d]", t.Len)
		t.Elem.write(b)
	case KindMap:
		b.WriteString("map[")
		t.Key.write(b)
		b.WriteByte(']')
		t.Elem.write(b)
	case KindChan:
		b.WriteString("chan ")
		t.Elem.write(b)
	default:
		b.WriteString(t.Source)
	}
}

// MarshalPackages encodes loaded packages as JSON.
func MarshalPackages(pkgs []*Package) ([]byte, error) {
	return json.Marshal(pkgs)
}

// UnmarshalPackages decodes packages encoded by MarshalPackages.
func UnmarshalPackages(buf []byte) ([]*Package, error) {
	var pkgs []*Package
	if err := json.Unmarshal(buf, &pkgs); err != nil {
		return nil, fmt.Errorf("unmarshal packages: %w", err)
	}
	return pkgs, nil
}
