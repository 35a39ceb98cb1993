package gen

import (
	"github.com/syssam/arbgen/compiler/load"
)

// Shape classifies a derived declaration.
type Shape uint8

// Shapes of derivable declarations.
const (
	ShapeRecord Shape = iota + 1
	ShapeUnion
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeRecord:
		return "record"
	case ShapeUnion:
		return "union"
	default:
		return "unknown"
	}
}

type (
	// Type is a declaration arbgen derives a generator for.
	Type struct {
		*Config
		// Name of the declared type.
		Name string
		// PkgPath is the import path of the declaring package.
		PkgPath string
		// Pos is the source position of the declaration.
		Pos string
		// Shape is either record or union.
		Shape Shape
		// TypeParams are the declared type parameters, in order.
		TypeParams []*TypeParam
		// Directives are the doc-comment directives of the declaration.
		Directives *DirectiveSet
		// Fields of a record.
		Fields []*Field
		// Variants of a union, in selection order.
		Variants []*Variant
		// Recursive is set when the type is part of a reference cycle.
		Recursive bool
		// Budget is the recursion budget of a recursive type.
		Budget int
		// Strategy is the synthesized generator of the type.
		Strategy Strategy

		index int // position in the graph arena
		scc   int // strongly connected component id
	}

	// TypeParam is a type parameter of a derived declaration.
	TypeParam struct {
		Name string
		// Constraint is the declared constraint.
		Constraint *load.TypeExpr
		// Generator is set when the emitted function takes a generator
		// argument for the parameter.
		Generator bool
		// Comparable is set when a filter requires equality on the parameter.
		Comparable bool
		// NoBound is set by the nobound directive.
		NoBound bool
		// Usages are the places the parameter is used by generated fields.
		Usages []*Usage
	}

	// Variant is a struct type of a union.
	Variant struct {
		Name string
		Pos  string
		// Type is the variant type instantiated with the union parameters.
		Type *load.TypeExpr
		// Pointer is set when only the pointer type implements the union.
		Pointer bool
		// Weight is the relative selection weight.
		Weight     int
		Directives *DirectiveSet
		Fields     []*Field
		// Base is set when the variant can be generated without descending
		// into its own cycle.
		Base bool
	}

	// Field is a struct field of a record or variant.
	Field struct {
		Name       string
		Index      int
		Embedded   bool
		Type       *load.TypeExpr
		Pos        string
		Directives *DirectiveSet
		// Recursive is set when the field refers back into the cycle of its
		// type.
		Recursive bool

		owner string // "Type" or "Union.Variant"
	}

	// Usage is an occurrence of a type parameter in a generated field.
	Usage struct {
		Param    *TypeParam
		Field    *Field
		Position Position
		// Via lists the generic arguments of derived types the usage is
		// nested in, outermost first.
		Via []Argument
	}

	// Argument is a type argument position of a derived generic type.
	Argument struct {
		Type  *Type
		Index int
	}
)

// Position is the structural position of a type parameter usage.
type Position uint8

// Usage positions.
const (
	PosDirect Position = iota + 1
	PosContainer
	PosReference
	PosArgument
)

// String returns the position name.
func (p Position) String() string {
	switch p {
	case PosDirect:
		return "direct"
	case PosContainer:
		return "container"
	case PosReference:
		return "reference"
	case PosArgument:
		return "argument"
	default:
		return "unknown"
	}
}

// IsRecord reports whether the type is a struct.
func (t *Type) IsRecord() bool { return t.Shape == ShapeRecord }

// IsUnion reports whether the type is a sealed interface.
func (t *Type) IsUnion() bool { return t.Shape == ShapeUnion }

// IsGeneric reports whether the type declares type parameters.
func (t *Type) IsGeneric() bool { return len(t.TypeParams) > 0 }

// Param returns the type parameter with the given name.
func (t *Type) Param(name string) (*TypeParam, bool) {
	for _, tp := range t.TypeParams {
		if tp.Name == name {
			return tp, true
		}
	}
	return nil, false
}

// BoundParams returns the type parameters taking a generator argument.
func (t *Type) BoundParams() []*TypeParam {
	var tps []*TypeParam
	for _, tp := range t.TypeParams {
		if tp.Generator {
			tps = append(tps, tp)
		}
	}
	return tps
}

// AllFields returns the fields of a record, or the fields of every variant
// of a union.
func (t *Type) AllFields() []*Field {
	if t.IsRecord() {
		return t.Fields
	}
	var fs []*Field
	for _, v := range t.Variants {
		fs = append(fs, v.Fields...)
	}
	return fs
}

// SelfType returns the type instantiated with its own parameters.
func (t *Type) SelfType() *load.TypeExpr {
	e := &load.TypeExpr{Kind: load.KindNamed, Name: t.Name, PkgPath: t.PkgPath}
	for _, tp := range t.TypeParams {
		e.Args = append(e.Args, &load.TypeExpr{Kind: load.KindParam, Name: tp.Name})
	}
	return e
}

// Derived reports whether the generator of the field is derived from its
// type, as opposed to a fixed value, a custom generator or no generator.
func (f *Field) Derived() bool {
	return !f.Directives.Has(DirFixed) && !f.Directives.Has(DirSkip) && !f.Directives.Has(DirCustom)
}

// Item returns the diagnostic name of the field, e.g. "Shape.Circle.Radius".
func (f *Field) Item() string {
	return f.owner + "." + f.Name
}

// declaredComparable reports whether the declared constraint is comparable.
func (tp *TypeParam) declaredComparable() bool {
	c := tp.Constraint
	return c != nil && c.Kind == load.KindNamed && c.PkgPath == "" && c.Name == "comparable"
}
