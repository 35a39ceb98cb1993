package gen

import (
	"errors"
	"fmt"
	"go/token"
	"go/types"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// pascal capitalizes the first letter of an identifier and keeps the rest.
func pascal(s string) string {
	return cases.Title(language.Und, cases.NoLower).String(s)
}

// FuncName returns the name of the generator function of the type:
// Arbitrary<Name> for exported types, arbitrary<Name> otherwise.
func (t *Type) FuncName() string {
	if token.IsExported(t.Name) {
		return "Arbitrary" + t.Name
	}
	return "arbitrary" + pascal(t.Name)
}

// DepthFuncName returns the name of the depth bounded helper of a recursive
// type.
func (t *Type) DepthFuncName() string {
	return "arbitrary" + pascal(t.Name) + "Depth"
}

// VariantFuncName returns the name of the helper generating one variant of a
// union.
func (t *Type) VariantFuncName(v *Variant) string {
	return "arbitrary" + pascal(t.Name) + pascal(v.Name)
}

// SliceFuncName returns the name of the slice generator emitted by the
// slices feature, e.g. ArbitraryShapes.
func (t *Type) SliceFuncName() string {
	name := pascal(t.Name)
	plural := inflect.Pluralize(name)
	if plural == name {
		plural = name + "Slice"
	}
	if token.IsExported(t.Name) {
		return "Arbitrary" + plural
	}
	return "arbitrary" + plural
}

// DrawFuncName returns the name of the draw helper emitted by the draw
// feature.
func (t *Type) DrawFuncName() string {
	if token.IsExported(t.Name) {
		return "Draw" + t.Name
	}
	return "draw" + pascal(t.Name)
}

// genName returns the name of the generator argument of a type parameter.
func genName(param string) string {
	return "gen" + pascal(param)
}

// ValidTypeName will determine if a name is going to conflict with any
// identifier used by generated code.
func ValidTypeName(name string) error {
	if name == "" {
		return errors.New("type name cannot be empty")
	}
	if !token.IsIdentifier(name) {
		return fmt.Errorf("type name %q is not a valid Go identifier", name)
	}
	if types.Universe.Lookup(name) != nil {
		return fmt.Errorf("type name conflicts with Go predeclared identifier %q", name)
	}
	if _, ok := reservedIdent[name]; ok {
		return fmt.Errorf("type name conflicts with identifier %q used by generated code", name)
	}
	return nil
}

// validParamName checks a type parameter name against the identifiers of
// generated function bodies.
func validParamName(name string) error {
	if _, ok := reservedIdent[name]; ok {
		return fmt.Errorf("type parameter name conflicts with identifier %q used by generated code", name)
	}
	return nil
}

func names(ids ...string) map[string]struct{} {
	m := make(map[string]struct{})
	for i := range ids {
		m[ids[i]] = struct{}{}
	}
	return m
}

// identifiers used by generated code.
var reservedIdent = names(
	"a",
	"arb",
	"budget",
	"elem",
	"i",
	"rapid",
	"remaining",
	"t",
	"v",
)
