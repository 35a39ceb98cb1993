package gen

import (
	"errors"
	"fmt"

	"github.com/syssam/arbgen/compiler/load"
)

// Strategy is a node of the generator expression tree synthesized for a
// type. The emitter renders it as Go code.
type Strategy interface {
	children() []Strategy
}

type (
	// Primitive is a rapid constructor, e.g. rapid.Int() or rapid.IntRange(0, 9).
	Primitive struct {
		Func string
		Args []string
	}

	// Runtime is a constructor of the support package, e.g. arb.Time().
	Runtime struct {
		Func string
	}

	// Enum samples the constants declared with a named type.
	Enum struct {
		Type   *load.TypeExpr
		Consts []string
	}

	// Convert maps values of a basic type onto a named type.
	Convert struct {
		Inner    Strategy
		From, To *load.TypeExpr
	}

	// Reflect builds values with rapid.Make.
	Reflect struct {
		Type *load.TypeExpr
	}

	// Param is the generator argument of a type parameter.
	Param struct {
		Name string
	}

	// Pointer generates nil or a pointer to an element.
	Pointer struct {
		Elem Strategy
	}

	// Slice generates slices, optionally with bounded length.
	Slice struct {
		Elem     Strategy
		Min, Max string
	}

	// Map generates maps, optionally with bounded size.
	Map struct {
		Key, Elem Strategy
		Min, Max  string
	}

	// Array fills every element of a fixed size array.
	Array struct {
		Type *load.TypeExpr
		Elem Strategy
	}

	// Call invokes the generator function of a derived type.
	Call struct {
		Func     string
		PkgPath  string
		TypeArgs []*load.TypeExpr
		Args     []Strategy
	}

	// Recurse invokes the depth bounded helper of a type in the same cycle
	// with one less unit of remaining depth, or the field depth limit.
	Recurse struct {
		Type     *Type
		TypeArgs []*load.TypeExpr
		Args     []Strategy
		Limit    int
	}

	// Nilable wraps a recursive reference behind a pointer, slice or map
	// that is empty once the depth budget is spent.
	Nilable struct {
		Kind      load.TypeKind
		Key, Elem Strategy
	}

	// Expr is a user supplied generator expression.
	Expr struct {
		Source string
	}

	// Pattern generates text matching a regular expression.
	Pattern struct {
		Regex string
		Bytes bool
	}

	// Filtered discards values for which Pred returns false.
	Filtered struct {
		Inner Strategy
		Pred  string
	}

	// Record draws every generated field of a struct in declaration order.
	Record struct {
		Type   *load.TypeExpr
		Fields []*FieldPlan
	}

	// Union picks one variant according to the variant weights.
	Union struct {
		Choices   []*Choice
		Recursive bool
	}
)

// FieldPlan is the plan for one field of a record. Fixed is set for fixed
// values, Gen for drawn fields. Skipped fields have no plan.
type FieldPlan struct {
	Field *Field
	Fixed string
	Gen   Strategy
}

// Choice is a union variant with its selection weight.
type Choice struct {
	Variant   *Variant
	Weight    int
	Recursive bool
	Gen       *Record
}

func (*Primitive) children() []Strategy { return nil }
func (*Runtime) children() []Strategy   { return nil }
func (*Enum) children() []Strategy      { return nil }
func (s *Convert) children() []Strategy { return []Strategy{s.Inner} }
func (*Reflect) children() []Strategy   { return nil }
func (*Param) children() []Strategy     { return nil }
func (s *Pointer) children() []Strategy { return []Strategy{s.Elem} }
func (s *Slice) children() []Strategy   { return []Strategy{s.Elem} }
func (s *Map) children() []Strategy     { return []Strategy{s.Key, s.Elem} }
func (s *Array) children() []Strategy   { return []Strategy{s.Elem} }
func (s *Call) children() []Strategy    { return s.Args }
func (s *Recurse) children() []Strategy { return s.Args }
func (*Expr) children() []Strategy      { return nil }
func (*Pattern) children() []Strategy   { return nil }
func (s *Filtered) children() []Strategy {
	return []Strategy{s.Inner}
}

func (s *Nilable) children() []Strategy {
	if s.Key != nil {
		return []Strategy{s.Key, s.Elem}
	}
	return []Strategy{s.Elem}
}

func (s *Record) children() []Strategy {
	var cs []Strategy
	for _, f := range s.Fields {
		if f.Gen != nil {
			cs = append(cs, f.Gen)
		}
	}
	return cs
}

func (s *Union) children() []Strategy {
	cs := make([]Strategy, len(s.Choices))
	for i, c := range s.Choices {
		cs[i] = c.Gen
	}
	return cs
}

// Walk calls fn for s and every strategy below it, parents first.
func Walk(s Strategy, fn func(Strategy)) {
	stack := []Strategy{s}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s == nil {
			continue
		}
		fn(s)
		cs := s.children()
		for i := len(cs) - 1; i >= 0; i-- {
			stack = append(stack, cs[i])
		}
	}
}

// rapid constructors of basic types.
var primitives = map[string]string{
	"bool":    "Bool",
	"int":     "Int",
	"int8":    "Int8",
	"int16":   "Int16",
	"int32":   "Int32",
	"int64":   "Int64",
	"uint":    "Uint",
	"uint8":   "Uint8",
	"uint16":  "Uint16",
	"uint32":  "Uint32",
	"uint64":  "Uint64",
	"uintptr": "Uintptr",
	"float32": "Float32",
	"float64": "Float64",
	"string":  "String",
	"byte":    "Byte",
	"rune":    "Rune",
}

// support package constructors of basic and well known types.
var runtimes = map[string]string{
	"complex64":                   "Complex64",
	"complex128":                  "Complex128",
	"time.Time":                   "Time",
	"time.Duration":               "Duration",
	"github.com/google/uuid.UUID": "UUID",
}

func primitive(name string) (Strategy, bool) {
	if f, ok := primitives[name]; ok {
		return &Primitive{Func: f}, true
	}
	if f, ok := runtimes[name]; ok {
		return &Runtime{Func: f}, true
	}
	return nil, false
}

// synthesize builds the strategy of every type of the graph.
func (g *Graph) synthesize() error {
	var errs []error
	for _, t := range g.Nodes {
		if err := g.synthesizeType(t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (g *Graph) synthesizeType(t *Type) error {
	if t.IsRecord() {
		r, err := g.record(t, t.SelfType(), t.Fields)
		if err != nil {
			return err
		}
		t.Strategy = r
		return nil
	}
	u := &Union{Recursive: t.Recursive}
	for _, v := range t.Variants {
		if v.Weight == 0 {
			t.logger().Debug("variant never selected", "type", t.Name, "variant", v.Name)
			continue
		}
		r, err := g.record(t, v.Type, v.Fields)
		if err != nil {
			return err
		}
		u.Choices = append(u.Choices, &Choice{
			Variant:   v,
			Weight:    v.Weight,
			Recursive: t.Recursive && !v.Base,
			Gen:       r,
		})
	}
	t.Strategy = u
	return nil
}

func (g *Graph) record(t *Type, self *load.TypeExpr, fields []*Field) (*Record, error) {
	r := &Record{Type: self}
	for _, f := range fields {
		p, err := g.field(t, f)
		if err != nil {
			return nil, err
		}
		if p != nil {
			r.Fields = append(r.Fields, p)
		}
	}
	return r, nil
}

// field applies the directive precedence of a field: fixed value, custom
// generator, skip, pattern, bounds and finally the default derived from the
// field type. A filter wraps whatever was chosen.
func (g *Graph) field(t *Type, f *Field) (*FieldPlan, error) {
	d := f.Directives
	if expr, ok := d.Fixed(); ok {
		return &FieldPlan{Field: f, Fixed: expr}, nil
	}
	var (
		s   Strategy
		err error
	)
	switch expr, custom := d.Custom(); {
	case custom:
		s = &Expr{Source: expr}
	case d.Has(DirSkip):
		return nil, nil
	case d.Has(DirRegex):
		s, err = g.pattern(f)
	case d.Has(DirRange):
		s, err = g.bounded(t, f)
	default:
		s, err = g.derive(t, f, f.Type)
	}
	if err != nil {
		return nil, err
	}
	if pred, ok := d.Filter(); ok {
		s = &Filtered{Inner: s, Pred: pred}
	}
	return &FieldPlan{Field: f, Gen: s}, nil
}

// derive returns the default strategy of a type expression.
func (g *Graph) derive(t *Type, f *Field, e *load.TypeExpr) (Strategy, error) {
	switch e.Kind {
	case load.KindBasic:
		if s, ok := primitive(e.Name); ok {
			return s, nil
		}
		return nil, NewFieldError(t.Name, f.Item(), fmt.Sprintf("%s values cannot be generated", e.Name))
	case load.KindParam:
		tp, ok := t.Param(e.Name)
		if !ok {
			return nil, NewFieldError(t.Name, f.Item(), fmt.Sprintf("unknown type parameter %s", e.Name))
		}
		if !tp.Generator {
			return &Reflect{Type: e}, nil
		}
		return &Param{Name: e.Name}, nil
	case load.KindPointer:
		elem, err := g.derive(t, f, e.Elem)
		if err != nil {
			return nil, err
		}
		if g.sameCycle(t, e.Elem) {
			return &Nilable{Kind: load.KindPointer, Elem: elem}, nil
		}
		return &Pointer{Elem: elem}, nil
	case load.KindSlice:
		elem, err := g.derive(t, f, e.Elem)
		if err != nil {
			return nil, err
		}
		if g.sameCycle(t, e.Elem) {
			return &Nilable{Kind: load.KindSlice, Elem: elem}, nil
		}
		return &Slice{Elem: elem}, nil
	case load.KindMap:
		key, err := g.derive(t, f, e.Key)
		if err != nil {
			return nil, err
		}
		elem, err := g.derive(t, f, e.Elem)
		if err != nil {
			return nil, err
		}
		if g.sameCycle(t, e.Key) || g.sameCycle(t, e.Elem) {
			return &Nilable{Kind: load.KindMap, Key: key, Elem: elem}, nil
		}
		return &Map{Key: key, Elem: elem}, nil
	case load.KindArray:
		elem, err := g.derive(t, f, e.Elem)
		if err != nil {
			return nil, err
		}
		return &Array{Type: e, Elem: elem}, nil
	case load.KindNamed:
		return g.named(t, f, e)
	case load.KindStruct:
		if e.Makeable {
			return &Reflect{Type: e}, nil
		}
		return nil, NewFieldError(t.Name, f.Item(), "anonymous struct with unexported or ungeneratable fields")
	default:
		return nil, NewFieldError(t.Name, f.Item(), fmt.Sprintf("%s values cannot be generated", e.Kind))
	}
}

func (g *Graph) named(t *Type, f *Field, e *load.TypeExpr) (Strategy, error) {
	if callee := g.lookup(e); callee != nil {
		args, err := g.arguments(t, f, callee, e)
		if err != nil {
			return nil, err
		}
		if callee.Recursive && callee.scc == t.scc {
			limit, _ := f.Directives.Depth()
			return &Recurse{Type: callee, TypeArgs: e.Args, Args: args, Limit: limit}, nil
		}
		return &Call{Func: callee.FuncName(), PkgPath: callee.PkgPath, TypeArgs: e.Args, Args: args}, nil
	}
	if len(e.Args) == 0 {
		if s, ok := runtimes[e.PkgPath+"."+e.Name]; ok {
			return &Runtime{Func: s}, nil
		}
	}
	if ref := e.Generator; ref != nil {
		var args []Strategy
		for _, i := range ref.Bound {
			if i >= len(e.Args) {
				return nil, NewFieldError(t.Name, f.Item(), fmt.Sprintf("generator %s.%s does not match %s", ref.PkgPath, ref.Func, e))
			}
			a, err := g.derive(t, f, e.Args[i])
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		return &Call{Func: ref.Func, PkgPath: ref.PkgPath, TypeArgs: e.Args, Args: args}, nil
	}
	if len(e.Enum) > 0 {
		return &Enum{Type: e, Consts: e.Enum}, nil
	}
	if e.Basic != "" {
		if inner, ok := primitive(e.Basic); ok {
			return &Convert{Inner: inner, From: basicType(e.Basic), To: e}, nil
		}
	}
	if e.Makeable {
		return &Reflect{Type: e}, nil
	}
	return nil, NewFieldError(t.Name, f.Item(), fmt.Sprintf("%s has no generator; derive it or add a gen directive", e))
}

// arguments returns the generators passed for the bound type parameters of
// a derived callee.
func (g *Graph) arguments(t *Type, f *Field, callee *Type, e *load.TypeExpr) ([]Strategy, error) {
	if len(e.Args) != len(callee.TypeParams) {
		return nil, NewFieldError(t.Name, f.Item(), fmt.Sprintf("%s expects %d type arguments", callee.Name, len(callee.TypeParams)))
	}
	var args []Strategy
	for i, tp := range callee.TypeParams {
		if !tp.Generator {
			continue
		}
		s, err := g.derive(t, f, e.Args[i])
		if err != nil {
			return nil, err
		}
		args = append(args, s)
	}
	return args, nil
}

// pattern returns a text generator for a regex directive.
func (g *Graph) pattern(f *Field) (Strategy, error) {
	re, _ := f.Directives.Regex()
	e := f.Type
	switch {
	case e.Kind == load.KindBasic && e.Name == "string":
		return &Pattern{Regex: re}, nil
	case e.Kind == load.KindSlice && isByte(e.Elem):
		return &Pattern{Regex: re, Bytes: true}, nil
	case e.Kind == load.KindNamed && e.Basic == "string":
		return &Convert{Inner: &Pattern{Regex: re}, From: basicType("string"), To: e}, nil
	default:
		return nil, NewDirectiveError(f.Item(), DirRegex.String(), f.Pos, fmt.Sprintf("regex requires a string or []byte field, not %s", e), nil)
	}
}

// bounded returns a generator honoring min and max: a value range for
// numbers, a length range for strings, slices and maps.
func (g *Graph) bounded(t *Type, f *Field) (Strategy, error) {
	r, _ := f.Directives.Range()
	e := f.Type
	invalid := func(msg string) error {
		return NewDirectiveError(f.Item(), DirRange.String(), f.Pos, msg, nil)
	}
	base, named := e, false
	if e.Kind == load.KindNamed && e.Basic != "" {
		base, named = basicType(e.Basic), true
	}
	var s Strategy
	switch {
	case base.Kind == load.KindBasic && base.Name == "string":
		lo, hi, err := lengths(r)
		if err != nil {
			return nil, invalid(err.Error())
		}
		s = &Primitive{Func: "StringN", Args: []string{lo, hi, "-1"}}
	case base.Kind == load.KindBasic:
		p, err := numericRange(base.Name, r)
		if err != nil {
			return nil, invalid(err.Error())
		}
		s = p
	case e.Kind == load.KindSlice || e.Kind == load.KindMap:
		if g.sameCycle(t, e) {
			return nil, invalid("min/max cannot bound a recursive collection")
		}
		lo, hi, err := lengths(r)
		if err != nil {
			return nil, invalid(err.Error())
		}
		elem, err := g.derive(t, f, e.Elem)
		if err != nil {
			return nil, err
		}
		if e.Kind == load.KindSlice {
			return &Slice{Elem: elem, Min: lo, Max: hi}, nil
		}
		key, err := g.derive(t, f, e.Key)
		if err != nil {
			return nil, err
		}
		return &Map{Key: key, Elem: elem, Min: lo, Max: hi}, nil
	default:
		return nil, invalid(fmt.Sprintf("min/max requires a numeric, string, slice or map field, not %s", e))
	}
	if named {
		s = &Convert{Inner: s, From: base, To: e}
	}
	return s, nil
}

// numeric range constructors of rapid, by basic type.
var ranges = map[string]string{
	"int":     "Int",
	"int8":    "Int8",
	"int16":   "Int16",
	"int32":   "Int32",
	"rune":    "Int32",
	"int64":   "Int64",
	"uint":    "Uint",
	"uint8":   "Uint8",
	"byte":    "Byte",
	"uint16":  "Uint16",
	"uint32":  "Uint32",
	"uint64":  "Uint64",
	"uintptr": "Uintptr",
	"float32": "Float32",
	"float64": "Float64",
}

func numericRange(basic string, r Range) (*Primitive, error) {
	name, ok := ranges[basic]
	if !ok {
		return nil, fmt.Errorf("min/max cannot bound %s values", basic)
	}
	float := basic == "float32" || basic == "float64"
	unsigned := basic[0] == 'u' || basic == "byte"
	for _, b := range []*Bound{r.Min, r.Max} {
		switch {
		case b == nil:
		case !float && !b.Int:
			return nil, fmt.Errorf("%s is not an integer", b.Text)
		case unsigned && b.Value < 0:
			return nil, fmt.Errorf("%s is negative for an unsigned type", b.Text)
		}
	}
	switch {
	case r.Min != nil && r.Max != nil:
		return &Primitive{Func: name + "Range", Args: []string{r.Min.Text, r.Max.Text}}, nil
	case r.Min != nil:
		return &Primitive{Func: name + "Min", Args: []string{r.Min.Text}}, nil
	default:
		return &Primitive{Func: name + "Max", Args: []string{r.Max.Text}}, nil
	}
}

// lengths returns the length arguments of rapid's bounded collection
// constructors, where -1 means unbounded.
func lengths(r Range) (lo, hi string, err error) {
	lo, hi = "0", "-1"
	if b := r.Min; b != nil {
		if !b.Int || b.Value < 0 {
			return "", "", fmt.Errorf("minimum length %s must be a non-negative integer", b.Text)
		}
		lo = b.Text
	}
	if b := r.Max; b != nil {
		if !b.Int || b.Value < 0 {
			return "", "", fmt.Errorf("maximum length %s must be a non-negative integer", b.Text)
		}
		hi = b.Text
	}
	return lo, hi, nil
}

func basicType(name string) *load.TypeExpr {
	return &load.TypeExpr{Kind: load.KindBasic, Name: name}
}

func isByte(e *load.TypeExpr) bool {
	return e != nil && e.Kind == load.KindBasic && (e.Name == "byte" || e.Name == "uint8")
}
