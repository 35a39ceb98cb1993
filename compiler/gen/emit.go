package gen

import (
	"fmt"
	"go/ast"
	"go/parser"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/arbgen/compiler/load"
)

// emitter renders the strategies of a graph into a single file.
type emitter struct {
	g     *Graph
	f     *jen.File
	rt    string
	names map[string]string // declared function name to owning type
}

// Emit renders the generator functions of every type of the graph.
func (g *Graph) Emit() (*jen.File, error) {
	f := jen.NewFilePathName(g.Package.Path, g.Package.Name)
	f.HeaderComment(g.header())
	f.ImportName(rapidPkg, "rapid")
	f.ImportName(g.runtimePackage(), "arb")
	e := &emitter{g: g, f: f, rt: g.runtimePackage(), names: make(map[string]string)}
	for _, t := range g.Nodes {
		if err := e.check(t); err != nil {
			return nil, err
		}
		if err := e.typ(t); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (e *emitter) declare(name string, t *Type) error {
	if owner, ok := e.names[name]; ok {
		return NewGenerationError("emit", "", fmt.Sprintf("function %s of %s collides with the one of %s", name, t.Name, owner), nil)
	}
	if o := e.g.nodes[name]; o != nil {
		return NewGenerationError("emit", "", fmt.Sprintf("function %s of %s collides with type %s", name, t.Name, o.Name), nil)
	}
	e.names[name] = t.Name
	return nil
}

// check verifies that every generator argument used by the strategies of t
// is declared by its function.
func (e *emitter) check(t *Type) error {
	if t.Strategy == nil {
		return NewGenerationError("emit", "", fmt.Sprintf("type %s has no strategy", t.Name), nil)
	}
	var err error
	Walk(t.Strategy, func(s Strategy) {
		p, ok := s.(*Param)
		if !ok || err != nil {
			return
		}
		if tp, ok := t.Param(p.Name); !ok || !tp.Generator {
			err = NewGenerationError("emit", "", fmt.Sprintf("type %s uses an undeclared generator for %s", t.Name, p.Name), nil)
		}
	})
	return err
}

func (e *emitter) typ(t *Type) error {
	funcs := []string{t.FuncName()}
	if t.Recursive {
		funcs = append(funcs, t.DepthFuncName())
	}
	if u, ok := t.Strategy.(*Union); ok {
		for _, c := range u.Choices {
			funcs = append(funcs, t.VariantFuncName(c.Variant))
		}
	}
	if t.FeatureEnabled(FeatureSlices.Name) {
		funcs = append(funcs, t.SliceFuncName())
	}
	if t.FeatureEnabled(FeatureDraw.Name) && !t.IsGeneric() {
		funcs = append(funcs, t.DrawFuncName())
	}
	for _, name := range funcs {
		if err := e.declare(name, t); err != nil {
			return err
		}
	}

	e.f.Commentf("%s returns a generator of arbitrary %s values.", t.FuncName(), t.Name)
	if t.Recursive {
		e.f.Commentf("Recursion stops after %d nested levels.", t.Budget)
		budget := jen.Lit(t.Budget)
		e.f.Add(e.signature(t, t.FuncName(), false)).Block(
			jen.Return(withTypes(jen.Id(t.DepthFuncName()), e.typeArgs(t)).Call(append(e.genArgs(t), budget, jen.Lit(t.Budget))...)),
		)
		e.f.Line()
		e.f.Add(e.signature(t, t.DepthFuncName(), true)).Block(jen.Return(e.body(t)))
	} else {
		e.f.Add(e.signature(t, t.FuncName(), false)).Block(jen.Return(e.body(t)))
	}
	e.f.Line()

	if u, ok := t.Strategy.(*Union); ok {
		for _, c := range u.Choices {
			e.f.Add(e.variantSignature(t, c.Variant)).Block(jen.Return(e.record(c.Gen)))
			e.f.Line()
		}
	}
	if t.FeatureEnabled(FeatureSlices.Name) {
		e.f.Commentf("%s returns a generator of slices of arbitrary %s values.", t.SliceFuncName(), t.Name)
		e.f.Func().Id(t.SliceFuncName()).Types(e.typeParams(t)...).Params(e.genParams(t)...).
			Op("*").Qual(rapidPkg, "Generator").Types(jen.Index().Add(e.typeCode(t.SelfType()))).
			Block(jen.Return(jen.Qual(rapidPkg, "SliceOf").Call(
				withTypes(jen.Id(t.FuncName()), e.typeArgs(t)).Call(e.genArgs(t)...),
			)))
		e.f.Line()
	}
	if t.FeatureEnabled(FeatureDraw.Name) && !t.IsGeneric() {
		e.f.Commentf("%s draws an arbitrary %s value.", t.DrawFuncName(), t.Name)
		e.f.Func().Id(t.DrawFuncName()).
			Params(jen.Id("t").Op("*").Qual(rapidPkg, "T"), jen.Id("label").String()).
			Add(e.typeCode(t.SelfType())).
			Block(jen.Return(jen.Id(t.FuncName()).Call().Dot("Draw").Call(jen.Id("t"), jen.Id("label"))))
		e.f.Line()
	}
	return nil
}

// signature renders "func Name[T any](genT *rapid.Generator[T]) *rapid.Generator[Self[T]]",
// with budget and remaining parameters for depth helpers.
func (e *emitter) signature(t *Type, name string, depth bool) *jen.Statement {
	params := e.genParams(t)
	if depth {
		params = append(params, jen.List(jen.Id("budget"), jen.Id("remaining")).Int())
	}
	return withTypes(jen.Func().Id(name), e.typeParams(t)).
		Params(params...).
		Op("*").Qual(rapidPkg, "Generator").Types(e.typeCode(t.SelfType()))
}

func (e *emitter) variantSignature(t *Type, v *Variant) *jen.Statement {
	params := e.genParams(t)
	if t.Recursive {
		params = append(params, jen.List(jen.Id("budget"), jen.Id("remaining")).Int())
	}
	return withTypes(jen.Func().Id(t.VariantFuncName(v)), e.typeParams(t)).
		Params(params...).
		Op("*").Qual(rapidPkg, "Generator").Types(e.typeCode(v.Type))
}

func (e *emitter) typeParams(t *Type) []jen.Code {
	var cs []jen.Code
	for _, tp := range t.TypeParams {
		cs = append(cs, jen.Id(tp.Name).Add(e.constraint(tp)))
	}
	return cs
}

func (e *emitter) typeArgs(t *Type) []jen.Code {
	var cs []jen.Code
	for _, tp := range t.TypeParams {
		cs = append(cs, jen.Id(tp.Name))
	}
	return cs
}

func (e *emitter) genParams(t *Type) []jen.Code {
	var cs []jen.Code
	for _, tp := range t.BoundParams() {
		cs = append(cs, jen.Id(genName(tp.Name)).Op("*").Qual(rapidPkg, "Generator").Types(jen.Id(tp.Name)))
	}
	return cs
}

func (e *emitter) genArgs(t *Type) []jen.Code {
	var cs []jen.Code
	for _, tp := range t.BoundParams() {
		cs = append(cs, jen.Id(genName(tp.Name)))
	}
	return cs
}

// constraint renders the declared constraint of a type parameter, with
// comparable added when a filter requires it.
func (e *emitter) constraint(tp *TypeParam) *jen.Statement {
	if tp.Constraint == nil {
		return jen.Any()
	}
	declared := e.typeCode(tp.Constraint)
	if !tp.Comparable || tp.declaredComparable() {
		return declared
	}
	if tp.Constraint.Kind == load.KindInterface && tp.Constraint.Source == "any" {
		return jen.Id("comparable")
	}
	return jen.Interface(jen.Id("comparable"), declared)
}

func (e *emitter) body(t *Type) jen.Code {
	switch s := t.Strategy.(type) {
	case *Record:
		return e.record(s)
	case *Union:
		return e.union(t, s)
	default:
		return e.strategy(s)
	}
}

// record renders a rapid.Custom drawing every generated field in order.
func (e *emitter) record(r *Record) *jen.Statement {
	stmts := []jen.Code{jen.Var().Id("v").Add(e.typeCode(r.Type))}
	for _, p := range r.Fields {
		target := jen.Id("v").Dot(p.Field.Name)
		if p.Gen == nil {
			stmts = append(stmts, target.Op("=").Add(exprCode(p.Fixed)))
			continue
		}
		stmts = append(stmts, target.Op("=").Add(e.strategy(p.Gen)).Dot("Draw").Call(jen.Id("t"), jen.Lit(p.Field.Name)))
	}
	stmts = append(stmts, jen.Return(jen.Id("v")))
	return jen.Qual(rapidPkg, "Custom").Call(
		jen.Func().Params(jen.Id("t").Op("*").Qual(rapidPkg, "T")).Add(e.typeCode(r.Type)).Block(stmts...),
	)
}

// union renders the weighted choice between the variants of a union.
func (e *emitter) union(t *Type, u *Union) *jen.Statement {
	var args []jen.Code
	if u.Recursive {
		args = append(args, jen.Id("budget"), jen.Id("remaining"))
	}
	for _, c := range u.Choices {
		helperArgs := e.genArgs(t)
		if t.Recursive {
			helperArgs = append(helperArgs, jen.Id("budget"), jen.Id("remaining"))
		}
		value := jen.Id("v")
		if c.Variant.Pointer {
			value = jen.Op("&").Id("v")
		}
		gen := jen.Qual(rapidPkg, "Map").Call(
			withTypes(jen.Id(t.VariantFuncName(c.Variant)), e.typeArgs(t)).Call(helperArgs...),
			jen.Func().Params(jen.Id("v").Add(e.typeCode(c.Variant.Type))).Add(e.typeCode(t.SelfType())).Block(jen.Return(value)),
		)
		args = append(args, jen.Qual(e.rt, "Choice").Types(e.typeCode(t.SelfType())).Values(jen.DictFunc(func(d jen.Dict) {
			d[jen.Id("Weight")] = jen.Lit(c.Weight)
			if c.Recursive {
				d[jen.Id("Recursive")] = jen.True()
			}
			d[jen.Id("Gen")] = gen
		})))
	}
	if u.Recursive {
		return jen.Qual(e.rt, "Recursive").Call(args...)
	}
	return jen.Qual(e.rt, "OneOf").Call(args...)
}

// strategy renders a generator expression.
func (e *emitter) strategy(s Strategy) *jen.Statement {
	switch s := s.(type) {
	case *Primitive:
		args := make([]jen.Code, len(s.Args))
		for i, a := range s.Args {
			args[i] = jen.Id(a)
		}
		return jen.Qual(rapidPkg, s.Func).Call(args...)
	case *Runtime:
		return jen.Qual(e.rt, s.Func).Call()
	case *Enum:
		consts := make([]jen.Code, len(s.Consts))
		for i, c := range s.Consts {
			consts[i] = jen.Qual(s.Type.PkgPath, c)
		}
		return jen.Qual(rapidPkg, "SampledFrom").Call(jen.Index().Add(e.typeCode(s.Type)).Values(consts...))
	case *Convert:
		return jen.Qual(rapidPkg, "Map").Call(
			e.strategy(s.Inner),
			jen.Func().Params(jen.Id("v").Add(e.typeCode(s.From))).Add(e.typeCode(s.To)).Block(
				jen.Return(e.typeCode(s.To).Call(jen.Id("v"))),
			),
		)
	case *Reflect:
		return jen.Qual(rapidPkg, "Make").Types(e.typeCode(s.Type)).Call()
	case *Param:
		return jen.Id(genName(s.Name))
	case *Pointer:
		return jen.Qual(rapidPkg, "Ptr").Call(e.strategy(s.Elem), jen.True())
	case *Slice:
		if s.Min == "" && s.Max == "" {
			return jen.Qual(rapidPkg, "SliceOf").Call(e.strategy(s.Elem))
		}
		return jen.Qual(rapidPkg, "SliceOfN").Call(e.strategy(s.Elem), jen.Id(s.Min), jen.Id(s.Max))
	case *Map:
		if s.Min == "" && s.Max == "" {
			return jen.Qual(rapidPkg, "MapOf").Call(e.strategy(s.Key), e.strategy(s.Elem))
		}
		return jen.Qual(rapidPkg, "MapOfN").Call(e.strategy(s.Key), e.strategy(s.Elem), jen.Id(s.Min), jen.Id(s.Max))
	case *Array:
		return jen.Qual(rapidPkg, "Custom").Call(
			jen.Func().Params(jen.Id("t").Op("*").Qual(rapidPkg, "T")).Add(e.typeCode(s.Type)).Block(
				jen.Var().Id("a").Add(e.typeCode(s.Type)),
				jen.Id("elem").Op(":=").Add(e.strategy(s.Elem)),
				jen.For(jen.Id("i").Op(":=").Range().Id("a")).Block(
					jen.Id("a").Index(jen.Id("i")).Op("=").Id("elem").Dot("Draw").Call(jen.Id("t"), jen.Lit("elem")),
				),
				jen.Return(jen.Id("a")),
			),
		)
	case *Call:
		args := make([]jen.Code, len(s.Args))
		for i, a := range s.Args {
			args[i] = e.strategy(a)
		}
		return withTypes(jen.Qual(s.PkgPath, s.Func), e.typeList(s.TypeArgs)).Call(args...)
	case *Recurse:
		args := make([]jen.Code, 0, len(s.Args)+2)
		for _, a := range s.Args {
			args = append(args, e.strategy(a))
		}
		next := jen.Id("remaining").Op("-").Lit(1)
		if s.Limit > 0 {
			next = jen.Qual(e.rt, "Next").Call(jen.Id("remaining"), jen.Lit(s.Limit))
		}
		args = append(args, jen.Id("budget"), next)
		return withTypes(jen.Id(s.Type.DepthFuncName()), e.typeList(s.TypeArgs)).Call(args...)
	case *Nilable:
		switch s.Kind {
		case load.KindPointer:
			return jen.Qual(e.rt, "PtrDepth").Call(jen.Id("remaining"), e.strategy(s.Elem))
		case load.KindSlice:
			return jen.Qual(e.rt, "SliceDepth").Call(jen.Id("remaining"), e.strategy(s.Elem))
		default:
			return jen.Qual(e.rt, "MapDepth").Call(jen.Id("remaining"), e.strategy(s.Key), e.strategy(s.Elem))
		}
	case *Expr:
		return exprCode(s.Source)
	case *Pattern:
		if s.Bytes {
			return jen.Qual(rapidPkg, "SliceOfBytesMatching").Call(jen.Lit(s.Regex))
		}
		return jen.Qual(rapidPkg, "StringMatching").Call(jen.Lit(s.Regex))
	case *Filtered:
		return e.strategy(s.Inner).Dot("Filter").Call(jen.Id(s.Pred))
	case *Record:
		return e.record(s)
	default:
		panic(fmt.Sprintf("gen: unexpected strategy %T", s))
	}
}

// typeCode renders a type expression.
func (e *emitter) typeCode(x *load.TypeExpr) *jen.Statement {
	switch x.Kind {
	case load.KindBasic, load.KindParam:
		return jen.Id(x.Name)
	case load.KindNamed:
		s := jen.Id(x.Name)
		if x.PkgPath != "" {
			s = jen.Qual(x.PkgPath, x.Name)
		}
		return withTypes(s, e.typeList(x.Args))
	case load.KindPointer:
		return jen.Op("*").Add(e.typeCode(x.Elem))
	case load.KindSlice:
		return jen.Index().Add(e.typeCode(x.Elem))
	case load.KindArray:
		return jen.Index(jen.Lit(int(x.Len))).Add(e.typeCode(x.Elem))
	case load.KindMap:
		return jen.Map(e.typeCode(x.Key)).Add(e.typeCode(x.Elem))
	case load.KindChan:
		return jen.Chan().Add(e.typeCode(x.Elem))
	default:
		return jen.Id(x.Source)
	}
}

func (e *emitter) typeList(xs []*load.TypeExpr) []jen.Code {
	cs := make([]jen.Code, len(xs))
	for i, x := range xs {
		cs[i] = e.typeCode(x)
	}
	return cs
}

// withTypes appends a type argument or parameter list, if any.
func withTypes(s *jen.Statement, types []jen.Code) *jen.Statement {
	if len(types) == 0 {
		return s
	}
	return s.Types(types...)
}

// exprCode renders a user expression, parenthesized unless it is an
// operand that can be followed by a selector.
func exprCode(src string) *jen.Statement {
	x, err := parser.ParseExpr(src)
	if err != nil {
		return jen.Parens(jen.Id(src))
	}
	switch x.(type) {
	case *ast.Ident, *ast.CallExpr, *ast.SelectorExpr, *ast.IndexExpr, *ast.IndexListExpr, *ast.ParenExpr, *ast.BasicLit, *ast.CompositeLit:
		return jen.Id(src)
	default:
		return jen.Parens(jen.Id(src))
	}
}
