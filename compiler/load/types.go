package load

import (
	"go/types"
	"slices"

	"golang.org/x/tools/go/packages"
)

const rapidPath = "pgregory.net/rapid"

// typeExpr converts a checked type into a TypeExpr. Named types are not
// expanded, so the conversion always terminates.
func (l *loader) typeExpr(t types.Type) *TypeExpr {
	switch t := t.(type) {
	case *types.Alias:
		return l.typeExpr(types.Unalias(t))
	case *types.Basic:
		return &TypeExpr{Kind: KindBasic, Name: t.Name()}
	case *types.TypeParam:
		return &TypeExpr{Kind: KindParam, Name: t.Obj().Name()}
	case *types.Named:
		return l.named(t)
	case *types.Pointer:
		return &TypeExpr{Kind: KindPointer, Elem: l.typeExpr(t.Elem())}
	case *types.Slice:
		return &TypeExpr{Kind: KindSlice, Elem: l.typeExpr(t.Elem())}
	case *types.Array:
		return &TypeExpr{Kind: KindArray, Len: t.Len(), Elem: l.typeExpr(t.Elem())}
	case *types.Map:
		return &TypeExpr{Kind: KindMap, Key: l.typeExpr(t.Key()), Elem: l.typeExpr(t.Elem())}
	case *types.Chan:
		return &TypeExpr{Kind: KindChan, Elem: l.typeExpr(t.Elem())}
	case *types.Signature:
		return &TypeExpr{Kind: KindFunc, Source: l.typeString(t)}
	case *types.Interface:
		if t.Empty() {
			return &TypeExpr{Kind: KindInterface, Source: "any"}
		}
		return &TypeExpr{Kind: KindInterface, Source: l.typeString(t)}
	case *types.Struct:
		return &TypeExpr{Kind: KindStruct, Source: l.typeString(t), Makeable: makeable(t, nil)}
	default:
		return &TypeExpr{Kind: KindInterface, Source: l.typeString(t)}
	}
}

func (l *loader) named(t *types.Named) *TypeExpr {
	obj := t.Obj()
	e := &TypeExpr{Kind: KindNamed, Name: obj.Name()}
	if obj.Pkg() != nil {
		e.PkgPath = obj.Pkg().Path()
	}
	if args := t.TypeArgs(); args.Len() > 0 {
		e.Args = make([]*TypeExpr, args.Len())
		for i := range args.Len() {
			e.Args[i] = l.typeExpr(args.At(i))
		}
	}
	switch u := t.Underlying().(type) {
	case *types.Basic:
		e.Underlying = KindBasic
		e.Basic = u.Name()
		e.Enum = l.enum(t)
	case *types.Struct:
		e.Underlying = KindStruct
	case *types.Interface:
		e.Underlying = KindInterface
	case *types.Pointer:
		e.Underlying = KindPointer
	case *types.Slice:
		e.Underlying = KindSlice
	case *types.Array:
		e.Underlying = KindArray
	case *types.Map:
		e.Underlying = KindMap
	case *types.Chan:
		e.Underlying = KindChan
	case *types.Signature:
		e.Underlying = KindFunc
	}
	e.Makeable = makeable(t, nil)
	if obj.Pkg() != nil && obj.Pkg() != l.pkg.Types {
		e.Generator = generatorRef(obj)
	}
	return e
}

// enum returns the constants declared with the named type t, in source
// order. Constants of other packages are only visible when exported.
func (l *loader) enum(t *types.Named) []string {
	origin := t.Origin()
	if names, ok := l.enums[origin]; ok {
		return names
	}
	pkg := origin.Obj().Pkg()
	if pkg == nil {
		return nil
	}
	var consts []*types.Const
	scope := pkg.Scope()
	for _, name := range scope.Names() {
		c, ok := scope.Lookup(name).(*types.Const)
		if !ok || !types.Identical(c.Type(), origin) {
			continue
		}
		if pkg != l.pkg.Types && !c.Exported() {
			continue
		}
		consts = append(consts, c)
	}
	slices.SortFunc(consts, func(a, b *types.Const) int {
		return int(a.Pos() - b.Pos())
	})
	var names []string
	for _, c := range consts {
		names = append(names, c.Name())
	}
	l.enums[origin] = names
	return names
}

// generatorRef looks up an Arbitrary<Name> function next to obj. Every
// parameter of the function must be a *rapid.Generator of one of its type
// parameters; Bound lists those type parameters in parameter order.
func generatorRef(obj *types.TypeName) *GeneratorRef {
	fn, ok := obj.Pkg().Scope().Lookup("Arbitrary" + obj.Name()).(*types.Func)
	if !ok {
		return nil
	}
	sig := fn.Type().(*types.Signature)
	ref := &GeneratorRef{Func: fn.Name(), PkgPath: obj.Pkg().Path()}
	tps := sig.TypeParams()
	for j := range sig.Params().Len() {
		elem := generatorElem(sig.Params().At(j).Type())
		i := slices.IndexFunc(typeParams(tps), func(tp *types.TypeParam) bool {
			return elem != nil && types.Identical(elem, tp)
		})
		if i < 0 {
			return nil
		}
		ref.Bound = append(ref.Bound, i)
	}
	return ref
}

// generatorElem returns T for *rapid.Generator[T] and nil for any other type.
func generatorElem(t types.Type) types.Type {
	ptr, ok := types.Unalias(t).(*types.Pointer)
	if !ok {
		return nil
	}
	named, ok := types.Unalias(ptr.Elem()).(*types.Named)
	if !ok || named.Obj().Pkg() == nil || named.Obj().Pkg().Path() != rapidPath || named.Obj().Name() != "Generator" {
		return nil
	}
	if args := named.TypeArgs(); args.Len() == 1 {
		return args.At(0)
	}
	return nil
}

func typeParams(list *types.TypeParamList) []*types.TypeParam {
	tps := make([]*types.TypeParam, list.Len())
	for i := range list.Len() {
		tps[i] = list.At(i)
	}
	return tps
}

// makeable reports whether rapid.Make can build values of t through
// reflection: every reachable struct field must be exported and no
// interface, func, chan or unsafe pointer may appear.
func makeable(t types.Type, seen map[*types.Named]bool) bool {
	switch t := t.(type) {
	case *types.Alias:
		return makeable(types.Unalias(t), seen)
	case *types.Basic:
		switch t.Kind() {
		case types.UnsafePointer, types.Complex64, types.Complex128, types.Invalid:
			return false
		}
		return t.Info()&types.IsUntyped == 0
	case *types.Named:
		origin := t.Origin()
		if seen[origin] {
			return false
		}
		if seen == nil {
			seen = make(map[*types.Named]bool)
		}
		seen[origin] = true
		defer delete(seen, origin)
		return makeable(t.Underlying(), seen)
	case *types.Pointer:
		return makeable(t.Elem(), seen)
	case *types.Slice:
		return makeable(t.Elem(), seen)
	case *types.Array:
		return makeable(t.Elem(), seen)
	case *types.Map:
		return makeable(t.Key(), seen) && makeable(t.Elem(), seen)
	case *types.Struct:
		for i := range t.NumFields() {
			f := t.Field(i)
			if !f.Exported() || !makeable(f.Type(), seen) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (l *loader) typeString(t types.Type) string {
	return types.TypeString(t, qualifier(l.pkg))
}

func qualifier(pkg *packages.Package) types.Qualifier {
	return func(other *types.Package) string {
		if other == pkg.Types {
			return ""
		}
		return other.Name()
	}
}
