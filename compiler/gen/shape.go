package gen

import (
	"fmt"
	"slices"

	"github.com/syssam/arbgen/compiler/load"
)

// NewType creates a type from a loaded declaration. It interprets the
// directives of the declaration and its fields and classifies its shape.
func NewType(c *Config, pkgPath string, d *load.Declaration) (*Type, error) {
	if err := ValidTypeName(d.Name); err != nil {
		return nil, NewShapeError(d.Name, string(d.Kind), err.Error())
	}
	in := newInterpreter(c.tagKey(), c.logger())
	dirs, err := in.item(d.Name, d.Directives)
	if err != nil {
		return nil, err
	}
	t := &Type{
		Config:     c,
		Name:       d.Name,
		PkgPath:    pkgPath,
		Pos:        d.Pos,
		Directives: dirs,
		Budget:     c.depth(),
	}
	if n, ok := dirs.Depth(); ok {
		t.Budget = n
	}
	for _, tp := range d.TypeParams {
		if err := validParamName(tp.Name); err != nil {
			return nil, NewBoundError(t.Name, tp.Name, err.Error())
		}
		t.TypeParams = append(t.TypeParams, &TypeParam{Name: tp.Name, Constraint: tp.Constraint})
	}
	for _, name := range dirs.NoBound() {
		tp, ok := t.Param(name)
		if !ok {
			return nil, NewBoundError(t.Name, name, "nobound names an unknown type parameter")
		}
		tp.NoBound = true
	}
	switch d.Kind {
	case load.KindStruct:
		if dirs.Has(DirVariants) {
			return nil, NewDirectiveError(t.Name, DirVariants.String(), t.Pos, "variants requires an interface type", nil)
		}
		t.Shape = ShapeRecord
		if t.Fields, err = newFields(in, t.Name, d.Fields, nil); err != nil {
			return nil, err
		}
	case load.KindInterface:
		t.Shape = ShapeUnion
		if err := t.setVariants(in, d); err != nil {
			return nil, err
		}
	default:
		return nil, NewShapeError(t.Name, string(d.Kind), "only struct and interface types can be derived")
	}
	return t, nil
}

// setVariants resolves the variants of a union, either in source order or
// in the order of an explicit variants directive.
func (t *Type) setVariants(in *interpreter, d *load.Declaration) error {
	vs := d.Variants
	names, explicit := t.Directives.Variants()
	switch {
	case explicit:
		byName := make(map[string]*load.Variant, len(vs))
		for _, v := range vs {
			byName[v.Name] = v
		}
		vs = make([]*load.Variant, 0, len(names))
		for i, name := range names {
			v, ok := byName[name]
			if !ok {
				return NewDirectiveError(t.Name, DirVariants.String(), t.Pos, fmt.Sprintf("%s is not a struct type implementing %s", name, t.Name), nil)
			}
			if slices.Contains(names[:i], name) {
				return NewDirectiveError(t.Name, DirVariants.String(), t.Pos, fmt.Sprintf("%s is listed twice", name), nil)
			}
			vs = append(vs, v)
		}
	case d.EmptyInterface:
		return NewShapeError(t.Name, string(load.KindInterface), "interface without methods needs a variants directive")
	}
	if len(vs) == 0 {
		return NewShapeError(t.Name, string(load.KindInterface), "no struct type of the package implements the interface")
	}
	total := 0
	for _, v := range vs {
		item := t.Name + "." + v.Name
		dirs, err := in.item(item, v.Directives)
		if err != nil {
			return err
		}
		rename := make(map[string]string, len(v.TypeParams))
		for i, tp := range v.TypeParams {
			if i < len(t.TypeParams) {
				rename[tp.Name] = t.TypeParams[i].Name
			}
		}
		fields, err := newFields(in, item, v.Fields, rename)
		if err != nil {
			return err
		}
		variant := &Variant{
			Name:       v.Name,
			Pos:        v.Pos,
			Type:       &load.TypeExpr{Kind: load.KindNamed, Name: v.Name, PkgPath: t.PkgPath, Args: t.SelfType().Args},
			Pointer:    v.Pointer,
			Weight:     1,
			Directives: dirs,
			Fields:     fields,
		}
		if w, ok := dirs.Weight(); ok {
			variant.Weight = w
		}
		total += variant.Weight
		t.Variants = append(t.Variants, variant)
	}
	if total == 0 {
		return NewDirectiveError(t.Name, DirWeight.String(), t.Pos, "every variant has weight 0", nil)
	}
	return nil
}

func newFields(in *interpreter, owner string, fs []*load.Field, rename map[string]string) ([]*Field, error) {
	fields := make([]*Field, 0, len(fs))
	for _, f := range fs {
		if f.Name == "_" {
			continue
		}
		dirs, err := in.field(owner+"."+f.Name, f)
		if err != nil {
			return nil, err
		}
		fields = append(fields, &Field{
			Name:       f.Name,
			Index:      f.Index,
			Embedded:   f.Embedded,
			Type:       substitute(f.Type, rename),
			Pos:        f.Pos,
			Directives: dirs,
			owner:      owner,
		})
	}
	return fields, nil
}

// substitute returns a copy of e with type parameters renamed.
func substitute(e *load.TypeExpr, rename map[string]string) *load.TypeExpr {
	if e == nil || len(rename) == 0 {
		return e
	}
	c := *e
	if c.Kind == load.KindParam {
		if name, ok := rename[c.Name]; ok {
			c.Name = name
		}
	}
	c.Elem = substitute(e.Elem, rename)
	c.Key = substitute(e.Key, rename)
	if len(e.Args) > 0 {
		c.Args = make([]*load.TypeExpr, len(e.Args))
		for i, a := range e.Args {
			c.Args[i] = substitute(a, rename)
		}
	}
	return &c
}

// analyze records where the type parameters of every type are used by
// fields whose generator is derived from their type.
func (g *Graph) analyze() {
	type frame struct {
		e   *load.TypeExpr
		pos Position
		via []Argument
	}
	for _, t := range g.Nodes {
		for _, f := range t.AllFields() {
			if !f.Derived() {
				continue
			}
			stack := []frame{{e: f.Type, pos: PosDirect}}
			for len(stack) > 0 {
				fr := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				e := fr.e
				switch e.Kind {
				case load.KindParam:
					tp, ok := t.Param(e.Name)
					if !ok {
						continue
					}
					pos := fr.pos
					if len(fr.via) > 0 {
						pos = PosArgument
					}
					tp.Usages = append(tp.Usages, &Usage{Param: tp, Field: f, Position: pos, Via: fr.via})
				case load.KindPointer:
					stack = append(stack, frame{e: e.Elem, pos: max(fr.pos, PosReference), via: fr.via})
				case load.KindSlice, load.KindArray:
					stack = append(stack, frame{e: e.Elem, pos: max(fr.pos, PosContainer), via: fr.via})
				case load.KindMap:
					stack = append(stack,
						frame{e: e.Key, pos: max(fr.pos, PosContainer), via: fr.via},
						frame{e: e.Elem, pos: max(fr.pos, PosContainer), via: fr.via},
					)
				case load.KindNamed:
					if callee := g.lookup(e); callee != nil {
						for i, a := range e.Args {
							if i >= len(callee.TypeParams) {
								break
							}
							via := append(slices.Clip(fr.via), Argument{Type: callee, Index: i})
							stack = append(stack, frame{e: a, pos: fr.pos, via: via})
						}
						continue
					}
					if ref := e.Generator; ref != nil {
						for _, i := range ref.Bound {
							if i < len(e.Args) {
								stack = append(stack, frame{e: e.Args[i], pos: fr.pos, via: fr.via})
							}
						}
					}
				}
			}
		}
	}
}
