// Package load turns Go packages into the declarations arbgen derives
// generators for.
package load

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/tools/go/packages"
)

// Config configures the loader.
type Config struct {
	// Patterns are the package patterns to load, e.g. "./...".
	Patterns []string
	// Dir is the directory patterns are resolved against.
	Dir string
	// Key is the directive prefix and struct tag key. Defaults to "arb".
	Key string
	// Types selects declarations by name in addition to the ones carrying
	// the derive directive.
	Types []string
	// Output is the generated file name. It is hidden from the type checker
	// so stale generated code does not break loading.
	Output string
	// BuildFlags are passed to the build system.
	BuildFlags []string
	// Logger receives warnings about directives that have no effect.
	Logger *slog.Logger
}

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedTypes |
	packages.NeedSyntax | packages.NeedTypesInfo | packages.NeedImports | packages.NeedDeps

// Load loads the packages matching the configured patterns and returns the
// declarations selected for derivation.
func (c *Config) Load(ctx context.Context) ([]*Package, error) {
	if len(c.Patterns) == 0 {
		return nil, errors.New("load: no package patterns")
	}
	key := c.Key
	if key == "" {
		key = "arb"
	}
	overlay, err := c.overlay(ctx)
	if err != nil {
		return nil, err
	}
	pkgs, err := packages.Load(&packages.Config{
		Context:    ctx,
		Mode:       loadMode,
		Dir:        c.Dir,
		BuildFlags: c.BuildFlags,
		Overlay:    overlay,
	}, c.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}
	var (
		out  []*Package
		errs []error
	)
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			for _, e := range pkg.Errors {
				errs = append(errs, e)
			}
			continue
		}
		l := &loader{pkg: pkg, key: key, types: c.Types, log: c.Logger, enums: make(map[*types.Named][]string)}
		if l.log == nil {
			l.log = slog.New(slog.DiscardHandler)
		}
		p, err := l.load()
		if err != nil {
			errs = append(errs, fmt.Errorf("package %s: %w", pkg.PkgPath, err))
			continue
		}
		out = append(out, p)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// overlay blanks out previously generated files of the matched packages.
func (c *Config) overlay(ctx context.Context) (map[string][]byte, error) {
	if c.Output == "" {
		return nil, nil
	}
	pkgs, err := packages.Load(&packages.Config{
		Context:    ctx,
		Mode:       packages.NeedName | packages.NeedFiles,
		Dir:        c.Dir,
		BuildFlags: c.BuildFlags,
	}, c.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}
	overlay := make(map[string][]byte)
	for _, pkg := range pkgs {
		for _, f := range pkg.GoFiles {
			if filepath.Base(f) != c.Output {
				continue
			}
			if _, err := os.Stat(f); err == nil {
				overlay[f] = []byte("package " + pkg.Name + "\n")
			}
		}
	}
	return overlay, nil
}

type loader struct {
	pkg      *packages.Package
	key      string
	types    []string
	log      *slog.Logger
	enums    map[*types.Named][]string
	specList []typeSpec
}

func (l *loader) load() (*Package, error) {
	p := &Package{
		Path: l.pkg.PkgPath,
		Name: l.pkg.Name,
	}
	if len(l.pkg.GoFiles) > 0 {
		p.Dir = filepath.Dir(l.pkg.GoFiles[0])
	}
	var skipped []typeSpec
	for _, spec := range l.specs() {
		if !l.selected(spec) {
			skipped = append(skipped, spec)
			continue
		}
		d, err := l.declaration(spec)
		if err != nil {
			return nil, err
		}
		p.Declarations = append(p.Declarations, d)
	}
	l.unused(p, skipped)
	return p, nil
}

// unused warns about directives on types that are neither derived nor a
// variant of a derived union. Types marked for derivation but left out by
// a type selection are not reported.
func (l *loader) unused(p *Package, skipped []typeSpec) {
	variants := make(map[string]bool)
	for _, d := range p.Declarations {
		for _, v := range d.Variants {
			variants[v.Name] = true
		}
	}
	for _, s := range skipped {
		ds := l.directives(s.doc)
		if variants[s.spec.Name.Name] || slices.ContainsFunc(ds, func(d *Directive) bool { return d.Text == l.key+":derive" }) {
			continue
		}
		for _, d := range ds {
			l.log.Warn("directive has no effect on a type that is not derived", "type", s.spec.Name.Name, "directive", d.Text, "pos", d.Pos)
		}
	}
}

type typeSpec struct {
	spec *ast.TypeSpec
	doc  *ast.CommentGroup
}

// specs returns the type specs of the package in source order.
func (l *loader) specs() []typeSpec {
	if l.specList != nil {
		return l.specList
	}
	specs := make([]typeSpec, 0)
	for _, f := range l.pkg.Syntax {
		for _, decl := range f.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, s := range gd.Specs {
				ts := s.(*ast.TypeSpec)
				doc := ts.Doc
				if doc == nil && len(gd.Specs) == 1 {
					doc = gd.Doc
				}
				specs = append(specs, typeSpec{spec: ts, doc: doc})
			}
		}
	}
	slices.SortStableFunc(specs, func(a, b typeSpec) int {
		return l.position(a.spec.Pos()).compare(l.position(b.spec.Pos()))
	})
	l.specList = specs
	return specs
}

func (l *loader) selected(s typeSpec) bool {
	if slices.Contains(l.types, s.spec.Name.Name) {
		return true
	}
	for _, d := range l.directives(s.doc) {
		if d.Text == l.key+":derive" {
			return true
		}
	}
	return false
}

// directives returns the comment lines of the form //<key>:<name> [payload].
func (l *loader) directives(doc *ast.CommentGroup) []*Directive {
	if doc == nil {
		return nil
	}
	var ds []*Directive
	for _, c := range doc.List {
		text, ok := strings.CutPrefix(c.Text, "//")
		if !ok || !strings.HasPrefix(text, l.key+":") {
			continue
		}
		ds = append(ds, &Directive{
			Text: strings.TrimSpace(text),
			Pos:  l.fset().Position(c.Pos()).String(),
		})
	}
	return ds
}

func (l *loader) declaration(s typeSpec) (*Declaration, error) {
	obj, ok := l.pkg.Types.Scope().Lookup(s.spec.Name.Name).(*types.TypeName)
	if !ok {
		return nil, fmt.Errorf("type %s: not found in package scope", s.spec.Name.Name)
	}
	d := &Declaration{
		Name:       obj.Name(),
		Pos:        l.fset().Position(s.spec.Pos()).String(),
		Directives: l.directives(s.doc),
	}
	named, ok := obj.Type().(*types.Named)
	if !ok || obj.IsAlias() {
		d.Kind = l.typeExpr(types.Unalias(obj.Type())).Kind
		return d, nil
	}
	d.TypeParams = l.typeParams(named.TypeParams())
	switch u := named.Underlying().(type) {
	case *types.Struct:
		d.Kind = KindStruct
		d.Fields = l.fields(u)
	case *types.Interface:
		d.Kind = KindInterface
		d.EmptyInterface = u.Empty()
		d.Variants = l.variants(named, u)
	default:
		d.Kind = l.typeExpr(u).Kind
	}
	return d, nil
}

func (l *loader) typeParams(list *types.TypeParamList) []*TypeParam {
	if list.Len() == 0 {
		return nil
	}
	tps := make([]*TypeParam, list.Len())
	for i := range list.Len() {
		tp := list.At(i)
		tps[i] = &TypeParam{
			Name:       tp.Obj().Name(),
			Constraint: l.typeExpr(tp.Constraint()),
		}
	}
	return tps
}

func (l *loader) fields(st *types.Struct) []*Field {
	fields := make([]*Field, st.NumFields())
	for i := range st.NumFields() {
		v := st.Field(i)
		fields[i] = &Field{
			Name:     v.Name(),
			Index:    i,
			Embedded: v.Embedded(),
			Exported: v.Exported(),
			Type:     l.typeExpr(v.Type()),
			Tag:      st.Tag(i),
			Pos:      l.fset().Position(v.Pos()).String(),
		}
	}
	return fields
}

// variants returns the struct types of the package implementing iface, in
// source order.
func (l *loader) variants(union *types.Named, iface *types.Interface) []*Variant {
	var vs []*Variant
	for _, s := range l.specs() {
		obj, ok := l.pkg.Types.Scope().Lookup(s.spec.Name.Name).(*types.TypeName)
		if !ok || obj.IsAlias() || obj == union.Obj() {
			continue
		}
		named, ok := obj.Type().(*types.Named)
		if !ok {
			continue
		}
		st, ok := named.Underlying().(*types.Struct)
		if !ok {
			continue
		}
		pointer, ok := implements(named, union, iface)
		if !ok {
			continue
		}
		vs = append(vs, &Variant{
			Name:       obj.Name(),
			Pos:        l.fset().Position(s.spec.Pos()).String(),
			Pointer:    pointer,
			TypeParams: l.typeParams(named.TypeParams()),
			Directives: l.directives(s.doc),
			Fields:     l.fields(st),
		})
	}
	return vs
}

// implements reports whether the value or pointer type of v implements the
// union interface. Generic variants are instantiated with the type
// parameters of the union.
func implements(v, union *types.Named, iface *types.Interface) (pointer, ok bool) {
	var t types.Type = v
	if n := v.TypeParams().Len(); n > 0 || union.TypeParams().Len() > 0 {
		if n != union.TypeParams().Len() {
			return false, false
		}
		args := make([]types.Type, n)
		for i := range n {
			args[i] = union.TypeParams().At(i)
		}
		inst, err := types.Instantiate(nil, v, args, false)
		if err != nil {
			return false, false
		}
		t = inst
	}
	if types.Implements(t, iface) {
		return false, true
	}
	if types.Implements(types.NewPointer(t), iface) {
		return true, true
	}
	return false, false
}

func (l *loader) fset() *token.FileSet {
	return l.pkg.Fset
}

type position struct {
	file string
	off  int
}

func (l *loader) position(p token.Pos) position {
	pos := l.fset().Position(p)
	return position{file: pos.Filename, off: pos.Offset}
}

func (p position) compare(o position) int {
	if c := strings.Compare(p.file, o.file); c != 0 {
		return c
	}
	return p.off - o.off
}
