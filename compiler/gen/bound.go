package gen

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"

	"github.com/syssam/arbgen/compiler/load"
)

// propagate decides which type parameters take a generator argument and
// which must be comparable. Both flags only ever go from false to true, so
// the iteration reaches a fixpoint after at most two passes per flag and
// parameter.
func (g *Graph) propagate() error {
	for changed := true; changed; {
		changed = false
		for _, t := range g.Nodes {
			for _, tp := range t.TypeParams {
				if tp.NoBound {
					continue
				}
				for _, u := range tp.Usages {
					if !u.active() {
						continue
					}
					if !tp.Generator {
						tp.Generator = true
						changed = true
					}
					if !tp.Comparable && !tp.declaredComparable() && u.needsComparable() {
						tp.Comparable = true
						changed = true
					}
				}
			}
		}
	}
	var errs []error
	for _, t := range g.Nodes {
		if err := g.checkArguments(t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// active reports whether the usage requires a generator: every derived
// type it is passed to must take a generator for the argument.
func (u *Usage) active() bool {
	for _, a := range u.Via {
		if !a.Type.TypeParams[a.Index].Generator {
			return false
		}
	}
	return true
}

// needsComparable reports whether the usage requires equality, either
// through a filter on the field or because the argument it is passed to
// was escalated.
//
// A filter given as a function literal escalates only when its body
// compares values, switches on a value or calls another function. Named
// predicates cannot be inspected and always escalate; annotate the type
// with nobound to keep such a parameter unconstrained.
func (u *Usage) needsComparable() bool {
	if pred, ok := u.Field.Directives.Filter(); ok && filterNeedsEquality(pred) {
		return true
	}
	if n := len(u.Via); n > 0 {
		a := u.Via[n-1]
		return a.Type.TypeParams[a.Index].Comparable
	}
	return false
}

func filterNeedsEquality(pred string) bool {
	x, err := parser.ParseExpr(pred)
	if err != nil {
		return true
	}
	lit, ok := x.(*ast.FuncLit)
	if !ok {
		return true
	}
	needs := false
	ast.Inspect(lit.Body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.BinaryExpr:
			needs = needs || n.Op == token.EQL || n.Op == token.NEQ
		case *ast.SwitchStmt:
			needs = needs || n.Tag != nil
		case *ast.CallExpr:
			needs = true
		}
		return !needs
	})
	return needs
}

// checkArguments rejects type arguments that cannot satisfy an escalated
// comparable constraint of a derived type.
func (g *Graph) checkArguments(t *Type) error {
	for _, f := range t.AllFields() {
		if !f.Derived() {
			continue
		}
		stack := []*load.TypeExpr{f.Type}
		for len(stack) > 0 {
			e := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if e == nil {
				continue
			}
			if callee := g.lookup(e); callee != nil {
				for i, a := range e.Args {
					if i < len(callee.TypeParams) && callee.TypeParams[i].Comparable && !comparableKind(a) {
						return NewBoundError(callee.Name, callee.TypeParams[i].Name,
							fmt.Sprintf("field %s instantiates it with %s, which is not comparable", f.Item(), a))
					}
				}
			}
			stack = append(stack, e.Elem, e.Key)
			stack = append(stack, e.Args...)
		}
	}
	return nil
}

func comparableKind(e *load.TypeExpr) bool {
	switch e.Kind {
	case load.KindSlice, load.KindMap, load.KindFunc:
		return false
	case load.KindNamed:
		switch e.Underlying {
		case load.KindSlice, load.KindMap, load.KindFunc:
			return false
		}
	}
	return true
}
