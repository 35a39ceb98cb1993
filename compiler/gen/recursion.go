package gen

import (
	"errors"
	"slices"

	"github.com/syssam/arbgen/compiler/load"
)

// edge is a reference from a field of one type to another type of the
// graph. A mandatory edge reaches the target by value or through arrays, so
// generating the field always generates the target.
type edge struct {
	from, to  int
	field     *Field
	mandatory bool
}

// edges returns the outgoing edges of every type, indexed by arena position.
func (g *Graph) edges() [][]edge {
	type frame struct {
		e         *load.TypeExpr
		mandatory bool
	}
	adj := make([][]edge, len(g.Nodes))
	for _, t := range g.Nodes {
		for _, f := range t.AllFields() {
			if !f.Derived() {
				continue
			}
			stack := []frame{{e: f.Type, mandatory: true}}
			for len(stack) > 0 {
				fr := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				e := fr.e
				switch e.Kind {
				case load.KindPointer, load.KindSlice:
					stack = append(stack, frame{e: e.Elem})
				case load.KindMap:
					stack = append(stack, frame{e: e.Key}, frame{e: e.Elem})
				case load.KindArray:
					stack = append(stack, frame{e: e.Elem, mandatory: fr.mandatory && e.Len > 0})
				case load.KindNamed:
					if callee := g.lookup(e); callee != nil {
						adj[t.index] = append(adj[t.index], edge{from: t.index, to: callee.index, field: f, mandatory: fr.mandatory})
					}
					for _, a := range e.Args {
						stack = append(stack, frame{e: a, mandatory: fr.mandatory})
					}
				}
			}
		}
	}
	return adj
}

// components computes the strongly connected components of the graph with
// an iterative version of Tarjan's algorithm. It returns the component id of
// every type.
func components(adj [][]edge) []int {
	n := len(adj)
	var (
		index   = make([]int, n) // 0 means unvisited
		low     = make([]int, n)
		onStack = make([]bool, n)
		comp    = make([]int, n)
		stack   []int
		next    = 1
		count   int
	)
	type frame struct{ v, e int }
	visit := func(v int) {
		index[v], low[v] = next, next
		next++
		stack = append(stack, v)
		onStack[v] = true
	}
	for root := range n {
		if index[root] != 0 {
			continue
		}
		visit(root)
		work := []frame{{v: root}}
		for len(work) > 0 {
			top := &work[len(work)-1]
			v := top.v
			if top.e < len(adj[v]) {
				w := adj[v][top.e].to
				top.e++
				switch {
				case index[w] == 0:
					visit(w)
					work = append(work, frame{v: w})
				case onStack[w]:
					low[v] = min(low[v], index[w])
				}
				continue
			}
			work = work[:len(work)-1]
			if len(work) > 0 {
				p := work[len(work)-1].v
				low[p] = min(low[p], low[v])
			}
			if low[v] != index[v] {
				continue
			}
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp[w] = count
				if w == v {
					break
				}
			}
			count++
		}
	}
	return comp
}

// guard marks recursive types, recursive fields and base variants, and
// rejects recursive unions that cannot terminate.
//
// A type terminates once every mandatory edge into its own cycle reaches a
// type that terminates; a union needs one positive-weight variant with that
// property. The rank of a type is the round of the fixpoint in which it
// starts to terminate. A variant is a base variant when its mandatory edges
// only reach types of a lower rank than its union, so choosing base
// variants at exhausted depth always reaches nil pointers, slices and maps
// in a bounded number of steps.
func (g *Graph) guard() error {
	adj := g.edges()
	comp := components(adj)
	members := make(map[int][]string)
	for _, t := range g.Nodes {
		t.scc = comp[t.index]
		members[t.scc] = append(members[t.scc], t.Name)
	}
	// targets are the mandatory edges of every field into its own cycle.
	targets := make(map[*Field][]int)
	for _, t := range g.Nodes {
		for _, e := range adj[t.index] {
			if comp[e.to] != t.scc {
				continue
			}
			t.Recursive = true
			e.field.Recursive = true
			if e.mandatory {
				targets[e.field] = append(targets[e.field], e.to)
			}
		}
	}
	rank := terminationRanks(g.Nodes, targets)
	var errs []error
	for _, t := range g.Nodes {
		if !t.IsUnion() {
			continue
		}
		for _, v := range t.Variants {
			v.Base = reaches(v.Fields, targets, func(to int) bool {
				return rank[to] != 0 && (rank[t.index] == 0 || rank[to] < rank[t.index])
			})
		}
		if t.Recursive && rank[t.index] == 0 {
			cycle := slices.Clone(members[t.scc])
			cycle = append(cycle, cycle[0])
			errs = append(errs, NewRecursionError(t.Name, cycle, "no variant with a positive weight terminates the recursion"))
		}
	}
	return errors.Join(errs...)
}

// terminationRanks computes the least fixpoint of termination in rounds.
// A rank of 0 means the type never terminates.
func terminationRanks(nodes []*Type, targets map[*Field][]int) []int {
	rank := make([]int, len(nodes))
	for round := 1; ; round++ {
		done := func(to int) bool { return rank[to] != 0 }
		var next []int
		for _, t := range nodes {
			if rank[t.index] != 0 {
				continue
			}
			ok := !t.IsUnion() && reaches(t.Fields, targets, done)
			for _, v := range t.Variants {
				ok = ok || v.Weight > 0 && reaches(v.Fields, targets, done)
			}
			if ok {
				next = append(next, t.index)
			}
		}
		if len(next) == 0 {
			return rank
		}
		for _, i := range next {
			rank[i] = round
		}
	}
}

// reaches reports whether every mandatory cycle edge of fields satisfies ok.
func reaches(fields []*Field, targets map[*Field][]int, ok func(int) bool) bool {
	for _, f := range fields {
		for _, to := range targets[f] {
			if !ok(to) {
				return false
			}
		}
	}
	return true
}

// sameCycle reports whether e refers, possibly through containers and
// generic arguments, to a type in the cycle of t.
func (g *Graph) sameCycle(t *Type, e *load.TypeExpr) bool {
	if !t.Recursive {
		return false
	}
	stack := []*load.TypeExpr{e}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if e == nil {
			continue
		}
		if callee := g.lookup(e); callee != nil && callee.scc == t.scc {
			return true
		}
		stack = append(stack, e.Elem, e.Key)
		stack = append(stack, e.Args...)
	}
	return false
}
