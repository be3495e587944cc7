// Package symtab provides the shared variable bookkeeping the Unifier
// and Find Resolver need: a monotone variable->position allocator (used
// to assign the integer positions the external plan contract requires)
// plus a handful of small set operations over ordered variable lists.
package symtab

import "github.com/janusql/compiler/ir"

// Table assigns each distinct variable a stable, monotonically
// increasing position, in first-seen order. Positions are never
// reassigned once given.
type Table struct {
	order []ir.Variable
	index map[ir.Variable]int
}

// New creates an empty Table.
func New() *Table {
	return &Table{index: make(map[ir.Variable]int)}
}

// Register assigns v a position if it doesn't already have one, and
// returns its (possibly pre-existing) position.
func (t *Table) Register(v ir.Variable) int {
	if pos, ok := t.index[v]; ok {
		return pos
	}
	pos := len(t.order)
	t.order = append(t.order, v)
	t.index[v] = pos
	return pos
}

// RegisterAll registers every variable in vs, in order.
func (t *Table) RegisterAll(vs []ir.Variable) {
	for _, v := range vs {
		t.Register(v)
	}
}

// Position returns v's assigned position, if any.
func (t *Table) Position(v ir.Variable) (int, bool) {
	pos, ok := t.index[v]
	return pos, ok
}

// Resolve returns v's position, assuming it has already been
// registered. It is a programmer error to call this on an unregistered
// variable; callers that cannot guarantee this should use Position.
func (t *Table) Resolve(v ir.Variable) int {
	pos, ok := t.index[v]
	if !ok {
		panic("symtab: unresolved variable " + string(v))
	}
	return pos
}

// ResolveAll resolves each variable in vs to its position, in order.
func (t *Table) ResolveAll(vs []ir.Variable) []int {
	out := make([]int, len(vs))
	for i, v := range vs {
		out[i] = t.Resolve(v)
	}
	return out
}

// Dedup returns vs with duplicates removed, preserving first-seen
// order.
func Dedup(vs []ir.Variable) []ir.Variable {
	seen := make(map[ir.Variable]bool, len(vs))
	out := make([]ir.Variable, 0, len(vs))
	for _, v := range vs {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// Contains reports whether v appears in vs.
func Contains(vs []ir.Variable, v ir.Variable) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}

// Subset reports whether every element of a appears in b.
func Subset(a, b []ir.Variable) bool {
	for _, v := range a {
		if !Contains(b, v) {
			return false
		}
	}
	return true
}

// SetEqual reports whether a and b contain the same variables,
// ignoring order and duplicates.
func SetEqual(a, b []ir.Variable) bool {
	return Subset(a, b) && Subset(b, a)
}

// Intersect returns the variables common to both a and b, in a's order.
func Intersect(a, b []ir.Variable) []ir.Variable {
	var out []ir.Variable
	for _, v := range a {
		if Contains(b, v) && !Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// Diff returns the variables of a that do not appear in b, in a's
// order, deduplicated.
func Diff(a, b []ir.Variable) []ir.Variable {
	var out []ir.Variable
	for _, v := range a {
		if !Contains(b, v) && !Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// Union returns the concatenation of a and b with duplicates removed,
// a's elements first.
func Union(a, b []ir.Variable) []ir.Variable {
	return Dedup(append(append([]ir.Variable{}, a...), b...))
}
