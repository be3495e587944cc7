// Package unify implements the Unifier stage (spec §4.4), the heart of
// the compiler: it maintains a set of partial Relations and folds each
// incoming clause into them via Join, Antijoin, or Union, selected by
// the most-specific shared logical context.
package unify

import (
	"fmt"

	"github.com/janusql/compiler/ir"
	"github.com/janusql/compiler/normalize"
	"github.com/janusql/compiler/plan"
)

// Relation is a partial plan covering some variables, tagged with the
// nested logical context that produced it. Combining two Relations
// produces a brand new Relation; the originals are discarded (spec §3
// lifecycle — no shared mutable graphs).
type Relation struct {
	Tag     normalize.Tag
	Symbols []ir.Variable
	Negated bool
	Deps    []ir.Variable
	Plan    plan.Node
}

func (r Relation) String() string {
	neg := ""
	if r.Negated {
		neg = "¬"
	}
	return fmt.Sprintf("%s%v@%s -> %s", neg, r.Symbols, r.Tag, r.Plan)
}

func isUnionPlan(n plan.Node) (plan.Union, bool) {
	u, ok := n.(plan.Union)
	return u, ok
}
