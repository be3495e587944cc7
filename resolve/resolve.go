// Package resolve implements the Find Resolver stage (spec §4.5): once
// the Unifier has folded every where-clause into a set of Relations,
// this package locates the single relation that binds all of the
// query's :find symbols and produces the final plan node.
package resolve

import (
	"fmt"

	"github.com/janusql/compiler/compileerr"
	"github.com/janusql/compiler/ir"
	"github.com/janusql/compiler/plan"
	"github.com/janusql/compiler/unify"
)

// supportedAggregates lists the aggregate functions this resolver can
// lower to a plan.Aggregate node. Spec §4.5 restricts v1 to `min`.
var supportedAggregates = map[string]bool{"min": true}

// knownAggregateNames is the wider vocabulary this resolver recognizes
// by name but does not lower (SPEC_FULL.md
// §4's supplemented aggregate registry) — distinguishing "not
// implemented yet" from "not a real aggregate at all" in the error.
var knownAggregateNames = map[string]bool{
	"min": true, "max": true, "count": true, "sum": true, "avg": true,
}

// Resolve locates the plan node whose output is exactly the query's
// :find elements, in order. hoisted is the Normalizer's hoisted-constant
// map; a constant aggregate argument gets folded into it the same way a
// predicate's constant argument is, so it still reaches the compiled
// query's Inputs.
func Resolve(ctx *unify.Context, find []ir.FindElement, hoisted map[ir.Variable]ir.Value) (plan.Node, error) {
	if len(find) == 1 {
		if agg, ok := find[0].(ir.FindAggregate); ok {
			return resolveAggregate(ctx, agg, hoisted)
		}
	}

	vars := make([]ir.Variable, 0, len(find))
	for _, el := range find {
		fv, ok := el.(ir.FindVar)
		if !ok {
			return nil, fmt.Errorf("resolve: aggregates cannot be mixed with plain :find variables")
		}
		vars = append(vars, fv.Symbol)
	}

	idxs := ctx.RelationsBinding(vars)
	if len(idxs) != 1 {
		return nil, findUnboundErr(vars, idxs)
	}
	rel := ctx.Relations[idxs[0]]
	if sameOrder(rel.Symbols, vars) {
		return rel.Plan, nil
	}
	return plan.Project{Child: rel.Plan, Positions: ctx.Symbols.ResolveAll(vars)}, nil
}

func resolveAggregate(ctx *unify.Context, agg ir.FindAggregate, hoisted map[ir.Variable]ir.Value) (plan.Node, error) {
	if !supportedAggregates[agg.Func] {
		if knownAggregateNames[agg.Func] {
			return nil, compileerr.New(compileerr.KindAggregateUnbound,
				fmt.Sprintf("aggregate %q is recognized but has no plan lowering yet", agg.Func),
				compileerr.F("func", agg.Func))
		}
		return nil, compileerr.New(compileerr.KindAggregateUnbound,
			"unknown aggregate function", compileerr.F("func", agg.Func))
	}

	vars := resolveAggregateArgs(ctx, agg.Args, hoisted)

	var localVars []ir.Variable
	for _, v := range vars {
		if !ctx.Inputs[v] {
			localVars = append(localVars, v)
		}
	}

	idxs := ctx.RelationsBinding(localVars)
	if len(idxs) != 1 {
		return nil, compileerr.New(compileerr.KindAggregateUnbound,
			"no single relation binds this aggregate's arguments",
			compileerr.F("func", agg.Func), compileerr.F("args", vars))
	}
	rel := ctx.Relations[idxs[0]]
	return plan.Aggregate{
		Name:         agg.Func,
		Child:        rel.Plan,
		ArgPositions: ctx.Symbols.ResolveAll(vars),
	}, nil
}

// resolveAggregateArgs implements constants->inputs for an aggregate's
// arguments, mirroring normalize.Normalizer.resolveArgs: every constant
// argument is replaced by a fresh synthetic variable recorded in
// hoisted and pre-bound in ctx, continuing the Normalizer's synthetic
// numbering (hoisted's current size) so the aggregate's hoisted
// constant still sorts by allocation order alongside any hoisted from
// the where-clauses.
func resolveAggregateArgs(ctx *unify.Context, args []ir.FnArg, hoisted map[ir.Variable]ir.Value) []ir.Variable {
	vars := make([]ir.Variable, len(args))
	for i, a := range args {
		switch t := a.(type) {
		case ir.VarArg:
			vars[i] = t.Name
		case ir.ConstArg:
			sv := ir.Variable(fmt.Sprintf("?in_%d", len(hoisted)))
			hoisted[sv] = t.Value
			ctx.Symbols.Register(sv)
			ctx.Inputs[sv] = true
			vars[i] = sv
		}
	}
	return vars
}

func findUnboundErr(vars []ir.Variable, matches []int) error {
	reason := "no relation binds every :find variable"
	if len(matches) > 1 {
		reason = ":find variables are bound across more than one disconnected relation"
	}
	return compileerr.New(compileerr.KindFindUnbound, reason, compileerr.F("vars", vars))
}

func sameOrder(a, b []ir.Variable) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
