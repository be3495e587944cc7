// Package rules implements the Rule Compiler stage (spec §4.6): each
// named rule (one or more same-arity definitions, already
// grammar-validated) compiles to its own plan.Rule through the same
// normalize -> reorder -> unify -> resolve pipeline a query body uses,
// seeded with its head variables instead of a :find list.
package rules

import (
	"sort"
	"strconv"
	"strings"

	"github.com/janusql/compiler/compileerr"
	"github.com/janusql/compiler/ir"
	"github.com/janusql/compiler/normalize"
	"github.com/janusql/compiler/plan"
	"github.com/janusql/compiler/reorder"
	"github.com/janusql/compiler/trace"
	"github.com/janusql/compiler/unify"
)

// Compile compiles every rule name in rs into one plan.Rule, in
// first-definition order.
func Compile(rs *ir.RuleSet, attrs unify.AttributeResolver, tr *trace.Collector) ([]plan.Rule, error) {
	groups := map[string][]ir.RuleDef{}
	var order []string
	for _, def := range rs.Defs {
		if _, ok := groups[def.Head.Name]; !ok {
			order = append(order, def.Head.Name)
		}
		groups[def.Head.Name] = append(groups[def.Head.Name], def)
	}

	out := make([]plan.Rule, 0, len(order))
	for _, name := range order {
		r, err := compileGroup(name, groups[name], attrs, tr)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
		tr.Add(trace.RuleCompiled, map[string]interface{}{"name": name, "defs": len(groups[name])})
	}
	return out, nil
}

// compileGroup compiles every definition of one rule name. A single
// definition compiles directly; several definitions behave like an
// or-join across their bodies, projected to the shared head arity —
// grammar-time arity validation guarantees every def agrees on vars
// count, so each branch's compiled output lines up position-for-position.
func compileGroup(name string, defs []ir.RuleDef, attrs unify.AttributeResolver, tr *trace.Collector) (plan.Rule, error) {
	if len(defs) == 1 {
		node, err := compileDef(defs[0], attrs, tr)
		if err != nil {
			return plan.Rule{}, err
		}
		return plan.Rule{Name: name, Plan: node}, nil
	}

	branches := make([]plan.Node, 0, len(defs))
	for _, def := range defs {
		node, err := compileDef(def, attrs, tr)
		if err != nil {
			return plan.Rule{}, err
		}
		branches = append(branches, node)
	}
	positions := make([]int, len(defs[0].Head.Vars))
	for i := range positions {
		positions[i] = i
	}
	return plan.Rule{Name: name, Plan: plan.Union{Positions: positions, Children: branches}}, nil
}

// compileDef runs one rule definition's body through the full pipeline,
// pre-registering its head variables first so that, across independent
// definitions of the same rule, the head variables always land on the
// same integer positions — the precondition compileGroup's hand-built
// Union relies on.
func compileDef(def ir.RuleDef, attrs unify.AttributeResolver, tr *trace.Collector) (plan.Node, error) {
	n := normalize.New()
	clauses, hoisted, err := n.Normalize(def.Clauses)
	if err != nil {
		return nil, err
	}
	ordered := reorder.Reorder(clauses)

	// Head variables are this definition's parameters, supplied by
	// whatever RuleExpr invokes it — treat them as pre-bound, exactly
	// like a query's :in variables, so a recursive self-call whose only
	// local grounding is another rule invocation can still reach a
	// fixed point instead of deadlocking on its own head var. A body
	// constant hoisted by the Normalizer needs the same treatment, or
	// its synthetic variable can never be bound by any relation.
	preBound := make([]ir.Variable, 0, len(def.Head.Vars)+len(hoisted))
	preBound = append(preBound, def.Head.Vars...)
	preBound = append(preBound, sortedHoistedVars(hoisted)...)
	ctx := unify.NewContext(attrs, preBound, tr)

	if err := ctx.Run(ordered); err != nil {
		return nil, err
	}

	idxs := ctx.RelationsBinding(def.Head.Vars)
	if len(idxs) != 1 {
		return nil, compileerr.New(compileerr.KindFindUnbound,
			"no single relation binds this rule definition's head variables",
			compileerr.F("rule", def.Head.Name), compileerr.F("vars", def.Head.Vars))
	}
	rel := ctx.Relations[idxs[0]]
	if sameOrder(rel.Symbols, def.Head.Vars) {
		return rel.Plan, nil
	}
	return plan.Project{Child: rel.Plan, Positions: ctx.Symbols.ResolveAll(def.Head.Vars)}, nil
}

// sortedHoistedVars orders a Normalizer-produced hoisted-constants map
// by allocation order (recovered from each synthetic "?in_N" variable's
// suffix) so a rule body's compiled output doesn't depend on Go's
// randomized map iteration order.
func sortedHoistedVars(hoisted map[ir.Variable]ir.Value) []ir.Variable {
	vars := make([]ir.Variable, 0, len(hoisted))
	for v := range hoisted {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return syntheticIndex(vars[i]) < syntheticIndex(vars[j]) })
	return vars
}

func syntheticIndex(v ir.Variable) int {
	const prefix = "?in_"
	s := string(v)
	if !strings.HasPrefix(s, prefix) {
		return 0
	}
	n, err := strconv.Atoi(s[len(prefix):])
	if err != nil {
		return 0
	}
	return n
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
