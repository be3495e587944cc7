// Package compiler is the top-level entry point: it wires the six
// pipeline stages together (spec §2) and assembles the final
// plan.CompiledQuery / plan.Rule outputs the rest of the module only
// ever sees pieces of.
package compiler

import (
	"sort"
	"strconv"
	"strings"

	"github.com/janusql/compiler/ir"
	"github.com/janusql/compiler/normalize"
	"github.com/janusql/compiler/plan"
	"github.com/janusql/compiler/reorder"
	"github.com/janusql/compiler/resolve"
	"github.com/janusql/compiler/rules"
	"github.com/janusql/compiler/trace"
	"github.com/janusql/compiler/unify"
)

// Options configures one compilation.
type Options struct {
	// Attrs resolves the attribute keywords every clause references.
	Attrs unify.AttributeResolver
	// Trace, if set, observes every pipeline-stage event as it happens.
	Trace trace.Handler
}

// CompileQuery runs a grammar-validated query through Normalize ->
// Reorder -> Unify -> Resolve and assembles its CompiledQuery.
func CompileQuery(q *ir.Query, opts Options) (*plan.CompiledQuery, error) {
	tr := trace.NewCollector(opts.Trace)

	n := normalize.New()
	clauses, hoisted, err := n.Normalize(q.Where)
	if err != nil {
		return nil, err
	}
	tr.Add(trace.NormalizeDone, map[string]interface{}{"clauses": len(clauses)})

	ordered := reorder.Reorder(clauses)
	tr.Add(trace.ReorderDone, map[string]interface{}{"clauses": len(ordered)})

	preBound := make([]ir.Variable, 0, len(hoisted)+len(q.In))
	preBound = append(preBound, sortedHoistedVars(hoisted)...)
	preBound = append(preBound, q.In...)

	ctx := unify.NewContext(opts.Attrs, preBound, tr)
	if err := ctx.Run(ordered); err != nil {
		return nil, err
	}

	node, err := resolve.Resolve(ctx, q.Find, hoisted)
	if err != nil {
		return nil, err
	}
	tr.Add(trace.ResolveDone, map[string]interface{}{"kind": node.Kind()})

	return &plan.CompiledQuery{Plan: node, Inputs: assembleInputs(hoisted, q.In)}, nil
}

// CompileRules compiles a grammar-validated rule set into its plan.Rule
// list, one per distinct rule name, in first-definition order.
func CompileRules(rs *ir.RuleSet, opts Options) ([]plan.Rule, error) {
	tr := trace.NewCollector(opts.Trace)
	return rules.Compile(rs, opts.Attrs, tr)
}

// assembleInputs orders the compiled query's Inputs per spec §6's
// invariant: hoisted constants first (in the order the Normalizer
// synthesized them), then one ParamInput per :in variable in
// declaration order.
func assembleInputs(hoisted map[ir.Variable]ir.Value, in []ir.Variable) []plan.InputEntry {
	consts := sortedHoistedVars(hoisted)

	out := make([]plan.InputEntry, 0, len(consts)+len(in))
	for _, v := range consts {
		out = append(out, plan.InputEntry{
			Var:     string(v),
			Binding: plan.ConstInput{Value: hoisted[v].ToTagged()},
		})
	}
	for i, v := range in {
		out = append(out, plan.InputEntry{Var: string(v), Binding: plan.ParamInput{Index: i}})
	}
	return out
}

// sortedHoistedVars orders a Normalizer-produced hoisted-constants map
// by allocation order (recovered from each synthetic "?in_N" variable's
// suffix) so compiling the same source twice yields byte-identical
// ArgPositions instead of depending on Go's randomized map iteration.
func sortedHoistedVars(hoisted map[ir.Variable]ir.Value) []ir.Variable {
	vars := make([]ir.Variable, 0, len(hoisted))
	for v := range hoisted {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return syntheticIndex(vars[i]) < syntheticIndex(vars[j]) })
	return vars
}

// syntheticIndex recovers the allocation order of a Normalizer-minted
// "?in_N" variable so hoisted constants sort the way they were
// discovered rather than by map iteration order.
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
