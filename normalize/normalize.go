package normalize

import (
	"fmt"

	"github.com/janusql/compiler/ir"
	"github.com/janusql/compiler/symtab"
)

// Normalizer flattens a raw where-clause tree into a tagged flat list
// of Clauses plus a hoisted-constant Inputs map. Its two id counters
// (clause id, scope id) are compilation-local monotone allocators
// (spec §9); a fresh Normalizer must be used per compilation.
type Normalizer struct {
	nextClauseID  int
	nextScopeID   int
	nextSynthetic int
	inputs        map[ir.Variable]ir.Value
}

// New creates an empty Normalizer.
func New() *Normalizer {
	return &Normalizer{inputs: make(map[ir.Variable]ir.Value)}
}

// Normalize walks where (one where-subtree, spec §4.2) and returns its
// flattened clauses plus the constants hoisted into synthetic inputs
// along the way.
func (n *Normalizer) Normalize(where []ir.Clause) ([]Clause, map[ir.Variable]ir.Value, error) {
	clauses, err := n.walk(where, Root())
	if err != nil {
		return nil, nil, err
	}
	return clauses, n.inputs, nil
}

func (n *Normalizer) freshClauseID() int {
	id := n.nextClauseID
	n.nextClauseID++
	return id
}

func (n *Normalizer) freshScopeID(prefix string) string {
	id := n.nextScopeID
	n.nextScopeID++
	return fmt.Sprintf("%s-%d", prefix, id)
}

func (n *Normalizer) freshInputVar() ir.Variable {
	v := ir.Variable(fmt.Sprintf("?in_%d", n.nextSynthetic))
	n.nextSynthetic++
	return v
}

// walk recurses through clauses under the given tag, emitting one
// Clause per leaf and threading the tag stack functionally: each
// recursive call receives its own extended tag, never mutating the
// caller's.
func (n *Normalizer) walk(clauses []ir.Clause, tag Tag) ([]Clause, error) {
	var out []Clause
	for _, raw := range clauses {
		switch c := raw.(type) {
		case ir.AndClause:
			step := Step{Method: Conjunction, ScopeID: n.freshScopeID("and")}
			sub, err := n.walk(c.Clauses, tag.Push(step))
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)

		case ir.OrClause:
			step := Step{Method: Disjunction, ScopeID: n.freshScopeID("or")}
			sub, err := n.walk(c.Clauses, tag.Push(step))
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)

		case ir.OrJoinClause:
			step := Step{Method: Disjunction, ScopeID: n.freshScopeID("or-join"), Proj: c.Proj}
			sub, err := n.walk(c.Clauses, tag.Push(step))
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)

		case ir.NotClause:
			step := Step{Method: Conjunction, ScopeID: n.freshScopeID("not")}
			sub, err := n.walk(c.Clauses, tag.Push(step))
			if err != nil {
				return nil, err
			}
			for i := range sub {
				sub[i].Negated = true
				sub[i].Deps = symtab.Dedup(sub[i].Symbols)
			}
			out = append(out, sub...)

		case ir.LookupClause:
			out = append(out, Clause{
				ID: n.freshClauseID(), Tag: tag, Type: TypeLookup,
				Symbols: []ir.Variable{c.Var}, Raw: c,
			})

		case ir.EntityClause:
			out = append(out, Clause{
				ID: n.freshClauseID(), Tag: tag, Type: TypeEntity,
				Symbols: symtab.Dedup([]ir.Variable{c.AttrVar, c.ValVar}), Raw: c,
			})

		case ir.HasAttrClause:
			out = append(out, Clause{
				ID: n.freshClauseID(), Tag: tag, Type: TypeHasAttr,
				Symbols: symtab.Dedup([]ir.Variable{c.EntityVar, c.ValVar}), Raw: c,
			})

		case ir.FilterClause:
			out = append(out, Clause{
				ID: n.freshClauseID(), Tag: tag, Type: TypeFilter,
				Symbols: []ir.Variable{c.EntityVar}, Raw: c,
			})

		case ir.PredExprClause:
			resolved := n.resolveArgs(c.Args)
			syms := symtab.Dedup(resolved)
			out = append(out, Clause{
				ID: n.freshClauseID(), Tag: tag, Type: TypePredExpr,
				Symbols: syms, Deps: syms, Raw: c, ResolvedArgs: resolved,
			})

		case ir.RuleExprClause:
			resolved := n.resolveArgs(c.Args)
			syms := symtab.Dedup(resolved)
			out = append(out, Clause{
				ID: n.freshClauseID(), Tag: tag, Type: TypeRuleExpr,
				Symbols: syms, Deps: syms, Raw: c, ResolvedArgs: resolved,
			})

		default:
			return nil, fmt.Errorf("normalize: unhandled clause type %T", raw)
		}
	}
	return out, nil
}

// resolveArgs implements constants->inputs: every constant argument is
// replaced by a fresh synthetic variable bound in n.inputs; variable
// arguments pass through unchanged.
func (n *Normalizer) resolveArgs(args []ir.FnArg) []ir.Variable {
	vars := make([]ir.Variable, len(args))
	for i, a := range args {
		switch t := a.(type) {
		case ir.VarArg:
			vars[i] = t.Name
		case ir.ConstArg:
			sv := n.freshInputVar()
			n.inputs[sv] = t.Value
			vars[i] = sv
		}
	}
	return vars
}
