package unify

import (
	"github.com/janusql/compiler/ir"
	"github.com/janusql/compiler/normalize"
	"github.com/janusql/compiler/plan"
	"github.com/janusql/compiler/symtab"
)

// combine picks a combine method from the shared logical context of a
// and b (spec §4.4's dispatch table) and folds them into one Relation.
func (ctx *Context) combine(a, b Relation) (Relation, error) {
	shared := normalize.CommonPrefix(a.Tag, b.Tag)
	method := shared.Last().Method

	switch {
	case method == normalize.Conjunction && !a.Negated && !b.Negated:
		return ctx.combineJoin(a, b, shared), nil

	case method == normalize.Conjunction && !a.Negated && b.Negated:
		return ctx.combineAntijoin(a, b, shared), nil

	case method == normalize.Conjunction && a.Negated && !b.Negated:
		return ctx.combineAntijoin(b, a, shared), nil

	case method == normalize.Conjunction && a.Negated && b.Negated:
		return Relation{}, unboundNotErr("two negated relations meet under a conjunction with no positive partner", a, b)

	case method == normalize.Disjunction && !a.Negated && !b.Negated:
		return ctx.combineUnion(a, b, shared)

	default: // Disjunction, at least one side negated
		return Relation{}, unboundNotErr("a negated clause has no positive partner under this disjunction", a, b)
	}
}

// combineJoin equi-joins a and b on the first variable they share.
func (ctx *Context) combineJoin(a, b Relation, tag normalize.Tag) Relation {
	shared := symtab.Intersect(a.Symbols, b.Symbols)
	joinVar := shared[0]

	symbols := []ir.Variable{joinVar}
	symbols = append(symbols, symtab.Diff(a.Symbols, shared)...)
	symbols = append(symbols, symtab.Diff(b.Symbols, shared)...)

	return Relation{
		Tag:     tag,
		Symbols: symtab.Dedup(symbols),
		Negated: false,
		Deps:    symtab.Union(a.Deps, b.Deps),
		Plan:    plan.Join{Left: a.Plan, Right: b.Plan, JoinPos: ctx.Symbols.Resolve(joinVar)},
	}
}

// combineAntijoin removes rows of pos whose shared variables also appear
// in neg. neg must be the negated side.
func (ctx *Context) combineAntijoin(pos, neg Relation, tag normalize.Tag) Relation {
	shared := symtab.Intersect(pos.Symbols, neg.Symbols)

	symbols := append([]ir.Variable{}, shared...)
	symbols = append(symbols, symtab.Diff(pos.Symbols, shared)...)

	return Relation{
		Tag:     tag,
		Symbols: symtab.Dedup(symbols),
		Negated: false,
		Deps:    symtab.Union(pos.Deps, neg.Deps),
		Plan: plan.Antijoin{
			Left:          pos.Plan,
			Right:         neg.Plan,
			JoinPositions: ctx.Symbols.ResolveAll(shared),
		},
	}
}

// combineUnion merges a and b, both bound under the same disjunctive
// scope. If the scope carries an or-join projection, every branch must
// bind at least that projection; otherwise a's own symbols become the
// projection every branch must bind. Each branch is then projected to
// exactly the projection.
func (ctx *Context) combineUnion(a, b Relation, tag normalize.Tag) (Relation, error) {
	proj := tag.Last().Proj
	if len(proj) == 0 {
		proj = a.Symbols
	}
	if !symtab.Subset(proj, a.Symbols) || !symtab.Subset(proj, b.Symbols) {
		return Relation{}, unionIncompatibleErr(proj, a, b)
	}

	aUnion, aIsUnion := isUnionPlan(a.Plan)
	bUnion, bIsUnion := isUnionPlan(b.Plan)
	if aIsUnion && bIsUnion {
		return Relation{}, unionOfUnionsErr(a, b)
	}

	positions := ctx.Symbols.ResolveAll(proj)

	var u plan.Union
	switch {
	case bIsUnion && samePositions(bUnion.Positions, positions):
		// b is the accumulator from a longer-running or/or-join fold;
		// append the newly-introduced branch rather than nesting.
		u = plan.Union{Positions: positions, Children: append(append([]plan.Node{}, bUnion.Children...), ctx.projectTo(a, proj))}
	case aIsUnion && samePositions(aUnion.Positions, positions):
		u = plan.Union{Positions: positions, Children: append(append([]plan.Node{}, aUnion.Children...), ctx.projectTo(b, proj))}
	default:
		u = plan.Union{Positions: positions, Children: []plan.Node{ctx.projectTo(a, proj), ctx.projectTo(b, proj)}}
	}

	return Relation{
		Tag:     tag,
		Symbols: proj,
		Negated: false,
		Deps:    symtab.Union(a.Deps, b.Deps),
		Plan:    u,
	}, nil
}

// projectTo wraps rel.Plan in a Project unless it already binds target
// exactly, in order.
func (ctx *Context) projectTo(rel Relation, target []ir.Variable) plan.Node {
	if sameOrder(rel.Symbols, target) {
		return rel.Plan
	}
	return plan.Project{Child: rel.Plan, Positions: ctx.Symbols.ResolveAll(target)}
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

func samePositions(a, b []int) bool {
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
