package unify

import (
	"github.com/janusql/compiler/compileerr"
	"github.com/janusql/compiler/ir"
	"github.com/janusql/compiler/normalize"
	"github.com/janusql/compiler/plan"
	"github.com/janusql/compiler/symtab"
	"github.com/janusql/compiler/trace"
)

// AttributeResolver maps an attribute keyword to the integer id the
// plan tree encodes it as. Defined here rather than imported from
// schema to keep unify free of a dependency on the schema package;
// schema.StaticSchema implements this interface.
type AttributeResolver interface {
	AttrID(name string) (int, error)
}

// Context is the running state of one query or rule body's
// unification: a symbol table, the pre-bound inputs, and the set of
// already-introduced Relations. The queue of clauses still waiting on
// unbound deps is local to Run.
type Context struct {
	Symbols   *symtab.Table
	Inputs    map[ir.Variable]bool // synthetic/`:in` variables considered pre-bound
	Attrs     AttributeResolver
	Relations []Relation
	Trace     *trace.Collector
}

// NewContext creates a Context seeded with the variables that are
// already bound before unification starts (hoisted constants and
// declared `:in` parameters).
func NewContext(attrs AttributeResolver, preBound []ir.Variable, tr *trace.Collector) *Context {
	ctx := &Context{
		Symbols: symtab.New(),
		Inputs:  make(map[ir.Variable]bool, len(preBound)),
		Attrs:   attrs,
		Trace:   tr,
	}
	for _, v := range preBound {
		ctx.Symbols.Register(v)
		ctx.Inputs[v] = true
	}
	return ctx
}

// Run drives the deferred-queue fixed point described in spec §4.4:
// each pass introduces every clause whose deps are already bound
// together, and repeats until either the queue drains or a full pass
// makes no progress, at which point the remaining clauses are reported
// as unintroducable — or, when a remaining predicate's arguments are
// each bound but not all within one relation, as predicate-unbound.
func (ctx *Context) Run(clauses []normalize.Clause) error {
	pending := clauses
	for len(pending) > 0 {
		var deferred []normalize.Clause
		progressed := false
		for _, c := range pending {
			// A predicate never seeds a relation of its own, so it waits
			// until there is at least one relation to attach to.
			if !ctx.boundTogether(c.Deps) || (c.Type == normalize.TypePredExpr && len(ctx.Relations) == 0) {
				deferred = append(deferred, c)
				ctx.Trace.Add(trace.UnifyDeferred, map[string]interface{}{"clause": c.ID})
				continue
			}
			if err := ctx.introduce(c); err != nil {
				return err
			}
			progressed = true
		}
		if !progressed {
			for _, c := range deferred {
				if c.Type != normalize.TypePredExpr {
					continue
				}
				spread := true
				for _, d := range c.Deps {
					spread = spread && ctx.isBound(d)
				}
				if spread {
					return predicateUnboundErr("no single relation binds all of this predicate's arguments", c)
				}
			}
			return unintroducableErr(deferred)
		}
		pending = deferred
	}
	ctx.Trace.Add(trace.UnifyDone, map[string]interface{}{"relations": len(ctx.Relations)})
	return nil
}

// isBound reports whether v is already available: either a pre-bound
// input, or a member of some existing relation's symbols.
func (ctx *Context) isBound(v ir.Variable) bool {
	if ctx.Inputs[v] {
		return true
	}
	for _, r := range ctx.Relations {
		if symtab.Contains(r.Symbols, v) {
			return true
		}
	}
	return false
}

// boundTogether reports whether every one of syms, once pre-bound
// inputs are set aside, is covered by a single existing relation.
func (ctx *Context) boundTogether(syms []ir.Variable) bool {
	var remaining []ir.Variable
	for _, s := range syms {
		if !ctx.Inputs[s] {
			remaining = append(remaining, s)
		}
	}
	if len(remaining) == 0 {
		return true
	}
	for _, r := range ctx.Relations {
		if symtab.Subset(remaining, r.Symbols) {
			return true
		}
	}
	return false
}

// introduce folds one clause into ctx.Relations, per spec §4.4.
func (ctx *Context) introduce(c normalize.Clause) error {
	ctx.Trace.Add(trace.UnifyIntroduce, map[string]interface{}{"clause": c.ID, "tag": c.Tag.String()})

	if c.Type == normalize.TypePredExpr {
		return ctx.introducePredicate(c)
	}

	ctx.Symbols.RegisterAll(c.Symbols)
	seedPlan, err := ctx.planClause(c)
	if err != nil {
		return err
	}
	seed := Relation{Tag: c.Tag, Symbols: c.Symbols, Negated: c.Negated, Deps: c.Deps, Plan: seedPlan}

	var conflicting, free []Relation
	for _, r := range ctx.Relations {
		if len(symtab.Intersect(seed.Symbols, r.Symbols)) > 0 {
			conflicting = append(conflicting, r)
		} else {
			free = append(free, r)
		}
	}

	for _, other := range conflicting {
		seed, err = ctx.combine(seed, other)
		if err != nil {
			return err
		}
	}

	ctx.Relations = append(free, seed)
	return nil
}

// introducePredicate attaches a predicate clause to the unique existing
// relation that binds all of its non-input dependencies; it never
// produces a new relation of its own. A hoisted constant's synthetic
// variable is pre-bound in ctx.Inputs and resolved through the global
// symbol table, not through any one relation's Symbols, so it is
// excluded from the match the way boundTogether excludes it too.
func (ctx *Context) introducePredicate(c normalize.Clause) error {
	ctx.Symbols.RegisterAll(c.Symbols)

	var localDeps []ir.Variable
	for _, d := range c.Deps {
		if !ctx.Inputs[d] {
			localDeps = append(localDeps, d)
		}
	}

	match := -1
	for i, r := range ctx.Relations {
		if symtab.Subset(localDeps, r.Symbols) {
			if match != -1 {
				return predicateUnboundErr("predicate arguments are bound across more than one relation", c)
			}
			match = i
		}
	}
	if match == -1 {
		return predicateUnboundErr("no relation binds all of this predicate's arguments", c)
	}

	pc := c.Raw.(ir.PredExprClause)
	node := plan.PredExpr{
		Op:           pc.Op,
		ArgPositions: ctx.Symbols.ResolveAll(c.ResolvedArgs),
		Child:        ctx.Relations[match].Plan,
	}
	ctx.Relations[match].Plan = node
	return nil
}

// RelationsBinding returns the indices of every relation whose symbols
// are a superset of syms.
func (ctx *Context) RelationsBinding(syms []ir.Variable) []int {
	var idxs []int
	for i, r := range ctx.Relations {
		if symtab.Subset(syms, r.Symbols) {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// UnknownSymbolErr reports a symbol that never appeared in any where
// clause at all (spec taxonomy's unknown-symbol case, distinct from
// find-unbound: this variable was never even a candidate binding).
func UnknownSymbolErr(v ir.Variable) error {
	return compileerr.New(compileerr.KindUnknownSymbol,
		"variable does not appear in any where clause", compileerr.F("var", v))
}
