package unify

import (
	"fmt"

	"github.com/janusql/compiler/ir"
	"github.com/janusql/compiler/normalize"
	"github.com/janusql/compiler/plan"
)

// planClause implements the plan_clause mapping table (spec §4.4): every
// non-predicate normalized clause type maps to exactly one plan.Node
// variant, reading variable positions out of the symbol table.
func (ctx *Context) planClause(c normalize.Clause) (plan.Node, error) {
	switch c.Type {
	case normalize.TypeLookup:
		lc := c.Raw.(ir.LookupClause)
		attrID, err := ctx.Attrs.AttrID(lc.Attr)
		if err != nil {
			return nil, unknownAttributeErr(lc.Attr, c)
		}
		return plan.Lookup{EntityID: lc.Entity, AttrID: attrID, VarPos: ctx.Symbols.Resolve(lc.Var)}, nil

	case normalize.TypeEntity:
		ec := c.Raw.(ir.EntityClause)
		return plan.Entity{
			EntityID: ec.Entity,
			AttrPos:  ctx.Symbols.Resolve(ec.AttrVar),
			ValPos:   ctx.Symbols.Resolve(ec.ValVar),
		}, nil

	case normalize.TypeHasAttr:
		hc := c.Raw.(ir.HasAttrClause)
		attrID, err := ctx.Attrs.AttrID(hc.Attr)
		if err != nil {
			return nil, unknownAttributeErr(hc.Attr, c)
		}
		return plan.HasAttr{
			EntityPos: ctx.Symbols.Resolve(hc.EntityVar),
			AttrID:    attrID,
			ValPos:    ctx.Symbols.Resolve(hc.ValVar),
		}, nil

	case normalize.TypeFilter:
		fc := c.Raw.(ir.FilterClause)
		attrID, err := ctx.Attrs.AttrID(fc.Attr)
		if err != nil {
			return nil, unknownAttributeErr(fc.Attr, c)
		}
		return plan.Filter{
			EntityPos: ctx.Symbols.Resolve(fc.EntityVar),
			AttrID:    attrID,
			Value:     fc.Value.ToTagged(),
		}, nil

	case normalize.TypeRuleExpr:
		rc := c.Raw.(ir.RuleExprClause)
		return plan.RuleExpr{Name: rc.Name, ArgPositions: ctx.Symbols.ResolveAll(c.ResolvedArgs)}, nil

	default:
		return nil, fmt.Errorf("unify: plan_clause called on non-seed clause type %s", c.Type)
	}
}
