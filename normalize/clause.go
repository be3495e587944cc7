package normalize

import (
	"fmt"

	"github.com/janusql/compiler/ir"
)

// Type identifies the shape of a NormalizedClause's original leaf
// clause, flattened out of the tree of and/or/or-join/not nesting.
type Type int

const (
	TypeLookup Type = iota
	TypeEntity
	TypeHasAttr
	TypeFilter
	TypePredExpr
	TypeRuleExpr
)

func (t Type) String() string {
	switch t {
	case TypeLookup:
		return "Lookup"
	case TypeEntity:
		return "Entity"
	case TypeHasAttr:
		return "HasAttr"
	case TypeFilter:
		return "Filter"
	case TypePredExpr:
		return "PredExpr"
	case TypeRuleExpr:
		return "RuleExpr"
	default:
		return "Unknown"
	}
}

// Clause is one tagged, flattened clause emitted by the Normalizer.
// Once built it is never mutated (spec §3 lifecycle).
type Clause struct {
	ID      int
	Tag     Tag
	Type    Type
	Symbols []ir.Variable // ordered, invariant 6: free of duplicates
	Deps    []ir.Variable // subset of Symbols (invariant 4)
	Negated bool

	Raw          ir.Clause     // the original leaf clause (Lookup/Entity/HasAttr/Filter keep it verbatim)
	ResolvedArgs []ir.Variable // for PredExpr/RuleExpr: Args with constants substituted by synthetic inputs
}

func (c Clause) String() string {
	neg := ""
	if c.Negated {
		neg = "¬"
	}
	return fmt.Sprintf("#%d%s%s@%s%v", c.ID, neg, c.Type, c.Tag, c.Symbols)
}
