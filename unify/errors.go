package unify

import (
	"github.com/janusql/compiler/compileerr"
	"github.com/janusql/compiler/ir"
	"github.com/janusql/compiler/normalize"
)

func unknownAttributeErr(attr string, c normalize.Clause) error {
	return compileerr.New(compileerr.KindUnknownAttribute,
		"clause references an attribute the schema does not know about",
		compileerr.F("attr", attr), compileerr.F("clause", c.ID), compileerr.F("tag", c.Tag.String()))
}

func predicateUnboundErr(reason string, c normalize.Clause) error {
	return compileerr.New(compileerr.KindPredicateUnbound, reason,
		compileerr.F("clause", c.ID), compileerr.F("deps", c.Deps), compileerr.F("tag", c.Tag.String()))
}

func unboundNotErr(reason string, a, b Relation) error {
	return compileerr.New(compileerr.KindUnboundNot, reason,
		compileerr.F("left", a.Symbols), compileerr.F("right", b.Symbols))
}

func unionIncompatibleErr(proj []ir.Variable, a, b Relation) error {
	return compileerr.New(compileerr.KindUnionIncompatible,
		"a union branch does not bind the disjunction's projected variables; insert a projection",
		compileerr.F("projection", proj), compileerr.F("left", a.Symbols), compileerr.F("right", b.Symbols))
}

func unionOfUnionsErr(a, b Relation) error {
	return compileerr.New(compileerr.KindUnionOfUnions,
		"refusing to union two already-unioned relations directly",
		compileerr.F("left", a.Symbols), compileerr.F("right", b.Symbols))
}

func unintroducableErr(remaining []normalize.Clause) error {
	ids := make([]int, len(remaining))
	for i, c := range remaining {
		ids[i] = c.ID
	}
	return compileerr.New(compileerr.KindUnintroducable,
		"clauses remain whose dependencies never became bound together",
		compileerr.F("clauses", ids))
}
