package unify_test

import (
	"fmt"
	"testing"

	"github.com/janusql/compiler/compileerr"
	"github.com/janusql/compiler/ir"
	"github.com/janusql/compiler/normalize"
	"github.com/janusql/compiler/plan"
	"github.com/janusql/compiler/reorder"
	"github.com/janusql/compiler/unify"
	"github.com/stretchr/testify/require"
)

// fakeSchema assigns each attribute keyword an id on first sight, so
// tests never need to pre-populate a table.
type fakeSchema struct {
	ids map[string]int
}

func newFakeSchema() *fakeSchema { return &fakeSchema{ids: map[string]int{}} }

func (s *fakeSchema) AttrID(name string) (int, error) {
	if id, ok := s.ids[name]; ok {
		return id, nil
	}
	id := len(s.ids)
	s.ids[name] = id
	return id, nil
}

func compileWhere(t *testing.T, src string) (*unify.Context, []normalize.Clause) {
	t.Helper()
	q, err := ir.ParseQuery(src)
	require.NoError(t, err)

	n := normalize.New()
	clauses, inputs, err := n.Normalize(q.Where)
	require.NoError(t, err)
	ordered := reorder.Reorder(clauses)

	var preBound []ir.Variable
	for v := range inputs {
		preBound = append(preBound, v)
	}
	for _, v := range q.In {
		preBound = append(preBound, v)
	}

	ctx := unify.NewContext(newFakeSchema(), preBound, nil)
	err = ctx.Run(ordered)
	require.NoError(t, err)
	return ctx, ordered
}

func TestUnifyJoinsSharedVariable(t *testing.T) {
	// S1: equi-join on ?op via a shared ?key.
	ctx, _ := compileWhere(t, `[:find ?t1 ?t2
        :where
        [?op :assign/key ?key]
        [?op :assign/time ?t1]
        [?op2 :assign/key ?key]
        [?op2 :assign/time ?t2]
        [(< ?t1 ?t2)]]`)

	require.Len(t, ctx.Relations, 1)
	final := ctx.Relations[0]
	require.Contains(t, final.Symbols, ir.Variable("?t1"))
	require.Contains(t, final.Symbols, ir.Variable("?t2"))
	require.Contains(t, final.Symbols, ir.Variable("?key"))

	predWrapped := false
	var walk func(n plan.Node)
	walk = func(n plan.Node) {
		switch v := n.(type) {
		case plan.PredExpr:
			predWrapped = true
			require.Equal(t, plan.OpLT, v.Op)
			walk(v.Child)
		case plan.Join:
			walk(v.Left)
			walk(v.Right)
		}
	}
	walk(final.Plan)
	require.True(t, predWrapped, "predicate must wrap the relation that binds both its args")
}

func TestUnifyAntijoinOnNegation(t *testing.T) {
	// S2 shape: a rule-expr under `not` becomes an Antijoin once its
	// deps are bound by the positive clauses.
	ctx, _ := compileWhere(t, `[:find ?key ?val
        :where
        [?op :assign/time ?t]
        [?op :assign/key ?key]
        [?op :assign/value ?val]
        (not (older ?t ?key))]`)

	require.Len(t, ctx.Relations, 1)
	final := ctx.Relations[0]
	// Antijoin filters rows, not columns: the join variables it tested
	// against remain bound in the surviving relation.
	require.Contains(t, final.Symbols, ir.Variable("?key"))
	require.Contains(t, final.Symbols, ir.Variable("?val"))

	_, ok := final.Plan.(plan.Antijoin)
	require.True(t, ok, "expected the top plan node to be an Antijoin, got %T", final.Plan)
}

func TestUnifyUnionOnDisjunction(t *testing.T) {
	// S3: two branches of a plain `or`, each a Filter binding the same
	// variable to a different constant, fold into one Union relation.
	ctx, _ := compileWhere(t, `[:find ?e
        :where
        (or [?e :status "A"] [?e :status "B"])]`)

	require.Len(t, ctx.Relations, 1)
	final := ctx.Relations[0]
	require.Equal(t, []ir.Variable{"?e"}, final.Symbols)
	u, ok := final.Plan.(plan.Union)
	require.True(t, ok, "expected a Union plan node, got %T", final.Plan)
	require.Len(t, u.Children, 2)
}

func TestUnifyUnionOfThreeBranchesDoesNotRefuse(t *testing.T) {
	// A third (and fourth) disjunct folding into an already-built Union
	// is the ordinary append case, not two independently-grown unions
	// colliding -- it must not raise UnionOfUnions.
	ctx, _ := compileWhere(t, `[:find ?e
        :where
        (or [?e :status "A"] [?e :status "B"] [?e :status "C"])]`)

	require.Len(t, ctx.Relations, 1)
	final := ctx.Relations[0]
	require.Equal(t, []ir.Variable{"?e"}, final.Symbols)
	u, ok := final.Plan.(plan.Union)
	require.True(t, ok, "expected a Union plan node, got %T", final.Plan)
	require.Len(t, u.Children, 3)
}

func TestUnifyOrJoinProjectsSharedVariable(t *testing.T) {
	// S4 shape: an or-join whose two branches bind disjoint extra
	// variables but must agree on the projected ?x.
	ctx, _ := compileWhere(t, `[:find ?x
        :where
        (or-join [?x]
          (and [?x :a ?y])
          (and [?x :b ?z]))]`)

	require.Len(t, ctx.Relations, 1)
	final := ctx.Relations[0]
	require.Equal(t, []ir.Variable{"?x"}, final.Symbols)

	u, ok := final.Plan.(plan.Union)
	require.True(t, ok)
	require.Len(t, u.Children, 2)
	require.Len(t, u.Positions, 1)
}

func TestUnifyPredicateUnboundWhenNoRelationCoversDeps(t *testing.T) {
	q, err := ir.ParseQuery(`[:find ?x ?y
        :where
        [?x :a ?v1]
        [?y :b ?v2]
        [(< ?v1 ?v2)]]`)
	require.NoError(t, err)

	// Deliberately do not join ?x's and ?y's relations on anything, so
	// no single relation ever binds both ?v1 and ?v2.
	n := normalize.New()
	clauses, _, err := n.Normalize(q.Where)
	require.NoError(t, err)
	ordered := reorder.Reorder(clauses)

	ctx := unify.NewContext(newFakeSchema(), nil, nil)
	err = ctx.Run(ordered)
	require.Error(t, err)
	var cerr *compileerr.Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, compileerr.KindPredicateUnbound, cerr.Kind)
}

func TestUnifyUnionIncompatibleWhenBranchMissesProjection(t *testing.T) {
	// One or-branch never binds the projected variable at all. The
	// clause list is built by hand rather than parsed, so the two
	// branches share ?y and are forced to combine.
	sc := newFakeSchema()
	ctx := unify.NewContext(sc, nil, nil)

	tagOr := normalize.Root().Push(normalize.Step{Method: normalize.Disjunction, ScopeID: "or-0", Proj: []ir.Variable{"?x"}})
	c1 := normalize.Clause{
		ID: 0, Tag: tagOr, Type: normalize.TypeHasAttr,
		Symbols: []ir.Variable{"?x", "?y"},
		Raw:     ir.HasAttrClause{EntityVar: "?x", Attr: "a", ValVar: "?y"},
	}
	c2 := normalize.Clause{
		ID: 1, Tag: tagOr, Type: normalize.TypeHasAttr,
		// shares ?y with c1 (so the two conflict and attempt to
		// combine) but never binds the disjunction's projected ?x.
		Symbols: []ir.Variable{"?y", "?z"},
		Raw:     ir.HasAttrClause{EntityVar: "?y", Attr: "b", ValVar: "?z"},
	}

	err := ctx.Run([]normalize.Clause{c1, c2})
	require.Error(t, err)
	var cerr *compileerr.Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, compileerr.KindUnionIncompatible, cerr.Kind)
}

func TestUnifyUnboundNotWithoutPositivePartner(t *testing.T) {
	sc := newFakeSchema()
	ctx := unify.NewContext(sc, nil, nil)

	tagOr := normalize.Root().Push(normalize.Step{Method: normalize.Disjunction, ScopeID: "or-0"})
	pos := normalize.Clause{
		ID: 0, Tag: tagOr, Type: normalize.TypeHasAttr,
		Symbols: []ir.Variable{"?x", "?y"},
		Raw:     ir.HasAttrClause{EntityVar: "?x", Attr: "a", ValVar: "?y"},
	}
	neg := normalize.Clause{
		ID: 1, Tag: tagOr, Type: normalize.TypeHasAttr, Negated: true,
		Symbols: []ir.Variable{"?x", "?y"}, Deps: []ir.Variable{"?x", "?y"},
		Raw: ir.HasAttrClause{EntityVar: "?x", Attr: "b", ValVar: "?y"},
	}

	err := ctx.Run([]normalize.Clause{pos, neg})
	require.Error(t, err)
	var cerr *compileerr.Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, compileerr.KindUnboundNot, cerr.Kind)
}

func TestUnifyUnknownAttributeSurfacesFromPlanClause(t *testing.T) {
	q, err := ir.ParseQuery(`[:find ?v :where [?e :missing/attr ?v]]`)
	require.NoError(t, err)

	n := normalize.New()
	clauses, _, err := n.Normalize(q.Where)
	require.NoError(t, err)

	ctx := unify.NewContext(failingSchema{}, nil, nil)
	err = ctx.Run(reorder.Reorder(clauses))
	require.Error(t, err)
	var cerr *compileerr.Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, compileerr.KindUnknownAttribute, cerr.Kind)
}

type failingSchema struct{}

func (failingSchema) AttrID(name string) (int, error) {
	return 0, fmt.Errorf("no such attribute %q", name)
}
