package normalize_test

import (
	"testing"

	"github.com/janusql/compiler/ir"
	"github.com/janusql/compiler/normalize"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFlattensAnd(t *testing.T) {
	q, err := ir.ParseQuery(`[:find ?e ?v :where (and [?e :a ?v] [?e :b ?v])]`)
	require.NoError(t, err)

	n := normalize.New()
	clauses, inputs, err := n.Normalize(q.Where)
	require.NoError(t, err)
	require.Len(t, clauses, 2)
	require.Empty(t, inputs)
	for _, c := range clauses {
		require.True(t, c.Tag.HasPrefix(normalize.Root()))
		require.Len(t, c.Tag, 2) // root + and-scope
	}
}

func TestNormalizeHoistsConstants(t *testing.T) {
	q, err := ir.ParseQuery(`[:find ?t1 :where [?op :assign/time ?t1] [(< ?t1 10)]]`)
	require.NoError(t, err)

	n := normalize.New()
	clauses, inputs, err := n.Normalize(q.Where)
	require.NoError(t, err)
	require.Len(t, inputs, 1)

	pred := clauses[1]
	require.Equal(t, normalize.TypePredExpr, pred.Type)
	require.Len(t, pred.ResolvedArgs, 2)
	require.Equal(t, ir.Variable("?t1"), pred.ResolvedArgs[0])
	// second arg was a constant, hoisted to a synthetic ?in_ variable
	synth := pred.ResolvedArgs[1]
	require.Contains(t, string(synth), "?in_")
	val, ok := inputs[synth]
	require.True(t, ok)
	require.Equal(t, int64(10), val.Num)
	require.ElementsMatch(t, pred.Deps, pred.Symbols)
}

func TestNormalizeNotMarksNegatedWithFullDeps(t *testing.T) {
	q, err := ir.ParseQuery(`[:find ?key ?val
        :where
        [?op :assign/time ?t]
        [?op :assign/key ?key]
        [?op :assign/value ?val]
        (not [(older ?t ?key)])]`)
	require.NoError(t, err)

	n := normalize.New()
	clauses, _, err := n.Normalize(q.Where)
	require.NoError(t, err)

	last := clauses[len(clauses)-1]
	require.Equal(t, normalize.TypeRuleExpr, last.Type)
	require.True(t, last.Negated)
	require.ElementsMatch(t, last.Symbols, last.Deps)
}

func TestNormalizeOrJoinCarriesProjection(t *testing.T) {
	q, err := ir.ParseQuery(`[:find ?x
        :where
        (or-join [?x] (and [?x :a ?y]) (and [?x :b ?z]))]`)
	require.NoError(t, err)

	n := normalize.New()
	clauses, _, err := n.Normalize(q.Where)
	require.NoError(t, err)
	require.Len(t, clauses, 2)

	// Both clauses share a common or-join tag prefix carrying the
	// projection, then diverge into their own and-scope.
	shared := normalize.CommonPrefix(clauses[0].Tag, clauses[1].Tag)
	require.Len(t, shared, 2) // root, or-join
	require.Equal(t, []ir.Variable{"?x"}, shared.Last().Proj)
}

func TestNormalizeIdempotentOnLeafOnlyInput(t *testing.T) {
	q, err := ir.ParseQuery(`[:find ?e ?v :where [?e :a ?v] [?e :b ?v]]`)
	require.NoError(t, err)

	n1 := normalize.New()
	c1, in1, err := n1.Normalize(q.Where)
	require.NoError(t, err)

	n2 := normalize.New()
	c2, in2, err := n2.Normalize(q.Where)
	require.NoError(t, err)

	require.Equal(t, len(c1), len(c2))
	require.Equal(t, len(in1), len(in2))
	for i := range c1 {
		require.Equal(t, c1[i].Type, c2[i].Type)
		require.Equal(t, c1[i].Symbols, c2[i].Symbols)
		require.True(t, c1[i].Tag.Equal(c2[i].Tag))
	}
}
