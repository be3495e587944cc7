package ir_test

import (
	"testing"

	"github.com/janusql/compiler/compileerr"
	"github.com/janusql/compiler/ir"
	"github.com/janusql/compiler/plan"
	"github.com/stretchr/testify/require"
)

func TestParseQuerySimple(t *testing.T) {
	q, err := ir.ParseQuery(`[:find ?op ?t
                              :where [?op :assign/time ?t]]`)
	require.NoError(t, err)
	require.Len(t, q.Find, 2)
	require.Len(t, q.Where, 1)

	cl, ok := q.Where[0].(ir.HasAttrClause)
	require.True(t, ok)
	require.Equal(t, ir.Variable("?op"), cl.EntityVar)
	require.Equal(t, "assign/time", cl.Attr)
	require.Equal(t, ir.Variable("?t"), cl.ValVar)
}

func TestParseAllPatternForms(t *testing.T) {
	q, err := ir.ParseQuery(`[:find ?v
        :where
        [100 :person/name ?v]
        [100 ?a ?v]
        [?e :person/age ?v]
        [?e :person/age 42]]`)
	require.NoError(t, err)
	require.Len(t, q.Where, 4)

	_, ok := q.Where[0].(ir.LookupClause)
	require.True(t, ok)
	_, ok = q.Where[1].(ir.EntityClause)
	require.True(t, ok)
	_, ok = q.Where[2].(ir.HasAttrClause)
	require.True(t, ok)
	filt, ok := q.Where[3].(ir.FilterClause)
	require.True(t, ok)
	require.Equal(t, int64(42), filt.Value.Num)
}

func TestParsePredExpr(t *testing.T) {
	q, err := ir.ParseQuery(`[:find ?t1 ?key
        :where
        [?op :assign/key ?key]
        [?op :assign/time ?t1]
        [?op2 :assign/key ?key]
        [?op2 :assign/time ?t2]
        [(< ?t1 ?t2)]]`)
	require.NoError(t, err)
	last := q.Where[len(q.Where)-1]
	pe, ok := last.(ir.PredExprClause)
	require.True(t, ok)
	require.Equal(t, plan.OpLT, pe.Op)
	require.Len(t, pe.Args, 2)
}

func TestParseNestedLogic(t *testing.T) {
	q, err := ir.ParseQuery(`[:find ?t1 ?t2
        :where
        [?op :time ?t1]
        [?op :time ?t2]
        (or [(< ?t1 ?t2)] [(< ?t2 ?t1)])]`)
	require.NoError(t, err)
	orCl, ok := q.Where[2].(ir.OrClause)
	require.True(t, ok)
	require.Len(t, orCl.Clauses, 2)
}

func TestParseNot(t *testing.T) {
	q, err := ir.ParseQuery(`[:find ?key ?val
        :where
        [?op :assign/time ?t]
        [?op :assign/key ?key]
        [?op :assign/value ?val]
        (not [(older ?t ?key)])]`)
	require.NoError(t, err)
	notCl, ok := q.Where[3].(ir.NotClause)
	require.True(t, ok)
	require.Len(t, notCl.Clauses, 1)
	_, ok = notCl.Clauses[0].(ir.RuleExprClause)
	require.True(t, ok)
}

func TestParseOrJoin(t *testing.T) {
	q, err := ir.ParseQuery(`[:find ?x
        :where
        (or-join [?x]
          (and [?x :a ?y])
          (and [?x :b ?z]))]`)
	require.NoError(t, err)
	oj, ok := q.Where[0].(ir.OrJoinClause)
	require.True(t, ok)
	require.Equal(t, []ir.Variable{"?x"}, oj.Proj)
	require.Len(t, oj.Clauses, 2)
}

func TestParseAggregateFind(t *testing.T) {
	q, err := ir.ParseQuery(`[:find (min ?t) :where [?op :assign/time ?t]]`)
	require.NoError(t, err)
	require.Len(t, q.Find, 1)
	agg, ok := q.Find[0].(ir.FindAggregate)
	require.True(t, ok)
	require.Equal(t, "min", agg.Func)
	require.Equal(t, []ir.FnArg{ir.VarArg{Name: "?t"}}, agg.Args)
}

func TestParseAggregateFindConstantArg(t *testing.T) {
	q, err := ir.ParseQuery(`[:find (min ?t 10) :where [?op :assign/time ?t]]`)
	require.NoError(t, err)
	require.Len(t, q.Find, 1)
	agg, ok := q.Find[0].(ir.FindAggregate)
	require.True(t, ok)
	require.Equal(t, "min", agg.Func)
	require.Equal(t, []ir.FnArg{ir.VarArg{Name: "?t"}, ir.ConstArg{Value: ir.NumberValue(10)}}, agg.Args)
}

func TestEmptyWhereIsGrammarError(t *testing.T) {
	_, err := ir.ParseQuery(`[:find ?x :where]`)
	require.Error(t, err)
	var cerr *compileerr.Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, compileerr.KindGrammar, cerr.Kind)
}

func TestEmptyFindIsGrammarError(t *testing.T) {
	_, err := ir.ParseQuery(`[:find :where [?e :a ?v]]`)
	require.Error(t, err)
}

func TestMissingWhereIsGrammarError(t *testing.T) {
	_, err := ir.ParseQuery(`[:find ?x]`)
	require.Error(t, err)
}

func TestRuleSetParsing(t *testing.T) {
	rs, err := ir.ParseRuleSet(`[
        [(propagate ?x ?y) [?x :node ?y]]
        [(propagate ?x ?y) [?z :edge ?y] (propagate ?x ?z)]]`)
	require.NoError(t, err)
	require.Len(t, rs.Defs, 2)
	require.Equal(t, "propagate", rs.Defs[0].Head.Name)
	require.Equal(t, []ir.Variable{"?x", "?y"}, rs.Defs[0].Head.Vars)
}

func TestRuleSetArityMismatchIsGrammarError(t *testing.T) {
	_, err := ir.ParseRuleSet(`[
        [(r ?x) [?x :a ?y]]
        [(r ?x ?y) [?x :b ?y]]]`)
	require.Error(t, err)
	var cerr *compileerr.Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, compileerr.KindGrammar, cerr.Kind)
}

func TestRuleNameCannotLookLikeVariable(t *testing.T) {
	_, err := ir.ParseRuleSet(`[[(?x ?y) [?y :a ?x]]]`)
	require.Error(t, err)
}
