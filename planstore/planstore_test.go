package planstore_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/janusql/compiler/plan"
	"github.com/janusql/compiler/planstore"
)

func openTestStore(t *testing.T) *planstore.Store {
	t.Helper()
	dir, err := os.MkdirTemp("", "planstore-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	s, err := planstore.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetMissReturnsNil(t *testing.T) {
	s := openTestStore(t)
	cq, err := s.Get(planstore.Key(`[:find ?e :where [?e :a ?v]]`, 1))
	require.NoError(t, err)
	require.Nil(t, cq)
}

func TestPutThenGetRoundTrips(t *testing.T) {
	s := openTestStore(t)
	key := planstore.Key(`[:find ?e :where [?e :a ?v]]`, 1)

	cq := &plan.CompiledQuery{
		Plan: plan.Join{
			Left:    plan.HasAttr{EntityPos: 0, AttrID: 3, ValPos: 1},
			Right:   plan.HasAttr{EntityPos: 0, AttrID: 4, ValPos: 2},
			JoinPos: 0,
		},
		Inputs: []plan.InputEntry{
			{Var: "?in_0", Binding: plan.ConstInput{Value: plan.NumberValue(10)}},
			{Var: "?max", Binding: plan.ParamInput{Index: 0}},
		},
	}
	require.NoError(t, s.Put(key, cq))

	got, err := s.Get(key)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, cq.Plan, got.Plan)
	require.Equal(t, cq.Inputs, got.Inputs)
}

func TestDifferentEpochsDoNotCollide(t *testing.T) {
	src := `[:find ?e :where [?e :a ?v]]`
	require.NotEqual(t, planstore.Key(src, 1), planstore.Key(src, 2))
}

func TestRuleRoundTrips(t *testing.T) {
	s := openTestStore(t)
	key := planstore.RuleKey("propagate", 1)

	r := &plan.Rule{
		Name: "propagate",
		Plan: plan.HasAttr{EntityPos: 0, AttrID: 1, ValPos: 1},
	}
	require.NoError(t, s.PutRule(key, r))

	got, err := s.GetRule(key)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, r.Name, got.Name)
	require.Equal(t, r.Plan, got.Plan)
}
