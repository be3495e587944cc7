package edn_test

import (
	"testing"

	"github.com/janusql/compiler/edn"
	"github.com/stretchr/testify/require"
)

func TestParseVector(t *testing.T) {
	n, err := edn.Parse(`[:find ?x :where [?x :assign/key ?k]]`)
	require.NoError(t, err)
	require.Equal(t, edn.NodeVector, n.Kind)
	require.Equal(t, edn.NodeKeyword, n.Children[0].Kind)
	require.Equal(t, "find", n.Children[0].Text)
	require.Equal(t, "?x", n.Children[1].Text)
}

func TestParseList(t *testing.T) {
	n, err := edn.Parse(`(< ?t1 ?t2)`)
	require.NoError(t, err)
	require.Equal(t, edn.NodeList, n.Kind)
	require.Len(t, n.Children, 3)
	require.Equal(t, "<", n.Children[0].Text)
}

func TestParseNumberAndBool(t *testing.T) {
	n, err := edn.Parse(`[1 -2 3.5 true false]`)
	require.NoError(t, err)
	require.Len(t, n.Children, 5)

	v0, err := n.Children[0].AsNumber()
	require.NoError(t, err)
	require.EqualValues(t, 1, v0)

	v1, err := n.Children[1].AsNumber()
	require.NoError(t, err)
	require.EqualValues(t, -2, v1)

	require.Equal(t, edn.NodeBool, n.Children[3].Kind)
	require.True(t, n.Children[3].AsBool())
	require.False(t, n.Children[4].AsBool())
}

func TestParseString(t *testing.T) {
	n, err := edn.Parse(`"hello\nworld"`)
	require.NoError(t, err)
	require.Equal(t, "hello\nworld", n.Text)
}

func TestUnterminatedVector(t *testing.T) {
	_, err := edn.Parse(`[:find ?x`)
	require.Error(t, err)
}

func TestTrailingInput(t *testing.T) {
	_, err := edn.Parse(`[?x] [?y]`)
	require.Error(t, err)
}
