// Package plan defines the relational dataflow plan tree that is the
// compiler's sole output (spec §6). Every node is a fixed-shape,
// immutable variant; nothing outside this package ever mutates a Node
// once built. This is the external contract handed to the (out of
// scope) dataflow executor — field names, node kinds, and PredOp
// strings must not be renamed.
package plan

import (
	"fmt"
	"strings"
)

// PredOp is one of the six comparison operators a PredExpr node can
// carry. The encoded strings are part of the external contract.
type PredOp string

const (
	OpLT  PredOp = "LT"
	OpLTE PredOp = "LTE"
	OpGT  PredOp = "GT"
	OpGTE PredOp = "GTE"
	OpEQ  PredOp = "EQ"
	OpNEQ PredOp = "NEQ"
)

// TaggedValue is a constant literal tagged by its kind, exactly the
// shape spec §6 requires: {Number} | {String} | {Bool}.
type TaggedValue struct {
	Number *int64
	Str    *string
	Bool   *bool
}

// NumberValue builds a TaggedValue holding a Number.
func NumberValue(n int64) TaggedValue { return TaggedValue{Number: &n} }

// StringValue builds a TaggedValue holding a String.
func StringValue(s string) TaggedValue { return TaggedValue{Str: &s} }

// BoolValue builds a TaggedValue holding a Bool.
func BoolValue(b bool) TaggedValue { return TaggedValue{Bool: &b} }

func (v TaggedValue) String() string {
	switch {
	case v.Number != nil:
		return fmt.Sprintf("%d", *v.Number)
	case v.Str != nil:
		return fmt.Sprintf("%q", *v.Str)
	case v.Bool != nil:
		return fmt.Sprintf("%v", *v.Bool)
	default:
		return "<empty>"
	}
}

// Node is any node in a compiled plan tree.
type Node interface {
	node()
	// Kind returns the node's variant name, e.g. "Join", "Project".
	Kind() string
	String() string
}

// Lookup fetches the value at a fixed (entity, attribute) coordinate
// and binds it at VarPos.
type Lookup struct {
	EntityID int64
	AttrID   int
	VarPos   int
}

func (Lookup) node()          {}
func (Lookup) Kind() string   { return "Lookup" }
func (l Lookup) String() string {
	return fmt.Sprintf("Lookup(e=%d, a=%d, pos=%d)", l.EntityID, l.AttrID, l.VarPos)
}

// Entity scans a fixed entity's attribute/value pairs.
type Entity struct {
	EntityID int64
	AttrPos  int
	ValPos   int
}

func (Entity) node()        {}
func (Entity) Kind() string { return "Entity" }
func (e Entity) String() string {
	return fmt.Sprintf("Entity(e=%d, attrPos=%d, valPos=%d)", e.EntityID, e.AttrPos, e.ValPos)
}

// HasAttr scans all entities carrying a fixed attribute.
type HasAttr struct {
	EntityPos int
	AttrID    int
	ValPos    int
}

func (HasAttr) node()        {}
func (HasAttr) Kind() string { return "HasAttr" }
func (h HasAttr) String() string {
	return fmt.Sprintf("HasAttr(ePos=%d, a=%d, valPos=%d)", h.EntityPos, h.AttrID, h.ValPos)
}

// Filter constrains an entity/attribute pair to a fixed constant value.
type Filter struct {
	EntityPos int
	AttrID    int
	Value     TaggedValue
}

func (Filter) node()        {}
func (Filter) Kind() string { return "Filter" }
func (f Filter) String() string {
	return fmt.Sprintf("Filter(ePos=%d, a=%d, v=%s)", f.EntityPos, f.AttrID, f.Value)
}

// Join equi-joins two child plans on a single shared position.
type Join struct {
	Left, Right Node
	JoinPos     int
}

func (Join) node()        {}
func (Join) Kind() string { return "Join" }
func (j Join) String() string {
	return fmt.Sprintf("Join(%s, %s, pos=%d)", j.Left, j.Right, j.JoinPos)
}

// Antijoin removes rows of Left whose JoinPositions also appear in
// Right (Right must bind every position in JoinPositions).
type Antijoin struct {
	Left, Right   Node
	JoinPositions []int
}

func (Antijoin) node()        {}
func (Antijoin) Kind() string { return "Antijoin" }
func (a Antijoin) String() string {
	return fmt.Sprintf("Antijoin(%s, %s, pos=%v)", a.Left, a.Right, a.JoinPositions)
}

// Union merges the rows of every child, each of which must bind exactly
// Positions in the same order.
type Union struct {
	Positions []int
	Children  []Node
}

func (Union) node()        {}
func (Union) Kind() string { return "Union" }
func (u Union) String() string {
	parts := make([]string, len(u.Children))
	for i, c := range u.Children {
		parts[i] = c.String()
	}
	return fmt.Sprintf("Union(%v, [%s])", u.Positions, strings.Join(parts, ", "))
}

// Project restricts Child's output to exactly Positions, in order.
type Project struct {
	Child     Node
	Positions []int
}

func (Project) node()        {}
func (Project) Kind() string { return "Project" }
func (p Project) String() string {
	return fmt.Sprintf("Project(%s, %v)", p.Child, p.Positions)
}

// Aggregate applies a named aggregate function over Child, grouping by
// nothing (v1 supports whole-relation aggregation only) and reading its
// arguments from ArgPositions.
type Aggregate struct {
	Name         string
	Child        Node
	ArgPositions []int
}

func (Aggregate) node()        {}
func (Aggregate) Kind() string { return "Aggregate" }
func (a Aggregate) String() string {
	return fmt.Sprintf("Aggregate(%s, %s, %v)", a.Name, a.Child, a.ArgPositions)
}

// PredExpr filters Child's rows by evaluating Op over ArgPositions.
type PredExpr struct {
	Op           PredOp
	ArgPositions []int
	Child        Node
}

func (PredExpr) node()        {}
func (PredExpr) Kind() string { return "PredExpr" }
func (p PredExpr) String() string {
	return fmt.Sprintf("PredExpr(%s, %v, %s)", p.Op, p.ArgPositions, p.Child)
}

// RuleExpr references a compiled Rule by name; the executor resolves
// (and recurses through) rule references, not the compiler.
type RuleExpr struct {
	Name         string
	ArgPositions []int
}

func (RuleExpr) node()        {}
func (RuleExpr) Kind() string { return "RuleExpr" }
func (r RuleExpr) String() string {
	return fmt.Sprintf("RuleExpr(%s, %v)", r.Name, r.ArgPositions)
}

// InputBinding is either a hoisted constant or a reference to an
// externally supplied :in parameter.
type InputBinding interface {
	inputBinding()
	String() string
}

// ConstInput binds a synthetic variable to a constant hoisted out of a
// predicate/rule invocation's arguments.
type ConstInput struct {
	Value TaggedValue
}

func (ConstInput) inputBinding()   {}
func (c ConstInput) String() string { return c.Value.String() }

// ParamInput binds a synthetic variable to the value supplied at
// position Index of the query's :in clause.
type ParamInput struct {
	Index int
}

func (ParamInput) inputBinding()   {}
func (p ParamInput) String() string { return fmt.Sprintf("$in[%d]", p.Index) }

// InputEntry is one ordered entry of the compiled query's input map.
type InputEntry struct {
	Var     string
	Binding InputBinding
}

// CompiledQuery is the final output of compiling one query: a plan tree
// plus the ordered input map that supplies its hoisted constants and
// external parameters.
type CompiledQuery struct {
	Plan   Node
	Inputs []InputEntry
}

// Rule is the final output of compiling one rule head.
type Rule struct {
	Name string
	Plan Node
}
