// Package ir holds the raw, unvalidated-no-more intermediate
// representation the Grammar & Validator stage (spec §4.1) produces:
// clauses, queries, and rule sets exactly as written, before the
// Normalizer ever sees them. Trees here are built once by Parse and
// never mutated afterward.
package ir

import (
	"fmt"
	"strings"

	"github.com/janusql/compiler/plan"
)

// Variable is a logic variable, identified syntactically by a leading
// '?' (e.g. "?x").
type Variable string

// IsVariable reports whether v has the leading '?' that marks a logic
// variable; the grammar uses it to tell variables from rule names.
func (v Variable) IsVariable() bool { return strings.HasPrefix(string(v), "?") }

func (v Variable) String() string { return string(v) }

// ValueKind tags the variant a Value holds.
type ValueKind int

const (
	KindNumber ValueKind = iota
	KindString
	KindBool
)

// Value is a constant literal appearing in source text: a Number,
// String, or Bool.
type Value struct {
	Kind ValueKind
	Num  int64
	Str  string
	Bool bool
}

func NumberValue(n int64) Value  { return Value{Kind: KindNumber, Num: n} }
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }
func BoolValue(b bool) Value     { return Value{Kind: KindBool, Bool: b} }

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return fmt.Sprintf("%d", v.Num)
	case KindString:
		return fmt.Sprintf("%q", v.Str)
	case KindBool:
		return fmt.Sprintf("%v", v.Bool)
	default:
		return "<value>"
	}
}

// ToTagged renders a Value in the plan package's external TaggedValue
// shape, per spec §4.4's render_value.
func (v Value) ToTagged() plan.TaggedValue {
	switch v.Kind {
	case KindNumber:
		return plan.NumberValue(v.Num)
	case KindString:
		return plan.StringValue(v.Str)
	case KindBool:
		return plan.BoolValue(v.Bool)
	default:
		return plan.TaggedValue{}
	}
}

// FnArg is an argument to a predicate, aggregate, or rule invocation:
// either a Variable or a constant Value.
type FnArg interface {
	isFnArg()
	String() string
}

// VarArg is a variable argument.
type VarArg struct{ Name Variable }

func (VarArg) isFnArg()      {}
func (a VarArg) String() string { return a.Name.String() }

// ConstArg is a constant argument.
type ConstArg struct{ Value Value }

func (ConstArg) isFnArg()        {}
func (a ConstArg) String() string { return a.Value.String() }

// FindElement is one element of a query's :find spec: a bare variable
// or an aggregate application.
type FindElement interface {
	isFindElement()
	String() string
}

// FindVar is a plain variable in :find.
type FindVar struct{ Symbol Variable }

func (FindVar) isFindElement()   {}
func (f FindVar) String() string { return f.Symbol.String() }

// FindAggregate is an aggregate application, e.g. "(min ?t)". Args are
// FnArgs rather than bare Variables so a constant argument (e.g. "(min
// ?t 10)") parses the same way a predicate or rule invocation's
// arguments do, and hoists the same way at resolve time.
type FindAggregate struct {
	Func string
	Args []FnArg
}

func (FindAggregate) isFindElement() {}
func (f FindAggregate) String() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("(%s %s)", f.Func, strings.Join(parts, " "))
}

// OrderDirection is ascending or descending sort order for an
// :order-by clause (ambient extension: parsed and validated, not yet
// lowered to a plan node — see SPEC_FULL.md §4).
type OrderDirection string

const (
	Asc  OrderDirection = "asc"
	Desc OrderDirection = "desc"
)

// OrderByClause orders results by one variable.
type OrderByClause struct {
	Var       Variable
	Direction OrderDirection
}

// Query is a parsed, grammar-validated Datalog query.
type Query struct {
	Find    []FindElement
	In      []Variable
	Where   []Clause
	OrderBy []OrderByClause
}

// RuleHead names a rule and its formal parameters.
type RuleHead struct {
	Name string
	Vars []Variable
}

// RuleDef is one `[(name var...) clause...]` definition. A rule name
// may have several definitions (disjunctive rule), each with the same
// head arity.
type RuleDef struct {
	Head    RuleHead
	Clauses []Clause
}

// RuleSet is a parsed, grammar-validated collection of rule
// definitions.
type RuleSet struct {
	Defs []RuleDef
}
