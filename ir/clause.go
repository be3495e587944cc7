package ir

import (
	"fmt"
	"strings"

	"github.com/janusql/compiler/plan"
)

// Clause is one syntactic element of a query or rule's WHERE, exactly
// as parsed, before normalization flattens nested and/or/not into a
// tagged flat list.
type Clause interface {
	isClause()
	String() string
}

// LookupClause is `[eid keyword variable]`.
type LookupClause struct {
	Entity int64
	Attr   string
	Var    Variable
}

func (LookupClause) isClause() {}
func (c LookupClause) String() string {
	return fmt.Sprintf("[%d :%s %s]", c.Entity, c.Attr, c.Var)
}

// EntityClause is `[eid variable variable]`.
type EntityClause struct {
	Entity  int64
	AttrVar Variable
	ValVar  Variable
}

func (EntityClause) isClause() {}
func (c EntityClause) String() string {
	return fmt.Sprintf("[%d %s %s]", c.Entity, c.AttrVar, c.ValVar)
}

// HasAttrClause is `[variable keyword variable]`.
type HasAttrClause struct {
	EntityVar Variable
	Attr      string
	ValVar    Variable
}

func (HasAttrClause) isClause() {}
func (c HasAttrClause) String() string {
	return fmt.Sprintf("[%s :%s %s]", c.EntityVar, c.Attr, c.ValVar)
}

// FilterClause is `[variable keyword value]`.
type FilterClause struct {
	EntityVar Variable
	Attr      string
	Value     Value
}

func (FilterClause) isClause() {}
func (c FilterClause) String() string {
	return fmt.Sprintf("[%s :%s %s]", c.EntityVar, c.Attr, c.Value)
}

// PredExprClause is `[(predicate fn-arg...)]`.
type PredExprClause struct {
	Op   plan.PredOp
	Args []FnArg
}

func (PredExprClause) isClause() {}
func (c PredExprClause) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("[(%s %s)]", c.Op, strings.Join(parts, " "))
}

// RuleExprClause is `(rule-name fn-arg...)`.
type RuleExprClause struct {
	Name string
	Args []FnArg
}

func (RuleExprClause) isClause() {}
func (c RuleExprClause) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("(%s %s)", c.Name, strings.Join(parts, " "))
}

// AndClause is `(and clause...)`.
type AndClause struct{ Clauses []Clause }

func (AndClause) isClause() {}
func (c AndClause) String() string { return wrapClauses("and", c.Clauses) }

// OrClause is `(or clause...)`.
type OrClause struct{ Clauses []Clause }

func (OrClause) isClause() {}
func (c OrClause) String() string { return wrapClauses("or", c.Clauses) }

// OrJoinClause is `(or-join [var...] clause...)`; Proj is the subset of
// variables that must survive the disjunction.
type OrJoinClause struct {
	Proj    []Variable
	Clauses []Clause
}

func (OrJoinClause) isClause() {}
func (c OrJoinClause) String() string {
	vars := make([]string, len(c.Proj))
	for i, v := range c.Proj {
		vars[i] = v.String()
	}
	return fmt.Sprintf("(or-join [%s] %s)", strings.Join(vars, " "), joinClauses(c.Clauses))
}

// NotClause is `(not clause...)`.
type NotClause struct{ Clauses []Clause }

func (NotClause) isClause() {}
func (c NotClause) String() string { return wrapClauses("not", c.Clauses) }

func wrapClauses(head string, clauses []Clause) string {
	return fmt.Sprintf("(%s %s)", head, joinClauses(clauses))
}

func joinClauses(clauses []Clause) string {
	parts := make([]string, len(clauses))
	for i, cl := range clauses {
		parts[i] = cl.String()
	}
	return strings.Join(parts, " ")
}
