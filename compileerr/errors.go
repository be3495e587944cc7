// Package compileerr defines the structured error taxonomy every
// compiler failure surfaces through (spec §7): a single Error type
// tagged with a Kind plus contextual Fields, so a caller can locate the
// offending clause, tag, or variable without parsing a message string.
package compileerr

import "fmt"

// Kind names one of the ten fatal error categories the compiler can
// raise. Named the way the teacher's annotations package names its
// hierarchical event constants.
type Kind string

const (
	KindGrammar             Kind = "grammar"
	KindUnknownAttribute    Kind = "unknown-attribute"
	KindUnknownSymbol       Kind = "unknown-symbol"
	KindFindUnbound         Kind = "find-unbound"
	KindPredicateUnbound    Kind = "predicate-unbound"
	KindAggregateUnbound    Kind = "aggregate-unbound"
	KindUnionIncompatible   Kind = "union-incompatible"
	KindUnboundNot          Kind = "unbound-not"
	KindUnintroducable      Kind = "unintroducable-clauses"
	KindUnionOfUnions       Kind = "union-of-unions"
)

// Field is one piece of diagnostic context attached to an Error, e.g.
// {"clause", 7} or {"tag", "(Conjunction root)/(Disjunction or-3)"}.
type Field struct {
	Key   string
	Value interface{}
}

// F is shorthand for constructing a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Error is the single structured error type every compiler stage
// returns. It wraps an optional underlying cause so callers can still
// use errors.As/errors.Is against it or its wrapped error.
type Error struct {
	Kind    Kind
	Message string
	Fields  []Field
	Cause   error
}

// New constructs an Error of the given Kind with no wrapped cause.
func New(kind Kind, message string, fields ...Field) *Error {
	return &Error{Kind: kind, Message: message, Fields: fields}
}

// Wrap constructs an Error of the given Kind wrapping cause.
func Wrap(kind Kind, cause error, message string, fields ...Field) *Error {
	return &Error{Kind: kind, Message: message, Fields: fields, Cause: cause}
}

func (e *Error) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	for _, f := range e.Fields {
		s += fmt.Sprintf(" %s=%v", f.Key, f.Value)
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Field looks up the first field with the given key.
func (e *Error) Field(key string) (interface{}, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}
