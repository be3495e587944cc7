// Package normalize implements the Normalizer stage (spec §4.2): it
// walks nested and/or/or-join/not contexts, flattens clauses into a
// tagged flat list, and hoists constant predicate/rule arguments into
// synthetic inputs.
package normalize

import (
	"fmt"
	"strings"

	"github.com/janusql/compiler/ir"
)

// Method is the logical combinator a scope was introduced by.
type Method int

const (
	Conjunction Method = iota
	Disjunction
)

func (m Method) String() string {
	if m == Disjunction {
		return "Disjunction"
	}
	return "Conjunction"
}

// Step is one entry of a Tag: a scope introduced by and/or/or-join/not.
// Proj is only set for or-join steps, recording the projection that
// must survive the disjunction.
type Step struct {
	Method  Method
	ScopeID string
	Proj    []ir.Variable
}

func (s Step) String() string {
	if len(s.Proj) > 0 {
		parts := make([]string, len(s.Proj))
		for i, v := range s.Proj {
			parts[i] = v.String()
		}
		return fmt.Sprintf("(%s %s [%s])", s.Method, s.ScopeID, strings.Join(parts, " "))
	}
	return fmt.Sprintf("(%s %s)", s.Method, s.ScopeID)
}

// Tag is an ordered path from the root scope down to the scope that
// produced a clause. Invariant 1 (spec §3): every Tag's root step is
// (Conjunction, "root").
type Tag []Step

// Root is the tag every top-level where-clause starts under.
func Root() Tag {
	return Tag{{Method: Conjunction, ScopeID: "root"}}
}

// Push returns a new Tag with step appended; the receiver is left
// unmodified (tags are immutable once built, only ever extended by
// value).
func (t Tag) Push(step Step) Tag {
	out := make(Tag, len(t)+1)
	copy(out, t)
	out[len(t)] = step
	return out
}

// Last returns the tag's terminal step.
func (t Tag) Last() Step {
	return t[len(t)-1]
}

// HasPrefix reports whether prefix is a prefix of t (comparing Method
// and ScopeID; Proj is metadata and does not affect prefix comparison).
func (t Tag) HasPrefix(prefix Tag) bool {
	if len(prefix) > len(t) {
		return false
	}
	for i, s := range prefix {
		if t[i].Method != s.Method || t[i].ScopeID != s.ScopeID {
			return false
		}
	}
	return true
}

// IsStrictPrefixOf reports whether t is a proper prefix of other.
func (t Tag) IsStrictPrefixOf(other Tag) bool {
	return len(t) < len(other) && other.HasPrefix(t)
}

// CommonPrefix returns the longest shared prefix of a and b — the
// "shared context" used to pick a combine method in the Unifier
// (spec §4.4).
func CommonPrefix(a, b Tag) Tag {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i].Method == b[i].Method && a[i].ScopeID == b[i].ScopeID {
		i++
	}
	return a[:i]
}

// String renders the tag as a slash-separated path of steps.
func (t Tag) String() string {
	parts := make([]string, len(t))
	for i, s := range t {
		parts[i] = s.String()
	}
	return strings.Join(parts, "/")
}

// Equal reports whether two tags name the same path.
func (t Tag) Equal(o Tag) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if t[i].Method != o[i].Method || t[i].ScopeID != o[i].ScopeID {
			return false
		}
	}
	return true
}
