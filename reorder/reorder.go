// Package reorder implements the Reorderer stage (spec §4.3): a stable
// sort of clauses by tag and clause id. The sort does not look at a
// clause's deps; a predicate or rule invocation that sorts ahead of the
// clauses binding its variables is held back by the Unifier's deferred
// queue instead.
package reorder

import (
	"sort"

	"github.com/janusql/compiler/normalize"
)

// Reorder returns a new stably-sorted slice; clauses is left untouched.
//
// For any pair (a, b): if a.Tag is a strict prefix of b.Tag, a sorts
// first. Otherwise clauses are ordered by ascending tag path (lexical
// string comparison), and ties broken by descending clause id — a
// tie-break with no semantic meaning beyond making the sort
// deterministic (spec §4.3, §9).
func Reorder(clauses []normalize.Clause) []normalize.Clause {
	out := make([]normalize.Clause, len(clauses))
	copy(out, clauses)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Tag.IsStrictPrefixOf(b.Tag) {
			return true
		}
		if b.Tag.IsStrictPrefixOf(a.Tag) {
			return false
		}
		as, bs := a.Tag.String(), b.Tag.String()
		if as != bs {
			return as < bs
		}
		return a.ID > b.ID
	})
	return out
}
