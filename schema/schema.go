// Package schema resolves attribute keywords to the integer ids the
// plan tree encodes them as. The compiler treats attribute resolution
// as a pluggable boundary (spec §6's Lookup/HasAttr/Filter/Entity nodes
// carry AttrID, not the keyword text) — this package supplies the
// reference in-memory implementation.
package schema

import (
	"sort"
	"sync"

	"github.com/janusql/compiler/compileerr"
)

// AttributeResolver maps an attribute keyword (without its leading
// colon) to a stable integer id. Implementations must be safe for
// concurrent use by independent compilations (spec §5).
type AttributeResolver interface {
	AttrID(name string) (int, error)
}

// StaticSchema is a fixed, pre-populated attribute table: the reference
// resolver for tests and for callers that already know their attribute
// universe up front.
type StaticSchema struct {
	mu  sync.RWMutex
	ids map[string]int
}

// NewStaticSchema builds a StaticSchema from an ordered attribute list,
// assigning ids by position.
func NewStaticSchema(attrs ...string) *StaticSchema {
	s := &StaticSchema{ids: make(map[string]int, len(attrs))}
	for i, a := range attrs {
		s.ids[a] = i
	}
	return s
}

// AttrID looks up name, failing with compileerr.KindUnknownAttribute if
// it was never declared.
func (s *StaticSchema) AttrID(name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.ids[name]
	if !ok {
		return 0, compileerr.New(compileerr.KindUnknownAttribute,
			"attribute is not declared in the schema", compileerr.F("attr", name))
	}
	return id, nil
}

// Declare adds name to the schema if it is not already present,
// assigning it the next available id, and returns its id either way.
// Useful for tests and REPL-style tooling that grow a schema
// incrementally rather than declaring it all up front.
func (s *StaticSchema) Declare(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.ids[name]; ok {
		return id
	}
	id := len(s.ids)
	s.ids[name] = id
	return id
}

// Attributes returns every declared attribute name in lexical order.
func (s *StaticSchema) Attributes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.ids))
	for name := range s.ids {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
