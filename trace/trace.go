// Package trace provides a low-overhead event collector the compiler
// stages report through, so a caller can observe pipeline decisions
// (normalize done, a unification step, find resolution, rule grouping)
// without coupling the compiler to any particular sink.
package trace

import "time"

// Event names, one per pipeline stage transition. Hierarchical naming
// follows the teacher's annotation event constants.
const (
	NormalizeDone  = "normalize/done"
	ReorderDone    = "reorder/done"
	UnifyIntroduce = "unify/introduce"
	UnifyDeferred  = "unify/deferred"
	UnifyDone      = "unify/done"
	ResolveDone    = "resolve/done"
	RuleCompiled   = "rule/compiled"
)

// Event is a single point-in-time occurrence during compilation,
// stamped with the time it was added.
type Event struct {
	Name string
	At   time.Time
	Data map[string]interface{}
}

// Handler processes Events as they occur. A nil Handler is a valid
// no-op sink.
type Handler func(Event)

// Collector accumulates events and forwards each to an optional
// Handler as it is added.
type Collector struct {
	handler Handler
	events  []Event
}

// NewCollector creates a Collector that forwards to handler (which may
// be nil to disable forwarding while still accumulating events).
func NewCollector(handler Handler) *Collector {
	return &Collector{handler: handler}
}

// Add records an event and forwards it to the handler, if any.
func (c *Collector) Add(name string, data map[string]interface{}) {
	if c == nil {
		return
	}
	ev := Event{Name: name, At: now(), Data: data}
	c.events = append(c.events, ev)
	if c.handler != nil {
		c.handler(ev)
	}
}

// Events returns a copy of the events recorded so far.
func (c *Collector) Events() []Event {
	if c == nil {
		return nil
	}
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// now is a var so tests can stub time if ever needed; production uses
// wall-clock time.
var now = time.Now
