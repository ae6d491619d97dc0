// Package fsm gives the four phase-tagged state machines in sshc
// (connection, kex, auth, channel) a common, tiny scaffold:
// a monotonic phase guard and a buffered event loop, driven by a select
// loop over incoming events, advancing, and closing down.
package fsm

import "fmt"

// Phase is any ordered, named phase enum (ConnPhase, KexPhase, ...).
type Phase interface {
	comparable
	fmt.Stringer
}

// Ordered associates each phase value with its position in the sequence
// the owning state machine is allowed to move through. Phases never
// revisit an earlier position.
type Ordered[P Phase] struct {
	order map[P]int
	seq   []P
}

// NewOrdered builds an Ordered guard from phases listed earliest-first.
func NewOrdered[P Phase](phases ...P) *Ordered[P] {
	o := &Ordered[P]{order: make(map[P]int, len(phases)), seq: phases}
	for i, p := range phases {
		o.order[p] = i
	}
	return o
}

// Advance validates that next is not strictly earlier than cur. It
// returns the validated next phase unchanged, so callers can write
// `o.phase, err = guard.Advance(o.phase, next)`.
func (o *Ordered[P]) Advance(cur, next P) (P, error) {
	ci, ok := o.order[cur]
	if !ok {
		return cur, fmt.Errorf("fsm: unknown current phase %s", cur)
	}
	ni, ok := o.order[next]
	if !ok {
		return cur, fmt.Errorf("fsm: unknown target phase %s", next)
	}
	if ni < ci {
		return cur, fmt.Errorf("fsm: illegal backward transition %s -> %s", cur, next)
	}
	return next, nil
}

// EventLoop is a small buffered event queue. Connection.run (session.go)
// receives from it; transport callbacks, caller API calls, and the KEX
// timer post into it, so every event is handled on the same single
// goroutine that owns all other state, without an extra lock.
type EventLoop[E any] struct {
	events chan E
}

// NewEventLoop creates an event loop with the given buffer depth.
func NewEventLoop[E any](buffer int) *EventLoop[E] {
	return &EventLoop[E]{events: make(chan E, buffer)}
}

// Post enqueues an event. It blocks only while the buffer chosen at
// construction is full; callers size the buffer for their worst case.
// sshc's Connection uses 16 slots.
func (l *EventLoop[E]) Post(e E) { l.events <- e }

// Events returns the receive side, for use in a select statement.
func (l *EventLoop[E]) Events() <-chan E { return l.events }

// Close shuts the loop down. Further Post calls will panic; callers must
// stop posting before calling Close.
func (l *EventLoop[E]) Close() { close(l.events) }
