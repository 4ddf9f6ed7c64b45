// Package lifecycle holds the explicit state machines for rental agreements,
// eviction logs and breach logs. Every status mutation in the service goes
// through one of the Transition functions here.
package lifecycle

import (
	"errors"
	"fmt"
)

// ErrRejected is returned (wrapped) for any transition the table does not allow.
var ErrRejected = errors.New("transition_rejected")

// Event names an input to a state machine.
type Event string

type table[S ~string] map[S]map[Event]S

func (t table[S]) next(machine string, current S, ev Event) (S, error) {
	edges, ok := t[current]
	if !ok {
		return current, fmt.Errorf("%w: %s has no transitions out of %q", ErrRejected, machine, current)
	}
	target, ok := edges[ev]
	if !ok {
		return current, fmt.Errorf("%w: %s cannot %q from %q", ErrRejected, machine, ev, current)
	}
	return target, nil
}

func (t table[S]) can(current S, ev Event) bool {
	_, ok := t[current][ev]
	return ok
}
