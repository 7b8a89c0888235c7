package pipeline

import (
	"fmt"
	"maps"
)

// Delta is a partial state update produced by a single step.
type Delta map[string]any

// State is the shared record threaded through a pipeline run. It is a
// value type: Apply returns a new State and never mutates the receiver,
// so each step observes exactly the state its predecessors produced.
type State struct {
	channels Channels
	values   map[string]any
}

// NewState creates an empty State bound to the given channel registry.
func NewState(channels Channels) State {
	return State{
		channels: channels,
		values:   make(map[string]any),
	}
}

// Get returns the current value for field, or the channel default when the
// field has never been written. Unregistered fields resolve to nil.
func (s State) Get(field string) any {
	if v, ok := s.values[field]; ok {
		return v
	}
	if ch, ok := s.channels[field]; ok {
		return ch.Default()
	}
	return nil
}

// Lookup returns the raw value for field and whether it has been written.
func (s State) Lookup(field string) (any, bool) {
	v, ok := s.values[field]
	return v, ok
}

// Apply merges a delta into the state, returning the updated State.
// Every delta field must name a registered channel.
func (s State) Apply(delta Delta) (State, error) {
	next := State{
		channels: s.channels,
		values:   maps.Clone(s.values),
	}

	for field, incoming := range delta {
		ch, ok := s.channels[field]
		if !ok {
			return s, fmt.Errorf("%w: %s", ErrUnknownField, field)
		}

		old, written := next.values[field]
		if !written {
			old = ch.Default()
		}
		next.values[field] = ch.Merge(old, incoming)
	}

	return next, nil
}

// Values returns a copy of every written field, for diagnostics and
// run transcripts.
func (s State) Values() map[string]any {
	return maps.Clone(s.values)
}
