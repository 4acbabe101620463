package internal

import (
	"fmt"

	"github.com/google/uuid"
)

type NodeID = uuid.UUID

// PortID locates a port: the owning node plus a dense zero-based index.
type PortID struct {
	Node NodeID `yaml:"node"`
	Port int    `yaml:"port"`
}

func (p PortID) String() string {
	return fmt.Sprintf("%s:%d", p.Node, p.Port)
}

// PortConnection is the schema shape of one input. Exactly one of Upstream or
// Values is set on a well formed snapshot.
type PortConnection struct {
	Upstream *PortID     `yaml:"upstream,omitempty"`
	Values   LoopedValue `yaml:"values,omitempty"`
}

func Upstream(id PortID) PortConnection {
	return PortConnection{Upstream: &id}
}

func Literal(values LoopedValue) PortConnection {
	return PortConnection{Values: Loop(values...)}
}

func (c PortConnection) IsUpstream() bool { return c.Upstream != nil }

func (c PortConnection) isEmpty() bool {
	return c.Upstream == nil && len(c.Values) == 0
}

// InputEntity is the snapshot of one input observer.
type InputEntity struct {
	ID         PortID
	Connection PortConnection
}

type InputObserver struct {
	id     PortID
	values LoopedValue

	// set when connected; values then mirror that output and are never authored
	upstream *PortID
}

func NewInputObserver(id PortID, values LoopedValue, upstream *PortID) *InputObserver {
	o := &InputObserver{id: id, values: Loop(values...)}
	if upstream != nil {
		up := *upstream
		o.upstream = &up
	}
	return o
}

func (o *InputObserver) ID() PortID { return o.id }

// AllLoopedValues returns the current loop of the port.
func (o *InputObserver) AllLoopedValues() LoopedValue { return o.values }

func (o *InputObserver) ActiveValue(ai ActiveIndex) Value { return ai.Lane(o.values) }

// Upstream returns the output feeding this input, if connected.
func (o *InputObserver) Upstream() (PortID, bool) {
	if o.upstream == nil {
		return PortID{}, false
	}
	return *o.upstream, true
}

func (o *InputObserver) IsConnected() bool { return o.upstream != nil }

// Update overwrites the observer from a snapshot in place. The observer keeps
// its identity; calling it twice with the same entity is a no-op.
func (o *InputObserver) Update(from InputEntity) {
	o.id = from.ID

	if from.Connection.Upstream != nil {
		up := *from.Connection.Upstream
		o.upstream = &up
		return
	}

	o.upstream = nil
	if len(from.Connection.Values) > 0 {
		o.values = Loop(from.Connection.Values...)
	}
}

// SetValues replaces the loop and reports whether it changed.
func (o *InputObserver) SetValues(values LoopedValue) bool {
	if o.values.Equal(values) {
		return false
	}
	o.values = Loop(values...)
	return true
}

func (o *InputObserver) Schema() InputEntity {
	if o.upstream != nil {
		return InputEntity{ID: o.id, Connection: Upstream(*o.upstream)}
	}
	return InputEntity{ID: o.id, Connection: Literal(o.values)}
}

func (o *InputObserver) setUpstream(up *PortID) {
	if up == nil {
		o.upstream = nil
		return
	}
	id := *up
	o.upstream = &id
}

type OutputObserver struct {
	id     PortID
	values LoopedValue
}

func NewOutputObserver(id PortID, values LoopedValue) *OutputObserver {
	return &OutputObserver{id: id, values: Loop(values...)}
}

func (o *OutputObserver) ID() PortID { return o.id }

func (o *OutputObserver) AllLoopedValues() LoopedValue { return o.values }

func (o *OutputObserver) ActiveValue(ai ActiveIndex) Value { return ai.Lane(o.values) }

// SetValues replaces the loop and reports whether it changed. It does not
// notify dependents: propagation belongs to the scheduler.
func (o *OutputObserver) SetValues(values LoopedValue) bool {
	if o.values.Equal(values) {
		return false
	}
	o.values = Loop(values...)
	return true
}

func inputValues(observers []*InputObserver) []LoopedValue {
	values := make([]LoopedValue, len(observers))
	for i, o := range observers {
		values[i] = o.values
	}
	return values
}

func outputValues(observers []*OutputObserver) []LoopedValue {
	values := make([]LoopedValue, len(observers))
	for i, o := range observers {
		values[i] = o.values
	}
	return values
}
