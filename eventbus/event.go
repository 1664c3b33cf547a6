package eventbus

import "rimoserver/component"

// ComponentStateChangedType is the Event.Type() every ComponentStateChanged
// event carries.
const ComponentStateChangedType = "component.state_changed"

// ComponentStateChanged fires whenever a registered component's health
// transitions (spec.md's component lifecycle event bus), carrying
// enough to let a diagnostics mirror push a single component's status
// without recomputing the whole RobotStatus.
type ComponentStateChanged struct {
	Component string
	Old       component.State
	New       component.State
}

func (e ComponentStateChanged) Type() string { return ComponentStateChangedType }
func (e ComponentStateChanged) Data() any    { return e }

// DefaultEvent is the untyped Event PublishData constructs.
type DefaultEvent struct {
	EventType string
	EventData any
}

func (e DefaultEvent) Type() string { return e.EventType }
func (e DefaultEvent) Data() any    { return e.EventData }
