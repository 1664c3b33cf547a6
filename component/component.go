// Package component is the uniform machine-component capability and
// registry (spec.md §4.1 design note, §9), grounded on
// original_source/Server/include/MachineComponent.hpp and
// MachineComponentService.{hpp,cpp}.
package component

import (
	"sync/atomic"

	"rimoserver/logx"
	"rimoserver/types"
)

// StateChangeFunc observes a Base's transitions. Called synchronously
// from whichever goroutine calls SetNormal/SetWarning/SetError, so
// handlers must not block.
type StateChangeFunc func(old, new State)

// State is a component's health, published into RobotStatus as an
// LEDState by the StatusBuilder.
type State int32

const (
	StateNormal State = iota
	StateWarning
	StateError
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "Normal"
	case StateWarning:
		return "Warning"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Component is the capability every hardware subsystem (Contec,
// MotorControl, ControlPanel) implements so the registry and
// StatusBuilder can treat them uniformly.
type Component interface {
	Initialize() error
	Reset()
	ComponentType() types.RobotComponent
	State() State
	OnStateChange(fn StateChangeFunc)
}

// Base embeds atomic state tracking; concrete components embed it and
// implement Initialize/Reset/ComponentType themselves.
type Base struct {
	state   atomic.Int32
	onState atomic.Pointer[StateChangeFunc]
}

// NewBase starts in StateError, matching MachineComponent's
// default-constructed _state.
func NewBase() Base {
	b := Base{}
	b.state.Store(int32(StateError))
	return b
}

func (b *Base) State() State { return State(b.state.Load()) }

// OnStateChange installs fn as the sole observer of this component's
// state transitions, replacing any previously installed observer. Used
// by eventbus to turn transitions into published events (spec.md's
// component lifecycle event bus).
func (b *Base) OnStateChange(fn StateChangeFunc) { b.onState.Store(&fn) }

func (b *Base) setState(s State) {
	old := State(b.state.Swap(int32(s)))
	if old == s {
		return
	}
	if fn := b.onState.Load(); fn != nil {
		(*fn)(old, s)
	}
}

func (b *Base) SetState(s State) { b.setState(s) }
func (b *Base) SetNormal()       { b.setState(StateNormal) }
func (b *Base) SetWarning()      { b.setState(StateWarning) }
func (b *Base) SetError()        { b.setState(StateError) }

// Service is the component registry: reconnect-by-id and
// initialize-all, matching MachineComponentService.
type Service struct {
	log        *logx.Logger
	components map[types.RobotComponent]Component
}

// NewService builds a registry over components.
func NewService(components map[types.RobotComponent]Component) *Service {
	return &Service{log: logx.New("component"), components: components}
}

// Reconnect resets then reinitializes componentId, returning "" on
// success or a diagnostic string on failure — never an error, since the
// caller surfaces this text directly as a command reply.
func (s *Service) Reconnect(componentID types.RobotComponent) string {
	c, ok := s.components[componentID]
	if !ok || c == nil {
		return "Resetting of '" + componentID.String() + "' is not implemented!"
	}
	s.log.Info("Reconnecting %s...", componentID)
	c.Reset()
	if err := c.Initialize(); err != nil {
		return "Resetting '" + componentID.String() + "' failed: " + err.Error()
	}
	if c.State() != StateNormal {
		return "Resetting '" + componentID.String() + "' was unsuccessful!"
	}
	return ""
}

// InitializeAll initializes every registered component, logging (not
// failing) on individual errors.
func (s *Service) InitializeAll() {
	for componentType, c := range s.components {
		if c == nil {
			continue
		}
		if err := c.Initialize(); err != nil {
			s.log.Error(err, "%s initialization failed", componentType)
		}
	}
}

// Get returns the registered component for id, if any.
func (s *Service) Get(id types.RobotComponent) (Component, bool) {
	c, ok := s.components[id]
	return c, ok
}
