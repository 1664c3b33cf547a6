package machine

import (
	"rimoserver/component"
	"rimoserver/config"
	"rimoserver/contec"
	"rimoserver/motorcontrol"
	"rimoserver/types"
)

// contecComponent adapts *contec.Contec to component.Component: Contec
// itself is a lazily-connected transport client with no notion of
// Initialize/state, so this wrapper owns the component.Base lifecycle
// bookkeeping around it (spec.md §4.1 design note's "every hardware
// subsystem exposes the same capability" requirement).
type contecComponent struct {
	component.Base
	*contec.Contec
}

func newContecComponent(c *contec.Contec) *contecComponent {
	return &contecComponent{Base: component.NewBase(), Contec: c}
}

func (x *contecComponent) ComponentType() types.RobotComponent { return types.ComponentContec }

// Initialize probes the module with a read, matching the original's
// reconnect-then-probe pattern (Machine::handleReconnectCommand resets
// then immediately rebuilds a dummy status from a fresh read).
func (x *contecComponent) Initialize() error {
	if _, err := x.Contec.ReadInputs(); err != nil {
		x.SetError()
		return err
	}
	x.SetNormal()
	return nil
}

func (x *contecComponent) Reset() {
	x.Contec.Reset()
	x.SetError()
}

// motorControlComponent adapts *motorcontrol.Fleet the same way:
// Fleet.Initialize takes the per-motor config map spec.md's
// component.Component.Initialize() doesn't carry, so the wrapper
// closes over it.
type motorControlComponent struct {
	component.Base
	*motorcontrol.Fleet
	motorCfgs map[types.Motor]config.MotorConfig
}

func newMotorControlComponent(f *motorcontrol.Fleet, motorCfgs map[types.Motor]config.MotorConfig) *motorControlComponent {
	return &motorControlComponent{Base: component.NewBase(), Fleet: f, motorCfgs: motorCfgs}
}

func (x *motorControlComponent) ComponentType() types.RobotComponent {
	return types.ComponentMotorControl
}

func (x *motorControlComponent) Initialize() error {
	if err := x.Fleet.Initialize(x.motorCfgs); err != nil {
		x.SetError()
		return err
	}
	x.SetNormal()
	return nil
}

func (x *motorControlComponent) Reset() {
	x.Fleet.Reset()
	x.SetError()
}
