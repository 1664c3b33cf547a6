// Package status builds the published RobotStatus snapshot on each
// control-loop update tick (spec.md §4.12), grounded on the
// StatusBuilder responsibilities distilled from
// original_source/Server/src/MachineController.cpp's update pass (no
// single original_source/StatusBuilder.* file survived the filtered
// corpus; semantics here follow spec.md §4.12 and §8 literally).
package status

import (
	"rimoserver/component"
	"rimoserver/types"
)

// JoystickSource reports the latest debounced joystick reading for arm.
type JoystickSource interface {
	Joystick(arm types.Arm) types.JoystickStatus
}

// BitSource reads a discrete bit vector, returning an error when the
// underlying device is unreachable — "absent" in spec.md §4.12's sense.
type BitSource interface {
	ReadInputs() ([]bool, error)
	ReadOutputs() ([]bool, error)
}

// Builder assembles a RobotStatus snapshot from component states, the
// control-panel joystick cells, and the Contec I/O map.
type Builder struct {
	components    *component.Service
	joysticks     JoystickSource
	io            BitSource
	inputMapping  map[string]int
	outputMapping map[string]int
}

// New builds a Builder. inputMapping/outputMapping are the Machine
// config's name→index maps (spec.md §6): "button1"/"button2" for
// inputs, "toolChangerLeft"/"toolChangerRight" for outputs.
func New(components *component.Service, joysticks JoystickSource, io BitSource, inputMapping, outputMapping map[string]int) *Builder {
	return &Builder{
		components: components, joysticks: joysticks, io: io,
		inputMapping: inputMapping, outputMapping: outputMapping,
	}
}

func componentStateToLED(s component.State) types.LEDState {
	switch s {
	case component.StateNormal:
		return types.LEDOn
	case component.StateWarning:
		return types.LEDWarning
	default:
		return types.LEDError
	}
}

func boolToLED(on bool) types.LEDState {
	if on {
		return types.LEDOn
	}
	return types.LEDOff
}

// Update mutates status in place with a fresh snapshot. status is
// exclusively owned by the caller (Machine) and must not be read
// concurrently with this call.
func (b *Builder) Update(status *types.RobotStatus) {
	for _, id := range types.AllRobotComponents() {
		led := types.LEDError
		if c, ok := b.components.Get(id); ok {
			led = componentStateToLED(c.State())
		}
		status.RobotComponents[id] = led
	}

	for _, arm := range types.AllArms() {
		status.Joysticks[arm] = b.joysticks.Joystick(arm)
	}

	b.updateToolChangerProxSen(status)
	b.updateToolChangerValves(status)
}

func (b *Builder) updateToolChangerProxSen(status *types.RobotStatus) {
	inputs, err := b.io.ReadInputs()
	if err != nil {
		setToolChangerFlag(status, types.ArmLeft, types.FlagProxSen, types.LEDError)
		setToolChangerFlag(status, types.ArmRight, types.FlagProxSen, types.LEDError)
		return
	}
	setToolChangerFlag(status, types.ArmLeft, types.FlagProxSen, bitFlag(inputs, b.inputMapping, "button1"))
	setToolChangerFlag(status, types.ArmRight, types.FlagProxSen, bitFlag(inputs, b.inputMapping, "button2"))
}

func (b *Builder) updateToolChangerValves(status *types.RobotStatus) {
	outputs, err := b.io.ReadOutputs()
	if err != nil {
		for _, arm := range [2]types.Arm{types.ArmLeft, types.ArmRight} {
			setToolChangerFlag(status, arm, types.FlagOpenValve, types.LEDError)
			setToolChangerFlag(status, arm, types.FlagClosedValve, types.LEDError)
		}
		return
	}

	setValvePair(status, types.ArmLeft, outputs, b.outputMapping, "toolChangerLeft")
	setValvePair(status, types.ArmRight, outputs, b.outputMapping, "toolChangerRight")
}

func setValvePair(status *types.RobotStatus, arm types.Arm, bits []bool, mapping map[string]int, key string) {
	idx, ok := mapping[key]
	open := ok && idx < len(bits) && bits[idx]
	setToolChangerFlag(status, arm, types.FlagOpenValve, boolToLED(open))
	setToolChangerFlag(status, arm, types.FlagClosedValve, boolToLED(!open))
}

func bitFlag(bits []bool, mapping map[string]int, key string) types.LEDState {
	idx, ok := mapping[key]
	if !ok || idx >= len(bits) {
		return types.LEDError
	}
	return boolToLED(bits[idx])
}

func setToolChangerFlag(status *types.RobotStatus, arm types.Arm, flag types.ToolChangerFlag, led types.LEDState) {
	tc, ok := status.ToolChangers[arm]
	if !ok {
		tc = types.ToolChangerStatus{Flags: map[types.ToolChangerFlag]types.LEDState{}}
	}
	if tc.Flags == nil {
		tc.Flags = map[types.ToolChangerFlag]types.LEDState{}
	}
	tc.Flags[flag] = led
	status.ToolChangers[arm] = tc
}
