// Package types holds the wire/domain data model: the enumerations and
// status structs of spec.md §3, string-serialized at every boundary
// (config file, command wire protocol, status publication).
package types

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Motor identifies one of the six gantry stepper motors.
type Motor int

const (
	XLeft Motor = iota
	XRight
	YLeft
	YRight
	ZLeft
	ZRight
)

var motorNames = [...]string{"XLeft", "XRight", "YLeft", "YRight", "ZLeft", "ZRight"}

func (m Motor) String() string {
	if int(m) < 0 || int(m) >= len(motorNames) {
		return "Unknown"
	}
	return motorNames[m]
}

// ParseMotor parses a wire/config Motor name.
func ParseMotor(s string) (Motor, error) {
	for i, n := range motorNames {
		if n == s {
			return Motor(i), nil
		}
	}
	return 0, fmt.Errorf("unknown Motor %q", s)
}

// AllMotors lists every Motor value, in wire order.
func AllMotors() []Motor {
	out := make([]Motor, len(motorNames))
	for i := range motorNames {
		out[i] = Motor(i)
	}
	return out
}

func (m Motor) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (m *Motor) UnmarshalText(b []byte) error { v, err := ParseMotor(string(b)); *m = v; return err }
func (m Motor) MarshalYAML() (any, error)     { return m.String(), nil }
func (m *Motor) UnmarshalYAML(n *yaml.Node) error {
	v, err := ParseMotor(n.Value)
	*m = v
	return err
}

// Arm identifies one of the two manipulator arms, plus the gantry stage.
type Arm int

const (
	ArmLeft Arm = iota
	ArmRight
	ArmGantry
)

var armNames = [...]string{"Left", "Right", "Gantry"}

func (a Arm) String() string {
	if int(a) < 0 || int(a) >= len(armNames) {
		return "Unknown"
	}
	return armNames[a]
}

func ParseArm(s string) (Arm, error) {
	for i, n := range armNames {
		if n == s {
			return Arm(i), nil
		}
	}
	return 0, fmt.Errorf("unknown Arm %q", s)
}

func AllArms() []Arm { return []Arm{ArmLeft, ArmRight, ArmGantry} }

func (a Arm) MarshalText() ([]byte, error)  { return []byte(a.String()), nil }
func (a *Arm) UnmarshalText(b []byte) error { v, err := ParseArm(string(b)); *a = v; return err }
func (a Arm) MarshalYAML() (any, error)     { return a.String(), nil }
func (a *Arm) UnmarshalYAML(n *yaml.Node) error {
	v, err := ParseArm(n.Value)
	*a = v
	return err
}

// RobotComponent identifies one of the three hardware subsystems.
type RobotComponent int

const (
	ComponentContec RobotComponent = iota
	ComponentMotorControl
	ComponentControlPanel
)

var componentNames = [...]string{"Contec", "MotorControl", "ControlPanel"}

func (c RobotComponent) String() string {
	if int(c) < 0 || int(c) >= len(componentNames) {
		return "Unknown"
	}
	return componentNames[c]
}

func ParseRobotComponent(s string) (RobotComponent, error) {
	for i, n := range componentNames {
		if n == s {
			return RobotComponent(i), nil
		}
	}
	return 0, fmt.Errorf("unknown RobotComponent %q", s)
}

func AllRobotComponents() []RobotComponent {
	return []RobotComponent{ComponentContec, ComponentMotorControl, ComponentControlPanel}
}

func (c RobotComponent) MarshalText() ([]byte, error) { return []byte(c.String()), nil }
func (c *RobotComponent) UnmarshalText(b []byte) error {
	v, err := ParseRobotComponent(string(b))
	*c = v
	return err
}
func (c RobotComponent) MarshalYAML() (any, error) { return c.String(), nil }
func (c *RobotComponent) UnmarshalYAML(n *yaml.Node) error {
	v, err := ParseRobotComponent(n.Value)
	*c = v
	return err
}

// LEDState is the visual/health state reported for a status flag.
type LEDState int

const (
	LEDOn LEDState = iota
	LEDOff
	LEDError
	LEDErrorBlinking
	LEDWarning
)

var ledStateNames = [...]string{"On", "Off", "Error", "ErrorBlinking", "Warning"}

func (l LEDState) String() string {
	if int(l) < 0 || int(l) >= len(ledStateNames) {
		return "Unknown"
	}
	return ledStateNames[l]
}

func ParseLEDState(s string) (LEDState, error) {
	for i, n := range ledStateNames {
		if n == s {
			return LEDState(i), nil
		}
	}
	return 0, fmt.Errorf("unknown LEDState %q", s)
}

func (l LEDState) MarshalText() ([]byte, error) { return []byte(l.String()), nil }
func (l *LEDState) UnmarshalText(b []byte) error {
	v, err := ParseLEDState(string(b))
	*l = v
	return err
}

// ToolChangerAction is a requested actuation of a tool changer.
type ToolChangerAction int

const (
	ActionOpen ToolChangerAction = iota
	ActionClose
)

var toolChangerActionNames = [...]string{"Open", "Close"}

func (a ToolChangerAction) String() string {
	if int(a) < 0 || int(a) >= len(toolChangerActionNames) {
		return "Unknown"
	}
	return toolChangerActionNames[a]
}

func ParseToolChangerAction(s string) (ToolChangerAction, error) {
	for i, n := range toolChangerActionNames {
		if n == s {
			return ToolChangerAction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown ToolChangerAction %q", s)
}

func (a ToolChangerAction) MarshalText() ([]byte, error) { return []byte(a.String()), nil }
func (a *ToolChangerAction) UnmarshalText(b []byte) error {
	v, err := ParseToolChangerAction(string(b))
	*a = v
	return err
}

// ToolChangerFlag names one signal of a tool changer's status map.
type ToolChangerFlag int

const (
	FlagProxSen ToolChangerFlag = iota
	FlagOpenSen
	FlagClosedSen
	FlagOpenValve
	FlagClosedValve
)

var toolChangerFlagNames = [...]string{"ProxSen", "OpenSen", "ClosedSen", "OpenValve", "ClosedValve"}

func (f ToolChangerFlag) String() string {
	if int(f) < 0 || int(f) >= len(toolChangerFlagNames) {
		return "Unknown"
	}
	return toolChangerFlagNames[f]
}

func AllToolChangerFlags() []ToolChangerFlag {
	return []ToolChangerFlag{FlagProxSen, FlagOpenSen, FlagClosedSen, FlagOpenValve, FlagClosedValve}
}

func ParseToolChangerFlag(s string) (ToolChangerFlag, error) {
	for i, n := range toolChangerFlagNames {
		if n == s {
			return ToolChangerFlag(i), nil
		}
	}
	return 0, fmt.Errorf("unknown ToolChangerFlag %q", s)
}

func (f ToolChangerFlag) MarshalText() ([]byte, error) { return []byte(f.String()), nil }
func (f *ToolChangerFlag) UnmarshalText(b []byte) error {
	v, err := ParseToolChangerFlag(string(b))
	*f = v
	return err
}

// MotorStatusFlag names one signal of a motor's status map.
type MotorStatusFlag int

const (
	MotorFlagBrakeApplied MotorStatusFlag = iota
	MotorFlagEnabled
	MotorFlagError
)

var motorStatusFlagNames = [...]string{"BrakeApplied", "Enabled", "Error"}

func (f MotorStatusFlag) String() string {
	if int(f) < 0 || int(f) >= len(motorStatusFlagNames) {
		return "Unknown"
	}
	return motorStatusFlagNames[f]
}

func AllMotorStatusFlags() []MotorStatusFlag {
	return []MotorStatusFlag{MotorFlagBrakeApplied, MotorFlagEnabled, MotorFlagError}
}

func ParseMotorStatusFlag(s string) (MotorStatusFlag, error) {
	for i, n := range motorStatusFlagNames {
		if n == s {
			return MotorStatusFlag(i), nil
		}
	}
	return 0, fmt.Errorf("unknown MotorStatusFlag %q", s)
}

func (f MotorStatusFlag) MarshalText() ([]byte, error) { return []byte(f.String()), nil }
func (f *MotorStatusFlag) UnmarshalText(b []byte) error {
	v, err := ParseMotorStatusFlag(string(b))
	*f = v
	return err
}
