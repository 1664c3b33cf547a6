package types

// SingleMotorStatus is the values-only snapshot of one motor.
type SingleMotorStatus struct {
	CurrentPosition float64                      `json:"currentPosition" yaml:"currentPosition"`
	TargetPosition  float64                       `json:"targetPosition" yaml:"targetPosition"`
	Speed           float64                       `json:"speed" yaml:"speed"`
	Torque          int32                         `json:"torque" yaml:"torque"`
	Flags           map[MotorStatusFlag]LEDState  `json:"flags" yaml:"flags"`
}

// ToolChangerStatus is the flag snapshot of one tool changer.
type ToolChangerStatus struct {
	Flags map[ToolChangerFlag]LEDState `json:"flags" yaml:"flags"`
}

// JoystickStatus is one control-panel joystick's normalized reading.
type JoystickStatus struct {
	X   float64 `json:"x" yaml:"x"`
	Y   float64 `json:"y" yaml:"y"`
	Btn bool    `json:"btn" yaml:"btn"`
}

// RobotStatus is the canonical, Machine-owned snapshot of the whole
// robot. It is mutated in place by the control thread and published as
// a read-only copy by the status transport.
type RobotStatus struct {
	Motors           map[Motor]SingleMotorStatus          `json:"motors" yaml:"motors"`
	ToolChangers     map[Arm]ToolChangerStatus             `json:"toolChangers" yaml:"toolChangers"`
	RobotComponents  map[RobotComponent]LEDState           `json:"robotComponents" yaml:"robotComponents"`
	Joysticks        map[Arm]JoystickStatus                `json:"joystics" yaml:"joystics"`
}

// NewRobotStatus returns a RobotStatus with every map populated for the
// fixed domain (six motors, two arms' tool changers, three components,
// three joysticks), so StatusBuilder can always index into it directly.
func NewRobotStatus() *RobotStatus {
	rs := &RobotStatus{
		Motors:          make(map[Motor]SingleMotorStatus, len(motorNames)),
		ToolChangers:    make(map[Arm]ToolChangerStatus, 2),
		RobotComponents: make(map[RobotComponent]LEDState, len(componentNames)),
		Joysticks:       make(map[Arm]JoystickStatus, len(armNames)),
	}
	for _, m := range AllMotors() {
		rs.Motors[m] = SingleMotorStatus{Flags: make(map[MotorStatusFlag]LEDState, 3)}
	}
	for _, a := range []Arm{ArmLeft, ArmRight} {
		rs.ToolChangers[a] = ToolChangerStatus{Flags: make(map[ToolChangerFlag]LEDState, 5)}
	}
	for _, c := range AllRobotComponents() {
		rs.RobotComponents[c] = LEDError
	}
	for _, a := range AllArms() {
		rs.Joysticks[a] = JoystickStatus{}
	}
	return rs
}
