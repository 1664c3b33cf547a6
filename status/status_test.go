package status

import (
	"errors"
	"testing"

	"rimoserver/component"
	"rimoserver/types"
)

type fakeComponent struct {
	component.Base
	id types.RobotComponent
}

func (c *fakeComponent) ComponentType() types.RobotComponent { return c.id }
func (c *fakeComponent) Initialize() error                   { return nil }
func (c *fakeComponent) Reset()                              {}

type fakeJoysticks struct{ readings map[types.Arm]types.JoystickStatus }

func (f *fakeJoysticks) Joystick(arm types.Arm) types.JoystickStatus { return f.readings[arm] }

type fakeIO struct {
	inputs, outputs  []bool
	inputErr, outErr error
}

func (f *fakeIO) ReadInputs() ([]bool, error)  { return f.inputs, f.inputErr }
func (f *fakeIO) ReadOutputs() ([]bool, error) { return f.outputs, f.outErr }

func newComponentsService() *component.Service {
	contec := &fakeComponent{id: types.ComponentContec}
	contec.SetNormal()
	motorControl := &fakeComponent{id: types.ComponentMotorControl}
	motorControl.SetWarning()
	panel := &fakeComponent{id: types.ComponentControlPanel}
	panel.SetError()
	return component.NewService(map[types.RobotComponent]component.Component{
		types.ComponentContec:       contec,
		types.ComponentMotorControl: motorControl,
		types.ComponentControlPanel: panel,
	})
}

func TestUpdateMapsComponentStatesToLEDs(t *testing.T) {
	b := New(newComponentsService(), &fakeJoysticks{}, &fakeIO{inputs: []bool{false, false}, outputs: []bool{false, false}},
		map[string]int{"button1": 0, "button2": 1}, map[string]int{"toolChangerLeft": 0, "toolChangerRight": 1})
	rs := types.NewRobotStatus()
	b.Update(rs)

	if rs.RobotComponents[types.ComponentContec] != types.LEDOn {
		t.Errorf("expected Contec LEDOn, got %v", rs.RobotComponents[types.ComponentContec])
	}
	if rs.RobotComponents[types.ComponentMotorControl] != types.LEDWarning {
		t.Errorf("expected MotorControl LEDWarning, got %v", rs.RobotComponents[types.ComponentMotorControl])
	}
	if rs.RobotComponents[types.ComponentControlPanel] != types.LEDError {
		t.Errorf("expected ControlPanel LEDError, got %v", rs.RobotComponents[types.ComponentControlPanel])
	}
}

func TestUpdateCopiesJoysticksForEveryArm(t *testing.T) {
	js := &fakeJoysticks{readings: map[types.Arm]types.JoystickStatus{
		types.ArmLeft: {X: 0.5, Y: -0.5, Btn: true},
	}}
	b := New(newComponentsService(), js, &fakeIO{inputs: []bool{false, false}, outputs: []bool{false, false}}, nil, nil)
	rs := types.NewRobotStatus()
	b.Update(rs)

	if rs.Joysticks[types.ArmLeft] != (types.JoystickStatus{X: 0.5, Y: -0.5, Btn: true}) {
		t.Errorf("expected ArmLeft joystick copied through, got %+v", rs.Joysticks[types.ArmLeft])
	}
}

func TestUpdateMarksToolChangerProxSenErrorWhenInputsUnreachable(t *testing.T) {
	io := &fakeIO{inputErr: errors.New("contec unreachable"), outputs: []bool{false, false}}
	b := New(newComponentsService(), &fakeJoysticks{}, io, map[string]int{"button1": 0, "button2": 1}, nil)
	rs := types.NewRobotStatus()
	b.Update(rs)

	if rs.ToolChangers[types.ArmLeft].Flags[types.FlagProxSen] != types.LEDError {
		t.Errorf("expected LEDError for ArmLeft prox sensor, got %v", rs.ToolChangers[types.ArmLeft].Flags[types.FlagProxSen])
	}
	if rs.ToolChangers[types.ArmRight].Flags[types.FlagProxSen] != types.LEDError {
		t.Errorf("expected LEDError for ArmRight prox sensor, got %v", rs.ToolChangers[types.ArmRight].Flags[types.FlagProxSen])
	}
}

func TestUpdateSetsValvePairMutuallyExclusive(t *testing.T) {
	io := &fakeIO{inputs: []bool{false, false}, outputs: []bool{true, false}}
	b := New(newComponentsService(), &fakeJoysticks{}, io, nil, map[string]int{"toolChangerLeft": 0, "toolChangerRight": 1})
	rs := types.NewRobotStatus()
	b.Update(rs)

	leftFlags := rs.ToolChangers[types.ArmLeft].Flags
	if leftFlags[types.FlagOpenValve] != types.LEDOn || leftFlags[types.FlagClosedValve] != types.LEDOff {
		t.Errorf("expected left valve open/closed-off, got %+v", leftFlags)
	}
	rightFlags := rs.ToolChangers[types.ArmRight].Flags
	if rightFlags[types.FlagOpenValve] != types.LEDOff || rightFlags[types.FlagClosedValve] != types.LEDOn {
		t.Errorf("expected right valve closed/open-off, got %+v", rightFlags)
	}
}

func TestUpdateMarksValvesErrorWhenOutputsUnreachable(t *testing.T) {
	io := &fakeIO{inputs: []bool{false, false}, outErr: errors.New("contec unreachable")}
	b := New(newComponentsService(), &fakeJoysticks{}, io, nil, map[string]int{"toolChangerLeft": 0, "toolChangerRight": 1})
	rs := types.NewRobotStatus()
	b.Update(rs)

	if rs.ToolChangers[types.ArmLeft].Flags[types.FlagOpenValve] != types.LEDError {
		t.Errorf("expected LEDError for left open valve, got %v", rs.ToolChangers[types.ArmLeft].Flags[types.FlagOpenValve])
	}
}

func TestBitFlagMissingMappingIsError(t *testing.T) {
	io := &fakeIO{inputs: []bool{true}, outputs: []bool{false, false}}
	b := New(newComponentsService(), &fakeJoysticks{}, io, map[string]int{"button1": 0}, nil)
	rs := types.NewRobotStatus()
	b.Update(rs)

	if rs.ToolChangers[types.ArmRight].Flags[types.FlagProxSen] != types.LEDError {
		t.Errorf("expected LEDError when button2 mapping is missing, got %v", rs.ToolChangers[types.ArmRight].Flags[types.FlagProxSen])
	}
}
