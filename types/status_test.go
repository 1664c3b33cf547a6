package types

import "testing"

func TestNewRobotStatusPopulatesFixedDomain(t *testing.T) {
	rs := NewRobotStatus()

	if len(rs.Motors) != len(AllMotors()) {
		t.Errorf("expected %d motors, got %d", len(AllMotors()), len(rs.Motors))
	}
	for _, m := range AllMotors() {
		ms, ok := rs.Motors[m]
		if !ok {
			t.Errorf("missing motor entry for %v", m)
			continue
		}
		if ms.Flags == nil {
			t.Errorf("motor %v: expected a non-nil Flags map", m)
		}
	}

	if len(rs.ToolChangers) != 2 {
		t.Errorf("expected 2 tool changers (left/right), got %d", len(rs.ToolChangers))
	}
	for _, a := range []Arm{ArmLeft, ArmRight} {
		if _, ok := rs.ToolChangers[a]; !ok {
			t.Errorf("missing tool changer entry for %v", a)
		}
	}
	if _, ok := rs.ToolChangers[ArmGantry]; ok {
		t.Error("did not expect a tool changer entry for the gantry")
	}

	for _, c := range AllRobotComponents() {
		if rs.RobotComponents[c] != LEDError {
			t.Errorf("component %v: expected initial LEDError, got %v", c, rs.RobotComponents[c])
		}
	}

	if len(rs.Joysticks) != len(AllArms()) {
		t.Errorf("expected %d joysticks, got %d", len(AllArms()), len(rs.Joysticks))
	}
}
