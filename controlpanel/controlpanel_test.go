package controlpanel

import (
	"testing"

	"rimoserver/config"
	"rimoserver/types"
)

func newTestControlPanel() *ControlPanel {
	return New(config.ControlPanel{
		Processing: config.ControlPanelProcessing{
			MovingAverageDepth:    3,
			BaselineSamples:       2,
			ButtonDebounceSamples: 2,
		},
	})
}

func centeredLine() string {
	// 512 is the joystick center for all three channels, button released.
	return "512 512 0 512 512 0 512 512 0"
}

func TestProcessLineIgnoresMalformedInput(t *testing.T) {
	cp := newTestControlPanel()
	cp.processLine("not enough fields")
	x, y, b := cp.cells[0].load()
	if x != 0 || y != 0 || b {
		t.Errorf("expected no state change from a malformed line, got x=%v y=%v b=%v", x, y, b)
	}
}

func TestProcessLineRejectsOutOfRangeValues(t *testing.T) {
	cp := newTestControlPanel()
	cp.processLine("1024 0 0 0 0 0 0 0 0")
	if cp.baselineCount != 0 {
		t.Errorf("expected out-of-range line to be dropped before baseline accumulation, count=%d", cp.baselineCount)
	}
}

func TestBaselineBecomesReadyAfterConfiguredSamples(t *testing.T) {
	cp := newTestControlPanel()
	cp.processLine(centeredLine())
	if cp.baselineReady {
		t.Fatal("expected baseline not ready after only 1 of 2 samples")
	}
	cp.processLine(centeredLine())
	if !cp.baselineReady {
		t.Fatal("expected baseline ready after 2 samples")
	}
	for i := range cp.state {
		if cp.state[i].baselineX != 512 || cp.state[i].baselineY != 512 {
			t.Errorf("channel %d: expected baseline (512,512), got (%v,%v)", i, cp.state[i].baselineX, cp.state[i].baselineY)
		}
	}
}

func TestJoystickReportsZeroAtCenterOnceBaselined(t *testing.T) {
	cp := newTestControlPanel()
	cp.processLine(centeredLine())
	cp.processLine(centeredLine())

	j := cp.Joystick(types.ArmLeft)
	if j.X != 0 || j.Y != 0 || j.Btn {
		t.Errorf("expected centered reading to normalize to (0,0,false), got %+v", j)
	}
}

func TestJoystickClipsToUnitRange(t *testing.T) {
	cp := newTestControlPanel()
	// Baseline at 256 so the 1023 readings below sit 767 (> 512) above it.
	lowBaseline := "256 256 0 512 512 0 512 512 0"
	cp.processLine(lowBaseline)
	cp.processLine(lowBaseline)
	// Far past +512 from baseline must clip to +1, not overflow.
	cp.processLine("1023 1023 0 512 512 0 512 512 0")
	cp.processLine("1023 1023 0 512 512 0 512 512 0")
	cp.processLine("1023 1023 0 512 512 0 512 512 0")

	j := cp.Joystick(types.ArmLeft)
	if j.X != 1 || j.Y != 1 {
		t.Errorf("expected clipped reading (1,1), got (%v,%v)", j.X, j.Y)
	}
}

func TestButtonDebounceRequiresConsecutiveSamples(t *testing.T) {
	cp := newTestControlPanel()
	cp.processLine(centeredLine())
	cp.processLine(centeredLine())

	pressed := "512 512 1 512 512 0 512 512 0"
	cp.processLine(pressed)
	if j := cp.Joystick(types.ArmLeft); j.Btn {
		t.Fatal("expected button to remain false after a single pressed sample (debounce=2)")
	}
	cp.processLine(pressed)
	if j := cp.Joystick(types.ArmLeft); !j.Btn {
		t.Error("expected button to debounce true after 2 consecutive pressed samples")
	}
}

func TestJoystickOutOfRangeArmReturnsZeroValue(t *testing.T) {
	cp := newTestControlPanel()
	j := cp.Joystick(types.ArmGantry + 10)
	if j != (types.JoystickStatus{}) {
		t.Errorf("expected zero-value JoystickStatus for an out-of-range arm, got %+v", j)
	}
}

func TestResetSignalProcessingStateRestoresBaselineDefaults(t *testing.T) {
	cp := newTestControlPanel()
	cp.processLine(centeredLine())
	cp.processLine(centeredLine())
	cp.processLine("1023 1023 1 1023 1023 1 1023 1023 1")

	cp.resetSignalProcessingState()

	if cp.baselineReady || cp.baselineCount != 0 {
		t.Error("expected baseline state cleared after resetSignalProcessingState")
	}
	for i := range cp.state {
		if cp.state[i].baselineX != 512 || cp.state[i].baselineY != 512 {
			t.Errorf("channel %d: expected reset baseline (512,512), got (%v,%v)", i, cp.state[i].baselineX, cp.state[i].baselineY)
		}
	}
	j := cp.Joystick(types.ArmLeft)
	if j.X != 0 || j.Y != 0 || j.Btn {
		t.Errorf("expected cells cleared after reset, got %+v", j)
	}
}
