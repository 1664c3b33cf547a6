package contec

import (
	"testing"

	"rimoserver/rmerrors"
)

func TestPackUnpackBitsRoundTrip(t *testing.T) {
	bits := []bool{true, false, true, true, false, false, false, true, true}
	packed := packBits(bits)
	unpacked := unpackBits(packed, len(bits))
	for i, b := range bits {
		if unpacked[i] != b {
			t.Errorf("bit %d: expected %v, got %v", i, b, unpacked[i])
		}
	}
}

func TestUnpackBitsHandlesPartialByte(t *testing.T) {
	// 3 bits packed into a single byte, high bits of that byte unused.
	packed := []byte{0b00000101}
	got := unpackBits(packed, 3)
	want := []bool{true, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bit %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestNewExposesConfiguredWidths(t *testing.T) {
	c := New(Config{NDI: 16, NDO: 8})
	if c.NInputs() != 16 {
		t.Errorf("expected NInputs 16, got %d", c.NInputs())
	}
	if c.NOutputs() != 8 {
		t.Errorf("expected NOutputs 8, got %d", c.NOutputs())
	}
}

func TestSetOutputsRejectsWrongLength(t *testing.T) {
	c := New(Config{NDO: 4})
	err := c.SetOutputs([]bool{true, false})
	if !rmerrors.Is(err, rmerrors.OperationRejected) {
		t.Errorf("expected OperationRejected for a mismatched output count, got %v", err)
	}
}

func TestResetOnNeverConnectedClientIsNoOp(t *testing.T) {
	c := New(Config{NDI: 4, NDO: 4})
	c.Reset() // cli is nil; must not panic
	if c.cli != nil {
		t.Error("expected cli to remain nil")
	}
}
