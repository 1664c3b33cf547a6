package motor

import (
	"encoding/binary"

	"testing"

	"rimoserver/modbusclient"
	"rimoserver/types"
)

// fakeBus is an in-memory register file satisfying the Bus interface,
// enough for Motor's read-modify-write helpers to round-trip against.
type fakeBus struct {
	slave uint8
	regs  map[uint16]uint16
}

func newFakeBus() *fakeBus { return &fakeBus{regs: map[uint16]uint16{}} }

func (b *fakeBus) SetSlave(id uint8) *modbusclient.Error {
	b.slave = id
	return nil
}

func (b *fakeBus) ReadHoldingRegisters(address, quantity uint16) ([]byte, *modbusclient.Error) {
	out := make([]byte, 0, quantity*2)
	for i := uint16(0); i < quantity; i++ {
		var pair [2]byte
		binary.BigEndian.PutUint16(pair[:], b.regs[address+i])
		out = append(out, pair[:]...)
	}
	return out, nil
}

func (b *fakeBus) WriteSingleRegister(address, value uint16) *modbusclient.Error {
	b.regs[address] = value
	return nil
}

func (b *fakeBus) WriteMultipleRegisters(address, quantity uint16, values []byte) *modbusclient.Error {
	for i := uint16(0); i < quantity; i++ {
		b.regs[address+i] = binary.BigEndian.Uint16(values[i*2 : i*2+2])
	}
	return nil
}

func TestReadU32WriteInt32RoundTrip(t *testing.T) {
	bus := newFakeBus()
	m := New(types.XLeft, 1)

	if err := m.WriteInt32(bus, m.Map.PresentAlarm, -5); err != nil {
		t.Fatalf("WriteInt32: %v", err)
	}
	v, err := m.ReadU32(bus, m.Map.PresentAlarm)
	if err != nil {
		t.Fatalf("ReadU32: %v", err)
	}
	if int32(v) != -5 {
		t.Errorf("expected -5 back, got %d", int32(v))
	}
}

func TestReadAlarmCodeMasksLowByte(t *testing.T) {
	bus := newFakeBus()
	m := New(types.XLeft, 1)
	if err := m.WriteInt32(bus, m.Map.PresentAlarm, 0x1234); err != nil {
		t.Fatalf("WriteInt32: %v", err)
	}
	code, err := m.ReadAlarmCode(bus)
	if err != nil {
		t.Fatalf("ReadAlarmCode: %v", err)
	}
	if code != 0x34 {
		t.Errorf("expected low byte 0x34, got 0x%02X", code)
	}
}

func TestResetAlarmIsNoOpWhenNoAlarmPresent(t *testing.T) {
	bus := newFakeBus()
	m := New(types.XLeft, 1)

	if err := m.ResetAlarm(bus); err != nil {
		t.Fatalf("ResetAlarm: %v", err)
	}
	if _, ok := bus.regs[m.Map.AlarmResetCommand]; ok {
		t.Error("expected no write to AlarmResetCommand when no alarm is latched")
	}
}

func TestResetAlarmWritesZeroThenOneWhenAlarmPresent(t *testing.T) {
	bus := newFakeBus()
	m := New(types.XLeft, 1)
	if err := m.WriteInt32(bus, m.Map.PresentAlarm, 0x20); err != nil {
		t.Fatalf("WriteInt32: %v", err)
	}

	if err := m.ResetAlarm(bus); err != nil {
		t.Fatalf("ResetAlarm: %v", err)
	}
	if got := bus.regs[m.Map.AlarmResetCommand]; got != 1 {
		t.Errorf("expected AlarmResetCommand left at 1, got %d", got)
	}
}

func TestSetDriverInputFlagPreservesOtherBits(t *testing.T) {
	bus := newFakeBus()
	m := New(types.XLeft, 1)
	bus.regs[m.Map.DriverInputCommandLower] = uint16(FlagM0)

	if err := m.SetDriverInputFlag(bus, FlagStart, true); err != nil {
		t.Fatalf("SetDriverInputFlag: %v", err)
	}
	raw := bus.regs[m.Map.DriverInputCommandLower]
	if raw&uint16(FlagM0) == 0 {
		t.Error("expected FlagM0 to remain set")
	}
	if raw&uint16(FlagStart) == 0 {
		t.Error("expected FlagStart to be set")
	}
}

func TestPulseDriverInputFlagClearsAfterSetting(t *testing.T) {
	bus := newFakeBus()
	m := New(types.XLeft, 1)

	if err := m.PulseStart(bus); err != nil {
		t.Fatalf("PulseStart: %v", err)
	}
	raw := bus.regs[m.Map.DriverInputCommandLower]
	if raw&uint16(FlagStart) != 0 {
		t.Errorf("expected FlagStart cleared after pulse, raw=0x%04X", raw)
	}
}

func TestSetForwardAndSetReverseAreMutuallyExclusive(t *testing.T) {
	bus := newFakeBus()
	m := New(types.XLeft, 1)

	if err := m.SetForward(bus); err != nil {
		t.Fatalf("SetForward: %v", err)
	}
	raw := bus.regs[m.Map.DriverInputCommandLower]
	if raw&uint16(FlagFwd) == 0 || raw&uint16(FlagRvs) != 0 {
		t.Errorf("expected FWD set and RVS clear, raw=0x%04X", raw)
	}

	if err := m.SetReverse(bus); err != nil {
		t.Fatalf("SetReverse: %v", err)
	}
	raw = bus.regs[m.Map.DriverInputCommandLower]
	if raw&uint16(FlagRvs) == 0 || raw&uint16(FlagFwd) != 0 {
		t.Errorf("expected RVS set and FWD clear, raw=0x%04X", raw)
	}
}

func TestSetOperationIdRoundTrip(t *testing.T) {
	bus := newFakeBus()
	m := New(types.XLeft, 1)
	bus.regs[m.Map.DriverInputCommandLower] = uint16(FlagStart)

	if err := m.SetOperationID(bus, 5); err != nil {
		t.Fatalf("SetOperationID: %v", err)
	}
	id, err := m.ReadSelectedOperationID(bus)
	if err != nil {
		t.Fatalf("ReadSelectedOperationID: %v", err)
	}
	if id != 5 {
		t.Errorf("expected operation id 5, got %d", id)
	}
	raw := bus.regs[m.Map.DriverInputCommandLower]
	if raw&uint16(FlagStart) == 0 {
		t.Error("expected FlagStart to survive SetOperationID's read-modify-write")
	}
}

func TestSetOperationModeAndFunctionPreserveEachOther(t *testing.T) {
	bus := newFakeBus()
	m := New(types.XLeft, 1)

	if err := m.SetOperationMode(bus, 0, ModeContinuousSpeed); err != nil {
		t.Fatalf("SetOperationMode: %v", err)
	}
	if err := m.SetOperationFunction(bus, 0, FunctionLinkedMotion); err != nil {
		t.Fatalf("SetOperationFunction: %v", err)
	}
	mode, function, err := m.readOperationWord(bus, 0)
	if err != nil {
		t.Fatalf("readOperationWord: %v", err)
	}
	if OperationMode(mode) != ModeContinuousSpeed {
		t.Errorf("expected mode to survive function write, got %d", mode)
	}
	if OperationFunction(function) != FunctionLinkedMotion {
		t.Errorf("expected function %d, got %d", FunctionLinkedMotion, function)
	}
}

func TestConfigureConstantSpeedPairSelectsSlotZero(t *testing.T) {
	bus := newFakeBus()
	m := New(types.XLeft, 1)

	if err := m.ConfigureConstantSpeedPair(bus, 1000, -1000, 100, 200); err != nil {
		t.Fatalf("ConfigureConstantSpeedPair: %v", err)
	}
	id, err := m.ReadSelectedOperationID(bus)
	if err != nil {
		t.Fatalf("ReadSelectedOperationID: %v", err)
	}
	if id != speedPairOpID0 {
		t.Errorf("expected slot 0 selected, got %d", id)
	}
}

func TestUpdateConstantSpeedBufferedSwitchesSlot(t *testing.T) {
	bus := newFakeBus()
	m := New(types.XLeft, 1)
	if err := m.ConfigureConstantSpeedPair(bus, 1000, -1000, 100, 200); err != nil {
		t.Fatalf("ConfigureConstantSpeedPair: %v", err)
	}

	if err := m.UpdateConstantSpeedBuffered(bus, 2000); err != nil {
		t.Fatalf("UpdateConstantSpeedBuffered: %v", err)
	}
	id, err := m.ReadSelectedOperationID(bus)
	if err != nil {
		t.Fatalf("ReadSelectedOperationID: %v", err)
	}
	if id != speedPairOpID1 {
		t.Errorf("expected slot swapped to 1, got %d", id)
	}
}

func TestEncodeDecodeOperationIdRoundTrip(t *testing.T) {
	raw := uint16(FlagStart | FlagFwd)
	encoded := EncodeOperationIdIntoInputRaw(raw, 37)
	if got := DecodeOperationIdFromInputRaw(encoded); got != 37 {
		t.Errorf("expected round-tripped id 37, got %d", got)
	}
	if encoded&uint16(FlagStart) == 0 || encoded&uint16(FlagFwd) == 0 {
		t.Error("expected non-selection bits to survive encoding")
	}
}

func TestDecodeDriverInputStatusListsActiveFlags(t *testing.T) {
	s := DecodeDriverInputStatus(uint16(FlagStart | FlagFwd))
	if len(s.ActiveFlags) != 2 {
		t.Errorf("expected 2 active flags, got %v", s.ActiveFlags)
	}
}

func TestDecodeDriverOutputStatusListsActiveFlags(t *testing.T) {
	s := DecodeDriverOutputStatus(uint16(FlagReady | FlagAlarmOut))
	if len(s.ActiveFlags) != 2 {
		t.Errorf("expected 2 active flags, got %v", s.ActiveFlags)
	}
}

func TestDecodeDirectIoAndBrakeStatus(t *testing.T) {
	raw := uint32(1<<16) | uint32(1<<0) // OUT0 set in upper word, +LS set in lower word
	s := DecodeDirectIoAndBrakeStatus(raw)
	found := map[string]bool{}
	for _, f := range s.ActiveFlags {
		found[f] = true
	}
	if !found["OUT0"] || !found["+LS"] {
		t.Errorf("expected OUT0 and +LS, got %v", s.ActiveFlags)
	}
}

func TestDiagnoseAlarmKnownAndUnknown(t *testing.T) {
	d := DiagnoseAlarm(0x20)
	if !d.Known || d.Type != "Overcurrent" {
		t.Errorf("expected known Overcurrent diagnostic, got %+v", d)
	}

	unknown := DiagnoseAlarm(0xFF)
	if unknown.Known {
		t.Error("expected 0xFF to be an unknown alarm code")
	}
}

func TestDiagnoseWarningAndCommunicationError(t *testing.T) {
	w := DiagnoseWarning(0x30)
	if !w.Known || w.Domain != DomainWarning {
		t.Errorf("expected known overload warning, got %+v", w)
	}
	c := DiagnoseCommunicationError(0x8D)
	if !c.Known || c.Domain != DomainCommunicationError {
		t.Errorf("expected known command-execute-disable error, got %+v", c)
	}
}

func TestRegisterLabelNamesBothWords(t *testing.T) {
	label := RegisterLabel(0x0480)
	if label != "0x0480/0x0481 (SpeedNo0Upper / SpeedNo0Lower)" {
		t.Errorf("unexpected label: %q", label)
	}
}

func TestRegisterLabelFallsBackToHexForUnknownAddress(t *testing.T) {
	label := RegisterLabel(0x9999)
	if label != "0x9999" {
		t.Errorf("expected bare hex for an unmapped address, got %q", label)
	}
}
