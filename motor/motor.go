package motor

import (
	"encoding/binary"

	"rimoserver/modbusclient"
	"rimoserver/rmerrors"
	"rimoserver/types"
)

// Bus is the subset of *modbusclient.Client a Motor needs. It lets
// MotorControl hand every Motor the same shared connection while tests
// substitute a fake.
type Bus interface {
	SetSlave(id uint8) *modbusclient.Error
	ReadHoldingRegisters(address, quantity uint16) ([]byte, *modbusclient.Error)
	WriteSingleRegister(address, value uint16) *modbusclient.Error
	WriteMultipleRegisters(address, quantity uint16, values []byte) *modbusclient.Error
}

// Motor is one AR-KD2 stepper driver reachable at SlaveAddress over a
// shared bus (spec.md §4.3). It holds no connection of its own; callers
// (motorcontrol.Fleet) serialize bus access and call SelectSlave before
// every operation.
type Motor struct {
	ID           types.Motor
	SlaveAddress uint8
	Map          RegisterMap
}

// New constructs a Motor bound to the AR-KD2 register map.
func New(id types.Motor, slaveAddress uint8) *Motor {
	return &Motor{ID: id, SlaveAddress: slaveAddress, Map: ARKD2RegisterMap()}
}

// SelectSlave targets bus at this motor's slave address. Callers must
// call this before every read/write, since the bus is shared.
func (m *Motor) SelectSlave(bus Bus) error {
	if err := bus.SetSlave(m.SlaveAddress); err != nil {
		return rmerrors.Wrap(rmerrors.TransportError, err, "motor %s: select slave %d", m.ID, m.SlaveAddress)
	}
	return nil
}

func (m *Motor) readU16(bus Bus, addr uint16) (uint16, error) {
	b, err := bus.ReadHoldingRegisters(addr, 1)
	if err != nil {
		return 0, rmerrors.Wrap(rmerrors.TransportError, err, "motor %s: read %s", m.ID, RegisterLabel(addr))
	}
	return binary.BigEndian.Uint16(b), nil
}

func (m *Motor) writeU16(bus Bus, addr uint16, value uint16) error {
	if err := bus.WriteSingleRegister(addr, value); err != nil {
		return rmerrors.Wrap(rmerrors.TransportError, err, "motor %s: write %s", m.ID, RegisterLabel(addr))
	}
	return nil
}

// ReadU16 reads the single 16-bit register at addr.
func (m *Motor) ReadU16(bus Bus, addr uint16) (uint16, error) { return m.readU16(bus, addr) }

// WriteU16 writes the single 16-bit register at addr.
func (m *Motor) WriteU16(bus Bus, addr uint16, value uint16) error {
	return m.writeU16(bus, addr, value)
}

// ReadU32 reads the 32-bit big-endian value spanning (upperAddr,
// upperAddr+1), the AR-KD2's convention for every "Upper/Lower" pair.
func (m *Motor) ReadU32(bus Bus, upperAddr uint16) (uint32, error) {
	b, err := bus.ReadHoldingRegisters(upperAddr, 2)
	if err != nil {
		return 0, rmerrors.Wrap(rmerrors.TransportError, err, "motor %s: read %s", m.ID, RegisterLabel(upperAddr))
	}
	return binary.BigEndian.Uint32(b), nil
}

// WriteInt32 writes a signed 32-bit value spanning (upperAddr,
// upperAddr+1).
func (m *Motor) WriteInt32(bus Bus, upperAddr uint16, value int32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(value))
	if err := bus.WriteMultipleRegisters(upperAddr, 2, b[:]); err != nil {
		return rmerrors.Wrap(rmerrors.TransportError, err, "motor %s: write %s", m.ID, RegisterLabel(upperAddr))
	}
	return nil
}

// ReadAlarmCode returns the low byte of the present-alarm register: the
// AR-KD2 packs the alarm code into the lower 8 bits of the 32-bit word.
func (m *Motor) ReadAlarmCode(bus Bus) (uint8, error) {
	v, err := m.ReadU32(bus, m.Map.PresentAlarm)
	if err != nil {
		return 0, err
	}
	return uint8(v & 0xFF), nil
}

// ReadWarningCode returns the low byte of the present-warning register.
func (m *Motor) ReadWarningCode(bus Bus) (uint8, error) {
	v, err := m.ReadU32(bus, m.Map.PresentWarning)
	if err != nil {
		return 0, err
	}
	return uint8(v & 0xFF), nil
}

// ReadCommunicationErrorCode returns the low byte of the
// communication-error-code register.
func (m *Motor) ReadCommunicationErrorCode(bus Bus) (uint8, error) {
	v, err := m.ReadU32(bus, m.Map.CommunicationErrorCode)
	if err != nil {
		return 0, err
	}
	return uint8(v & 0xFF), nil
}

// DiagnoseAlarm reads and explains the current alarm code.
func (m *Motor) DiagnoseAlarm(bus Bus) (CodeDiagnostic, error) {
	code, err := m.ReadAlarmCode(bus)
	if err != nil {
		return CodeDiagnostic{}, err
	}
	return DiagnoseAlarm(code), nil
}

// DiagnoseWarning reads and explains the current warning code.
func (m *Motor) DiagnoseWarning(bus Bus) (CodeDiagnostic, error) {
	code, err := m.ReadWarningCode(bus)
	if err != nil {
		return CodeDiagnostic{}, err
	}
	return DiagnoseWarning(code), nil
}

// DiagnoseCommunicationError reads and explains the current
// communication-error code.
func (m *Motor) DiagnoseCommunicationError(bus Bus) (CodeDiagnostic, error) {
	code, err := m.ReadCommunicationErrorCode(bus)
	if err != nil {
		return CodeDiagnostic{}, err
	}
	return DiagnoseCommunicationError(code), nil
}

// ResetAlarm clears a latched alarm by writing the reset command.
//
// Deviation from original_source/Server/src/Motor.cpp's resetAlarm,
// which writes 0 then 1 unconditionally on every call: this only
// issues the write when a present alarm is actually latched, per
// spec.md §4.3/§8 scenario 3 (a reset request with no alarm present is
// a no-op, not a bus write).
func (m *Motor) ResetAlarm(bus Bus) error {
	code, err := m.ReadAlarmCode(bus)
	if err != nil {
		return err
	}
	if code == 0 {
		return nil
	}
	if err := m.writeU16(bus, m.Map.AlarmResetCommand, 0); err != nil {
		return err
	}
	return m.writeU16(bus, m.Map.AlarmResetCommand, 1)
}

// ReadDriverInputCommandRaw reads the raw input command register.
func (m *Motor) ReadDriverInputCommandRaw(bus Bus) (uint16, error) {
	return m.readU16(bus, m.Map.DriverInputCommandLower)
}

// WriteDriverInputCommandRaw writes the raw input command register.
func (m *Motor) WriteDriverInputCommandRaw(bus Bus, raw uint16) error {
	return m.writeU16(bus, m.Map.DriverInputCommandLower, raw)
}

// ReadDriverOutputStatusRaw reads the raw output status register.
func (m *Motor) ReadDriverOutputStatusRaw(bus Bus) (uint16, error) {
	return m.readU16(bus, m.Map.DriverOutputCommandLower)
}

// ReadDirectIoAndBrakeStatusRaw reads the 32-bit direct-I/O + brake
// status register.
func (m *Motor) ReadDirectIoAndBrakeStatusRaw(bus Bus) (uint32, error) {
	return m.ReadU32(bus, m.Map.DirectIoAndBrakeStatus)
}

// SetDriverInputFlag performs a read-modify-write on the input command
// register, turning the given flag on or off while leaving every other
// bit (including the operation-select field) untouched.
func (m *Motor) SetDriverInputFlag(bus Bus, flag InputFlag, enabled bool) error {
	raw, err := m.ReadDriverInputCommandRaw(bus)
	if err != nil {
		return err
	}
	if enabled {
		raw |= uint16(flag)
	} else {
		raw &^= uint16(flag)
	}
	return m.WriteDriverInputCommandRaw(bus, raw)
}

// PulseDriverInputFlag sets flag then immediately clears it, matching
// the AR-KD2's edge-triggered command convention (START, HOME, STOP,
// FREE, SSTART all act on a 0→1 transition, not a held level).
func (m *Motor) PulseDriverInputFlag(bus Bus, flag InputFlag) error {
	if err := m.SetDriverInputFlag(bus, flag, true); err != nil {
		return err
	}
	return m.SetDriverInputFlag(bus, flag, false)
}

// PulseStart issues the START command edge.
func (m *Motor) PulseStart(bus Bus) error { return m.PulseDriverInputFlag(bus, FlagStart) }

// PulseStop issues the STOP command edge.
func (m *Motor) PulseStop(bus Bus) error { return m.PulseDriverInputFlag(bus, FlagStop) }

// PulseHome issues the HOME command edge.
func (m *Motor) PulseHome(bus Bus) error { return m.PulseDriverInputFlag(bus, FlagHome) }

// SetForward holds FWD active (and RVS inactive) for continuous-motion
// direction control, distinct from the edge-triggered pulses above.
func (m *Motor) SetForward(bus Bus) error {
	if err := m.SetDriverInputFlag(bus, FlagRvs, false); err != nil {
		return err
	}
	return m.SetDriverInputFlag(bus, FlagFwd, true)
}

// SetReverse holds RVS active (and FWD inactive).
func (m *Motor) SetReverse(bus Bus) error {
	if err := m.SetDriverInputFlag(bus, FlagFwd, false); err != nil {
		return err
	}
	return m.SetDriverInputFlag(bus, FlagRvs, true)
}

// SetJogPlus holds the +JOG flag active.
func (m *Motor) SetJogPlus(bus Bus) error { return m.SetDriverInputFlag(bus, FlagPlusJog, true) }

// SetJogMinus holds the -JOG flag active.
func (m *Motor) SetJogMinus(bus Bus) error { return m.SetDriverInputFlag(bus, FlagMinusJog, true) }

// StopJog clears both jog flags.
func (m *Motor) StopJog(bus Bus) error {
	if err := m.SetDriverInputFlag(bus, FlagPlusJog, false); err != nil {
		return err
	}
	return m.SetDriverInputFlag(bus, FlagMinusJog, false)
}

// SetOperationID rewrites the six operation-select bits without
// disturbing any other input command flag.
func (m *Motor) SetOperationID(bus Bus, id int) error {
	raw, err := m.ReadDriverInputCommandRaw(bus)
	if err != nil {
		return err
	}
	return m.WriteDriverInputCommandRaw(bus, EncodeOperationIdIntoInputRaw(raw, id))
}

// ReadSelectedOperationID decodes the currently selected operation slot
// from the driver input command register.
func (m *Motor) ReadSelectedOperationID(bus Bus) (int, error) {
	raw, err := m.ReadDriverInputCommandRaw(bus)
	if err != nil {
		return 0, err
	}
	return DecodeOperationIdFromInputRaw(raw), nil
}

// OperationMode selects what an operation-data slot's target means.
type OperationMode uint8

const (
	ModeIncremental OperationMode = iota
	ModeAbsolute
	ModeContinuousSpeed
)

// OperationFunction selects how an operation-data slot's motion links
// to the next slot.
type OperationFunction uint8

const (
	FunctionSingleMotion OperationFunction = iota
	FunctionLinkedMotion
	FunctionContinuousMotion
)

// operationModeNo0 and every slot after it is a 32-bit register whose
// lower word packs {mode: low byte, function: high byte}; there is no
// separate "function" register in the AR-KD2 map
// (original_source/Server/include/MotorRegisterMap.hpp has only
// operationModeNo0), so setOperationMode/setOperationFunction perform a
// read-modify-write on that shared lower word.
func (m *Motor) readOperationWord(bus Bus, opID int) (uint8, uint8, error) {
	v, err := m.ReadU32(bus, m.Map.OperationModeAddr(opID))
	if err != nil {
		return 0, 0, err
	}
	return uint8(v & 0xFF), uint8((v >> 8) & 0xFF), nil
}

func (m *Motor) writeOperationWord(bus Bus, opID int, mode, function uint8) error {
	value := int32(mode) | int32(function)<<8
	return m.WriteInt32(bus, m.Map.OperationModeAddr(opID), value)
}

// SetOperationMode sets opID's mode byte, preserving its function byte.
func (m *Motor) SetOperationMode(bus Bus, opID int, mode OperationMode) error {
	_, function, err := m.readOperationWord(bus, opID)
	if err != nil {
		return err
	}
	return m.writeOperationWord(bus, opID, uint8(mode), function)
}

// SetOperationFunction sets opID's function byte, preserving its mode byte.
func (m *Motor) SetOperationFunction(bus Bus, opID int, function OperationFunction) error {
	mode, _, err := m.readOperationWord(bus, opID)
	if err != nil {
		return err
	}
	return m.writeOperationWord(bus, opID, mode, uint8(function))
}

// SetOperationPosition writes opID's target position.
func (m *Motor) SetOperationPosition(bus Bus, opID int, position int32) error {
	return m.WriteInt32(bus, m.Map.PositionAddr(opID), position)
}

// SetOperationSpeed writes opID's target speed.
func (m *Motor) SetOperationSpeed(bus Bus, opID int, speed int32) error {
	return m.WriteInt32(bus, m.Map.SpeedAddr(opID), speed)
}

// SetOperationAcceleration writes opID's acceleration.
func (m *Motor) SetOperationAcceleration(bus Bus, opID int, acceleration int32) error {
	return m.WriteInt32(bus, m.Map.AccelerationAddr(opID), acceleration)
}

// SetOperationDeceleration writes opID's deceleration.
func (m *Motor) SetOperationDeceleration(bus Bus, opID int, deceleration int32) error {
	return m.WriteInt32(bus, m.Map.DecelerationAddr(opID), deceleration)
}

// speedPairOpID0 and speedPairOpID1 are the two operation-data slots
// MotorControl uses for buffered constant-speed switching; positionOpID
// is the slot used for every Position-mode movement, matching
// original_source/Server/src/MotorControl.cpp's hardcoded opId=2.
const (
	speedPairOpID0 = 0
	speedPairOpID1 = 1
	positionOpID   = 2
)

// ConfigureConstantSpeedPair programs operation slots 0 and 1 as a
// linked continuous-speed pair and selects slot 0 active.
func (m *Motor) ConfigureConstantSpeedPair(bus Bus, speedOp0, speedOp1, acceleration, deceleration int32) error {
	for _, id := range [2]int{speedPairOpID0, speedPairOpID1} {
		if err := m.SetOperationMode(bus, id, ModeContinuousSpeed); err != nil {
			return err
		}
		if err := m.SetOperationFunction(bus, id, FunctionContinuousMotion); err != nil {
			return err
		}
		if err := m.SetOperationAcceleration(bus, id, acceleration); err != nil {
			return err
		}
		if err := m.SetOperationDeceleration(bus, id, deceleration); err != nil {
			return err
		}
	}
	if err := m.SetOperationSpeed(bus, speedPairOpID0, speedOp0); err != nil {
		return err
	}
	if err := m.SetOperationSpeed(bus, speedPairOpID1, speedOp1); err != nil {
		return err
	}
	return m.SetOperationID(bus, speedPairOpID0)
}

// UpdateConstantSpeedBuffered writes speed into whichever of slots {0,1}
// is not currently selected, then selects it — the motor never stops
// moving across the switch.
func (m *Motor) UpdateConstantSpeedBuffered(bus Bus, speed int32) error {
	current, err := m.ReadSelectedOperationID(bus)
	if err != nil {
		return err
	}
	inactive := speedPairOpID1
	if current == speedPairOpID1 {
		inactive = speedPairOpID0
	}
	if err := m.SetOperationSpeed(bus, inactive, speed); err != nil {
		return err
	}
	return m.SetOperationID(bus, inactive)
}

// PreparePositionSlot programs operation slot 2 for incremental
// single-motion positioning, matching MotorControl's hardcoded opId=2.
func (m *Motor) PreparePositionSlot(bus Bus, speed, acceleration, deceleration int32) error {
	if err := m.SetOperationMode(bus, positionOpID, ModeIncremental); err != nil {
		return err
	}
	if err := m.SetOperationFunction(bus, positionOpID, FunctionSingleMotion); err != nil {
		return err
	}
	if err := m.SetOperationSpeed(bus, positionOpID, speed); err != nil {
		return err
	}
	if err := m.SetOperationAcceleration(bus, positionOpID, acceleration); err != nil {
		return err
	}
	return m.SetOperationDeceleration(bus, positionOpID, deceleration)
}

// SetPositionTarget writes slot 2's target position.
func (m *Motor) SetPositionTarget(bus Bus, position int32) error {
	return m.SetOperationPosition(bus, positionOpID, position)
}

// SelectPositionSlot selects slot 2 as the active operation.
func (m *Motor) SelectPositionSlot(bus Bus) error {
	return m.SetOperationID(bus, positionOpID)
}

// ReadInputStatus reads and decodes the driver input command register.
func (m *Motor) ReadInputStatus(bus Bus) (FlagStatus, error) {
	raw, err := m.ReadDriverInputCommandRaw(bus)
	if err != nil {
		return FlagStatus{}, err
	}
	return DecodeDriverInputStatus(raw), nil
}

// ReadOutputStatus reads and decodes the driver output status register.
func (m *Motor) ReadOutputStatus(bus Bus) (FlagStatus, error) {
	raw, err := m.ReadDriverOutputStatusRaw(bus)
	if err != nil {
		return FlagStatus{}, err
	}
	return DecodeDriverOutputStatus(raw), nil
}

// ReadDirectIoStatus reads and decodes the direct I/O + brake status register.
func (m *Motor) ReadDirectIoStatus(bus Bus) (DirectIoStatus, error) {
	raw, err := m.ReadDirectIoAndBrakeStatusRaw(bus)
	if err != nil {
		return DirectIoStatus{}, err
	}
	return DecodeDirectIoAndBrakeStatus(raw), nil
}
