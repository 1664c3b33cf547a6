// Package motorcontrol is the fleet-level orchestrator over one shared
// Modbus bus (spec.md §4.4), grounded on
// original_source/Server/src/MotorControl.cpp: one mutex serializes
// every bus call, one MotorRuntimeState tracks each motor's mode,
// direction, and prepared-slot bookkeeping.
package motorcontrol

import (
	"sync"

	"rimoserver/config"
	"rimoserver/modbusclient"
	"rimoserver/motor"
	"rimoserver/rmerrors"
	"rimoserver/types"
)

// Mode is the motion mode a motor is currently configured for.
type Mode int

const (
	ModeSpeed Mode = iota
	ModePosition
)

// Direction is the continuous-motion direction a motor is set to.
type Direction int

const (
	DirectionForward Direction = iota
	DirectionReverse
)

// defaultAcceleration and defaultDeceleration match
// MotorRuntimeState's 0x5fff defaults in MotorControl.hpp.
const (
	defaultAcceleration int32 = 0x5fff
	defaultDeceleration int32 = 0x5fff
	defaultSpeed        int32 = 1000
)

// RuntimeState is the per-motor bookkeeping MotorControl maintains
// alongside the shared bus.
type RuntimeState struct {
	Mode              Mode
	Direction         Direction
	Speed             int32
	Position          int32
	Acceleration      int32
	Deceleration      int32
	SpeedPairPrepared bool
	PositionPrepared  bool
}

func newRuntimeState() *RuntimeState {
	return &RuntimeState{
		Mode: ModeSpeed, Direction: DirectionForward,
		Speed: defaultSpeed, Acceleration: defaultAcceleration, Deceleration: defaultDeceleration,
	}
}

// Fleet owns the shared bus, every configured Motor, and its runtime
// state. All exported methods acquire mu before touching the bus.
type Fleet struct {
	busCfg modbusclient.Config

	mu      sync.Mutex // guards everything below, including every bus call
	bus     *modbusclient.Client
	motors  map[types.Motor]*motor.Motor
	runtime map[types.Motor]*RuntimeState
}

// New builds a Fleet that will dial busCfg on Initialize. motors maps
// each configured motor to its Modbus slave address.
func New(busCfg modbusclient.Config, motors map[types.Motor]config.MotorConfig) *Fleet {
	f := &Fleet{
		busCfg:  busCfg,
		motors:  make(map[types.Motor]*motor.Motor, len(motors)),
		runtime: make(map[types.Motor]*RuntimeState, len(motors)),
	}
	for id, cfg := range motors {
		f.motors[id] = motor.New(id, uint8(cfg.Address))
		f.runtime[id] = newRuntimeState()
	}
	return f
}

// Initialize dials the bus, probes every motor's present alarm, and
// writes configured run/stop currents.
func (f *Fleet) Initialize(motorCfgs map[types.Motor]config.MotorConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	bus, cerr := modbusclient.Connect(f.busCfg)
	if cerr != nil {
		return rmerrors.New(rmerrors.TransportError, "MotorControl: connect bus: %s", cerr.Message)
	}
	f.bus = bus

	for id, m := range f.motors {
		if err := m.SelectSlave(f.bus); err != nil {
			f.closeBusLocked()
			return err
		}
		if _, err := m.DiagnoseAlarm(f.bus); err != nil {
			f.closeBusLocked()
			return err
		}
		cfg := motorCfgs[id]
		runCurrent := cfg.RunCurrent
		if runCurrent == 0 {
			runCurrent = 1000
		}
		stopCurrent := cfg.StopCurrent
		if stopCurrent == 0 {
			stopCurrent = 500
		}
		if runCurrent < 0 || runCurrent > 1000 {
			f.closeBusLocked()
			return rmerrors.New(rmerrors.OperationRejected, "motor %s: runCurrent %d out of range [0,1000]", id, runCurrent)
		}
		if stopCurrent < 0 || stopCurrent > 1000 {
			f.closeBusLocked()
			return rmerrors.New(rmerrors.OperationRejected, "motor %s: stopCurrent %d out of range [0,1000]", id, stopCurrent)
		}
		if err := m.WriteInt32(f.bus, m.Map.RunCurrent, int32(runCurrent)); err != nil {
			f.closeBusLocked()
			return err
		}
		if err := m.WriteInt32(f.bus, m.Map.StopCurrent, int32(stopCurrent)); err != nil {
			f.closeBusLocked()
			return err
		}
	}
	return nil
}

// Reset drops the bus connection; the next Initialize re-dials it.
func (f *Fleet) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeBusLocked()
}

func (f *Fleet) closeBusLocked() {
	if f.bus != nil {
		_ = f.bus.Close()
		f.bus = nil
	}
}

func (f *Fleet) lookup(id types.Motor) (*motor.Motor, *RuntimeState, error) {
	m, ok := f.motors[id]
	if !ok {
		return nil, nil, rmerrors.New(rmerrors.OperationRejected, "motor %s is not configured", id)
	}
	return m, f.runtime[id], nil
}

func (f *Fleet) requireBus() error {
	if f.bus == nil {
		return rmerrors.New(rmerrors.NotReady, "MotorControl bus is not initialized")
	}
	return nil
}

// SetMode lazily prepares the requested mode's operation slot(s).
func (f *Fleet) SetMode(id types.Motor, mode Mode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, rt, err := f.lookup(id)
	if err != nil {
		return err
	}
	if err := f.requireBus(); err != nil {
		return err
	}
	if err := m.SelectSlave(f.bus); err != nil {
		return err
	}

	rt.Mode = mode
	if mode == ModeSpeed {
		if !rt.SpeedPairPrepared {
			if err := m.ConfigureConstantSpeedPair(f.bus, rt.Speed, rt.Speed, rt.Acceleration, rt.Deceleration); err != nil {
				return err
			}
			rt.SpeedPairPrepared = true
		}
	} else {
		if !rt.PositionPrepared {
			if err := m.PreparePositionSlot(f.bus, rt.Speed, rt.Acceleration, rt.Deceleration); err != nil {
				return err
			}
			rt.PositionPrepared = true
		}
	}
	return nil
}

// SetSpeed stores |v| and, in Speed mode, performs the buffered slot
// switch described in spec.md §4.4.
func (f *Fleet) SetSpeed(id types.Motor, v int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, rt, err := f.lookup(id)
	if err != nil {
		return err
	}
	if v < 0 {
		v = -v
	}
	rt.Speed = v
	if err := f.requireBus(); err != nil {
		return err
	}
	if err := m.SelectSlave(f.bus); err != nil {
		return err
	}
	if rt.Mode != ModeSpeed {
		return nil
	}
	if !rt.SpeedPairPrepared {
		if err := m.ConfigureConstantSpeedPair(f.bus, rt.Speed, rt.Speed, rt.Acceleration, rt.Deceleration); err != nil {
			return err
		}
		rt.SpeedPairPrepared = true
		return nil
	}
	return m.UpdateConstantSpeedBuffered(f.bus, rt.Speed)
}

// SetPosition stores p and, in Position mode, writes it into the
// position operation slot.
func (f *Fleet) SetPosition(id types.Motor, p int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, rt, err := f.lookup(id)
	if err != nil {
		return err
	}
	rt.Position = p
	if err := f.requireBus(); err != nil {
		return err
	}
	if err := m.SelectSlave(f.bus); err != nil {
		return err
	}
	if rt.Mode != ModePosition {
		return nil
	}
	if !rt.PositionPrepared {
		if err := m.PreparePositionSlot(f.bus, rt.Speed, rt.Acceleration, rt.Deceleration); err != nil {
			return err
		}
		rt.PositionPrepared = true
	}
	return m.SetPositionTarget(f.bus, rt.Position)
}

// SetDirection sets exactly one of FWD/RVS, clearing the other first.
func (f *Fleet) SetDirection(id types.Motor, dir Direction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, rt, err := f.lookup(id)
	if err != nil {
		return err
	}
	rt.Direction = dir
	if err := f.requireBus(); err != nil {
		return err
	}
	if err := m.SelectSlave(f.bus); err != nil {
		return err
	}
	return f.applyDirectionLocked(m, dir)
}

func (f *Fleet) applyDirectionLocked(m *motor.Motor, dir Direction) error {
	if dir == DirectionForward {
		return m.SetForward(f.bus)
	}
	return m.SetReverse(f.bus)
}

// StartMovement begins motion per the motor's current mode: in Speed
// mode it only asserts direction (no Start pulse); in Position mode it
// writes the target, selects the position slot, then pulses Start.
func (f *Fleet) StartMovement(id types.Motor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, rt, err := f.lookup(id)
	if err != nil {
		return err
	}
	if err := f.requireBus(); err != nil {
		return err
	}
	if err := m.SelectSlave(f.bus); err != nil {
		return err
	}

	if rt.Mode == ModeSpeed {
		if !rt.SpeedPairPrepared {
			if err := m.ConfigureConstantSpeedPair(f.bus, rt.Speed, rt.Speed, rt.Acceleration, rt.Deceleration); err != nil {
				return err
			}
			rt.SpeedPairPrepared = true
		}
		return f.applyDirectionLocked(m, rt.Direction)
	}

	if !rt.PositionPrepared {
		if err := m.PreparePositionSlot(f.bus, rt.Speed, rt.Acceleration, rt.Deceleration); err != nil {
			return err
		}
		rt.PositionPrepared = true
	}
	if err := m.SetPositionTarget(f.bus, rt.Position); err != nil {
		return err
	}
	if err := m.SelectPositionSlot(f.bus); err != nil {
		return err
	}
	return m.PulseStart(f.bus)
}

// StopMovement clears the driver input command register (no direction, no start).
func (f *Fleet) StopMovement(id types.Motor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, _, err := f.lookup(id)
	if err != nil {
		return err
	}
	if err := f.requireBus(); err != nil {
		return err
	}
	if err := m.SelectSlave(f.bus); err != nil {
		return err
	}
	return m.WriteDriverInputCommandRaw(f.bus, 0)
}

func (f *Fleet) withMotor(id types.Motor, fn func(m *motor.Motor) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, _, err := f.lookup(id)
	if err != nil {
		return err
	}
	if err := f.requireBus(); err != nil {
		return err
	}
	if err := m.SelectSlave(f.bus); err != nil {
		return err
	}
	return fn(m)
}

// PulseStart momentarily asserts the Start flag.
func (f *Fleet) PulseStart(id types.Motor) error {
	return f.withMotor(id, func(m *motor.Motor) error { return m.PulseStart(f.bus) })
}

// PulseStop momentarily asserts the Stop flag.
func (f *Fleet) PulseStop(id types.Motor) error {
	return f.withMotor(id, func(m *motor.Motor) error { return m.PulseStop(f.bus) })
}

// PulseHome momentarily asserts the Home flag.
func (f *Fleet) PulseHome(id types.Motor) error {
	return f.withMotor(id, func(m *motor.Motor) error { return m.PulseHome(f.bus) })
}

// SetForward directly sets/clears the FWD input flag.
func (f *Fleet) SetForward(id types.Motor, enabled bool) error {
	return f.withMotor(id, func(m *motor.Motor) error { return m.SetDriverInputFlag(f.bus, motor.FlagFwd, enabled) })
}

// SetReverse directly sets/clears the RVS input flag.
func (f *Fleet) SetReverse(id types.Motor, enabled bool) error {
	return f.withMotor(id, func(m *motor.Motor) error { return m.SetDriverInputFlag(f.bus, motor.FlagRvs, enabled) })
}

// SetJogPlus directly sets/clears the +JOG input flag.
func (f *Fleet) SetJogPlus(id types.Motor, enabled bool) error {
	return f.withMotor(id, func(m *motor.Motor) error {
		return m.SetDriverInputFlag(f.bus, motor.FlagPlusJog, enabled)
	})
}

// SetJogMinus directly sets/clears the -JOG input flag.
func (f *Fleet) SetJogMinus(id types.Motor, enabled bool) error {
	return f.withMotor(id, func(m *motor.Motor) error {
		return m.SetDriverInputFlag(f.bus, motor.FlagMinusJog, enabled)
	})
}

// ReadSelectedOperationID returns the currently selected operation slot (0..63).
func (f *Fleet) ReadSelectedOperationID(id types.Motor) (int, error) {
	var result int
	err := f.withMotor(id, func(m *motor.Motor) error {
		v, err := m.ReadSelectedOperationID(f.bus)
		result = v
		return err
	})
	return result, err
}

// SetSelectedOperationID selects operation slot opID (0..63), asserting
// OperationRejected on an out-of-range id.
func (f *Fleet) SetSelectedOperationID(id types.Motor, opID int) error {
	if opID < 0 || opID > 63 {
		return rmerrors.New(rmerrors.OperationRejected, "operation id %d out of range [0,63]", opID)
	}
	return f.withMotor(id, func(m *motor.Motor) error { return m.SetOperationID(f.bus, opID) })
}

// SetRunCurrent writes the configured slot's run current (0..1000).
func (f *Fleet) SetRunCurrent(id types.Motor, current int32) error {
	if current < 0 || current > 1000 {
		return rmerrors.New(rmerrors.OperationRejected, "run current %d out of range [0,1000]", current)
	}
	return f.withMotor(id, func(m *motor.Motor) error { return m.WriteInt32(f.bus, m.Map.RunCurrent, current) })
}

// SetStopCurrent writes the configured slot's stop current (0..1000).
func (f *Fleet) SetStopCurrent(id types.Motor, current int32) error {
	if current < 0 || current > 1000 {
		return rmerrors.New(rmerrors.OperationRejected, "stop current %d out of range [0,1000]", current)
	}
	return f.withMotor(id, func(m *motor.Motor) error { return m.WriteInt32(f.bus, m.Map.StopCurrent, current) })
}

// ReadInputStatus decodes the driver input command register.
func (f *Fleet) ReadInputStatus(id types.Motor) (motor.FlagStatus, error) {
	var result motor.FlagStatus
	err := f.withMotor(id, func(m *motor.Motor) error {
		v, err := m.ReadInputStatus(f.bus)
		result = v
		return err
	})
	return result, err
}

// ReadOutputStatus decodes the driver output status register.
func (f *Fleet) ReadOutputStatus(id types.Motor) (motor.FlagStatus, error) {
	var result motor.FlagStatus
	err := f.withMotor(id, func(m *motor.Motor) error {
		v, err := m.ReadOutputStatus(f.bus)
		result = v
		return err
	})
	return result, err
}

// ReadDirectIoStatus decodes the direct I/O + brake status register.
func (f *Fleet) ReadDirectIoStatus(id types.Motor) (motor.DirectIoStatus, error) {
	var result motor.DirectIoStatus
	err := f.withMotor(id, func(m *motor.Motor) error {
		v, err := m.ReadDirectIoStatus(f.bus)
		result = v
		return err
	})
	return result, err
}

// DiagnoseCurrentAlarm reads and explains the motor's present alarm code.
func (f *Fleet) DiagnoseCurrentAlarm(id types.Motor) (motor.CodeDiagnostic, error) {
	var result motor.CodeDiagnostic
	err := f.withMotor(id, func(m *motor.Motor) error {
		v, err := m.DiagnoseAlarm(f.bus)
		result = v
		return err
	})
	return result, err
}

// DiagnoseCurrentWarning reads and explains the motor's present warning code.
func (f *Fleet) DiagnoseCurrentWarning(id types.Motor) (motor.CodeDiagnostic, error) {
	var result motor.CodeDiagnostic
	err := f.withMotor(id, func(m *motor.Motor) error {
		v, err := m.DiagnoseWarning(f.bus)
		result = v
		return err
	})
	return result, err
}

// DiagnoseCurrentCommunicationError reads and explains the motor's
// present communication-error code.
func (f *Fleet) DiagnoseCurrentCommunicationError(id types.Motor) (motor.CodeDiagnostic, error) {
	var result motor.CodeDiagnostic
	err := f.withMotor(id, func(m *motor.Motor) error {
		v, err := m.DiagnoseCommunicationError(f.bus)
		result = v
		return err
	})
	return result, err
}

// ResetAlarm clears a motor's latched alarm (conditional write, see
// motor.Motor.ResetAlarm).
func (f *Fleet) ResetAlarm(id types.Motor) error {
	return f.withMotor(id, func(m *motor.Motor) error { return m.ResetAlarm(f.bus) })
}

// HasAnyWarningOrAlarm reports whether any configured motor currently
// has a nonzero alarm or warning code.
func (f *Fleet) HasAnyWarningOrAlarm() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireBus(); err != nil {
		return false, err
	}
	for _, m := range f.motors {
		if err := m.SelectSlave(f.bus); err != nil {
			return false, err
		}
		alarm, err := m.ReadAlarmCode(f.bus)
		if err != nil {
			return false, err
		}
		warning, err := m.ReadWarningCode(f.bus)
		if err != nil {
			return false, err
		}
		if alarm != 0 || warning != 0 {
			return true, nil
		}
	}
	return false, nil
}

// ConfiguredMotorIDs lists every motor this Fleet was built with.
func (f *Fleet) ConfiguredMotorIDs() []types.Motor {
	out := make([]types.Motor, 0, len(f.motors))
	for id := range f.motors {
		out = append(out, id)
	}
	return out
}
