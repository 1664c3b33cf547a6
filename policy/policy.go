// Package policy implements RobotControlPolicy (spec.md §4.6): a pure
// function of inputs + contec state + current RobotStatus, producing
// outputs and motor intents for the control thread to apply. No
// original_source/Policy.* file survived the filtered corpus — both
// policies below are authored directly from spec.md §4.6 prose and §9
// Open Question (a).
package policy

import (
	"rimoserver/component"
	"rimoserver/motorcontrol"
	"rimoserver/rmerrors"
	"rimoserver/types"
)

// Mode names which MotorControl mode an Intent requests.
type Mode = motorcontrol.Mode

// Direction names which MotorControl direction an Intent requests.
type Direction = motorcontrol.Direction

// Intent is a deferred motor action: MotorControl applies it after the
// current cycle's outputs, on the control thread.
type Intent struct {
	Motor         types.Motor
	Mode          *Mode
	Direction     *Direction
	Speed         *int32
	Position      *int32
	StartMovement bool
}

// Result is one RobotControlPolicy evaluation's output.
type Result struct {
	Outputs                     map[string]bool
	SetToolChangerErrorBlinking bool
	MotorIntents                []Intent
}

// Evaluate runs the default policy: light1/light2 mirror button1/button2
// when Contec is healthy; otherwise it requests the error-blinking tool
// changer state and withholds outputs.
func Evaluate(inputs map[string]bool, contecState component.State, _ *types.RobotStatus) (Result, error) {
	if inputs == nil || contecState == component.StateError {
		return Result{SetToolChangerErrorBlinking: true}, nil
	}
	button1, ok1 := inputs["button1"]
	button2, ok2 := inputs["button2"]
	if !ok1 || !ok2 {
		return Result{}, rmerrors.New(rmerrors.ConfigError, "RobotControlPolicy: inputs missing button1/button2")
	}
	return Result{Outputs: map[string]bool{"light1": button1, "light2": button2}}, nil
}

// axisMotor names which motor a joystick axis drives. RimoKun's stick
// layout is not specified beyond "three joysticks, six motor intents,
// one per axis/arm" (spec.md §4.6); this pairs each arm's stick with
// the two motors sharing its letter-prefix naming (XLeft/YLeft for
// Left, XRight/YRight for Right) and routes the Gantry stick — the
// stage with no X/Y motors of its own — to the shared Z pair.
var axisMotor = map[types.Arm]struct{ x, y types.Motor }{
	types.ArmLeft:   {x: types.XLeft, y: types.YLeft},
	types.ArmRight:  {x: types.XRight, y: types.YRight},
	types.ArmGantry: {x: types.ZLeft, y: types.ZRight},
}

// RimoKunConfig carries the per-policy tunables Open Question (a)
// leaves to the implementer.
type RimoKunConfig struct {
	// MaxSpeed is the |speed| register value a fully-deflected stick
	// (|axis|=1) commands in Speed mode.
	MaxSpeed int32
	// PositionRange scales a fully-deflected stick to a target position
	// in Position mode.
	PositionRange int32
}

// DefaultRimoKunConfig mirrors the runtime defaults
// motorcontrol.RuntimeState ships with (1000 units).
func DefaultRimoKunConfig() RimoKunConfig {
	return RimoKunConfig{MaxSpeed: 1000, PositionRange: 10000}
}

// EvaluateRimoKun extends Evaluate with six motor intents derived from
// status.Joysticks: one Speed or Position intent per axis/arm pair,
// scaled per RimoKunConfig.
func EvaluateRimoKun(cfg RimoKunConfig, inputs map[string]bool, contecState component.State, status *types.RobotStatus) (Result, error) {
	result, err := Evaluate(inputs, contecState, status)
	if err != nil {
		return Result{}, err
	}

	for _, arm := range types.AllArms() {
		motors, ok := axisMotor[arm]
		if !ok {
			continue
		}
		js := status.Joysticks[arm]
		result.MotorIntents = append(result.MotorIntents, buildIntent(cfg, motors.x, js.X, js.Btn))
		result.MotorIntents = append(result.MotorIntents, buildIntent(cfg, motors.y, js.Y, js.Btn))
	}
	return result, nil
}

func buildIntent(cfg RimoKunConfig, motor types.Motor, axisValue float64, pressed bool) Intent {
	if pressed {
		mode := Mode(motorcontrol.ModePosition)
		position := int32(clamp(axisValue, -1, 1) * float64(cfg.PositionRange))
		return Intent{Motor: motor, Mode: &mode, Position: &position, StartMovement: true}
	}

	mode := Mode(motorcontrol.ModeSpeed)
	dir := Direction(motorcontrol.DirectionForward)
	if axisValue < 0 {
		dir = Direction(motorcontrol.DirectionReverse)
	}
	speed := int32(clamp(absf(axisValue), 0, 1) * float64(cfg.MaxSpeed))
	return Intent{Motor: motor, Mode: &mode, Direction: &dir, Speed: &speed, StartMovement: true}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
