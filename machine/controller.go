// Package machine is the orchestrator (spec.md §4.11): it owns the
// command queue, the published RobotStatus, the control-loop
// scheduler, the component registry, and the command/status
// transports, and runs the control thread and command-server thread.
// Grounded on original_source/Server/src/Machine.cpp (the original,
// single-file version of this orchestration) and
// include/MachineController.hpp/src/MachineController.cpp (the
// extracted control-policy-driven controller the original later
// refactored towards, which this package follows).
package machine

import (
	"rimoserver/command"
	"rimoserver/component"
	"rimoserver/logx"
	"rimoserver/policy"
	"rimoserver/types"
)

// controller is the MachineController equivalent: runControlLoopTasks
// asks RobotControlPolicy for a decision and applies it; the two
// command handlers perform the one-shot side effects
// CommandProcessor's two command types request.
type controller struct {
	contec    *contecComponent
	fleet     *motorControlComponent
	status    *types.RobotStatus
	policyCfg policy.RimoKunConfig

	inputMapping  map[string]int
	outputMapping map[string]int

	log *logx.Logger
}

func newController(contec *contecComponent, fleet *motorControlComponent, status *types.RobotStatus,
	inputMapping, outputMapping map[string]int, policyCfg policy.RimoKunConfig) *controller {
	return &controller{
		contec: contec, fleet: fleet, status: status, policyCfg: policyCfg,
		inputMapping: inputMapping, outputMapping: outputMapping,
		log: logx.New("machine"),
	}
}

// readInputs maps the Contec input vector through inputMapping, marking
// contec Error on any read failure (spec.md §4.12's "absent" input).
func (ctl *controller) readInputs() map[string]bool {
	raw, err := ctl.contec.ReadInputs()
	if err != nil {
		ctl.contec.SetError()
		return nil
	}
	out := make(map[string]bool, len(ctl.inputMapping))
	for name, idx := range ctl.inputMapping {
		if idx >= 0 && idx < len(raw) {
			out[name] = raw[idx]
		}
	}
	return out
}

func (ctl *controller) readOutputs() (map[string]bool, error) {
	raw, err := ctl.contec.ReadOutputs()
	if err != nil {
		ctl.contec.SetError()
		return nil, err
	}
	out := make(map[string]bool, len(ctl.outputMapping))
	for name, idx := range ctl.outputMapping {
		if idx >= 0 && idx < len(raw) {
			out[name] = raw[idx]
		}
	}
	return out, nil
}

// applyOutputs reads the current output vector, overlays signals by
// name through outputMapping, and writes the whole vector back —
// matching Machine::setOutputs's read-modify-write so an unmentioned
// output (e.g. the other arm's tool changer) is left untouched.
func (ctl *controller) applyOutputs(signals map[string]bool) {
	raw, err := ctl.contec.ReadOutputs()
	if err != nil {
		ctl.contec.SetError()
		return
	}
	for name, value := range signals {
		if idx, ok := ctl.outputMapping[name]; ok && idx < len(raw) {
			raw[idx] = value
		}
	}
	if err := ctl.contec.SetOutputs(raw); err != nil {
		ctl.contec.SetError()
		ctl.log.Error(err, "setOutputs failed")
	}
}

// runControlLoopTasks is the control step of ControlLoopRunner.RunOneCycle.
func (ctl *controller) runControlLoopTasks() {
	inputs := ctl.readInputs()
	if inputs != nil {
		ctl.contec.SetNormal()
	}

	result, err := policy.EvaluateRimoKun(ctl.policyCfg, inputs, ctl.contec.State(), ctl.status)
	if err != nil {
		ctl.log.Error(err, "RobotControlPolicy evaluation failed")
		return
	}

	if result.SetToolChangerErrorBlinking {
		for arm, tc := range ctl.status.ToolChangers {
			for flag := range tc.Flags {
				tc.Flags[flag] = types.LEDErrorBlinking
			}
			ctl.status.ToolChangers[arm] = tc
		}
		return
	}

	if result.Outputs != nil {
		ctl.applyOutputs(result.Outputs)
	}
	for _, intent := range result.MotorIntents {
		ctl.applyMotorIntent(intent)
	}
}

func (ctl *controller) applyMotorIntent(intent policy.Intent) {
	if intent.Mode != nil {
		if err := ctl.fleet.SetMode(intent.Motor, *intent.Mode); err != nil {
			ctl.log.Error(err, "SetMode(%s) failed", intent.Motor)
			return
		}
	}
	if intent.Direction != nil {
		if err := ctl.fleet.SetDirection(intent.Motor, *intent.Direction); err != nil {
			ctl.log.Error(err, "SetDirection(%s) failed", intent.Motor)
			return
		}
	}
	if intent.Speed != nil {
		if err := ctl.fleet.SetSpeed(intent.Motor, *intent.Speed); err != nil {
			ctl.log.Error(err, "SetSpeed(%s) failed", intent.Motor)
			return
		}
	}
	if intent.Position != nil {
		if err := ctl.fleet.SetPosition(intent.Motor, *intent.Position); err != nil {
			ctl.log.Error(err, "SetPosition(%s) failed", intent.Motor)
			return
		}
	}
	if intent.StartMovement {
		if err := ctl.fleet.StartMovement(intent.Motor); err != nil {
			ctl.log.Error(err, "StartMovement(%s) failed", intent.Motor)
		}
	}
}

// handleToolChangerCommand performs a ToolChangerCommand, returning ""
// on success or a diagnostic string matching
// MachineController::handleToolChangerCommand's two failure messages.
func (ctl *controller) handleToolChangerCommand(c command.ToolChangerCommand) string {
	if ctl.contec.State() == component.StateError {
		return "Contec is in error state. Not possible to alter tool changer state!"
	}

	signals := map[string]bool{}
	switch c.Arm {
	case types.ArmLeft:
		signals["toolChangerLeft"] = c.Action == types.ActionOpen
	case types.ArmRight:
		signals["toolChangerRight"] = c.Action == types.ActionOpen
	}
	ctl.log.Info("Changing status of '%s' tool changer to '%s'", c.Arm, c.Action)
	ctl.applyOutputs(signals)

	if _, err := ctl.readOutputs(); err != nil {
		return "Unable to read status of output signals, tool changer status update failed!"
	}
	return ""
}
