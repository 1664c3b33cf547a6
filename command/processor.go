package command

import (
	"fmt"
	"time"

	"rimoserver/types"
)

// Dispatch enqueues cmd and waits up to timeout for its reply, hiding
// the Queue from Processor. Returns "" on success.
type Dispatch func(cmd Command, timeout time.Duration) string

// dispatchDeadline is the fixed deadline MachineCommandProcessor used
// for both command types (original_source/Server/src/
// MachineCommandProcessor.cpp).
const dispatchDeadline = 2 * time.Second

// Response is the wire-agnostic reply document Process returns; callers
// encode it as JSON/YAML per their transport.
type Response struct {
	Status  string `json:"status" yaml:"status"`
	Message string `json:"message" yaml:"message"`
}

func ok() Response    { return Response{Status: "OK"} }
func errMsg(msg string) Response { return Response{Status: "Error", Message: msg} }

// Processor turns an incoming command document into a Response,
// dispatching exactly the two command types spec.md §4.9 names.
type Processor struct{}

// NewProcessor builds a Processor. It carries no state of its own.
func NewProcessor() *Processor { return &Processor{} }

// Process implements spec.md §4.9's algorithm against a decoded
// document (the transport layer owns JSON/YAML decoding).
func (p *Processor) Process(doc map[string]any, dispatch Dispatch) Response {
	if doc == nil {
		return errMsg("Command must be a map! Ignoring!")
	}
	typ, ok := doc["type"].(string)
	if !ok || typ == "" {
		return errMsg("Command lacks a valid 'type' entry! Ignoring!")
	}

	switch typ {
	case "toolChanger":
		return p.processToolChanger(doc, dispatch)
	case "reset":
		return p.processReset(doc, dispatch)
	default:
		return errMsg(fmt.Sprintf("Unknown command type '%s'!", typ))
	}
}

func (p *Processor) processToolChanger(doc map[string]any, dispatch Dispatch) Response {
	armStr, hasArm := doc["position"].(string)
	actionStr, hasAction := doc["action"].(string)
	if !hasArm || !hasAction {
		return errMsg("Invalid toolChanger command")
	}
	arm, err1 := types.ParseArm(armStr)
	action, err2 := types.ParseToolChangerAction(actionStr)
	if err1 != nil || err2 != nil {
		return errMsg("Invalid toolChanger command")
	}

	cmd := newCommand(Payload{ToolChanger: &ToolChangerCommand{Arm: arm, Action: action}})
	if reply := dispatch(cmd, dispatchDeadline); reply != "" {
		return errMsg(reply)
	}
	return ok()
}

func (p *Processor) processReset(doc map[string]any, dispatch Dispatch) Response {
	systemStr, hasSystem := doc["system"].(string)
	if !hasSystem {
		return errMsg("Invalid reset command")
	}
	component, err := types.ParseRobotComponent(systemStr)
	if err != nil {
		return errMsg("Invalid reset command")
	}

	cmd := newCommand(Payload{Reconnect: &ReconnectCommand{Component: component}})
	if reply := dispatch(cmd, dispatchDeadline); reply != "" {
		return errMsg(reply)
	}
	return ok()
}
