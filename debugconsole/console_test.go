package debugconsole

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"rimoserver/command"
	"rimoserver/types"
)

func echoDispatch(lastCmd *command.Command) command.Dispatch {
	return func(cmd command.Command, _ time.Duration) string {
		*lastCmd = cmd
		return ""
	}
}

func newTestConsole(in string, dispatch command.Dispatch, status *types.RobotStatus) (*Console, *bytes.Buffer) {
	var out bytes.Buffer
	c := New(strings.NewReader(in), &out, command.NewProcessor(), dispatch, func() *types.RobotStatus { return status })
	return c, &out
}

func TestRunHandlesUnknownCommand(t *testing.T) {
	c, out := newTestConsole("bogus\n", nil, types.NewRobotStatus())
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "unknown command: bogus") {
		t.Errorf("expected an unknown-command message, got %q", out.String())
	}
}

func TestRunSkipsBlankLines(t *testing.T) {
	c, out := newTestConsole("\n\nstatus\n", nil, types.NewRobotStatus())
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Count(out.String(), "unknown command") != 0 {
		t.Errorf("blank lines must not be treated as unknown commands, got %q", out.String())
	}
}

func TestRunExitEndsTheSessionWithoutError(t *testing.T) {
	c, out := newTestConsole("exit\nstatus\n", nil, types.NewRobotStatus())
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Contains(out.String(), "Motors:") {
		t.Error("expected exit to stop the loop before the trailing status command ran")
	}
	if !strings.Contains(out.String(), "bye.") {
		t.Error("expected exit's farewell message")
	}
}

func TestRunResetDispatchesAndPrintsOK(t *testing.T) {
	var captured command.Command
	c, out := newTestConsole("reset Contec\n", echoDispatch(&captured), types.NewRobotStatus())
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "OK") {
		t.Errorf("expected OK, got %q", out.String())
	}
	if captured.Payload.Reconnect == nil || captured.Payload.Reconnect.Component != types.ComponentContec {
		t.Errorf("expected a Reconnect payload for Contec, got %+v", captured.Payload)
	}
}

func TestRunResetRejectsWrongArgCount(t *testing.T) {
	c, out := newTestConsole("reset\n", nil, types.NewRobotStatus())
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "usage: reset") {
		t.Errorf("expected a usage error, got %q", out.String())
	}
}

func TestRunToolchangerDispatchesAndPrintsOK(t *testing.T) {
	var captured command.Command
	c, out := newTestConsole("toolchanger Left Open\n", echoDispatch(&captured), types.NewRobotStatus())
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "OK") {
		t.Errorf("expected OK, got %q", out.String())
	}
	if captured.Payload.ToolChanger == nil || captured.Payload.ToolChanger.Arm != types.ArmLeft {
		t.Errorf("expected a ToolChanger payload for ArmLeft, got %+v", captured.Payload)
	}
}

func TestRunReturnsScannerErrorOnEOFIsNil(t *testing.T) {
	c, _ := newTestConsole("", nil, types.NewRobotStatus())
	if err := c.Run(context.Background()); err != nil {
		t.Errorf("expected a clean EOF to return nil, got %v", err)
	}
}
