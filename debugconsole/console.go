// Package debugconsole is an interactive stdin/stdout command loop
// (SPEC_FULL.md's "Interactive debug console" supplemented feature),
// an operator-facing alternative to the MQTT command channel for use
// during bring-up and field diagnosis. Grounded on
// terminal/terminal.go's accept-loop/scanner shape and
// terminal/commands.go's CommandRegistry/CommandContext pattern,
// adapted from a TCP server accepting many concurrent connections to a
// single stdin/stdout session, and from roboserver/shared/robot_manager
// to this module's command.Processor/command.Queue pipeline — typed
// commands are translated into the same document shape
// command.Processor.Process already decodes from MQTT, so both
// transports exercise identical validation and dispatch.
package debugconsole

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"rimoserver/command"
	"rimoserver/logx"
	"rimoserver/types"
)

// StatusSource returns the most recently published RobotStatus.
type StatusSource func() *types.RobotStatus

// Console reads one command per line from in and writes responses to
// out, dispatching through the same Processor/Dispatch pair the MQTT
// command channel uses.
type Console struct {
	in        *bufio.Scanner
	out       io.Writer
	processor *command.Processor
	dispatch  command.Dispatch
	status    StatusSource
	registry  *CommandRegistry
	log       *logx.Logger
}

// New builds a Console. dispatch is Machine's queue-backed dispatch
// function (the same one given to command.NewServer for the network
// transport).
func New(in io.Reader, out io.Writer, processor *command.Processor, dispatch command.Dispatch, status StatusSource) *Console {
	return &Console{
		in:        bufio.NewScanner(in),
		out:       out,
		processor: processor,
		dispatch:  dispatch,
		status:    status,
		registry:  defaultRegistry(),
		log:       logx.New("debugconsole"),
	}
}

// Run reads and executes commands until in reaches EOF or ctx is
// cancelled. A blocked Scan (waiting on an interactive terminal) is
// not interrupted by ctx — the process exiting is what ends it, same
// as the rest of an operator's terminal session.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "=== rimoserver debug console ===")
	fmt.Fprintln(c.out, "Type 'help' for available commands.")
	c.prompt()

	for c.in.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(c.in.Text())
		if line == "" {
			c.prompt()
			continue
		}

		fields := strings.Fields(line)
		name, args := fields[0], fields[1:]

		cmd, ok := c.registry.Get(name)
		if !ok {
			fmt.Fprintf(c.out, "unknown command: %s\n", name)
			c.prompt()
			continue
		}

		if err := cmd.Handler(&Context{console: c, Out: c.out}, args); err != nil {
			if err == errExit {
				return nil
			}
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
		c.prompt()
	}
	return c.in.Err()
}

func (c *Console) prompt() { fmt.Fprint(c.out, "> ") }

// dispatchDoc runs doc through the shared Processor and prints the
// resulting Response, the same pipeline stage the MQTT channel drives
// from Channel.Receive.
func (c *Console) dispatchDoc(out io.Writer, doc map[string]any) {
	resp := c.processor.Process(doc, c.dispatch)
	if resp.Status == "OK" {
		fmt.Fprintln(out, "OK")
		return
	}
	fmt.Fprintf(out, "%s: %s\n", resp.Status, resp.Message)
}
