package debugconsole

import (
	"errors"
	"fmt"
	"io"

	"rimoserver/types"
)

// errExit is Handler's signal to end the session cleanly, mirroring
// terminal/robot_commands.go's exitCommand sentinel error.
var errExit = errors.New("exit")

// Context is the per-invocation handle a Handler gets: Out for
// printing, plus access back to the Console for commands that need
// the shared dispatch pipeline or status snapshot.
type Context struct {
	console *Console
	Out     io.Writer
}

// Handler implements one named command.
type Handler func(ctx *Context, args []string) error

// CommandInfo is one registered command's metadata and handler.
type CommandInfo struct {
	Name        string
	Usage       string
	Description string
	Handler     Handler
}

// CommandRegistry holds the console's named commands, mirroring
// terminal/commands.go's registry shape but built fresh per Console
// instead of a single package-level DefaultRegistry, since a Console
// always has its own Processor/dispatch/status closures to bind.
type CommandRegistry struct {
	commands map[string]*CommandInfo
}

func newRegistry() *CommandRegistry {
	return &CommandRegistry{commands: make(map[string]*CommandInfo)}
}

func (r *CommandRegistry) register(info *CommandInfo) {
	r.commands[info.Name] = info
}

// Get retrieves a command by name.
func (r *CommandRegistry) Get(name string) (*CommandInfo, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

func defaultRegistry() *CommandRegistry {
	r := newRegistry()
	r.register(&CommandInfo{Name: "help", Usage: "help [command]", Description: "list commands or describe one", Handler: helpHandler(r)})
	r.register(&CommandInfo{Name: "status", Usage: "status", Description: "print the latest RobotStatus snapshot", Handler: statusHandler})
	r.register(&CommandInfo{Name: "reset", Usage: "reset <Contec|MotorControl|ControlPanel>", Description: "reconnect a component", Handler: resetHandler})
	r.register(&CommandInfo{Name: "toolchanger", Usage: "toolchanger <Left|Right> <Open|Close>", Description: "actuate a tool changer", Handler: toolChangerHandler})
	r.register(&CommandInfo{Name: "diag", Usage: "diag motor <name>", Description: "print one motor's status", Handler: diagHandler})
	r.register(&CommandInfo{Name: "exit", Usage: "exit", Description: "end the console session", Handler: exitHandler})
	r.register(&CommandInfo{Name: "quit", Usage: "quit", Description: "alias for exit", Handler: exitHandler})
	return r
}

func helpHandler(r *CommandRegistry) Handler {
	return func(ctx *Context, args []string) error {
		if len(args) == 0 {
			for _, cmd := range r.commands {
				fmt.Fprintf(ctx.Out, "  %-12s %s\n", cmd.Name, cmd.Description)
			}
			return nil
		}
		cmd, ok := r.Get(args[0])
		if !ok {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		fmt.Fprintf(ctx.Out, "%s\nusage: %s\n", cmd.Description, cmd.Usage)
		return nil
	}
}

func statusHandler(ctx *Context, args []string) error {
	fmt.Fprintf(ctx.Out, "%+v\n", ctx.console.status())
	return nil
}

func resetHandler(ctx *Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: reset <Contec|MotorControl|ControlPanel>")
	}
	ctx.console.dispatchDoc(ctx.Out, map[string]any{"type": "reset", "system": args[0]})
	return nil
}

func toolChangerHandler(ctx *Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: toolchanger <Left|Right> <Open|Close>")
	}
	ctx.console.dispatchDoc(ctx.Out, map[string]any{"type": "toolChanger", "position": args[0], "action": args[1]})
	return nil
}

func diagHandler(ctx *Context, args []string) error {
	if len(args) != 2 || args[0] != "motor" {
		return fmt.Errorf("usage: diag motor <name>")
	}
	motor, err := types.ParseMotor(args[1])
	if err != nil {
		return err
	}
	status, ok := ctx.console.status().Motors[motor]
	if !ok {
		return fmt.Errorf("no status recorded for motor %s", motor)
	}
	fmt.Fprintf(ctx.Out, "%+v\n", status)
	return nil
}

func exitHandler(ctx *Context, args []string) error {
	fmt.Fprintln(ctx.Out, "bye.")
	return errExit
}
