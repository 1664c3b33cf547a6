package machine

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"rimoserver/command"
	"rimoserver/component"
	"rimoserver/config"
	"rimoserver/contec"
	"rimoserver/controlloop"
	"rimoserver/controlpanel"
	"rimoserver/eventbus"
	"rimoserver/logx"
	"rimoserver/modbusclient"
	"rimoserver/motorcontrol"
	"rimoserver/policy"
	"rimoserver/status"
	"rimoserver/types"
)

// StatusPublisher is the server transport's publish half (spec.md
// §4.13's pub socket), injected so Machine stays agnostic of MQTT vs.
// anything else.
type StatusPublisher interface {
	Publish(status *types.RobotStatus) error
}

// Machine is the orchestrator. New wires every subsystem; Run starts
// the control and command-server threads and blocks until ctx is
// cancelled.
type Machine struct {
	robotStatus *types.RobotStatus

	components *component.Service
	controller *controller
	builder    *status.Builder
	runner     *controlloop.Runner
	queue      *command.Queue
	processor  *command.Processor
	server     *command.Server
	publisher  StatusPublisher
	bus        *eventbus.EventBus

	controlPanel *controlpanel.ControlPanel

	running atomic.Bool
	log     *logx.Logger
}

// New builds a Machine from a loaded config document, a command
// transport channel, and a status publisher. Components are
// constructed but not yet Initialized — Run does that.
func New(doc *config.Document, channel command.Channel, publisher StatusPublisher) (*Machine, error) {
	cc := doc.Classes.Contec
	contecClient := contec.New(contec.Config{
		IPAddress: cc.IPAddress, Port: cc.Port, SlaveID: uint8(cc.SlaveID),
		NDI: cc.NDI, NDO: cc.NDO, ResponseTimeoutMS: cc.ResponseTimeoutMS,
	})
	contecComp := newContecComponent(contecClient)

	motorCfgs := make(map[types.Motor]config.MotorConfig, len(doc.Classes.MotorControl.Motors))
	for name := range doc.Classes.MotorControl.Motors {
		m, err := types.ParseMotor(name)
		if err != nil {
			continue
		}
		cfg, _ := doc.Classes.MotorControl.MotorConfigFor(m)
		motorCfgs[m] = cfg
	}
	fleet := motorcontrol.New(motorControlBusConfig(doc.Classes.MotorControl), motorCfgs)
	fleetComp := newMotorControlComponent(fleet, motorCfgs)

	cp := controlpanel.New(doc.Classes.ControlPanel)

	components := component.NewService(map[types.RobotComponent]component.Component{
		types.ComponentContec:       contecComp,
		types.ComponentMotorControl: fleetComp,
		types.ComponentControlPanel: cp,
	})

	bus := eventbus.NewEventBus()
	eventbus.WireComponents(bus, map[types.RobotComponent]component.Component{
		types.ComponentContec:       contecComp,
		types.ComponentMotorControl: fleetComp,
		types.ComponentControlPanel: cp,
	})

	robotStatus := types.NewRobotStatus()
	builder := status.New(components, cp, contecComp, doc.Classes.Machine.InputMapping, doc.Classes.Machine.OutputMapping)
	ctl := newController(contecComp, fleetComp, robotStatus,
		doc.Classes.Machine.InputMapping, doc.Classes.Machine.OutputMapping, policy.DefaultRimoKunConfig())

	queue := command.NewQueue()
	processor := command.NewProcessor()

	m := &Machine{
		robotStatus:  robotStatus,
		components:   components,
		controller:   ctl,
		builder:      builder,
		queue:        queue,
		processor:    processor,
		publisher:    publisher,
		bus:          bus,
		controlPanel: cp,
		log:          logx.New("machine"),
	}
	m.runner = controlloop.New(controlloop.RealClock{},
		time.Duration(doc.Classes.Machine.LoopIntervalMS)*time.Millisecond,
		time.Duration(doc.Classes.Machine.UpdateIntervalMS)*time.Millisecond)
	m.server = command.NewServer(processor, channel, m.dispatch)
	return m, nil
}

func motorControlBusConfig(mc config.MotorControl) modbusclient.Config {
	t := mc.Transport
	cfg := modbusclient.Config{Timeout: time.Duration(mc.ResponseTimeoutMS) * time.Millisecond}
	switch t.Type {
	case "tcp":
		cfg.TransportKind = modbusclient.TransportRTUOverTCP
		cfg.Host, cfg.Port = t.Host, t.Port
	default:
		cfg.TransportKind = modbusclient.TransportRTU
		cfg.Device = t.Serial.Device
		if cfg.Device == "" {
			cfg.Device = t.Serial.Port
		}
		cfg.Baud, cfg.DataBits, cfg.StopBits, cfg.Parity = t.Serial.Baud, t.Serial.DataBits, t.Serial.StopBits, t.Serial.Parity
	}
	return cfg
}

// Run initializes every component and runs the control thread and the
// command-server thread until ctx is cancelled, then runs the
// shutdown protocol and returns once both threads have exited.
func (m *Machine) Run(ctx context.Context) error {
	m.components.InitializeAll()
	m.running.Store(true)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m.runControlLoop(gctx)
		return nil
	})
	g.Go(func() error {
		m.server.RunLoop(&m.running)
		return nil
	})

	<-ctx.Done()
	m.shutdown()
	return g.Wait()
}

func (m *Machine) runControlLoop(ctx context.Context) {
	m.log.Info("Control thread started")
	var state controlloop.State
	for ctx.Err() == nil && m.running.Load() {
		m.runner.RunOneCycle(m.controller.runControlLoopTasks, m.processOnePendingCommand, m.updateAndPublish, &state)
	}
	m.log.Info("Control thread finished!")
}

func (m *Machine) updateAndPublish() {
	m.builder.Update(m.robotStatus)
	if err := m.publisher.Publish(m.robotStatus); err != nil {
		m.log.Error(err, "status publish failed")
	}
}

// processOnePendingCommand implements spec.md §4.11: try_pop one
// entry and resolve it with exactly one reply.
func (m *Machine) processOnePendingCommand() {
	cmd, ok := m.queue.TryPop()
	if !ok {
		return
	}
	cmd.Resolve(m.performCommand(cmd))
}

func (m *Machine) performCommand(cmd command.Command) string {
	switch {
	case cmd.Payload.ToolChanger != nil:
		return m.controller.handleToolChangerCommand(*cmd.Payload.ToolChanger)
	case cmd.Payload.Reconnect != nil:
		return m.components.Reconnect(cmd.Payload.Reconnect.Component)
	default:
		return "Unknown command payload"
	}
}

// dispatch is the command.Dispatch CommandProcessor uses: push, then
// wait up to timeout without removing the command from the queue on
// timeout (spec.md §4.11).
func (m *Machine) dispatch(cmd command.Command, timeout time.Duration) string {
	if !m.queue.Push(cmd) {
		return "Machine is shutting down"
	}
	if reply, ok := cmd.Wait(timeout); ok {
		return reply
	}
	return "Command processing timed out"
}

// Bus exposes the component lifecycle event bus so an additional
// transport (transport/diag) can subscribe to state-change pushes
// without Machine depending on that transport's package.
func (m *Machine) Bus() eventbus.Bus { return m.bus }

// StatusSnapshot returns the live RobotStatus pointer Machine updates
// in place every control-loop cycle. Callers (transport/diag,
// debugconsole) must treat it as read-only; Machine never replaces
// the pointer, only mutates the maps it references.
func (m *Machine) StatusSnapshot() *types.RobotStatus { return m.robotStatus }

// Processor exposes the shared command.Processor so an additional
// transport (debugconsole) can run the exact same document pipeline
// the MQTT command.Server drives.
func (m *Machine) Processor() *command.Processor { return m.processor }

// Dispatch exposes dispatch as a command.Dispatch for transports
// other than the one passed to New — e.g. debugconsole, which needs
// its own Processor.Process call site but the same queue-backed
// dispatch semantics.
func (m *Machine) Dispatch(cmd command.Command, timeout time.Duration) string {
	return m.dispatch(cmd, timeout)
}

func (m *Machine) shutdown() {
	m.log.Info("Shutting down. Joining threads...")
	m.running.Store(false)
	m.controlPanel.Reset()
	m.queue.Shutdown()
	m.queue.DrainWithReply("Machine is shutting down")
}
