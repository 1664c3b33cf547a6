// Package main is the entry point for the rimoserver gantry control
// process.
//
// The server loads its configuration document, dials the MQTT broker
// used for both status publish and command request/reply, builds the
// Machine orchestrator, and runs it until SIGINT/SIGTERM. An optional
// diagnostics HTTP+WebSocket mirror and an optional interactive debug
// console run alongside it.
//
// Configuration:
// The config document path defaults to "config.yaml" and can be
// overridden with --config. Secrets (MQTT broker credentials) are
// overlaid from a .env file (default ".env", overridden with --env),
// matching the teacher's own godotenv-for-secrets convention.
//
// Graceful shutdown:
// The process responds to SIGINT/SIGTERM by cancelling the context
// given to Machine.Run, then waits up to 60 seconds for every thread
// to join before forcing exit.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"rimoserver/command"
	"rimoserver/config"
	"rimoserver/debugconsole"
	"rimoserver/logx"
	"rimoserver/machine"
	"rimoserver/transport/diag"
	"rimoserver/transport/mqtt"
)

func main() {
	os.Exit(run())
}

// run builds and drives the server, returning the process exit code
// spec.md §6's CLI surface names: 0 success, 1 config error, 2
// unrecoverable initialization failure.
func run() int {
	log := logx.New("main")

	configPath := flag.String("config", "config.yaml", "path to the classes config document")
	envPath := flag.String("env", ".env", "path to an optional secrets overlay (missing file is not an error)")
	console := flag.Bool("console", false, "run an interactive debug console on stdin/stdout")
	debug := flag.Bool("debug", false, "enable debug-level logging")
	flag.Parse()
	logx.DebugMode = *debug

	doc, err := config.Load(*configPath, *envPath)
	if err != nil {
		log.Error(err, "loading config %s", *configPath)
		return 1
	}

	clientID := fmt.Sprintf("rimoserver-%s", filepath.Base(*configPath))
	client, err := mqtt.Dial(doc.Classes.RimoServer, clientID)
	if err != nil {
		log.Error(err, "connecting to MQTT broker")
		return 2
	}
	defer client.Disconnect(250)

	rs := doc.Classes.RimoServer
	publisher := mqtt.NewStatusPublisher(client, rs.StatusAddress)
	channel, err := mqtt.NewChannel(client, rs.CommandAddress, time.Duration(rs.ReceiveTimeoutMS)*time.Millisecond)
	if err != nil {
		log.Error(err, "subscribing to command channel")
		return 2
	}

	m, err := machine.New(doc, channel, publisher)
	if err != nil {
		log.Error(err, "building machine")
		return 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.Run(gctx) })

	if rs.DiagAddress != "" {
		diagSrv := diag.New(rs.DiagAddress, m.StatusSnapshot, m.Bus())
		g.Go(func() error { return diagSrv.Run(gctx) })
	}

	if *console {
		c := debugconsole.New(os.Stdin, os.Stdout, m.Processor(), command.Dispatch(m.Dispatch), m.StatusSnapshot)
		g.Go(func() error { return c.Run(gctx) })
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-gctx.Done():
		log.Info("a component stopped unexpectedly, shutting down")
	case <-sigs:
		log.Info("received termination signal, shutting down")
	}
	cancel()

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			log.Error(err, "server stopped with error")
			return 2
		}
		log.Info("shut down gracefully")
		return 0
	case <-time.After(60 * time.Second):
		log.Warn("timeout waiting for shutdown, forcing exit")
		return 2
	}
}
