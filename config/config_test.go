package config

import (
	"os"
	"path/filepath"
	"testing"

	"rimoserver/rmerrors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

const validDoc = `
classes:
  Contec:
    ipAddress: 192.168.1.10
    port: 502
    slaveId: 1
    nDI: 16
    nDO: 16
  ControlPanel:
    comm:
      type: serial
      serial:
        device: /dev/ttyUSB0
        baudRate: 9600
  MotorControl:
    model: AR-KD2
    transport:
      type: tcp
      host: 192.168.1.20
      port: 502
    motors:
      XLeft:
        address: 1
  Machine:
    loopIntervalMS: 10
    updateIntervalMS: 100
    inputMapping:
      toolChangerLeftProx: 0
    outputMapping:
      toolChangerLeft: 0
  RimoServer:
    brokerUrl: tcp://localhost:1883
    statusAddress: rimo/status
    commandAddress: rimo/command
`

func TestLoadValidDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", validDoc)

	doc, err := Load(path, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("Load returned an error for a valid document: %v", err)
	}

	if doc.Classes.Contec.ResponseTimeoutMS != 1000 {
		t.Errorf("expected default ResponseTimeoutMS 1000, got %d", doc.Classes.Contec.ResponseTimeoutMS)
	}
	if doc.Classes.ControlPanel.Comm.Serial.LineTerminator != "\n" {
		t.Errorf("expected default line terminator, got %q", doc.Classes.ControlPanel.Comm.Serial.LineTerminator)
	}
	if doc.Classes.RimoServer.ReceiveTimeoutMS != 500 {
		t.Errorf("expected default ReceiveTimeoutMS 500, got %d", doc.Classes.RimoServer.ReceiveTimeoutMS)
	}
}

func TestLoadRejectsBadMotorModel(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
classes:
  MotorControl:
    model: Unsupported
  RimoServer:
    brokerUrl: tcp://localhost:1883
    statusAddress: a
    commandAddress: b
  Machine:
    loopIntervalMS: 1
    updateIntervalMS: 1
`)
	if _, err := Load(path, ""); !rmerrors.Is(err, rmerrors.ConfigError) {
		t.Errorf("expected a ConfigError for an unsupported motor model, got %v", err)
	}
}

func TestLoadRejectsMissingBrokerURL(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
classes:
  MotorControl:
    model: AR-KD2
  RimoServer:
    statusAddress: a
    commandAddress: b
  Machine:
    loopIntervalMS: 1
    updateIntervalMS: 1
`)
	if _, err := Load(path, ""); !rmerrors.Is(err, rmerrors.ConfigError) {
		t.Errorf("expected a ConfigError for a missing brokerUrl, got %v", err)
	}
}

func TestLoadRejectsOutOfRangeMotorAddress(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
classes:
  MotorControl:
    model: AR-KD2
    motors:
      XLeft:
        address: 999
  RimoServer:
    brokerUrl: tcp://localhost:1883
    statusAddress: a
    commandAddress: b
  Machine:
    loopIntervalMS: 1
    updateIntervalMS: 1
`)
	if _, err := Load(path, ""); !rmerrors.Is(err, rmerrors.ConfigError) {
		t.Errorf("expected a ConfigError for an out-of-range motor address, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml", ""); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestMotorConfigForAppliesCurrentDefaults(t *testing.T) {
	mc := MotorControl{Motors: map[string]MotorConfig{"XLeft": {Address: 3}}}
	cfg, ok := mc.MotorConfigFor(0) // types.XLeft == 0
	if !ok {
		t.Fatal("expected XLeft to resolve")
	}
	if cfg.RunCurrent != 1000 || cfg.StopCurrent != 500 {
		t.Errorf("expected default currents, got run=%d stop=%d", cfg.RunCurrent, cfg.StopCurrent)
	}
}
