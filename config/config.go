// Package config loads the hierarchical configuration document described
// in spec.md §6: a YAML file with one section per "class" (Contec,
// ControlPanel, MotorControl, Machine, RimoServer), plus an optional
// .env overlay for secrets that should not live in the checked-in file.
package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"rimoserver/rmerrors"
	"rimoserver/types"
)

// Contec is the discrete-I/O module configuration (spec.md §4.2, §6).
type Contec struct {
	IPAddress         string `yaml:"ipAddress"`
	Port              uint16 `yaml:"port"`
	SlaveID           uint16 `yaml:"slaveId"`
	NDI               int    `yaml:"nDI"`
	NDO               int    `yaml:"nDO"`
	ResponseTimeoutMS int    `yaml:"responseTimeoutMS"`
}

// SerialPort is the shared serial-port parameter set used by both
// ControlPanel and MotorControl's RTU transport.
type SerialPort struct {
	Port          string `yaml:"port"`
	Device        string `yaml:"device"`
	Baud          int    `yaml:"baudRate"`
	CharacterSize int    `yaml:"characterSize"`
	FlowControl   string `yaml:"flowControl"`
	Parity        string `yaml:"parity"`
	StopBits      int    `yaml:"stopBits"`
	DataBits      int    `yaml:"dataBits"`
	ReadTimeoutMS int    `yaml:"readTimeoutMS"`
	LineTerminator string `yaml:"lineTerminator"`
}

// ControlPanelComm selects and configures the control panel's
// communication backend. Only "serial" is currently supported.
type ControlPanelComm struct {
	Type   string     `yaml:"type"`
	Serial SerialPort `yaml:"serial"`
}

// ControlPanelProcessing holds the normalization tunables.
type ControlPanelProcessing struct {
	MovingAverageDepth  int `yaml:"movingAverageDepth"`
	BaselineSamples     int `yaml:"baselineSamples"`
	ButtonDebounceSamples int `yaml:"buttonDebounceSamples"`
}

// ControlPanel is the serial joystick reader configuration (spec.md
// §4.5, §6).
type ControlPanel struct {
	Comm       ControlPanelComm       `yaml:"comm"`
	Processing ControlPanelProcessing `yaml:"processing"`
}

// MotorControlTransport selects the bus transport for the motor fleet.
type MotorControlTransport struct {
	Type   string     `yaml:"type"`
	Serial SerialPort `yaml:"serial"`
	Host   string     `yaml:"host"`
	Port   uint16     `yaml:"port"`
}

// MotorConfig is one motor's slave address and current limits.
type MotorConfig struct {
	Address    int `yaml:"address"`
	RunCurrent int `yaml:"runCurrent"`
	StopCurrent int `yaml:"stopCurrent"`
}

// MotorControl is the motor fleet configuration (spec.md §4.4, §6).
type MotorControl struct {
	Model             string                 `yaml:"model"`
	Transport         MotorControlTransport  `yaml:"transport"`
	ResponseTimeoutMS int                    `yaml:"responseTimeoutMS"`
	Motors            map[string]MotorConfig `yaml:"motors"`
}

// Machine is the control-loop cadence and I/O-mapping configuration.
type Machine struct {
	LoopIntervalMS   int            `yaml:"loopIntervalMS"`
	UpdateIntervalMS int            `yaml:"updateIntervalMS"`
	InputMapping     map[string]int `yaml:"inputMapping"`
	OutputMapping    map[string]int `yaml:"outputMapping"`
}

// RimoServer is the transport endpoint configuration.
type RimoServer struct {
	// BrokerURL is the MQTT broker this process connects to
	// ("tcp://host:1883"), substituting for the original's ZeroMQ
	// context (see SPEC_FULL.md Open Question resolution).
	BrokerURL string `yaml:"brokerUrl"`
	// StatusAddress and CommandAddress are MQTT topics, not socket
	// addresses, despite the name carried over from the original's
	// ZeroMQ PUB/REP endpoints: the status topic is published to, the
	// command topic is subscribed to, and command replies go out on
	// CommandAddress + "/reply".
	StatusAddress  string `yaml:"statusAddress"`
	CommandAddress string `yaml:"commandAddress"`

	// ReceiveTimeoutMS bounds how long CommandServer's Channel.Receive
	// blocks per poll, so the command-server thread notices shutdown
	// promptly (spec.md §4.10).
	ReceiveTimeoutMS int `yaml:"receiveTimeoutMS"`

	// DiagAddress is the optional "host:port" transport/diag listens
	// on (SPEC_FULL.md's diagnostics HTTP mirror). Empty disables it.
	DiagAddress string `yaml:"diagAddress"`

	// MQTTUsername/MQTTPassword are never read from the YAML document;
	// they are overlaid from the environment (see Load), matching the
	// teacher's .env-for-secrets convention.
	MQTTUsername string `yaml:"-"`
	MQTTPassword string `yaml:"-"`
}

// Document is the full "classes" config document.
type Document struct {
	Classes struct {
		Contec       Contec       `yaml:"Contec"`
		ControlPanel ControlPanel `yaml:"ControlPanel"`
		MotorControl MotorControl `yaml:"MotorControl"`
		Machine      Machine      `yaml:"Machine"`
		RimoServer   RimoServer   `yaml:"RimoServer"`
	} `yaml:"classes"`
}

// Load reads and validates the config document at path, overlaying
// secrets from envPath (if it exists; a missing .env is not an error,
// mirroring the teacher's own godotenv.Load call but without panicking
// on an optional overlay).
func Load(path string, envPath string) (*Document, error) {
	if envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return nil, rmerrors.Wrap(rmerrors.ConfigError, err, "loading %s", envPath)
			}
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, rmerrors.Wrap(rmerrors.ConfigError, err, "reading config %s", path)
	}

	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, rmerrors.Wrap(rmerrors.ConfigError, err, "parsing config %s", path)
	}

	applyDefaults(&doc)

	if err := validate(&doc); err != nil {
		return nil, err
	}

	doc.Classes.RimoServer.MQTTUsername = os.Getenv("MQTT_USERNAME")
	doc.Classes.RimoServer.MQTTPassword = os.Getenv("MQTT_PASSWORD")

	return &doc, nil
}

func applyDefaults(doc *Document) {
	if doc.Classes.Contec.ResponseTimeoutMS == 0 {
		doc.Classes.Contec.ResponseTimeoutMS = 1000
	}
	if doc.Classes.ControlPanel.Processing.MovingAverageDepth == 0 {
		doc.Classes.ControlPanel.Processing.MovingAverageDepth = 5
	}
	if doc.Classes.ControlPanel.Processing.BaselineSamples == 0 {
		doc.Classes.ControlPanel.Processing.BaselineSamples = 50
	}
	if doc.Classes.ControlPanel.Processing.ButtonDebounceSamples == 0 {
		doc.Classes.ControlPanel.Processing.ButtonDebounceSamples = 3
	}
	if doc.Classes.ControlPanel.Comm.Serial.LineTerminator == "" {
		doc.Classes.ControlPanel.Comm.Serial.LineTerminator = "\n"
	}
	if doc.Classes.MotorControl.ResponseTimeoutMS == 0 {
		doc.Classes.MotorControl.ResponseTimeoutMS = 1000
	}
	if doc.Classes.RimoServer.ReceiveTimeoutMS == 0 {
		doc.Classes.RimoServer.ReceiveTimeoutMS = 500
	}
}

func validate(doc *Document) error {
	cp := &doc.Classes.ControlPanel
	if cp.Comm.Type == "serial" && len(cp.Comm.Serial.LineTerminator) != 1 {
		return rmerrors.New(rmerrors.ConfigError,
			"ControlPanel.comm.serial.lineTerminator must be exactly one character, got %q",
			cp.Comm.Serial.LineTerminator)
	}
	if cp.Processing.MovingAverageDepth < 1 {
		return rmerrors.New(rmerrors.ConfigError, "ControlPanel.processing.movingAverageDepth must be >= 1")
	}
	if cp.Processing.BaselineSamples < 1 {
		return rmerrors.New(rmerrors.ConfigError, "ControlPanel.processing.baselineSamples must be >= 1")
	}
	if cp.Processing.ButtonDebounceSamples < 1 {
		return rmerrors.New(rmerrors.ConfigError, "ControlPanel.processing.buttonDebounceSamples must be >= 1")
	}

	mc := &doc.Classes.MotorControl
	if mc.Model != "AR-KD2" {
		return rmerrors.New(rmerrors.ConfigError, "MotorControl.model %q is not supported, only \"AR-KD2\"", mc.Model)
	}
	for name, m := range mc.Motors {
		if _, err := types.ParseMotor(name); err != nil {
			return rmerrors.New(rmerrors.ConfigError, "MotorControl.motors: %v", err)
		}
		if m.Address < 1 || m.Address > 247 {
			return rmerrors.New(rmerrors.ConfigError, "MotorControl.motors.%s.address %d out of range [1,247]", name, m.Address)
		}
	}

	ma := &doc.Classes.Machine
	for name, idx := range ma.InputMapping {
		if idx >= doc.Classes.Contec.NDI {
			return rmerrors.New(rmerrors.ConfigError, "%s: index %d out of bounds for nDI", name, idx)
		}
	}
	for name, idx := range ma.OutputMapping {
		if idx >= doc.Classes.Contec.NDO {
			return rmerrors.New(rmerrors.ConfigError, "%s: index %d out of bounds for nDO", name, idx)
		}
	}
	if ma.LoopIntervalMS <= 0 {
		return rmerrors.New(rmerrors.ConfigError, "Machine.loopIntervalMS must be > 0")
	}
	if ma.UpdateIntervalMS <= 0 {
		return rmerrors.New(rmerrors.ConfigError, "Machine.updateIntervalMS must be > 0")
	}

	rs := &doc.Classes.RimoServer
	if rs.StatusAddress == "" || rs.CommandAddress == "" {
		return rmerrors.New(rmerrors.ConfigError, "RimoServer.statusAddress and commandAddress are required")
	}
	if rs.BrokerURL == "" {
		return rmerrors.New(rmerrors.ConfigError, "RimoServer.brokerUrl is required")
	}

	return nil
}

// MotorConfigFor resolves the typed Motor key to its config, if present.
func (mc *MotorControl) MotorConfigFor(m types.Motor) (MotorConfig, bool) {
	cfg, ok := mc.Motors[m.String()]
	if ok && cfg.RunCurrent == 0 {
		cfg.RunCurrent = 1000
	}
	if ok && cfg.StopCurrent == 0 {
		cfg.StopCurrent = 500
	}
	return cfg, ok
}
