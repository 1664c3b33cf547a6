// Package contec drives the Contec discrete-I/O module over Modbus-TCP
// (spec.md §4.2), grounded on
// original_source/Server/src/Contec.cpp: lazy connect on first call,
// fixed-width bit vectors, reset-drops-the-connection semantics.
package contec

import (
	"time"

	"rimoserver/modbusclient"
	"rimoserver/rmerrors"
)

func msToDuration(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }

// Config is the Contec module's dial parameters.
type Config struct {
	IPAddress         string
	Port              uint16
	SlaveID           uint8
	NDI               int
	NDO               int
	ResponseTimeoutMS int
}

// Contec is a lazily-connected discrete-I/O client. A single Contec is
// not safe for concurrent use without an external lock — Machine owns
// one instance and calls it only from the control thread.
type Contec struct {
	cfg Config
	cli *modbusclient.Client
}

// New builds a Contec with no open connection.
func New(cfg Config) *Contec { return &Contec{cfg: cfg} }

// NInputs returns the configured discrete-input count.
func (c *Contec) NInputs() int { return c.cfg.NDI }

// NOutputs returns the configured discrete-output count.
func (c *Contec) NOutputs() int { return c.cfg.NDO }

func (c *Contec) ensureClient() error {
	if c.cli != nil {
		return nil
	}
	cli, err := modbusclient.Connect(modbusclient.Config{
		TransportKind: modbusclient.TransportTCP,
		Host:          c.cfg.IPAddress,
		Port:          c.cfg.Port,
		UnitID:        c.cfg.SlaveID,
		Timeout:       msToDuration(c.cfg.ResponseTimeoutMS),
	})
	if err != nil {
		return rmerrors.New(rmerrors.TransportError, "Contec: connect %s:%d (slave %d): %s",
			c.cfg.IPAddress, c.cfg.Port, c.cfg.SlaveID, err.Message)
	}
	c.cli = cli
	return nil
}

// ReadInputs returns a bit vector of length nDI starting at address 0.
func (c *Contec) ReadInputs() ([]bool, error) {
	if err := c.ensureClient(); err != nil {
		return nil, err
	}
	b, err := c.cli.ReadDiscreteInputs(0, uint16(c.cfg.NDI))
	if err != nil {
		return nil, rmerrors.New(rmerrors.TransportError, "Contec: readInputs(0, %d): %s", c.cfg.NDI, err.Message)
	}
	return unpackBits(b, c.cfg.NDI), nil
}

// ReadOutputs returns a bit vector of length nDO starting at address 0.
func (c *Contec) ReadOutputs() ([]bool, error) {
	if err := c.ensureClient(); err != nil {
		return nil, err
	}
	b, err := c.cli.ReadCoils(0, uint16(c.cfg.NDO))
	if err != nil {
		return nil, rmerrors.New(rmerrors.TransportError, "Contec: readOutputs(0, %d): %s", c.cfg.NDO, err.Message)
	}
	return unpackBits(b, c.cfg.NDO), nil
}

// SetOutputs writes outputs starting at address 0. Rejects any length
// other than nDO with OperationRejected.
func (c *Contec) SetOutputs(outputs []bool) error {
	if len(outputs) != c.cfg.NDO {
		return rmerrors.New(rmerrors.OperationRejected,
			"Contec: invalid number of outputs provided! %d instead of %d", len(outputs), c.cfg.NDO)
	}
	if err := c.ensureClient(); err != nil {
		return err
	}
	if werr := c.cli.WriteMultipleCoils(0, uint16(len(outputs)), packBits(outputs)); werr != nil {
		return rmerrors.New(rmerrors.TransportError, "Contec: setOutputs(0, %d): %s", len(outputs), werr.Message)
	}
	return nil
}

// Reset drops the current connection; the next call re-opens it.
func (c *Contec) Reset() {
	if c.cli != nil {
		_ = c.cli.Close()
		c.cli = nil
	}
}

func unpackBits(b []byte, n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = b[i/8]&(1<<(uint(i)%8)) != 0
	}
	return out
}

func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, on := range bits {
		if on {
			out[i/8] |= 1 << (uint(i) % 8)
		}
	}
	return out
}
