// Package modbusclient is the uniform Modbus transport adapter (spec.md
// §4.1): one connection context, a slave selector serialized with each
// call, and a typed Ok/Err result instead of ad hoc error values.
//
// It wraps github.com/goburrow/modbus, the same library
// Sioux-Steel-Solutions-raptor-core uses for its VFD control channel.
package modbusclient

import (
	"fmt"
	"time"

	"github.com/goburrow/modbus"
)

// Kind tags a modbus-layer failure the way spec.md §4.1 names it. This
// is a narrower taxonomy than rmerrors.Kind: callers (Motor, Contec)
// translate a Kind into an rmerrors.TransportError with the original
// message preserved.
type Kind int

const (
	ConnectFailed Kind = iota
	SetSlaveFailed
	Timeout
	Transport
	Protocol
)

func (k Kind) String() string {
	switch k {
	case ConnectFailed:
		return "ConnectFailed"
	case SetSlaveFailed:
		return "SetSlaveFailed"
	case Timeout:
		return "Timeout"
	case Transport:
		return "Transport"
	case Protocol:
		return "Protocol"
	default:
		return "Unknown"
	}
}

// Error is the typed error returned in place of Go's plain error by
// every adapter call.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

// Transport selects which physical/framing layer backs the adapter.
type Transport int

const (
	// TransportTCP is a plain Modbus-TCP connection (host, port, unit id).
	TransportTCP Transport = iota
	// TransportRTU is Modbus-RTU over a real serial device.
	TransportRTU
	// TransportRTUOverTCP takes a TCP host/port and is dialed exactly
	// like TransportTCP, with Modbus-TCP (MBAP) framing; RTU frames are
	// not sent on the socket.
	TransportRTUOverTCP
)

// Config describes how to reach one Modbus slave.
type Config struct {
	TransportKind Transport

	// TCP / RTU-over-TCP
	Host string
	Port uint16

	// RTU only
	Device   string
	Baud     int
	Parity   string // "N", "E", "O"
	DataBits int
	StopBits int

	UnitID  uint8
	Timeout time.Duration
}

// handle is the minimal subset of goburrow/modbus's client+handler pair
// the adapter needs: read/write plus Connect/Close/slave-id mutation.
type handle interface {
	modbus.Client
	Connect() error
	Close() error
	setSlaveID(id uint8)
}

type tcpHandle struct {
	*modbus.TCPClientHandler
	modbus.Client
}

func (h *tcpHandle) setSlaveID(id uint8) { h.SlaveId = id }

type rtuHandle struct {
	*modbus.RTUClientHandler
	modbus.Client
}

func (h *rtuHandle) setSlaveID(id uint8) { h.SlaveId = id }

// Client is a single-owner, move-only Modbus connection. Concurrent use
// requires an external lock — MotorControl and Contec each own one
// Client and serialize calls through their own mutex, exactly as
// spec.md §4.1 requires.
type Client struct {
	cfg Config
	h   handle
}

// Connect builds and opens the configured transport.
func Connect(cfg Config) (*Client, *Error) {
	var h handle
	switch cfg.TransportKind {
	case TransportTCP, TransportRTUOverTCP:
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		th := modbus.NewTCPClientHandler(addr)
		th.Timeout = cfg.Timeout
		th.SlaveId = cfg.UnitID
		h = &tcpHandle{TCPClientHandler: th, Client: modbus.NewClient(th)}
	case TransportRTU:
		rh := modbus.NewRTUClientHandler(cfg.Device)
		rh.BaudRate = cfg.Baud
		rh.DataBits = cfg.DataBits
		rh.Parity = cfg.Parity
		rh.StopBits = cfg.StopBits
		rh.SlaveId = cfg.UnitID
		rh.Timeout = cfg.Timeout
		h = &rtuHandle{RTUClientHandler: rh, Client: modbus.NewClient(rh)}
	default:
		return nil, &Error{Kind: Protocol, Message: "unknown transport kind"}
	}

	if err := h.Connect(); err != nil {
		return nil, &Error{Kind: ConnectFailed, Message: err.Error()}
	}
	return &Client{cfg: cfg, h: h}, nil
}

// Close releases the connection. Further Close calls return nil; on a
// closed Client, SetSlave returns SetSlaveFailed and every read/write
// returns a Transport error.
func (c *Client) Close() error {
	if c.h == nil {
		return nil
	}
	err := c.h.Close()
	c.h = nil
	return err
}

// SetSlave re-targets the connection at a different unit id before the
// next call, per spec.md §4.1 ("serialize a slave selector with each
// call").
func (c *Client) SetSlave(id uint8) *Error {
	if c.h == nil {
		return &Error{Kind: SetSlaveFailed, Message: "client is closed"}
	}
	c.h.setSlaveID(id)
	return nil
}

func classify(err error) *Error {
	if err == nil {
		return nil
	}
	if me, ok := err.(*modbus.ModbusError); ok {
		return &Error{Kind: Protocol, Message: me.Error()}
	}
	msg := err.Error()
	// goburrow surfaces i/o timeouts as plain net.Error with Timeout()==true;
	// string-sniffing here is what the library itself offers without a
	// typed timeout error.
	if netErrLooksLikeTimeout(err) {
		return &Error{Kind: Timeout, Message: msg}
	}
	return &Error{Kind: Transport, Message: msg}
}

func netErrLooksLikeTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	if te, ok := err.(timeouter); ok {
		return te.Timeout()
	}
	return false
}

// ReadHoldingRegisters reads quantity 16-bit registers starting at address.
func (c *Client) ReadHoldingRegisters(address, quantity uint16) ([]byte, *Error) {
	if c.h == nil {
		return nil, &Error{Kind: Transport, Message: "client is closed"}
	}
	b, err := c.h.ReadHoldingRegisters(address, quantity)
	if err != nil {
		return nil, classify(err)
	}
	return b, nil
}

// WriteSingleRegister writes one 16-bit register.
func (c *Client) WriteSingleRegister(address, value uint16) *Error {
	if c.h == nil {
		return &Error{Kind: Transport, Message: "client is closed"}
	}
	if _, err := c.h.WriteSingleRegister(address, value); err != nil {
		return classify(err)
	}
	return nil
}

// WriteMultipleRegisters writes a run of consecutive 16-bit registers.
func (c *Client) WriteMultipleRegisters(address, quantity uint16, values []byte) *Error {
	if c.h == nil {
		return &Error{Kind: Transport, Message: "client is closed"}
	}
	if _, err := c.h.WriteMultipleRegisters(address, quantity, values); err != nil {
		return classify(err)
	}
	return nil
}

// ReadCoils reads quantity coils starting at address.
func (c *Client) ReadCoils(address, quantity uint16) ([]byte, *Error) {
	if c.h == nil {
		return nil, &Error{Kind: Transport, Message: "client is closed"}
	}
	b, err := c.h.ReadCoils(address, quantity)
	if err != nil {
		return nil, classify(err)
	}
	return b, nil
}

// ReadDiscreteInputs reads quantity discrete inputs starting at address.
func (c *Client) ReadDiscreteInputs(address, quantity uint16) ([]byte, *Error) {
	if c.h == nil {
		return nil, &Error{Kind: Transport, Message: "client is closed"}
	}
	b, err := c.h.ReadDiscreteInputs(address, quantity)
	if err != nil {
		return nil, classify(err)
	}
	return b, nil
}

// WriteSingleCoil writes a single coil; on is encoded as 0xFF00/0x0000
// per the Modbus wire convention.
func (c *Client) WriteSingleCoil(address uint16, on bool) *Error {
	if c.h == nil {
		return &Error{Kind: Transport, Message: "client is closed"}
	}
	var v uint16
	if on {
		v = 0xFF00
	}
	if _, err := c.h.WriteSingleCoil(address, v); err != nil {
		return classify(err)
	}
	return nil
}

// WriteMultipleCoils writes quantity consecutive coils packed LSB-first
// into values.
func (c *Client) WriteMultipleCoils(address, quantity uint16, values []byte) *Error {
	if c.h == nil {
		return &Error{Kind: Transport, Message: "client is closed"}
	}
	if _, err := c.h.WriteMultipleCoils(address, quantity, values); err != nil {
		return classify(err)
	}
	return nil
}
