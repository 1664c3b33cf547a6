// Package rmerrors defines the error-kind taxonomy shared by every layer
// of the server, from the Modbus adapter up to the command processor.
package rmerrors

import "fmt"

// Kind tags an error with the recovery semantics the orchestrator needs:
// whether it is fatal at startup, recoverable via reset, or a rejected
// request.
type Kind int

const (
	// ConfigError marks a missing/invalid config key, an unknown enum
	// value, or an out-of-range mapping index. Fatal on startup.
	ConfigError Kind = iota
	// TransportError marks a Modbus/serial/socket failure. Recoverable
	// via reset() + initialize() driven by a reset command.
	TransportError
	// NotReady marks a bus not initialized when an operation is invoked.
	NotReady
	// OperationRejected marks an unknown motor id, invalid enum, or
	// out-of-range value.
	OperationRejected
	// Timeout marks a command deadline exceeded at the CommandProcessor
	// layer.
	Timeout
	// ShuttingDown marks submission after shutdown, or a pending command
	// drained on shutdown.
	ShuttingDown
)

func (k Kind) String() string {
	switch k {
	case ConfigError:
		return "ConfigError"
	case TransportError:
		return "TransportError"
	case NotReady:
		return "NotReady"
	case OperationRejected:
		return "OperationRejected"
	case Timeout:
		return "Timeout"
	case ShuttingDown:
		return "ShuttingDown"
	default:
		return "Unknown"
	}
}

// Error is a tagged error carrying a Kind plus a diagnostic message.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind that carries cause for
// errors.Is/errors.As unwrapping, with a formatted message prefix.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if err == nil {
		return false
	}
	if ae, ok := err.(*Error); ok {
		e = ae
	} else {
		return false
	}
	return e.Kind == kind
}
