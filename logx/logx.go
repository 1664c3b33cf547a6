// Package logx is the process-wide leveled logging sink. It replaces the
// global logger singleton the original implementation used with an
// explicit, constructible Logger, per component.
package logx

import (
	"log"
	"os"
)

// DebugMode gates Debug-level output. Set once at startup from the
// --debug flag;
// reads/writes to it are not synchronized, matching the teacher's own
// DEBUG_MODE package variable (set once before any worker goroutine
// starts).
var DebugMode bool

var std = log.New(os.Stderr, "", log.LstdFlags)

// Logger tags every line with a component name, e.g. "motorcontrol".
type Logger struct {
	name string
}

// New returns a Logger tagged with name.
func New(name string) *Logger {
	return &Logger{name: name}
}

func (l *Logger) prefix() string {
	if l.name == "" {
		return ""
	}
	return "[" + l.name + "] "
}

// Debug logs only when DebugMode is enabled.
func (l *Logger) Debug(format string, args ...any) {
	if !DebugMode {
		return
	}
	std.Printf(l.prefix()+"DEBUG "+format, args...)
}

// Info logs unconditionally.
func (l *Logger) Info(format string, args ...any) {
	std.Printf(l.prefix()+"INFO "+format, args...)
}

// Warn logs unconditionally.
func (l *Logger) Warn(format string, args ...any) {
	std.Printf(l.prefix()+"WARN "+format, args...)
}

// Error logs unconditionally, always including the error value.
func (l *Logger) Error(err error, format string, args ...any) {
	std.Printf(l.prefix()+"ERROR "+format+": %v", append(args, err)...)
}
