package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

var verbose atomic.Bool

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetVerbose enables or disables Debugf output.
func SetVerbose(on bool) { verbose.Store(on) }

// Verbose reports whether debug output is enabled.
func Verbose() bool { return verbose.Load() }

// Debugf logs through Logf only when verbose output is enabled.
func Debugf(format string, v ...interface{}) {
	if verbose.Load() {
		Logf(format, v...)
	}
}

// Logger prefixes every message with a bracketed component name.
type Logger struct {
	prefix string
}

// Component returns a Logger for the named component, e.g. "[cluster] ".
func Component(name string) Logger {
	return Logger{prefix: "[" + name + "] "}
}

// Logf logs unconditionally.
func (l Logger) Logf(format string, v ...interface{}) {
	Logf(l.prefix+format, v...)
}

// Debugf logs only in verbose mode.
func (l Logger) Debugf(format string, v ...interface{}) {
	Debugf(l.prefix+format, v...)
}
