// Package rlog provides the module's leveled logging interface; its only
// caller in this module is the badgerkv engine, which routes badger's diagnostics
// through it. Code logs through this facade, not fmt.Println or the
// stdlib log package directly, so the
// backend (stdlib log by default, glog when the rlog/glog adapter is
// wired in) can be swapped without touching call sites.
package rlog

import "log"

// Logger is the rlog logging interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

var logger Logger = stdlog{}

// SetLogger sets the rlog logging implementation.
func SetLogger(l Logger) { logger = l }

var verbosity int

// V reports whether the current verbosity is at or above level.
func V(level int) bool { return verbosity >= level }

// SetV sets the rlog verbosity level.
func SetV(level int) { verbosity = level }

func Infof(format string, args ...interface{}) {
	if logger != nil {
		logger.Infof(format, args...)
	}
}

func Warningf(format string, args ...interface{}) {
	if logger != nil {
		logger.Warningf(format, args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if logger != nil {
		logger.Errorf(format, args...)
	}
}

func Fatalf(format string, args ...interface{}) {
	if logger != nil {
		logger.Fatalf(format, args...)
	}
}

// stdlog wraps the standard library logger; the default until SetLogger
// (or the rlog/glog adapter's Install) replaces it.
type stdlog struct{}

func (stdlog) Infof(format string, args ...interface{})    { log.Printf(format, args...) }
func (stdlog) Warningf(format string, args ...interface{}) { log.Printf("WARN: "+format, args...) }
func (stdlog) Errorf(format string, args ...interface{})   { log.Printf("ERROR: "+format, args...) }
func (stdlog) Fatalf(format string, args ...interface{})   { log.Fatalf("FATAL: "+format, args...) }
