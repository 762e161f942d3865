// logger.go - small level-aware logging wrapper

/*
logger.go centralizes the Debug/Warn/Error distinction the error-handling
design calls for. It is deliberately thin: a timestamped line to stderr
per level, gated by a package-level minimum level so a CLI flag can
silence Debug noise without touching call sites. There is no structured
logging library anywhere in the example pack for a tool shaped like this
one, so this stays a direct fmt.Fprintf wrapper rather than reaching for
one.
*/

package main

import (
	"fmt"
	"os"
	"time"
)

// LogLevel orders the severities this emulator distinguishes.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelWarn
	LogLevelError
)

var currentLogLevel = LogLevelWarn

// SetLogLevel adjusts the minimum level that reaches stderr.
func SetLogLevel(level LogLevel) { currentLogLevel = level }

func logAt(level LogLevel, prefix, format string, args ...interface{}) {
	if level < currentLogLevel {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "%s [%s] %s\n", time.Now().Format("15:04:05.000"), prefix, msg)
}

// logDebug records guest-visible device conditions that are not host
// errors - out-of-range NAND addresses, missing I2C slaves and the
// like, per the error-handling design's policy that these are the
// guest's problem, not the host's.
func logDebug(format string, args ...interface{}) { logAt(LogLevelDebug, "DEBUG", format, args...) }

// logWarn records host I/O conditions the emulator recovers from (a
// NAND-backing-file seek failure, a scheduled closure panic) but that
// indicate a firmware/emulator mismatch worth a human's attention.
func logWarn(format string, args ...interface{}) { logAt(LogLevelWarn, "WARN", format, args...) }

// logError records configuration failures that are about to end the
// process.
func logError(format string, args ...interface{}) { logAt(LogLevelError, "ERROR", format, args...) }
