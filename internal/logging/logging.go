// Package logging provides the leveled logger used across clipforge.
// The level comes from the LOG_LEVEL environment variable (debug, info,
// warn, error), with DEBUG=true as a shortcut for debug; the default is
// info.
package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// Level is the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	level     Level
	levelOnce sync.Once
)

func initLevel() {
	levelOnce.Do(func() {
		switch strings.ToLower(os.Getenv("DEBUG")) {
		case "1", "true", "yes", "on":
			level = LevelDebug
			return
		}
		switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
		case "debug":
			level = LevelDebug
		case "warn", "warning":
			level = LevelWarn
		case "error":
			level = LevelError
		default:
			level = LevelInfo
		}
	})
}

// GetLevel returns the active log level.
func GetLevel() Level {
	initLevel()
	return level
}

// IsDebugEnabled reports whether debug messages are emitted.
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

// Debug logs a debug message.
func Debug(format string, args ...interface{}) {
	if GetLevel() <= LevelDebug {
		log.Printf("[DEBUG] "+format, args...)
	}
}

// Info logs an info message.
func Info(format string, args ...interface{}) {
	if GetLevel() <= LevelInfo {
		log.Printf("[INFO] "+format, args...)
	}
}

// Warn logs a warning message.
func Warn(format string, args ...interface{}) {
	if GetLevel() <= LevelWarn {
		log.Printf("[WARN] "+format, args...)
	}
}

// Error logs an error message.
func Error(format string, args ...interface{}) {
	log.Printf("[ERROR] "+format, args...)
}

// Fatal logs an error message and exits.
func Fatal(format string, args ...interface{}) {
	log.Fatalf("[FATAL] "+format, args...)
}

// Printf always prints, regardless of level.
func Printf(format string, args ...interface{}) {
	log.Printf(format, args...)
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}
