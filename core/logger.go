package core

import "log"

// Logger is the app-wide logging interface. Implementations live in
// services/logger.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// NewStdLogger returns a plain standard-library logger for CLIs and tests.
func NewStdLogger(prefix string) *log.Logger {
	return log.New(log.Writer(), prefix+" : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
}
