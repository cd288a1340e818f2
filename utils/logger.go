package utils

import (
	"fmt"
	"log"
	"os"
	"time"
)

// Logger provides structured, leveled logging. It is constructed once and
// passed down explicitly; nothing in this module logs through a package
// global.
type Logger struct {
	component string
	info      *log.Logger
	warn      *log.Logger
	err       *log.Logger
	debug     *log.Logger
	debugOn   bool
}

// NewLogger creates a Logger writing to stdout/stderr.
func NewLogger(debugOn bool) *Logger {
	return &Logger{
		info:    log.New(os.Stdout, "", 0),
		warn:    log.New(os.Stdout, "", 0),
		err:     log.New(os.Stderr, "", 0),
		debug:   log.New(os.Stdout, "", 0),
		debugOn: debugOn,
	}
}

// With returns a logger whose lines are tagged with the given component
// name (e.g. a provider id). The underlying writers are shared.
func (l *Logger) With(component string) *Logger {
	c := *l
	c.component = component
	return &c
}

func (l *Logger) line(format string) string {
	ts := time.Now().Format("2006-01-02 15:04:05")
	if l.component != "" {
		return fmt.Sprintf("[%s] [%s] %s", ts, l.component, format)
	}
	return fmt.Sprintf("[%s] %s", ts, format)
}

func (l *Logger) Info(format string, args ...any) {
	l.info.Printf(l.line("\033[32mINFO\033[0m  "+format), args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.warn.Printf(l.line("\033[33mWARN\033[0m  "+format), args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.err.Printf(l.line("\033[31mERROR\033[0m "+format), args...)
}

func (l *Logger) Debug(format string, args ...any) {
	if !l.debugOn {
		return
	}
	l.debug.Printf(l.line("\033[36mDEBUG\033[0m "+format), args...)
}
