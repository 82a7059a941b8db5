package core

import (
	"fmt"
	"strings"
)

// Logger is any service that can record application events.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Status is the outcome of a processing stage.
type Status int

const (
	StatusComplete Status = iota
	StatusWarning
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusWarning:
		return "WARNING"
	case StatusError:
		return "ERROR"
	default:
		return "COMPLETE"
	}
}

// Log collects the human-readable lines produced while processing.
type Log struct {
	lines    []string
	warnings int
}

func (l *Log) Printf(format string, args ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

// Warnf records a line that downgrades the stage outcome to StatusWarning.
func (l *Log) Warnf(format string, args ...interface{}) {
	l.warnings++
	l.lines = append(l.lines, "WARNING: "+fmt.Sprintf(format, args...))
}

func (l *Log) Append(other Log) {
	l.lines = append(l.lines, other.lines...)
	l.warnings += other.warnings
}

func (l *Log) Lines() []string { return l.lines }
func (l *Log) Empty() bool     { return len(l.lines) == 0 }
func (l *Log) Warnings() int   { return l.warnings }

func (l *Log) Status() Status {
	if l.warnings > 0 {
		return StatusWarning
	}
	return StatusComplete
}

func (l *Log) String() string {
	return strings.Join(l.lines, "\n")
}
