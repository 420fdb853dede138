// Copyright 2022 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package logger routes the charm's logging to the unit agent.
package logger

import (
	"fmt"
	"os"

	"github.com/juju/loggo/v2"
)

// Sink receives log messages, typically the juju-log hook tool.
type Sink interface {
	Log(level, message string) error
}

// JujuLogWriter is a loggo.Writer forwarding entries to the unit log
// through a Sink.
type JujuLogWriter struct {
	sink Sink
}

// NewJujuLogWriter returns a writer forwarding to sink.
func NewJujuLogWriter(sink Sink) *JujuLogWriter {
	return &JujuLogWriter{sink: sink}
}

// Write implements loggo.Writer.
func (w *JujuLogWriter) Write(entry loggo.Entry) {
	level := entry.Level
	if level == loggo.CRITICAL {
		level = loggo.ERROR
	}
	message := fmt.Sprintf("%s: %s", entry.Module, entry.Message)
	if err := w.sink.Log(level.String(), message); err != nil {
		// The unit agent captures stderr.
		fmt.Fprintf(os.Stderr, "%s %s\n", level, message)
	}
}
