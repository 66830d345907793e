// Package clog is the compiler's structured logging surface: a single
// package-level logrus logger with pipeline-stage fields. Only the CLI
// and the module loader's file-resolution path log; the lexer, parser,
// checker, and emitter return errors instead.
package clog

import (
	"io"

	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

// SetVerbose raises the level to Debug (the CLI's --verbose flag).
func SetVerbose(verbose bool) {
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
		return
	}
	logger.SetLevel(logrus.WarnLevel)
}

// SetOutput redirects log output (tests capture it; the CLI keeps
// stderr so compiled-program stdout stays clean).
func SetOutput(w io.Writer) { logger.SetOutput(w) }

// Stage returns an entry tagged with the pipeline stage name.
func Stage(stage string) *logrus.Entry {
	return logger.WithField("stage", stage)
}

// Module returns an entry tagged with a stage and module path.
func Module(stage, path string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{"stage": stage, "module": path})
}
