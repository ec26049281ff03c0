// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package logging provides the shared structured logger and utilities for
// secure logging. Sensitive values such as session tokens are masked before
// they reach log output or user-facing error messages.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	if os.Getenv("GEOENGINE_DEBUG") == "1" {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Logger returns the process-wide structured logger.
func Logger() *logrus.Logger { return logger }

// SetLevel overrides the log level, e.g. from a config file value.
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return
	}
	logger.SetLevel(parsed)
}
