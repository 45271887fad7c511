// Package loggertest provides a Logger that writes through testing.TB.
package loggertest

import (
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"vehicledetect/internal/logger"
)

// New routes everything through t.Log.
func New(t zaptest.TestingT) *logger.Logger {
	return logger.FromZap(zaptest.NewLogger(t, zaptest.Level(zapcore.DebugLevel)))
}
