// Package logging builds the zap loggers shared by the simulator packages.
package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// NewConfig returns the console config used by the CLI. Stacktraces are
// disabled and levels are colored.
func NewConfig(level zapcore.Level) zap.Config {
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// New returns a named logger writing level+ entries to stderr.
func New(name string, level zapcore.Level) (*zap.Logger, error) {
	logger, err := NewConfig(level).Build()
	if err != nil {
		return nil, err
	}
	return logger.Named(name), nil
}

// ParseLevel maps a flag value such as "debug" to a zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel, err
	}
	return lvl, nil
}

// NewNop returns a logger that drops everything.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

// NewObservedTestLogger returns a debug level logger whose entries can be
// inspected by the test.
func NewObservedTestLogger(tb testing.TB) (*zap.Logger, *observer.ObservedLogs) {
	tb.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core).Named(tb.Name()), logs
}

// NewObserved is NewObservedTestLogger for callers without a testing.TB,
// such as ginkgo BeforeEach blocks.
func NewObserved() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}
