// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package commons

import (
	"go.uber.org/zap"
)

// Logger is the logging contract every pipeline component is constructed
// with. It is satisfied by *zap.SugaredLogger so components never import
// zap directly.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Fatalf(template string, args ...interface{})

	// With returns a Logger with structured fields attached to every
	// subsequent call, for per-component/per-segment context.
	With(args ...interface{}) Logger
}

type sugaredLogger struct {
	*zap.SugaredLogger
}

func (s *sugaredLogger) With(args ...interface{}) Logger {
	return &sugaredLogger{s.SugaredLogger.With(args...)}
}

// NewLogger builds a Logger backed by zap. debug=true switches to a
// development encoder config with caller info and lower-severity output.
func NewLogger(debug bool) (Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &sugaredLogger{z.Sugar()}, nil
}

// NewNopLogger returns a Logger that discards everything, for tests.
func NewNopLogger() Logger {
	return &sugaredLogger{zap.NewNop().Sugar()}
}
