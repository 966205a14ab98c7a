// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package logging provides zap logger construction helpers.
package logging

import (
	"io"

	"github.com/siderolabs/gen/xslices"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Destination describes a single logging destination: a writer, the level
// enabled for it, and the encoder configuration used to render entries.
type Destination struct {
	level  zapcore.LevelEnabler
	writer io.Writer
	config zapcore.EncoderConfig
}

// EncoderOption adjusts a destination's encoder config.
type EncoderOption func(config *zapcore.EncoderConfig)

// WithoutTimestamp disables the timestamp column.
func WithoutTimestamp() EncoderOption {
	return func(config *zapcore.EncoderConfig) {
		config.EncodeTime = nil
	}
}

// WithColoredLevels enables colored level names.
func WithColoredLevels() EncoderOption {
	return func(config *zapcore.EncoderConfig) {
		config.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
}

// NewDestination creates a console logging destination.
func NewDestination(writer io.Writer, level zapcore.LevelEnabler, options ...EncoderOption) *Destination {
	config := zap.NewDevelopmentEncoderConfig()
	config.ConsoleSeparator = " "

	for _, option := range options {
		option(&config)
	}

	return &Destination{
		level:  level,
		config: config,
		writer: writer,
	}
}

// ZapLogger builds a logger fanning entries out to each destination.
func ZapLogger(dests ...*Destination) *zap.Logger {
	if len(dests) == 0 {
		panic("at least one destination must be defined")
	}

	cores := xslices.Map(dests, func(dest *Destination) zapcore.Core {
		return zapcore.NewCore(
			zapcore.NewConsoleEncoder(dest.config),
			zapcore.AddSync(dest.writer),
			dest.level,
		)
	})

	return zap.New(zapcore.NewTee(cores...))
}

// Wrap builds a debug-level logger around a single writer.
func Wrap(writer io.Writer) *zap.Logger {
	return ZapLogger(NewDestination(writer, zapcore.DebugLevel))
}

// Component is a helper for tagging a logger with the subsystem name.
func Component(name string) zapcore.Field {
	return zap.String("component", name)
}
