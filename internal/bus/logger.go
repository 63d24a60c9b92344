// Tweetwire - Realtime Tweet Ingestion and Distribution
// Copyright 2026 The Tweetwire Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/tweetwire/tweetwire

package bus

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/tweetwire/tweetwire/internal/logging"
)

// watermillLogger adapts the zerolog facade to watermill.LoggerAdapter so
// Watermill internals log through the same pipeline as the rest of the
// process.
type watermillLogger struct {
	logger zerolog.Logger
	fields watermill.LogFields
}

// NewWatermillLogger returns a watermill.LoggerAdapter backed by the
// global zerolog logger.
func NewWatermillLogger() watermill.LoggerAdapter {
	return &watermillLogger{
		logger: logging.With().Str("component", "bus").Logger(),
	}
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.emit(l.logger.Error().Err(err), fields, msg)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.emit(l.logger.Info(), fields, msg)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.emit(l.logger.Debug(), fields, msg)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.emit(l.logger.Trace(), fields, msg)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{
		logger: l.logger,
		fields: l.fields.Add(fields),
	}
}

func (l *watermillLogger) emit(event *zerolog.Event, fields watermill.LogFields, msg string) {
	for k, v := range l.fields {
		event = event.Interface(k, v)
	}
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}
