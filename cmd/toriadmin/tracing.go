package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// logSpanProcessor writes finished spans to the debug log
type logSpanProcessor struct {
	logger *logrus.Logger
}

func (p logSpanProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p logSpanProcessor) OnEnd(span sdktrace.ReadOnlySpan) {
	if !p.logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}

	fields := logrus.Fields{
		"span":        span.Name(),
		"duration_ms": span.EndTime().Sub(span.StartTime()).Milliseconds(),
	}
	for _, attr := range span.Attributes() {
		fields[string(attr.Key)] = attr.Value.Emit()
	}

	entry := p.logger.WithFields(fields)
	if span.Status().Code == codes.Error {
		entry.WithField("error", span.Status().Description).Debug("Span failed")
		return
	}
	entry.Debug("Span finished")
}

func (p logSpanProcessor) Shutdown(context.Context) error { return nil }

func (p logSpanProcessor) ForceFlush(context.Context) error { return nil }

func newTracerProvider(logger *logrus.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(logSpanProcessor{logger: logger}),
	)
}
