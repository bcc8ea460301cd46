package logger

import "context"

type noopLogger struct{}

// NewNoopLogger creates a logger that discards everything. Intended for tests.
func NewNoopLogger() Logger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(ctx context.Context, message string, fields ...Field)            {}
func (l *noopLogger) Info(ctx context.Context, message string, fields ...Field)             {}
func (l *noopLogger) Warn(ctx context.Context, message string, fields ...Field)             {}
func (l *noopLogger) Error(ctx context.Context, message string, err error, fields ...Field) {}
func (l *noopLogger) Fatal(ctx context.Context, message string, err error, fields ...Field) {}

func (l *noopLogger) WithFields(fields ...Field) Logger         { return l }
func (l *noopLogger) WithComponent(component string) Logger     { return l }
