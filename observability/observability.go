// Package observability carries the logging and tracing hooks the
// engine emits through. Library code depends only on the interfaces;
// the CLI plugs in the slog sink.
package observability

import "context"

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type Field interface {
	Key() string
	Value() interface{}
}

type stringField struct{ key, val string }

func (f stringField) Key() string        { return f.key }
func (f stringField) Value() interface{} { return f.val }

type intField struct {
	key string
	val int
}

func (f intField) Key() string        { return f.key }
func (f intField) Value() interface{} { return f.val }

type float64Field struct {
	key string
	val float64
}

func (f float64Field) Key() string        { return f.key }
func (f float64Field) Value() interface{} { return f.val }

type stringsField struct {
	key string
	val []string
}

func (f stringsField) Key() string        { return f.key }
func (f stringsField) Value() interface{} { return f.val }

type errorField struct {
	key string
	err error
}

func (f errorField) Key() string        { return f.key }
func (f errorField) Value() interface{} { return f.err }

func String(key, value string) Field           { return stringField{key, value} }
func Int(key string, value int) Field          { return intField{key, value} }
func Float64(key string, value float64) Field  { return float64Field{key, value} }
func Strings(key string, value []string) Field { return stringsField{key, value} }
func Error(key string, err error) Field        { return errorField{key, err} }

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// Tracer provides tracing hooks around engine operations.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span represents a tracing span.
type Span interface {
	SetTag(key string, value interface{})
	SetError(err error)
	Finish()
}

type nopTracer struct{}

func (nopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, nopSpan{}
}

// NopTracer returns a tracer that does nothing.
func NopTracer() Tracer { return nopTracer{} }

type nopSpan struct{}

func (nopSpan) SetTag(string, interface{}) {}
func (nopSpan) SetError(error)             {}
func (nopSpan) Finish()                    {}

// Standard metric names emitted by the engine.
const (
	MetricConvertTime  = "docforge.convert.duration"
	MetricMergeTime    = "docforge.merge.duration"
	MetricDecodeTime   = "docforge.decode.duration"
	MetricAssembleTime = "docforge.assemble.duration"
	MetricPersistTime  = "docforge.persist.duration"
	MetricPageCount    = "docforge.pages.count"
	MetricSkippedCount = "docforge.sources.skipped"
	MetricOutputBytes  = "docforge.output.bytes"
)
