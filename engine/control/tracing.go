package control

import (
	opentracing "github.com/opentracing/opentracing-go"
)

// Span is the subset of opentracing.Span the runner needs to close out a
// traced tick.
type Span interface {
	Finish()
}

// Tracer starts one span per root tick when attached to a Runner via
// WithTracer (§9: tick tracing).
type Tracer interface {
	StartSpan(operationName string) Span
}

// OpenTracingTracer adapts a github.com/opentracing/opentracing-go Tracer
// to the control.Tracer interface.
type OpenTracingTracer struct {
	Tracer opentracing.Tracer
}

func (t OpenTracingTracer) StartSpan(operationName string) Span {
	return t.Tracer.StartSpan(operationName)
}
