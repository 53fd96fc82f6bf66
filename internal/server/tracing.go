package server

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func (s *Server) startSpan(ctx context.Context, name string, kind trace.SpanKind, attrs map[string]any) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, name, trace.WithSpanKind(kind))
	setSpanAttrs(span, attrs)
	return ctx, span
}

func setSpanAttrs(span trace.Span, attrs map[string]any) {
	if span == nil || len(attrs) == 0 {
		return
	}
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		switch t := v.(type) {
		case string:
			kvs = append(kvs, attribute.String(k, t))
		case bool:
			kvs = append(kvs, attribute.Bool(k, t))
		case int:
			kvs = append(kvs, attribute.Int(k, t))
		case float64:
			kvs = append(kvs, attribute.Float64(k, t))
		default:
			kvs = append(kvs, attribute.String(k, fmt.Sprint(t)))
		}
	}
	span.SetAttributes(kvs...)
}
