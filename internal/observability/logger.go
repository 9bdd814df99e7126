package observability

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

const (
	// logKeyTraceID is the log attribute key for the OTel trace ID.
	logKeyTraceID = "trace_id"

	// logKeySpanID is the log attribute key for the OTel span ID.
	logKeySpanID = "span_id"

	// logKeyService is the log attribute key for the service name.
	logKeyService = "service"

	// logKeyEnvironment is the log attribute key for the environment.
	logKeyEnvironment = "env"
)

// TracingHandler is a slog.Handler that decorates records with the active
// span's trace and span IDs so log lines can be correlated with traces.
type TracingHandler struct {
	inner       slog.Handler
	service     string
	environment string
}

// NewTracingHandler wraps inner with trace correlation and static service
// attributes.
func NewTracingHandler(inner slog.Handler, service, environment string) *TracingHandler {
	return &TracingHandler{inner: inner, service: service, environment: environment}
}

// Enabled reports whether the wrapped handler handles records at the given
// level.
func (h *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle adds trace correlation and service attributes, then delegates to
// the wrapped handler.
func (h *TracingHandler) Handle(ctx context.Context, rec slog.Record) error {
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		rec.AddAttrs(
			slog.String(logKeyTraceID, span.TraceID().String()),
			slog.String(logKeySpanID, span.SpanID().String()),
		)
	}

	rec.AddAttrs(slog.String(logKeyService, h.service))
	if h.environment != "" {
		rec.AddAttrs(slog.String(logKeyEnvironment, h.environment))
	}

	return h.inner.Handle(ctx, rec)
}

// WithAttrs returns a handler whose wrapped handler carries the attributes.
func (h *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{inner: h.inner.WithAttrs(attrs), service: h.service, environment: h.environment}
}

// WithGroup returns a handler whose wrapped handler opens the group.
func (h *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{inner: h.inner.WithGroup(name), service: h.service, environment: h.environment}
}

// buildLogger constructs the slog logger described by cfg. Output goes to
// stderr so result output on stdout stays machine-readable.
func buildLogger(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var inner slog.Handler
	if cfg.LogJSON {
		inner = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		inner = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(NewTracingHandler(inner, cfg.ServiceName, cfg.Environment))
}
