package obs

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/storefront/internal/common"
)

// NewLogger configures a zerolog logger using the provided format and level.
func NewLogger(format, level string) zerolog.Logger {
	return newLogger(os.Stdout, format, level)
}

func newLogger(w io.Writer, format, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	out := w
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console", "text":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Str("service", "storefront").Logger()
}

// Ctx returns the request scoped logger stored by RequestLogger, falling back
// to the disabled logger so callers never need a nil check.
func Ctx(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// RequestLogger records structured HTTP request logs enriched with tracing metadata.
type RequestLogger struct {
	Logger zerolog.Logger
}

// Middleware implements chi middleware for structured request logs. The
// request scoped logger is attached to the context for downstream services.
func (l RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetReqID(r.Context())
		scoped := l.Logger.With().Str("request_id", reqID).Logger()
		r = r.WithContext(scoped.WithContext(r.Context()))

		recorder := NewStatusRecorder(w)
		start := time.Now()
		next.ServeHTTP(recorder, r)

		route := routeLabel(r, r.URL.Path)
		status := recorder.Status()
		evt := scoped.Info()
		switch {
		case status >= http.StatusInternalServerError:
			evt = scoped.Error()
		case status >= http.StatusBadRequest:
			evt = scoped.Warn()
		}
		evt = evt.
			Str("method", r.Method).
			Str("route", route).
			Str("path", r.URL.Path).
			Int("status", status).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Int64("bytes", recorder.BytesWritten())
		if spanCtx := trace.SpanContextFromContext(r.Context()); spanCtx.IsValid() {
			evt = evt.Str("trace_id", spanCtx.TraceID().String()).Str("span_id", spanCtx.SpanID().String())
		}
		if user, ok := common.UserID(r.Context()); ok {
			evt = evt.Str("user_id", user).Str("role", common.Role(r.Context()))
		}
		if ip := common.ClientIP(r); ip != "" {
			evt = evt.Str("client_ip", ip)
		}
		if ua := strings.TrimSpace(r.UserAgent()); ua != "" {
			evt = evt.Str("user_agent", ua)
		}
		evt.Msg("http_request")
	})
}
