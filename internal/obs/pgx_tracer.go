package obs

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxStatementLen = 300

type ctxSpanKey struct{}

// PGXTracer implements pgx.QueryTracer, opening one client span per storefront query.
type PGXTracer struct{}

// TraceQueryStart starts a span named after the SQL verb.
func (PGXTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	op := sqlOperation(data.SQL)
	ctx, span := otel.Tracer("storefront/store").Start(ctx, "db "+op, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", op),
		attribute.String("db.statement", truncateSQL(data.SQL)),
		attribute.Int("db.args", len(data.Args)),
	)
	return context.WithValue(ctx, ctxSpanKey{}, span)
}

// TraceQueryEnd ends the span, recording affected rows or the failure.
func (PGXTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span, ok := ctx.Value(ctxSpanKey{}).(trace.Span)
	if !ok {
		return
	}
	if data.Err != nil {
		span.RecordError(data.Err)
		span.SetStatus(codes.Error, data.Err.Error())
	} else {
		span.SetAttributes(attribute.Int64("db.rows_affected", data.CommandTag.RowsAffected()))
	}
	span.End()
}

func sqlOperation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "query"
	}
	return strings.ToUpper(fields[0])
}

func truncateSQL(sql string) string {
	trimmed := strings.TrimSpace(sql)
	if len(trimmed) > maxStatementLen {
		return trimmed[:maxStatementLen] + "..."
	}
	return trimmed
}
