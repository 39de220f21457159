package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// documentRequest is implemented by the DocumentService request messages.
type documentRequest interface {
	GetCollection() string
}

// documentIDRequest is implemented by requests that address one record.
type documentIDRequest interface {
	GetID() string
}

// requestAttrs names the caller and, for document RPCs, the record touched.
func requestAttrs(ctx context.Context, req connect.AnyRequest) []any {
	attrs := []any{
		"procedure", req.Spec().Procedure,
		"user_id", GetUserID(ctx),
	}
	if doc, ok := req.Any().(documentRequest); ok {
		attrs = append(attrs, "collection", doc.GetCollection())
	}
	if doc, ok := req.Any().(documentIDRequest); ok && doc.GetID() != "" {
		attrs = append(attrs, "document_id", doc.GetID())
	}
	return attrs
}

// LoggingInterceptor writes one line per RPC. Caller mistakes (bad input,
// missing records, rejected tokens) are warnings; internal failures are errors.
// It must run after the auth interceptor for user_id to be set.
func LoggingInterceptor(logger *slog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := append(requestAttrs(ctx, req), "duration_ms", time.Since(start).Milliseconds())

			var connectErr *connect.Error
			switch {
			case err == nil:
				logger.Info("RPC ok", attrs...)
			case errors.As(err, &connectErr) && connectErr.Code() != connect.CodeInternal && connectErr.Code() != connect.CodeUnknown:
				logger.Warn("RPC rejected", append(attrs, "code", connectErr.Code().String(), "error", connectErr.Message())...)
			default:
				logger.Error("RPC failed", append(attrs, "error", err)...)
			}
			return resp, err
		}
	}
}
