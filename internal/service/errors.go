package service

import (
	"context"
	"log/slog"

	"github.com/geocoder89/finledger/internal/apperr"
)

// internalError logs an unexpected failure with its context and returns the
// opaque error surfaced to callers.
func internalError(ctx context.Context, log *slog.Logger, op string, err error, attrs ...any) error {
	args := append([]any{"op", op, "err", err}, attrs...)
	log.ErrorContext(ctx, "internal error", args...)

	return apperr.Internal(op, err)
}

func loggerOrDefault(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.Default()
	}
	return log
}
