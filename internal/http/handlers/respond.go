package handlers

import (
	"net/http"

	"github.com/geocoder89/finledger/internal/apperr"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if s := ctx.GetString("request_id"); s != "" {
		return s
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// RespondAppError maps a service error to its HTTP status and error code.
// Internal errors were already logged by the service; their detail stays
// server-side.
func RespondAppError(ctx *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		RespondBadRequest(ctx, err.Error(), nil)
	case apperr.KindEmailAlreadyInUse:
		RespondError(ctx, http.StatusBadRequest, "email_taken", err.Error(), nil)
	case apperr.KindUserNotFound:
		RespondError(ctx, http.StatusNotFound, "user_not_found", err.Error(), nil)
	case apperr.KindTransactionNotFound:
		RespondError(ctx, http.StatusNotFound, "transaction_not_found", err.Error(), nil)
	case apperr.KindForbidden:
		RespondError(ctx, http.StatusForbidden, "forbidden", err.Error(), nil)
	case apperr.KindInvalidToken:
		RespondError(ctx, http.StatusUnauthorized, "invalid_token", err.Error(), nil)
	case apperr.KindUnauthorized:
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
	case apperr.KindInternal:
		RespondInternal(ctx, "Something went wrong")
	default:
		RespondInternal(ctx, "Something went wrong")
	}
}
