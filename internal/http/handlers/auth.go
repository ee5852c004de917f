package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/finledger/internal/apperr"
	"github.com/geocoder89/finledger/internal/auth"
	"github.com/geocoder89/finledger/internal/domain/user"
	"github.com/geocoder89/finledger/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (user.User, auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error)
}

type AuthHandler struct {
	auth   Authenticator
	events middlewares.AuthEvents
}

func NewAuthHandler(a Authenticator, events middlewares.AuthEvents) *AuthHandler {
	return &AuthHandler{auth: a, events: events}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	u, tokens, err := h.auth.Login(cctx, req.Email, req.Password)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnauthorized {
			h.record("login", "rejected")
			RespondError(ctx, http.StatusUnauthorized, "invalid_credentials", "Email or password is incorrect.", nil)
			return
		}
		h.record("login", "error")
		RespondAppError(ctx, err)
		return
	}

	h.record("login", "ok")
	ctx.JSON(http.StatusOK, userWithTokens{User: u, Tokens: tokens})
}

// Refresh exchanges a refresh token for a new pair. The old token is not
// revoked and stays usable until it expires.
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	var req RefreshRequest

	if !BindJSON(ctx, &req) {
		return
	}

	tokens, err := h.auth.Refresh(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			h.record("refresh", "error")
		} else {
			h.record("refresh", "rejected")
		}
		RespondAppError(ctx, err)
		return
	}

	h.record("refresh", "ok")
	ctx.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) record(event, result string) {
	if h.events != nil {
		h.events.AuthEvent(event, result)
	}
}
