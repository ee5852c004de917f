package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/finledger/internal/auth"
	"github.com/geocoder89/finledger/internal/domain/user"
	"github.com/geocoder89/finledger/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type UserService interface {
	Create(ctx context.Context, params user.CreateParams) (user.User, error)
	GetByID(ctx context.Context, userID string) (user.User, error)
	Update(ctx context.Context, userID string, params user.UpdateParams) (user.User, error)
	Delete(ctx context.Context, userID string) (user.User, error)
}

type TokenIssuer interface {
	IssueFor(ctx context.Context, userID string) (auth.TokenPair, error)
}

type UsersHandler struct {
	users  UserService
	tokens TokenIssuer
}

func NewUsersHandler(users UserService, tokens TokenIssuer) *UsersHandler {
	return &UsersHandler{users: users, tokens: tokens}
}

type userWithTokens struct {
	User   user.User      `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

// SignUp creates the account and logs the new user straight in.
func (h *UsersHandler) SignUp(ctx *gin.Context) {
	var req user.CreateParams

	if !BindJSON(ctx, &req) {
		return
	}

	// bcrypt dominates this request
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.users.Create(cctx, req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	tokens, err := h.tokens.IssueFor(cctx, u.ID)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, userWithTokens{User: u, Tokens: tokens})
}

func (h *UsersHandler) Me(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) UpdateMe(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	var req user.UpdateParams
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.users.Update(cctx, userID, req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// DeleteMe removes the account with all its transactions and returns the
// deleted user.
func (h *UsersHandler) DeleteMe(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.users.Delete(cctx, userID)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, u)
}
