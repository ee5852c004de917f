package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/finledger/internal/domain/transaction"
	"github.com/geocoder89/finledger/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type Ledger interface {
	Create(ctx context.Context, params transaction.CreateParams) (transaction.Transaction, error)
	Update(ctx context.Context, transactionID, requesterID string, patch transaction.Patch) (transaction.Transaction, error)
	Delete(ctx context.Context, transactionID, requesterID string) (transaction.Transaction, error)
	ListByUser(ctx context.Context, userID string, r transaction.DateRange) ([]transaction.Transaction, error)
}

type TransactionsHandler struct {
	ledger Ledger
}

func NewTransactionsHandler(ledger Ledger) *TransactionsHandler {
	return &TransactionsHandler{ledger: ledger}
}

// Create records a transaction for the caller; the owner always comes from
// the access token, never from the body.
func (h *TransactionsHandler) Create(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	var req transaction.CreateParams
	if !BindJSON(ctx, &req) {
		return
	}
	req.UserID = userID

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	t, err := h.ledger.Create(cctx, req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, t)
}

func (h *TransactionsHandler) List(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	r, err := dateRangeFromQuery(ctx)
	if err != nil {
		RespondBadRequest(ctx, err.Error(), nil)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	txs, err := h.ledger.ListByUser(cctx, userID, r)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, txs)
}

func (h *TransactionsHandler) Update(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	transactionID, ok := uuidParam(ctx, "transactionId")
	if !ok {
		return
	}

	var patch transaction.Patch
	if !BindJSON(ctx, &patch) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	t, err := h.ledger.Update(cctx, transactionID, userID, patch)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, t)
}

func (h *TransactionsHandler) Delete(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	transactionID, ok := uuidParam(ctx, "transactionId")
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	t, err := h.ledger.Delete(cctx, transactionID, userID)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, t)
}
