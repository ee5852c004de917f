package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/finledger/internal/domain/balance"
	"github.com/geocoder89/finledger/internal/domain/transaction"
	"github.com/geocoder89/finledger/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type BalanceReader interface {
	Execute(ctx context.Context, userID string, r transaction.DateRange) (balance.Snapshot, error)
}

type BalanceHandler struct {
	balances BalanceReader
}

func NewBalanceHandler(balances BalanceReader) *BalanceHandler {
	return &BalanceHandler{balances: balances}
}

func (h *BalanceHandler) Get(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	r, err := dateRangeFromQuery(ctx)
	if err != nil {
		RespondBadRequest(ctx, err.Error(), nil)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	snap, err := h.balances.Execute(cctx, userID, r)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, snap)
}
