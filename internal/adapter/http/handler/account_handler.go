package handler

import (
	"custodial-exchange/internal/adapter/http/dto"
	"custodial-exchange/internal/core/ports"
	"custodial-exchange/pkg/apperror"
	"custodial-exchange/pkg/response"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles the client-facing read endpoints.
type AccountHandler struct {
	accountSvc ports.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc ports.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// ListAuthorizations handles GET /api/v1/users/:id/authorizations.
func (h *AccountHandler) ListAuthorizations(c *gin.Context) {
	client, ok := clientFromCtx(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	summary, err := h.accountSvc.ListAuthorizations(c.Request.Context(), client, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	symbols := make([]string, len(summary.Symbols))
	for i, sym := range summary.Symbols {
		symbols[i] = string(sym)
	}

	response.OK(c, dto.AuthorizationsResponse{
		UserID:   summary.UserID,
		Provider: summary.Provider,
		Symbols:  symbols,
	})
}

// GetBalances handles GET /api/v1/users/:id/balances.
func (h *AccountHandler) GetBalances(c *gin.Context) {
	client, ok := clientFromCtx(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	summary, err := h.accountSvc.GetBalances(c.Request.Context(), client, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	balances := make(map[string]float64, len(summary.Balances))
	for sym, bal := range summary.Balances {
		balances[string(sym)] = bal
	}

	response.OK(c, dto.BalancesResponse{
		UserID:   summary.UserID,
		Provider: summary.Provider,
		Balances: balances,
	})
}
