package handler

import (
	"strconv"
	"time"

	"custodial-exchange/internal/adapter/http/dto"
	"custodial-exchange/internal/adapter/http/middleware"
	"custodial-exchange/internal/core/domain"
	"custodial-exchange/internal/core/ports"
	"custodial-exchange/pkg/apperror"
	"custodial-exchange/pkg/response"

	"github.com/gin-gonic/gin"
)

// TradeHandler handles the settlement endpoints.
type TradeHandler struct {
	settlementSvc ports.SettlementService
}

// NewTradeHandler creates a new TradeHandler.
func NewTradeHandler(settlementSvc ports.SettlementService) *TradeHandler {
	return &TradeHandler{settlementSvc: settlementSvc}
}

// Buy handles POST /api/v1/trades/buy.
func (h *TradeHandler) Buy(c *gin.Context) {
	client, ok := clientFromCtx(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}

	var req dto.BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.settlementSvc.Buy(c.Request.Context(), ports.BuyRequest{
		Client:        client,
		UserID:        req.UserID,
		Symbol:        domain.Symbol(req.Symbol),
		USDAmount:     req.USDAmount,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toTransactionResponse(result))
}

// Sell handles POST /api/v1/trades/sell.
func (h *TradeHandler) Sell(c *gin.Context) {
	client, ok := clientFromCtx(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}

	var req dto.SellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.settlementSvc.Sell(c.Request.Context(), ports.SellRequest{
		Client:    client,
		UserID:    req.UserID,
		Symbol:    domain.Symbol(req.Symbol),
		Amount:    req.Amount,
		DedupeKey: req.DedupeKey,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(result))
}

// clientFromCtx retrieves the authenticated client set by APIKeyAuth.
func clientFromCtx(c *gin.Context) (*domain.Client, bool) {
	v, ok := c.Get(middleware.CtxClientKey)
	if !ok {
		return nil, false
	}
	client, ok := v.(*domain.Client)
	return client, ok
}

// userIDParam parses the :id path parameter.
func userIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, apperror.Validation("invalid user id"))
		return 0, false
	}
	return id, true
}

// toTransactionResponse converts domain.Transaction to DTO.
func toTransactionResponse(txn *domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:        txn.ID,
		USDAmount: txn.USDAmount,
		UserID:    txn.UserID,
		DedupeKey: txn.DedupeKey,
		Complete:  txn.Complete,
		IncTime:   txn.IncTime.Format(time.RFC3339),
	}
	if txn.CompleteTime != nil {
		s := txn.CompleteTime.Format(time.RFC3339)
		resp.CompleteTime = &s
	}
	return resp
}
