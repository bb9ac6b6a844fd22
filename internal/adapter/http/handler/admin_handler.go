package handler

import (
	"strconv"

	"custodial-exchange/internal/adapter/http/dto"
	"custodial-exchange/internal/adapter/http/middleware"
	"custodial-exchange/internal/core/domain"
	"custodial-exchange/internal/core/ports"
	"custodial-exchange/pkg/apperror"
	"custodial-exchange/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles the JWT-protected operator provisioning endpoints.
type AdminHandler struct {
	provisioningSvc ports.ProvisioningService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(provisioningSvc ports.ProvisioningService) *AdminHandler {
	return &AdminHandler{provisioningSvc: provisioningSvc}
}

// CreateUser handles POST /api/v1/users.
func (h *AdminHandler) CreateUser(c *gin.Context) {
	clientID, ok := clientIDFromCtx(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	authorized := make([]domain.Symbol, len(req.Authorizations))
	for i, s := range req.Authorizations {
		authorized[i] = domain.Symbol(s)
	}

	user, err := h.provisioningSvc.CreateUser(c.Request.Context(), clientID, authorized)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toUserResponse(user))
}

// SetAuthorizations handles PUT /api/v1/users/:id/authorizations.
func (h *AdminHandler) SetAuthorizations(c *gin.Context) {
	clientID, ok := clientIDFromCtx(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	var req dto.SetAuthorizationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	grants := make(map[domain.Symbol]bool, len(req.Grants))
	for s, allowed := range req.Grants {
		grants[domain.Symbol(s)] = allowed
	}

	user, err := h.provisioningSvc.SetAuthorizations(c.Request.Context(), clientID, userID, grants)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toUserResponse(user))
}

// RecordPayment handles POST /api/v1/payments.
func (h *AdminHandler) RecordPayment(c *gin.Context) {
	clientID, ok := clientIDFromCtx(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	txn, err := h.provisioningSvc.RecordPayment(c.Request.Context(), clientID, req.UserID, req.USDAmount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(txn))
}

// ListTransactions handles GET /api/v1/transactions.
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	clientID, ok := clientIDFromCtx(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	params := ports.TransactionListParams{ClientID: clientID}

	if s := c.Query("user_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			response.Error(c, apperror.Validation("invalid user_id filter"))
			return
		}
		params.UserID = &id
	}
	if s := c.Query("complete"); s != "" {
		complete, err := strconv.ParseBool(s)
		if err != nil {
			response.Error(c, apperror.Validation("invalid complete filter"))
			return
		}
		params.Complete = &complete
	}
	params.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	params.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	txns, total, err := h.provisioningSvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, len(txns))
	for i := range txns {
		items[i] = toTransactionResponse(&txns[i])
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = 20
	}
	totalPages := int((total + int64(params.PageSize) - 1) / int64(params.PageSize))

	response.OK(c, dto.TransactionListResponse{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	})
}

// clientIDFromCtx retrieves the client id set by JWTAuth.
func clientIDFromCtx(c *gin.Context) (int64, bool) {
	v, ok := c.Get(middleware.CtxClientID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// toUserResponse converts domain.User to DTO.
func toUserResponse(u *domain.User) dto.UserResponse {
	syms := u.AuthorizedSymbols()
	authorizations := make([]string, len(syms))
	for i, sym := range syms {
		authorizations[i] = string(sym)
	}
	return dto.UserResponse{
		ID:             u.ID,
		ClientID:       u.ClientID,
		Authorizations: authorizations,
	}
}
