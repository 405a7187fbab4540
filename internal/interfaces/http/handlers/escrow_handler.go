package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"escrow-chain.backend/internal/domain/entities"
	domainerrors "escrow-chain.backend/internal/domain/errors"
	"escrow-chain.backend/internal/interfaces/http/middleware"
	"escrow-chain.backend/internal/interfaces/http/response"
)

type EscrowService interface {
	DepositFunds(ctx context.Context, contractID uuid.UUID, amount int64, from string) (*entities.Contract, error)
	ReleaseFunds(ctx context.Context, contractID uuid.UUID, amount int64, to, reason string) (*entities.Contract, error)
	RefundFunds(ctx context.Context, contractID uuid.UUID, amount int64, to, reason string) (*entities.Contract, error)
	GetTransactions(ctx context.Context, contractID uuid.UUID) ([]entities.EscrowTransaction, error)
}

// EscrowHandler handles escrow fund endpoints
type EscrowHandler struct {
	escrowUsecase EscrowService
}

// NewEscrowHandler creates a new escrow handler
func NewEscrowHandler(escrowUsecase EscrowService) *EscrowHandler {
	return &EscrowHandler{escrowUsecase: escrowUsecase}
}

type depositRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// DepositFunds locks funds into escrow from the authenticated party
// POST /api/v1/contracts/:id/deposits
func (h *EscrowHandler) DepositFunds(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid contract ID"))
		return
	}

	partyID, ok := middleware.GetPartyID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Party not authenticated"))
		return
	}

	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	contract, err := h.escrowUsecase.DepositFunds(c.Request.Context(), id, req.Amount, partyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"contract": contract})
}

type releaseRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	To     string `json:"to" binding:"required"`
	Reason string `json:"reason"`
}

// ReleaseFunds releases locked funds to a party
// POST /api/v1/contracts/:id/releases
func (h *EscrowHandler) ReleaseFunds(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid contract ID"))
		return
	}

	var req releaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	contract, err := h.escrowUsecase.ReleaseFunds(c.Request.Context(), id, req.Amount, req.To, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"contract": contract})
}

// RefundFunds returns locked funds to a party
// POST /api/v1/contracts/:id/refunds
func (h *EscrowHandler) RefundFunds(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid contract ID"))
		return
	}

	var req releaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	contract, err := h.escrowUsecase.RefundFunds(c.Request.Context(), id, req.Amount, req.To, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"contract": contract})
}

// GetTransactions gets the escrow transaction log for a contract
// GET /api/v1/contracts/:id/transactions
func (h *EscrowHandler) GetTransactions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid contract ID"))
		return
	}

	transactions, err := h.escrowUsecase.GetTransactions(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"transactions": transactions})
}
