package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"escrow-chain.backend/internal/domain/entities"
	domainerrors "escrow-chain.backend/internal/domain/errors"
	"escrow-chain.backend/internal/interfaces/http/middleware"
	"escrow-chain.backend/internal/interfaces/http/response"
	"escrow-chain.backend/pkg/utils"
)

type ContractService interface {
	CreateContract(ctx context.Context, input entities.CreateContractInput) (*entities.Contract, error)
	SignContract(ctx context.Context, contractID uuid.UUID, partyID, signature string) (*entities.Contract, error)
	GetContract(ctx context.Context, contractID uuid.UUID) (*entities.Contract, error)
	GetContractsForParty(ctx context.Context, partyID string, page, limit int) ([]*entities.Contract, utils.PaginationMeta, error)
	GetExecutionHistory(ctx context.Context, contractID uuid.UUID) ([]entities.ContractExecution, error)
	CancelContract(ctx context.Context, contractID uuid.UUID, cancelledBy, reason string) (*entities.Contract, error)
}

// ContractHandler handles contract lifecycle endpoints
type ContractHandler struct {
	contractUsecase ContractService
}

// NewContractHandler creates a new contract handler
func NewContractHandler(contractUsecase ContractService) *ContractHandler {
	return &ContractHandler{contractUsecase: contractUsecase}
}

// CreateContract creates a new contract in draft status
// POST /api/v1/contracts
func (h *ContractHandler) CreateContract(c *gin.Context) {
	var input entities.CreateContractInput

	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	contract, err := h.contractUsecase.CreateContract(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"contract": contract})
}

// GetContract gets a contract by ID
// GET /api/v1/contracts/:id
func (h *ContractHandler) GetContract(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid contract ID"))
		return
	}

	contract, err := h.contractUsecase.GetContract(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"contract": contract})
}

// ListContracts lists contracts for the authenticated party
// GET /api/v1/contracts
func (h *ContractHandler) ListContracts(c *gin.Context) {
	partyID, ok := middleware.GetPartyID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Party not authenticated"))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	contracts, meta, err := h.contractUsecase.GetContractsForParty(c.Request.Context(), partyID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"contracts":  contracts,
		"pagination": meta,
	})
}

type signContractRequest struct {
	Signature string `json:"signature" binding:"required"`
}

// SignContract records the authenticated party's signature
// POST /api/v1/contracts/:id/sign
func (h *ContractHandler) SignContract(c *gin.Context) {
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

	var req signContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	contract, err := h.contractUsecase.SignContract(c.Request.Context(), id, partyID, req.Signature)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"contract": contract})
}

type cancelContractRequest struct {
	Reason string `json:"reason"`
}

// CancelContract cancels a draft or active contract
// POST /api/v1/contracts/:id/cancel
func (h *ContractHandler) CancelContract(c *gin.Context) {
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

	var req cancelContractRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	contract, err := h.contractUsecase.CancelContract(c.Request.Context(), id, partyID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"contract": contract})
}

// GetExecutionHistory gets the audit log for a contract
// GET /api/v1/contracts/:id/history
func (h *ContractHandler) GetExecutionHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid contract ID"))
		return
	}

	history, err := h.contractUsecase.GetExecutionHistory(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"history": history})
}
