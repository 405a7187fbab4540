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
	"escrow-chain.backend/internal/usecases"
)

type DisputeService interface {
	InitiateDispute(ctx context.Context, contractID uuid.UUID, initiatedBy, reason string, evidence []string) (*entities.Contract, error)
	SubmitEvidence(ctx context.Context, contractID uuid.UUID, submittedBy string, evidence []string) (*entities.Contract, error)
	EscalateDispute(ctx context.Context, contractID uuid.UUID, escalatedBy, reason string) (*entities.Contract, error)
	ResolveDispute(ctx context.Context, contractID uuid.UUID, input usecases.ResolveDisputeInput) (*entities.Contract, error)
}

// DisputeHandler handles dispute resolution endpoints
type DisputeHandler struct {
	disputeUsecase DisputeService
}

// NewDisputeHandler creates a new dispute handler
func NewDisputeHandler(disputeUsecase DisputeService) *DisputeHandler {
	return &DisputeHandler{disputeUsecase: disputeUsecase}
}

type initiateDisputeRequest struct {
	Reason   string   `json:"reason" binding:"required"`
	Evidence []string `json:"evidence"`
}

// InitiateDispute opens a dispute and freezes escrowed funds
// POST /api/v1/contracts/:id/disputes
func (h *DisputeHandler) InitiateDispute(c *gin.Context) {
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

	var req initiateDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	contract, err := h.disputeUsecase.InitiateDispute(c.Request.Context(), id, partyID, req.Reason, req.Evidence)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"contract": contract})
}

type submitEvidenceRequest struct {
	Evidence []string `json:"evidence" binding:"required"`
}

// SubmitEvidence attaches evidence to an open dispute
// POST /api/v1/contracts/:id/disputes/evidence
func (h *DisputeHandler) SubmitEvidence(c *gin.Context) {
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

	var req submitEvidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	contract, err := h.disputeUsecase.SubmitEvidence(c.Request.Context(), id, partyID, req.Evidence)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"contract": contract})
}

type escalateDisputeRequest struct {
	Reason string `json:"reason"`
}

// EscalateDispute escalates a dispute to arbitration
// POST /api/v1/contracts/:id/disputes/escalate
func (h *DisputeHandler) EscalateDispute(c *gin.Context) {
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

	var req escalateDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	contract, err := h.disputeUsecase.EscalateDispute(c.Request.Context(), id, partyID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"contract": contract})
}

type resolveDisputeRequest struct {
	Decision            string           `json:"decision" binding:"required"`
	PaymentDistribution map[string]int64 `json:"paymentDistribution"`
	Penalties           map[string]int64 `json:"penalties"`
}

// ResolveDispute records a resolution and distributes frozen funds
// POST /api/v1/contracts/:id/disputes/resolve
func (h *DisputeHandler) ResolveDispute(c *gin.Context) {
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

	var req resolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	contract, err := h.disputeUsecase.ResolveDispute(c.Request.Context(), id, usecases.ResolveDisputeInput{
		Decision:            req.Decision,
		PaymentDistribution: req.PaymentDistribution,
		Penalties:           req.Penalties,
		ResolvedBy:          partyID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"contract": contract})
}
