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

type MilestoneService interface {
	StartMilestone(ctx context.Context, contractID, milestoneID uuid.UUID, startedBy string) (*entities.Contract, error)
	SubmitMilestone(ctx context.Context, contractID, milestoneID uuid.UUID, evidence []string, submittedBy string) (*entities.Contract, error)
	ApproveMilestone(ctx context.Context, contractID, milestoneID uuid.UUID, approvedBy string) (*entities.Contract, error)
	RejectMilestone(ctx context.Context, contractID, milestoneID uuid.UUID, rejectedBy, reason string) (*entities.Contract, error)
}

// MilestoneHandler handles milestone workflow endpoints
type MilestoneHandler struct {
	milestoneUsecase MilestoneService
}

// NewMilestoneHandler creates a new milestone handler
func NewMilestoneHandler(milestoneUsecase MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{milestoneUsecase: milestoneUsecase}
}

func (h *MilestoneHandler) parseIDs(c *gin.Context) (uuid.UUID, uuid.UUID, string, bool) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid contract ID"))
		return uuid.Nil, uuid.Nil, "", false
	}

	milestoneID, err := uuid.Parse(c.Param("milestoneId"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid milestone ID"))
		return uuid.Nil, uuid.Nil, "", false
	}

	partyID, ok := middleware.GetPartyID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Party not authenticated"))
		return uuid.Nil, uuid.Nil, "", false
	}

	return contractID, milestoneID, partyID, true
}

// StartMilestone moves a milestone to in_progress
// POST /api/v1/contracts/:id/milestones/:milestoneId/start
func (h *MilestoneHandler) StartMilestone(c *gin.Context) {
	contractID, milestoneID, partyID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	contract, err := h.milestoneUsecase.StartMilestone(c.Request.Context(), contractID, milestoneID, partyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"contract": contract})
}

type submitMilestoneRequest struct {
	Evidence []string `json:"evidence"`
}

// SubmitMilestone submits milestone deliverables for review
// POST /api/v1/contracts/:id/milestones/:milestoneId/submit
func (h *MilestoneHandler) SubmitMilestone(c *gin.Context) {
	contractID, milestoneID, partyID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	var req submitMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	contract, err := h.milestoneUsecase.SubmitMilestone(c.Request.Context(), contractID, milestoneID, req.Evidence, partyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"contract": contract})
}

// ApproveMilestone approves a submitted milestone and pays it out
// POST /api/v1/contracts/:id/milestones/:milestoneId/approve
func (h *MilestoneHandler) ApproveMilestone(c *gin.Context) {
	contractID, milestoneID, partyID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	contract, err := h.milestoneUsecase.ApproveMilestone(c.Request.Context(), contractID, milestoneID, partyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"contract": contract})
}

type rejectMilestoneRequest struct {
	Reason string `json:"reason"`
}

// RejectMilestone sends a submitted milestone back to in_progress
// POST /api/v1/contracts/:id/milestones/:milestoneId/reject
func (h *MilestoneHandler) RejectMilestone(c *gin.Context) {
	contractID, milestoneID, partyID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	var req rejectMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	contract, err := h.milestoneUsecase.RejectMilestone(c.Request.Context(), contractID, milestoneID, partyID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"contract": contract})
}
