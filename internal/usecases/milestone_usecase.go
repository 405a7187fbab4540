package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"escrow-chain.backend/internal/domain/entities"
	"escrow-chain.backend/internal/domain/errors"
	domainRepos "escrow-chain.backend/internal/domain/repositories"
	"escrow-chain.backend/pkg/metrics"
)

// MilestoneUsecase drives the per-milestone state machine:
// pending -> in_progress -> submitted -> approved -> paid. Approval releases
// the milestone amount to the provider; when the last milestone is paid the
// contract completes.
type MilestoneUsecase struct {
	repo     domainRepos.ContractRepository
	triggers *TriggerEvaluator
	clock    Clock
}

// NewMilestoneUsecase creates the milestone workflow usecase
func NewMilestoneUsecase(repo domainRepos.ContractRepository, triggers *TriggerEvaluator, clock Clock) *MilestoneUsecase {
	return &MilestoneUsecase{repo: repo, triggers: triggers, clock: orNow(clock)}
}

// StartMilestone moves a pending milestone to in_progress
func (uc *MilestoneUsecase) StartMilestone(ctx context.Context, contractID, milestoneID uuid.UUID, startedBy string) (*entities.Contract, error) {
	return uc.repo.Update(ctx, contractID, func(c *entities.Contract) error {
		if c.Status != entities.ContractStatusActive {
			return errors.InvalidState("contract is not active")
		}
		m := c.Milestone(milestoneID)
		if m == nil {
			return errors.NotFound("milestone not found")
		}
		if !m.CanTransitionTo(entities.MilestoneStatusInProgress) {
			return errors.InvalidState("milestone is not pending")
		}
		m.Status = entities.MilestoneStatusInProgress
		logExecution(c, entities.ExecActionMilestoneStarted, startedBy, map[string]interface{}{
			"milestoneId": m.ID.String(),
		}, "in_progress", uc.clock())
		return nil
	})
}

// SubmitMilestone records submitted work and evidence. Milestones with
// automatic verification are approved in the same call, with no human gate.
func (uc *MilestoneUsecase) SubmitMilestone(ctx context.Context, contractID, milestoneID uuid.UUID, evidence []string, submittedBy string) (*entities.Contract, error) {
	var pending []PendingNotification
	var completed bool
	updated, err := uc.repo.Update(ctx, contractID, func(c *entities.Contract) error {
		if c.Status == entities.ContractStatusDisputed {
			return errors.InvalidState("contract is disputed")
		}
		if c.Status != entities.ContractStatusActive {
			return errors.InvalidState("contract is not active")
		}
		m := c.Milestone(milestoneID)
		if m == nil {
			return errors.NotFound("milestone not found")
		}
		if !m.CanTransitionTo(entities.MilestoneStatusSubmitted) {
			return errors.InvalidState("milestone is not in progress")
		}
		now := uc.clock()
		m.Status = entities.MilestoneStatusSubmitted
		m.Evidence = append(m.Evidence, evidence...)
		m.SubmittedAt = null.TimeFrom(now)
		logExecution(c, entities.ExecActionMilestoneSubmitted, submittedBy, map[string]interface{}{
			"milestoneId": m.ID.String(),
			"evidence":    len(evidence),
		}, "submitted", now)

		if m.VerificationMethod == entities.VerificationAutomatic {
			notifications, wasCompleted, err := uc.approve(c, m, entities.SystemActor, now)
			if err != nil {
				return err
			}
			pending = append(pending, notifications...)
			completed = wasCompleted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.triggers.Publish(ctx, pending)
	if completed {
		metrics.ContractsCompleted.Inc()
	}
	return updated, nil
}

// ApproveMilestone approves submitted work, releases the milestone amount to
// the provider and marks the milestone paid. Completing the last milestone
// completes the contract and fires contract_complete exactly once.
func (uc *MilestoneUsecase) ApproveMilestone(ctx context.Context, contractID, milestoneID uuid.UUID, approvedBy string) (*entities.Contract, error) {
	var pending []PendingNotification
	var completed bool
	updated, err := uc.repo.Update(ctx, contractID, func(c *entities.Contract) error {
		if c.Status == entities.ContractStatusDisputed {
			return errors.InvalidState("contract is disputed")
		}
		if c.Status != entities.ContractStatusActive {
			return errors.InvalidState("contract is not active")
		}
		m := c.Milestone(milestoneID)
		if m == nil {
			return errors.NotFound("milestone not found")
		}
		notifications, wasCompleted, err := uc.approve(c, m, approvedBy, uc.clock())
		if err != nil {
			return err
		}
		pending = append(pending, notifications...)
		completed = wasCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.triggers.Publish(ctx, pending)
	if completed {
		metrics.ContractsCompleted.Inc()
	}
	return updated, nil
}

// RejectMilestone sends submitted work back to in_progress with a reason
func (uc *MilestoneUsecase) RejectMilestone(ctx context.Context, contractID, milestoneID uuid.UUID, rejectedBy, reason string) (*entities.Contract, error) {
	return uc.repo.Update(ctx, contractID, func(c *entities.Contract) error {
		if c.Status != entities.ContractStatusActive {
			return errors.InvalidState("contract is not active")
		}
		m := c.Milestone(milestoneID)
		if m == nil {
			return errors.NotFound("milestone not found")
		}
		if m.Status != entities.MilestoneStatusSubmitted {
			return errors.InvalidState("milestone is not submitted")
		}
		m.Status = entities.MilestoneStatusInProgress
		m.SubmittedAt = null.Time{}
		logExecution(c, entities.ExecActionMilestoneRejected, rejectedBy, map[string]interface{}{
			"milestoneId": m.ID.String(),
			"reason":      reason,
		}, "rejected", uc.clock())
		return nil
	})
}

func (uc *MilestoneUsecase) approve(c *entities.Contract, m *entities.Milestone, approvedBy string, now time.Time) ([]PendingNotification, bool, error) {
	if !m.CanTransitionTo(entities.MilestoneStatusApproved) {
		return nil, false, errors.InvalidState("milestone is not submitted")
	}
	provider := c.PartyByRole(entities.PartyRoleProvider)
	if provider == nil {
		return nil, false, errors.InvalidState("contract has no provider party to pay")
	}

	m.Status = entities.MilestoneStatusApproved
	m.ApprovedAt = null.TimeFrom(now)

	milestoneID := m.ID
	if err := applyRelease(c, m.Amount, provider.ID, &milestoneID, "milestone payment", now); err != nil {
		return nil, false, err
	}
	metrics.FundsReleased.Add(float64(m.Amount))

	m.Status = entities.MilestoneStatusPaid
	m.PaidAt = null.TimeFrom(now)
	logExecution(c, entities.ExecActionMilestoneApproved, approvedBy, map[string]interface{}{
		"milestoneId": m.ID.String(),
		"amount":      m.Amount,
	}, "paid", now)

	var pending []PendingNotification
	completed := false
	if c.AllMilestonesPaid() && c.Status == entities.ContractStatusActive {
		c.Status = entities.ContractStatusCompleted
		c.CompletedAt = null.TimeFrom(now)
		completed = true
		logExecution(c, entities.ExecActionContractCompleted, entities.SystemActor, nil, "completed", now)
		pending = uc.triggers.FireEvent(c, entities.EventContractComplete, now)
	}
	return pending, completed, nil
}
