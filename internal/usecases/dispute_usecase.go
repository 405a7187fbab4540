package usecases

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"escrow-chain.backend/internal/domain/entities"
	"escrow-chain.backend/internal/domain/errors"
	domainRepos "escrow-chain.backend/internal/domain/repositories"
	"escrow-chain.backend/pkg/metrics"
	"escrow-chain.backend/pkg/utils"
)

// DisputeUsecase manages the dispute lifecycle: initiation freezes escrowed
// funds, evidence accumulates on the timeline, and resolution distributes the
// frozen funds explicitly.
type DisputeUsecase struct {
	repo     domainRepos.ContractRepository
	triggers *TriggerEvaluator
	clock    Clock
}

// NewDisputeUsecase creates the dispute usecase
func NewDisputeUsecase(repo domainRepos.ContractRepository, triggers *TriggerEvaluator, clock Clock) *DisputeUsecase {
	return &DisputeUsecase{repo: repo, triggers: triggers, clock: orNow(clock)}
}

// applyInitiateDispute is shared with the start_dispute trigger action.
func applyInitiateDispute(c *entities.Contract, initiatedBy, reason string, evidence []string, at time.Time) error {
	if c.Dispute != nil && c.Dispute.Active() {
		return errors.InvalidState("contract is already disputed")
	}
	if c.Status.IsTerminal() {
		return errors.InvalidState("contract is closed")
	}

	dispute := &entities.DisputeResolution{
		ID:          utils.GenerateUUIDv7(),
		InitiatedBy: initiatedBy,
		Reason:      reason,
		Evidence:    append([]string(nil), evidence...),
		Status:      entities.DisputeStatusOpen,
		CreatedAt:   at,
		Timeline: []entities.DisputeEvent{{
			ID:          utils.GenerateUUIDv7(),
			Description: "dispute opened: " + reason,
			Actor:       initiatedBy,
			Timestamp:   at,
		}},
	}

	// Freeze: everything still locked becomes untouchable by normal release
	// paths until resolution.
	c.Status = entities.ContractStatusDisputed
	c.Funds.DisputedAmount = c.Funds.LockedAmount
	if c.Funds.LockedAmount > 0 {
		appendTransaction(c, entities.TransactionTypeDisputeHold, c.Funds.LockedAmount, "escrow", "escrow", nil, "funds frozen by dispute", at)
	}
	for i := range c.Terms.Milestones {
		m := &c.Terms.Milestones[i]
		if m.CanTransitionTo(entities.MilestoneStatusDisputed) && m.Status != entities.MilestoneStatusPending {
			m.Status = entities.MilestoneStatusDisputed
		}
	}

	if c.Terms.DisputeMethod == entities.DisputeMethodMediation {
		mediator := mediatorPool[rand.Intn(len(mediatorPool))]
		dispute.Mediator = null.StringFrom(mediator)
		dispute.Timeline = append(dispute.Timeline, entities.DisputeEvent{
			ID:          utils.GenerateUUIDv7(),
			Description: "mediator assigned: " + mediator,
			Actor:       entities.SystemActor,
			Timestamp:   at,
		})
	}

	c.Dispute = dispute
	logExecution(c, entities.ExecActionDisputeInitiated, initiatedBy, map[string]interface{}{
		"disputeId": dispute.ID.String(),
		"reason":    reason,
	}, "open", at)
	return nil
}

// InitiateDispute freezes the contract's escrowed funds and opens a dispute
func (uc *DisputeUsecase) InitiateDispute(ctx context.Context, contractID uuid.UUID, initiatedBy, reason string, evidence []string) (*entities.Contract, error) {
	updated, err := uc.repo.Update(ctx, contractID, func(c *entities.Contract) error {
		if c.Party(initiatedBy) == nil {
			return errors.NotFound("initiating party not found on contract")
		}
		return applyInitiateDispute(c, initiatedBy, reason, evidence, uc.clock())
	})
	if err != nil {
		return nil, err
	}
	metrics.DisputesInitiated.Inc()
	return updated, nil
}

// SubmitEvidence appends evidence to an unresolved dispute
func (uc *DisputeUsecase) SubmitEvidence(ctx context.Context, contractID uuid.UUID, submittedBy string, evidence []string) (*entities.Contract, error) {
	return uc.repo.Update(ctx, contractID, func(c *entities.Contract) error {
		if c.Dispute == nil || !c.Dispute.Active() {
			return errors.InvalidState("no active dispute on contract")
		}
		if len(evidence) == 0 {
			return errors.BadRequest("evidence is required")
		}
		now := uc.clock()
		c.Dispute.Evidence = append(c.Dispute.Evidence, evidence...)
		c.Dispute.Timeline = append(c.Dispute.Timeline, entities.DisputeEvent{
			ID:          utils.GenerateUUIDv7(),
			Description: "evidence submitted",
			Actor:       submittedBy,
			Timestamp:   now,
		})
		if c.Dispute.Status == entities.DisputeStatusOpen {
			c.Dispute.Status = entities.DisputeStatusInvestigating
		}
		logExecution(c, entities.ExecActionDisputeEvidence, submittedBy, map[string]interface{}{
			"items": len(evidence),
		}, "recorded", now)
		return nil
	})
}

// EscalateDispute marks an investigation as escalated (e.g. to arbitration)
func (uc *DisputeUsecase) EscalateDispute(ctx context.Context, contractID uuid.UUID, escalatedBy, reason string) (*entities.Contract, error) {
	return uc.repo.Update(ctx, contractID, func(c *entities.Contract) error {
		if c.Dispute == nil || !c.Dispute.Active() {
			return errors.InvalidState("no active dispute on contract")
		}
		if c.Dispute.Status == entities.DisputeStatusEscalated {
			return errors.InvalidState("dispute is already escalated")
		}
		now := uc.clock()
		c.Dispute.Status = entities.DisputeStatusEscalated
		c.Dispute.Timeline = append(c.Dispute.Timeline, entities.DisputeEvent{
			ID:          utils.GenerateUUIDv7(),
			Description: "dispute escalated: " + reason,
			Actor:       escalatedBy,
			Timestamp:   now,
		})
		logExecution(c, entities.ExecActionDisputeEscalated, escalatedBy, map[string]interface{}{
			"reason": reason,
		}, "escalated", now)
		return nil
	})
}

// ResolveDisputeInput carries a resolution decision
type ResolveDisputeInput struct {
	Decision            string
	PaymentDistribution map[string]int64
	Penalties           map[string]int64
	ResolvedBy          string
}

// ResolveDispute records the decision, distributes frozen funds and charges
// penalties. The distribution and penalties are validated against locked
// funds before any transaction is written, so a bad distribution fails
// atomically.
func (uc *DisputeUsecase) ResolveDispute(ctx context.Context, contractID uuid.UUID, input ResolveDisputeInput) (*entities.Contract, error) {
	return uc.repo.Update(ctx, contractID, func(c *entities.Contract) error {
		if c.Dispute == nil || !c.Dispute.Active() {
			return errors.InvalidState("no active dispute on contract")
		}

		var distributed, penalized int64
		for party, amount := range input.PaymentDistribution {
			if amount <= 0 {
				return errors.BadRequest("distribution amounts must be positive")
			}
			if c.Party(party) == nil {
				return errors.NotFound("distribution party not found: " + party)
			}
			distributed += amount
		}
		for party, amount := range input.Penalties {
			if amount <= 0 {
				return errors.BadRequest("penalty amounts must be positive")
			}
			if c.Party(party) == nil {
				return errors.NotFound("penalized party not found: " + party)
			}
			penalized += amount
		}
		if distributed+penalized > c.Funds.LockedAmount {
			return errors.InsufficientFunds("distribution exceeds frozen funds")
		}

		now := uc.clock()
		c.Dispute.Status = entities.DisputeStatusResolved
		c.Dispute.Resolution = &entities.Resolution{
			Decision:            input.Decision,
			PaymentDistribution: input.PaymentDistribution,
			Penalties:           input.Penalties,
			DecidedBy:           input.ResolvedBy,
			DecidedAt:           now,
		}
		c.Dispute.Timeline = append(c.Dispute.Timeline, entities.DisputeEvent{
			ID:          utils.GenerateUUIDv7(),
			Description: "dispute resolved: " + input.Decision,
			Actor:       input.ResolvedBy,
			Timestamp:   now,
		})

		for _, party := range sortedKeys(input.PaymentDistribution) {
			if err := applyRelease(c, input.PaymentDistribution[party], party, nil, "dispute resolution", now); err != nil {
				return err
			}
		}
		for _, party := range sortedKeys(input.Penalties) {
			if err := applyPenalty(c, input.Penalties[party], party, "dispute penalty", now); err != nil {
				return err
			}
		}

		c.Funds.DisputedAmount = 0
		c.Status = entities.ContractStatusCompleted
		c.CompletedAt = null.TimeFrom(now)
		logExecution(c, entities.ExecActionDisputeResolved, input.ResolvedBy, map[string]interface{}{
			"decision":    input.Decision,
			"distributed": distributed,
			"penalties":   penalized,
		}, "resolved", now)
		return nil
	})
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
