package usecases

import (
	"context"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"escrow-chain.backend/internal/domain/entities"
	"escrow-chain.backend/internal/domain/errors"
	domainRepos "escrow-chain.backend/internal/domain/repositories"
	"escrow-chain.backend/pkg/crypto"
	"escrow-chain.backend/pkg/metrics"
	"escrow-chain.backend/pkg/utils"
)

// ContractUsecase manages the contract lifecycle: creation, signing,
// activation, cancellation and reads.
type ContractUsecase struct {
	repo     domainRepos.ContractRepository
	verifier crypto.Verifier
	triggers *TriggerEvaluator
	clock    Clock
}

// NewContractUsecase creates the contract lifecycle usecase
func NewContractUsecase(repo domainRepos.ContractRepository, verifier crypto.Verifier, triggers *TriggerEvaluator, clock Clock) *ContractUsecase {
	return &ContractUsecase{
		repo:     repo,
		verifier: verifier,
		triggers: triggers,
		clock:    orNow(clock),
	}
}

// CreateContract builds a new contract in draft with zero locked funds,
// default conditions and per-milestone deadline triggers.
func (uc *ContractUsecase) CreateContract(ctx context.Context, input entities.CreateContractInput) (*entities.Contract, error) {
	if err := validateCreateInput(&input); err != nil {
		return nil, err
	}
	now := uc.clock()

	contract := &entities.Contract{
		ID:      utils.GenerateUUIDv7(),
		Type:    input.Type,
		Parties: input.Parties,
		Terms:   input.Terms,
		Status:  entities.ContractStatusDraft,
		Funds: entities.EscrowFunds{
			TotalAmount: input.Terms.TotalAmount,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i := range contract.Terms.Milestones {
		m := &contract.Terms.Milestones[i]
		if m.ID == uuid.Nil {
			m.ID = utils.GenerateUUIDv7()
		}
		m.Status = entities.MilestoneStatusPending
	}
	contract.Conditions = defaultConditions()
	contract.AutomatedTriggers = defaultTriggers(contract)

	logExecution(contract, entities.ExecActionContractCreated, creatorActor(contract), map[string]interface{}{
		"type":        string(contract.Type),
		"totalAmount": contract.Terms.TotalAmount,
		"currency":    contract.Terms.Currency,
		"milestones":  len(contract.Terms.Milestones),
	}, "created", now)

	if err := uc.repo.Create(ctx, contract); err != nil {
		return nil, err
	}
	metrics.ContractsCreated.Inc()
	return contract, nil
}

// SignContract records a party's signature. When every signature-required
// party has signed, the contract activates and contract_activated triggers
// fire.
func (uc *ContractUsecase) SignContract(ctx context.Context, contractID uuid.UUID, partyID, signature string) (*entities.Contract, error) {
	var pending []PendingNotification
	var activated bool
	updated, err := uc.repo.Update(ctx, contractID, func(c *entities.Contract) error {
		party := c.Party(partyID)
		if party == nil {
			return errors.NotFound("party not found on contract")
		}
		if party.Signed {
			return errors.AlreadySigned("party already signed this contract")
		}
		if c.Status != entities.ContractStatusDraft {
			return errors.InvalidState("contract is not awaiting signatures")
		}
		digest := crypto.SigningDigest(c.ID.String(), partyID)
		if !uc.verifier.Verify(party.PublicKey, signature, digest) {
			return errors.InvalidSignature("signature verification failed")
		}

		now := uc.clock()
		party.Signed = true
		party.SignedAt = null.TimeFrom(now)

		allSigned := c.AllRequiredSigned()
		logExecution(c, entities.ExecActionContractSigned, partyID, map[string]interface{}{
			"allSigned": allSigned,
		}, "signed", now)

		if allSigned {
			c.Status = entities.ContractStatusActive
			c.ActivatedAt = null.TimeFrom(now)
			activated = true
			logExecution(c, entities.ExecActionContractActivated, entities.SystemActor, nil, "active", now)
			pending = append(pending, uc.triggers.FireEvent(c, entities.EventContractActivated, now)...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.triggers.Publish(ctx, pending)
	if activated {
		metrics.ContractsActivated.Inc()
	}
	return updated, nil
}

// GetContract returns a contract aggregate by ID
func (uc *ContractUsecase) GetContract(ctx context.Context, contractID uuid.UUID) (*entities.Contract, error) {
	return uc.repo.GetByID(ctx, contractID)
}

// GetContractsForParty returns contracts the party participates in
func (uc *ContractUsecase) GetContractsForParty(ctx context.Context, partyID string, page, limit int) ([]*entities.Contract, utils.PaginationMeta, error) {
	params := utils.GetPaginationParams(page, limit)
	contracts, total, err := uc.repo.GetByParty(ctx, partyID, params.Limit, params.CalculateOffset())
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return contracts, utils.CalculateMeta(int64(total), params.Page, params.Limit), nil
}

// GetExecutionHistory returns the contract's append-only audit log
func (uc *ContractUsecase) GetExecutionHistory(ctx context.Context, contractID uuid.UUID) ([]entities.ContractExecution, error) {
	c, err := uc.repo.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	return c.ExecutionHistory, nil
}

// CancelContract cancels a draft or active contract. Locked funds are
// refunded to the client party. Disputed and terminal contracts refuse.
func (uc *ContractUsecase) CancelContract(ctx context.Context, contractID uuid.UUID, cancelledBy, reason string) (*entities.Contract, error) {
	return uc.repo.Update(ctx, contractID, func(c *entities.Contract) error {
		if c.Status == entities.ContractStatusDisputed {
			return errors.InvalidState("disputed contracts must be resolved, not cancelled")
		}
		if c.Status != entities.ContractStatusDraft && c.Status != entities.ContractStatusActive {
			return errors.InvalidState("contract cannot be cancelled in its current state")
		}
		now := uc.clock()
		if c.Funds.LockedAmount > 0 {
			client := c.PartyByRole(entities.PartyRoleClient)
			refundTo := cancelledBy
			if client != nil {
				refundTo = client.ID
			}
			if err := applyRefund(c, c.Funds.LockedAmount, refundTo, "contract cancelled", now); err != nil {
				return err
			}
		}
		c.Status = entities.ContractStatusCancelled
		logExecution(c, entities.ExecActionContractCancelled, cancelledBy, map[string]interface{}{
			"reason": reason,
		}, "cancelled", now)
		return nil
	})
}

func validateCreateInput(input *entities.CreateContractInput) error {
	switch input.Type {
	case entities.ContractTypeEscrow, entities.ContractTypeMilestone,
		entities.ContractTypeDisputeResolution, entities.ContractTypeRecurring,
		entities.ContractTypeMultiParty:
	default:
		return errors.BadRequest("unknown contract type")
	}
	if len(input.Parties) == 0 {
		return errors.BadRequest("at least one party is required")
	}
	seen := make(map[string]bool, len(input.Parties))
	for i := range input.Parties {
		p := &input.Parties[i]
		if p.ID == "" {
			return errors.BadRequest("party id is required")
		}
		if seen[p.ID] {
			return errors.BadRequest("duplicate party id: " + p.ID)
		}
		seen[p.ID] = true
		if p.SignatureRequired && p.PublicKey == "" {
			return errors.BadRequest("signature-required party needs a public key")
		}
		p.Signed = false
		p.SignedAt = null.Time{}
	}
	// Milestone payments go to the provider, so contracts that carry
	// milestones must name one up front.
	if len(input.Terms.Milestones) > 0 {
		hasProvider := false
		for i := range input.Parties {
			if input.Parties[i].Role == entities.PartyRoleProvider {
				hasProvider = true
				break
			}
		}
		if !hasProvider {
			return errors.BadRequest("contracts with milestones require a provider party")
		}
	}
	if input.Terms.TotalAmount <= 0 {
		return errors.BadRequest("total amount must be positive")
	}
	if input.Terms.Currency == "" {
		return errors.BadRequest("currency is required")
	}
	var milestoneSum int64
	for i := range input.Terms.Milestones {
		m := &input.Terms.Milestones[i]
		if m.Amount <= 0 {
			return errors.BadRequest("milestone amounts must be positive")
		}
		milestoneSum += m.Amount
	}
	if len(input.Terms.Milestones) > 0 && milestoneSum != input.Terms.TotalAmount {
		return errors.BadRequest("milestone amounts must sum to the total amount")
	}
	if !input.Terms.EndDate.IsZero() && !input.Terms.StartDate.IsZero() &&
		input.Terms.EndDate.Before(input.Terms.StartDate) {
		return errors.BadRequest("end date precedes start date")
	}
	return nil
}

func defaultConditions() []entities.ContractCondition {
	return []entities.ContractCondition{
		{
			ID:          utils.GenerateUUIDv7(),
			Type:        entities.ConditionTimeBased,
			Description: "contract deadline passed",
			Expression:  "now > endDate",
		},
		{
			ID:          utils.GenerateUUIDv7(),
			Type:        entities.ConditionMilestoneBased,
			Description: "all milestones approved",
			Expression:  "milestonesTotal > 0 && milestonesApproved == milestonesTotal",
		},
	}
}

// defaultTriggers registers a deadline-approaching notification for every
// milestone with a configured deadline.
func defaultTriggers(c *entities.Contract) []entities.AutomatedTrigger {
	var triggers []entities.AutomatedTrigger
	for i := range c.Terms.Milestones {
		m := &c.Terms.Milestones[i]
		if !m.Deadline.Valid {
			continue
		}
		recipient := ""
		if provider := c.PartyByRole(entities.PartyRoleProvider); provider != nil {
			recipient = provider.ID
		}
		triggers = append(triggers, entities.AutomatedTrigger{
			ID:     utils.GenerateUUIDv7(),
			Event:  entities.EventDeadlineApproaching,
			Action: entities.ActionSendNotification,
			Parameters: map[string]interface{}{
				"milestoneId":  m.ID.String(),
				"warningHours": int64(DefaultDeadlineWarningHours),
				"recipient":    recipient,
				"message":      "milestone deadline approaching: " + m.Description,
			},
		})
	}
	return triggers
}

func creatorActor(c *entities.Contract) string {
	if client := c.PartyByRole(entities.PartyRoleClient); client != nil {
		return client.ID
	}
	if len(c.Parties) > 0 {
		return c.Parties[0].ID
	}
	return entities.SystemActor
}
