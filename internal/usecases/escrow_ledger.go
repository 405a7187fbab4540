package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"escrow-chain.backend/internal/domain/entities"
	"escrow-chain.backend/internal/domain/errors"
	domainRepos "escrow-chain.backend/internal/domain/repositories"
	"escrow-chain.backend/pkg/metrics"
)

// Ledger mutation helpers shared by deposits, milestone payments, dispute
// resolution, cancellation refunds and trigger actions. Every helper validates
// before touching state so a failed call leaves the funds unchanged, and every
// helper re-checks fund conservation after the mutation.

func applyDeposit(c *entities.Contract, amount int64, from string, at time.Time) error {
	if amount <= 0 {
		return errors.BadRequest("deposit amount must be positive")
	}
	appendTransaction(c, entities.TransactionTypeDeposit, amount, from, "escrow", nil, "escrow deposit", at)
	c.Funds.LockedAmount += amount
	return assertConserved(c)
}

func applyRelease(c *entities.Contract, amount int64, to string, milestoneID *uuid.UUID, reason string, at time.Time) error {
	if amount <= 0 {
		return errors.BadRequest("release amount must be positive")
	}
	if amount > c.Funds.LockedAmount {
		return errors.InsufficientFunds("release exceeds locked funds")
	}
	appendTransaction(c, entities.TransactionTypeRelease, amount, "escrow", to, milestoneID, reason, at)
	c.Funds.LockedAmount -= amount
	c.Funds.ReleasedAmount += amount
	return assertConserved(c)
}

func applyRefund(c *entities.Contract, amount int64, to string, reason string, at time.Time) error {
	if amount <= 0 {
		return errors.BadRequest("refund amount must be positive")
	}
	if amount > c.Funds.LockedAmount {
		return errors.InsufficientFunds("refund exceeds locked funds")
	}
	appendTransaction(c, entities.TransactionTypeRefund, amount, "escrow", to, nil, reason, at)
	c.Funds.LockedAmount -= amount
	return assertConserved(c)
}

func applyPenalty(c *entities.Contract, amount int64, party string, reason string, at time.Time) error {
	if amount <= 0 {
		return errors.BadRequest("penalty amount must be positive")
	}
	if amount > c.Funds.LockedAmount {
		return errors.InsufficientFunds("penalty exceeds locked funds")
	}
	appendTransaction(c, entities.TransactionTypePenalty, amount, party, "escrow", nil, reason, at)
	c.Funds.LockedAmount -= amount
	c.Funds.PenaltyAmount += amount
	return assertConserved(c)
}

func assertConserved(c *entities.Contract) error {
	if !c.Funds.Conserved() {
		return errors.InternalError(fmt.Errorf("fund conservation violated for contract %s", c.ID))
	}
	return nil
}

// EscrowUsecase exposes the escrow ledger operations
type EscrowUsecase struct {
	repo     domainRepos.ContractRepository
	triggers *TriggerEvaluator
	clock    Clock
}

// NewEscrowUsecase creates the escrow ledger usecase
func NewEscrowUsecase(repo domainRepos.ContractRepository, triggers *TriggerEvaluator, clock Clock) *EscrowUsecase {
	return &EscrowUsecase{repo: repo, triggers: triggers, clock: orNow(clock)}
}

// DepositFunds locks funds into escrow for an active contract. Partial funding
// is allowed; once locked funds cover the total a funding_complete event is
// fired.
func (uc *EscrowUsecase) DepositFunds(ctx context.Context, contractID uuid.UUID, amount int64, from string) (*entities.Contract, error) {
	var pending []PendingNotification
	updated, err := uc.repo.Update(ctx, contractID, func(c *entities.Contract) error {
		if c.Status != entities.ContractStatusActive {
			return errors.InvalidState("contract is not active")
		}
		wasFunded := c.Funds.LockedAmount >= c.Terms.TotalAmount
		if err := applyDeposit(c, amount, from, uc.clock()); err != nil {
			return err
		}
		logExecution(c, entities.ExecActionFundsDeposited, from, map[string]interface{}{
			"amount": amount,
		}, "confirmed", uc.clock())
		if !wasFunded && c.Funds.LockedAmount >= c.Terms.TotalAmount {
			pending = append(pending, uc.triggers.FireEvent(c, entities.EventFundingComplete, uc.clock())...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.triggers.Publish(ctx, pending)
	metrics.FundsDeposited.Add(float64(amount))
	return updated, nil
}

// ReleaseFunds moves locked funds to a party. This is the sole path by which
// money leaves escrow toward a party; it is refused while the contract is
// disputed (resolution routes its distribution internally).
func (uc *EscrowUsecase) ReleaseFunds(ctx context.Context, contractID uuid.UUID, amount int64, to, reason string) (*entities.Contract, error) {
	updated, err := uc.repo.Update(ctx, contractID, func(c *entities.Contract) error {
		if c.Status == entities.ContractStatusDisputed {
			return errors.InvalidState("funds are frozen by an active dispute")
		}
		if c.Status != entities.ContractStatusActive {
			return errors.InvalidState("contract is not active")
		}
		if c.Party(to) == nil {
			return errors.NotFound("recipient party not found")
		}
		if err := applyRelease(c, amount, to, nil, reason, uc.clock()); err != nil {
			return err
		}
		logExecution(c, entities.ExecActionFundsReleased, to, map[string]interface{}{
			"amount": amount,
			"reason": reason,
		}, "confirmed", uc.clock())
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.FundsReleased.Add(float64(amount))
	return updated, nil
}

// RefundFunds returns locked funds to a party without marking them released
// (buyer-protection path). Refused while disputed.
func (uc *EscrowUsecase) RefundFunds(ctx context.Context, contractID uuid.UUID, amount int64, to, reason string) (*entities.Contract, error) {
	return uc.repo.Update(ctx, contractID, func(c *entities.Contract) error {
		if c.Status == entities.ContractStatusDisputed {
			return errors.InvalidState("funds are frozen by an active dispute")
		}
		if c.Status != entities.ContractStatusActive {
			return errors.InvalidState("contract is not active")
		}
		if c.Party(to) == nil {
			return errors.NotFound("recipient party not found")
		}
		if err := applyRefund(c, amount, to, reason, uc.clock()); err != nil {
			return err
		}
		logExecution(c, entities.ExecActionFundsRefunded, to, map[string]interface{}{
			"amount": amount,
			"reason": reason,
		}, "confirmed", uc.clock())
		return nil
	})
}

// GetTransactions returns the contract's immutable transaction log
func (uc *EscrowUsecase) GetTransactions(ctx context.Context, contractID uuid.UUID) ([]entities.EscrowTransaction, error) {
	c, err := uc.repo.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	return c.Funds.Transactions, nil
}
