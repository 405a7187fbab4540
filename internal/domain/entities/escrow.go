package entities

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType represents escrow ledger entry type
type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "deposit"
	TransactionTypeRelease     TransactionType = "release"
	TransactionTypeRefund      TransactionType = "refund"
	TransactionTypePenalty     TransactionType = "penalty"
	TransactionTypeDisputeHold TransactionType = "dispute_hold"
)

// TransactionStatus represents ledger entry confirmation status
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// EscrowTransaction is an immutable ledger entry. Entries are append-only and
// never edited or deleted.
type EscrowTransaction struct {
	ID          uuid.UUID         `json:"id"`
	Type        TransactionType   `json:"type"`
	Amount      int64             `json:"amount"`
	From        string            `json:"from"`
	To          string            `json:"to"`
	MilestoneID *uuid.UUID        `json:"milestoneId,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
	TxHash      string            `json:"txHash"`
	BlockNumber int64             `json:"blockNumber"`
	GasUsed     int64             `json:"gasUsed"`
	Status      TransactionStatus `json:"status"`
}

// EscrowFunds tracks escrowed amounts for a contract. All amounts are minor
// units of the contract currency.
type EscrowFunds struct {
	TotalAmount    int64               `json:"totalAmount"`
	LockedAmount   int64               `json:"lockedAmount"`
	ReleasedAmount int64               `json:"releasedAmount"`
	DisputedAmount int64               `json:"disputedAmount"`
	PenaltyAmount  int64               `json:"penaltyAmount"`
	Transactions   []EscrowTransaction `json:"transactions"`
}

// DepositedTotal returns the sum of confirmed deposit transactions.
func (f *EscrowFunds) DepositedTotal() int64 {
	var sum int64
	for i := range f.Transactions {
		tx := &f.Transactions[i]
		if tx.Type == TransactionTypeDeposit && tx.Status == TransactionStatusConfirmed {
			sum += tx.Amount
		}
	}
	return sum
}

// OutflowTotal returns the sum of confirmed release, refund and penalty
// transactions.
func (f *EscrowFunds) OutflowTotal() int64 {
	var sum int64
	for i := range f.Transactions {
		tx := &f.Transactions[i]
		if tx.Status != TransactionStatusConfirmed {
			continue
		}
		switch tx.Type {
		case TransactionTypeRelease, TransactionTypeRefund, TransactionTypePenalty:
			sum += tx.Amount
		}
	}
	return sum
}

// Conserved reports whether the fund-conservation invariant holds:
// lockedAmount is non-negative and locked + released + penalties never exceed
// what was actually deposited.
func (f *EscrowFunds) Conserved() bool {
	if f.LockedAmount < 0 || f.ReleasedAmount < 0 || f.DisputedAmount < 0 || f.PenaltyAmount < 0 {
		return false
	}
	deposited := f.DepositedTotal()
	if f.LockedAmount+f.ReleasedAmount+f.PenaltyAmount > deposited {
		return false
	}
	return f.OutflowTotal() <= deposited
}
