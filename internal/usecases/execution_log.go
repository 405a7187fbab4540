package usecases

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"escrow-chain.backend/internal/domain/entities"
	"escrow-chain.backend/pkg/crypto"
	"escrow-chain.backend/pkg/utils"
)

// The audit log simulates on-chain observability: every state-changing action
// gets a keccak tx hash, a gas figure and a monotonic block number scoped to
// the contract.

func simulatedGas() int64 {
	return minSimulatedGas + rand.Int63n(maxSimulatedGas-minSimulatedGas+1)
}

func nextBlockNumber(c *entities.Contract) int64 {
	return int64(len(c.ExecutionHistory)+len(c.Funds.Transactions)) + 1
}

func simulatedTxHash(contractID, action string, at time.Time) string {
	nonce := utils.GenerateUUIDv7().String()
	return crypto.Keccak256Hex([]byte(contractID + "|" + action + "|" + at.UTC().Format(time.RFC3339Nano) + "|" + nonce))
}

// logExecution appends an audit entry to the contract's execution history.
// History is append-only; entries are never mutated afterwards.
func logExecution(c *entities.Contract, action, actor string, params map[string]interface{}, result string, at time.Time) {
	c.ExecutionHistory = append(c.ExecutionHistory, entities.ContractExecution{
		ID:          utils.GenerateUUIDv7(),
		Action:      action,
		Actor:       actor,
		Timestamp:   at,
		Parameters:  params,
		Result:      result,
		GasUsed:     simulatedGas(),
		BlockNumber: nextBlockNumber(c),
		TxHash:      simulatedTxHash(c.ID.String(), action, at),
	})
	c.UpdatedAt = at
}

// appendTransaction appends a confirmed ledger entry and returns it. The
// ledger is append-only; callers adjust fund buckets separately.
func appendTransaction(c *entities.Contract, txType entities.TransactionType, amount int64, from, to string, milestoneID *uuid.UUID, reason string, at time.Time) *entities.EscrowTransaction {
	tx := entities.EscrowTransaction{
		ID:          utils.GenerateUUIDv7(),
		Type:        txType,
		Amount:      amount,
		From:        from,
		To:          to,
		MilestoneID: milestoneID,
		Reason:      reason,
		Timestamp:   at,
		TxHash:      simulatedTxHash(c.ID.String(), string(txType), at),
		BlockNumber: nextBlockNumber(c),
		GasUsed:     simulatedGas(),
		Status:      entities.TransactionStatusConfirmed,
	}
	c.Funds.Transactions = append(c.Funds.Transactions, tx)
	return &c.Funds.Transactions[len(c.Funds.Transactions)-1]
}
