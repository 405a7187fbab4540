package entities

import (
	"time"

	"github.com/google/uuid"
)

// Well-known audit log actions
const (
	ExecActionContractCreated   = "contract_created"
	ExecActionContractSigned    = "contract_signed"
	ExecActionContractActivated = "contract_activated"
	ExecActionContractCompleted = "contract_completed"
	ExecActionContractCancelled = "contract_cancelled"
	ExecActionContractExpired   = "contract_expired"
	ExecActionFundsDeposited    = "funds_deposited"
	ExecActionFundsReleased     = "funds_released"
	ExecActionFundsRefunded     = "funds_refunded"
	ExecActionMilestoneStarted  = "milestone_started"
	ExecActionMilestoneSubmitted = "milestone_submitted"
	ExecActionMilestoneApproved = "milestone_approved"
	ExecActionMilestoneRejected = "milestone_rejected"
	ExecActionDisputeInitiated  = "dispute_initiated"
	ExecActionDisputeEvidence   = "dispute_evidence_added"
	ExecActionDisputeEscalated  = "dispute_escalated"
	ExecActionDisputeResolved   = "dispute_resolved"
	ExecActionTriggerExecuted   = "trigger_executed"
	ExecActionConditionMet      = "condition_satisfied"
)

// SystemActor identifies actions performed by the engine itself (automated
// triggers, sweeps) rather than a contract party.
const SystemActor = "system"

// ContractExecution is an append-only audit log entry with simulated gas and
// block metadata for observability. Entries are never mutated after append.
type ContractExecution struct {
	ID          uuid.UUID              `json:"id"`
	Action      string                 `json:"action"`
	Actor       string                 `json:"actor"`
	Timestamp   time.Time              `json:"timestamp"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
	Result      string                 `json:"result"`
	GasUsed     int64                  `json:"gasUsed"`
	BlockNumber int64                  `json:"blockNumber"`
	TxHash      string                 `json:"txHash"`
}
