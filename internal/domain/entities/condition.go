package entities

import (
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// ConditionType classifies declarative contract conditions
type ConditionType string

const (
	ConditionTimeBased      ConditionType = "time_based"
	ConditionMilestoneBased ConditionType = "milestone_based"
	ConditionQualityBased   ConditionType = "quality_based"
	ConditionExternalData   ConditionType = "external_data"
)

// ContractCondition is a declarative condition evaluated by the background
// sweep. Expression is a CEL expression over the contract activation (see
// usecases.ConditionEvaluator). When a condition becomes satisfied it fires
// the automated triggers named in Triggers (by trigger ID).
type ContractCondition struct {
	ID          uuid.UUID     `json:"id"`
	Type        ConditionType `json:"type"`
	Description string        `json:"description,omitempty"`
	Expression  string        `json:"expression"`
	Satisfied   bool          `json:"satisfied"`
	SatisfiedAt null.Time     `json:"satisfiedAt,omitempty"`
	Triggers    []string      `json:"triggers,omitempty"`
}

// TriggerEvent names the situations an automated trigger can react to
type TriggerEvent string

const (
	EventDeadlineApproaching TriggerEvent = "deadline_approaching"
	EventPaymentOverdue      TriggerEvent = "payment_overdue"
	EventQualityThresholdMet TriggerEvent = "quality_threshold_met"
	EventContractActivated   TriggerEvent = "contract_activated"
	EventFundingComplete     TriggerEvent = "funding_complete"
	EventContractComplete    TriggerEvent = "contract_complete"
)

// TriggerAction names the side effects a trigger can perform
type TriggerAction string

const (
	ActionReleasePayment   TriggerAction = "release_payment"
	ActionStartDispute     TriggerAction = "start_dispute"
	ActionSendNotification TriggerAction = "send_notification"
	ActionExtendDeadline   TriggerAction = "extend_deadline"
)

// AutomatedTrigger is a fire-once automated rule. Condition, when set, is an
// additional CEL gate evaluated before the action dispatches.
type AutomatedTrigger struct {
	ID         uuid.UUID              `json:"id"`
	Event      TriggerEvent           `json:"event"`
	Condition  string                 `json:"condition,omitempty"`
	Action     TriggerAction          `json:"action"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Executed   bool                   `json:"executed"`
	ExecutedAt null.Time              `json:"executedAt,omitempty"`
}
