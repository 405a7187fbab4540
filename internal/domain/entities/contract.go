package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// ContractType represents the kind of escrow contract
type ContractType string

const (
	ContractTypeEscrow            ContractType = "escrow"
	ContractTypeMilestone         ContractType = "milestone"
	ContractTypeDisputeResolution ContractType = "dispute_resolution"
	ContractTypeRecurring         ContractType = "recurring"
	ContractTypeMultiParty        ContractType = "multi_party"
)

// ContractStatus represents contract lifecycle status
type ContractStatus string

const (
	ContractStatusDraft     ContractStatus = "draft"
	ContractStatusActive    ContractStatus = "active"
	ContractStatusCompleted ContractStatus = "completed"
	ContractStatusDisputed  ContractStatus = "disputed"
	ContractStatusCancelled ContractStatus = "cancelled"
	ContractStatusExpired   ContractStatus = "expired"
)

// IsTerminal reports whether the status admits no further transitions.
func (s ContractStatus) IsTerminal() bool {
	return s == ContractStatusCompleted || s == ContractStatusCancelled || s == ContractStatusExpired
}

// PartyRole represents the role a party plays in a contract
type PartyRole string

const (
	PartyRoleClient    PartyRole = "client"
	PartyRoleProvider  PartyRole = "provider"
	PartyRoleMediator  PartyRole = "mediator"
	PartyRoleGuarantor PartyRole = "guarantor"
)

// DisputeMethod represents how disputes on a contract are resolved
type DisputeMethod string

const (
	DisputeMethodNegotiation DisputeMethod = "negotiation"
	DisputeMethodMediation   DisputeMethod = "mediation"
	DisputeMethodArbitration DisputeMethod = "arbitration"
)

// ContractParty represents a signatory or participant
type ContractParty struct {
	ID                string      `json:"id"`
	Role              PartyRole   `json:"role"`
	PublicKey         string      `json:"publicKey"`
	SignatureRequired bool        `json:"signatureRequired"`
	Signed            bool        `json:"signed"`
	SignedAt          null.Time   `json:"signedAt,omitempty"`
	Permissions       []string    `json:"permissions,omitempty"`
}

// ContractTerms holds the agreed terms. Immutable once the contract activates,
// except for milestone deadline extensions applied by automated triggers.
type ContractTerms struct {
	Description         string        `json:"description"`
	TotalAmount         int64         `json:"totalAmount"` // minor units
	Currency            string        `json:"currency"`
	Milestones          []Milestone   `json:"milestones"`
	StartDate           time.Time     `json:"startDate"`
	EndDate             time.Time     `json:"endDate"`
	QualityStandards    []string      `json:"qualityStandards,omitempty"`
	CancellationPolicy  string        `json:"cancellationPolicy,omitempty"`
	DisputeMethod       DisputeMethod `json:"disputeResolutionMethod"`
	AutoReleaseConds    []string      `json:"autoReleaseConditions,omitempty"`
}

// Contract is the central aggregate. The contract store exclusively owns the
// aggregate and everything nested in it.
type Contract struct {
	ID               uuid.UUID          `json:"id"`
	Type             ContractType       `json:"type"`
	Parties          []ContractParty    `json:"parties"`
	Terms            ContractTerms      `json:"terms"`
	Status           ContractStatus     `json:"status"`
	Funds            EscrowFunds        `json:"funds"`
	Conditions       []ContractCondition `json:"conditions,omitempty"`
	AutomatedTriggers []AutomatedTrigger `json:"automatedTriggers,omitempty"`
	ExecutionHistory []ContractExecution `json:"executionHistory"`
	Dispute          *DisputeResolution `json:"disputeResolution,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
	ActivatedAt      null.Time          `json:"activatedAt,omitempty"`
	CompletedAt      null.Time          `json:"completedAt,omitempty"`
}

// Party returns the party with the given ID, or nil.
func (c *Contract) Party(partyID string) *ContractParty {
	for i := range c.Parties {
		if c.Parties[i].ID == partyID {
			return &c.Parties[i]
		}
	}
	return nil
}

// PartyByRole returns the first party with the given role, or nil.
func (c *Contract) PartyByRole(role PartyRole) *ContractParty {
	for i := range c.Parties {
		if c.Parties[i].Role == role {
			return &c.Parties[i]
		}
	}
	return nil
}

// AllRequiredSigned reports whether every signature-required party has signed.
func (c *Contract) AllRequiredSigned() bool {
	for i := range c.Parties {
		if c.Parties[i].SignatureRequired && !c.Parties[i].Signed {
			return false
		}
	}
	return true
}

// Milestone returns the milestone with the given ID, or nil.
func (c *Contract) Milestone(milestoneID uuid.UUID) *Milestone {
	for i := range c.Terms.Milestones {
		if c.Terms.Milestones[i].ID == milestoneID {
			return &c.Terms.Milestones[i]
		}
	}
	return nil
}

// AllMilestonesPaid reports whether every milestone has reached paid.
func (c *Contract) AllMilestonesPaid() bool {
	if len(c.Terms.Milestones) == 0 {
		return false
	}
	for i := range c.Terms.Milestones {
		if c.Terms.Milestones[i].Status != MilestoneStatusPaid {
			return false
		}
	}
	return true
}

// MilestoneCount returns how many milestones have reached at least the given
// status ordinal (approved counts paid milestones too).
func (c *Contract) MilestonesApproved() int {
	n := 0
	for i := range c.Terms.Milestones {
		s := c.Terms.Milestones[i].Status
		if s == MilestoneStatusApproved || s == MilestoneStatusPaid {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the contract so callers can read an aggregate
// without holding the store lock.
func (c *Contract) Clone() *Contract {
	out := *c
	out.Parties = append([]ContractParty(nil), c.Parties...)
	for i := range out.Parties {
		out.Parties[i].Permissions = append([]string(nil), c.Parties[i].Permissions...)
	}
	out.Terms.Milestones = append([]Milestone(nil), c.Terms.Milestones...)
	for i := range out.Terms.Milestones {
		out.Terms.Milestones[i].Requirements = append([]string(nil), c.Terms.Milestones[i].Requirements...)
		out.Terms.Milestones[i].Evidence = append([]string(nil), c.Terms.Milestones[i].Evidence...)
	}
	out.Terms.QualityStandards = append([]string(nil), c.Terms.QualityStandards...)
	out.Terms.AutoReleaseConds = append([]string(nil), c.Terms.AutoReleaseConds...)
	out.Funds.Transactions = append([]EscrowTransaction(nil), c.Funds.Transactions...)
	out.Conditions = append([]ContractCondition(nil), c.Conditions...)
	for i := range out.Conditions {
		out.Conditions[i].Triggers = append([]string(nil), c.Conditions[i].Triggers...)
	}
	out.AutomatedTriggers = append([]AutomatedTrigger(nil), c.AutomatedTriggers...)
	for i := range out.AutomatedTriggers {
		out.AutomatedTriggers[i].Parameters = cloneParams(c.AutomatedTriggers[i].Parameters)
	}
	out.ExecutionHistory = append([]ContractExecution(nil), c.ExecutionHistory...)
	for i := range out.ExecutionHistory {
		out.ExecutionHistory[i].Parameters = cloneParams(c.ExecutionHistory[i].Parameters)
	}
	if c.Dispute != nil {
		d := c.Dispute.Clone()
		out.Dispute = d
	}
	return &out
}

func cloneParams(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// CreateContractInput represents input for creating a contract
type CreateContractInput struct {
	Type    ContractType    `json:"type" binding:"required"`
	Parties []ContractParty `json:"parties" binding:"required"`
	Terms   ContractTerms   `json:"terms" binding:"required"`
}
