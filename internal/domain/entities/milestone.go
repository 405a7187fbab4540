package entities

import (
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// MilestoneStatus represents milestone workflow status
type MilestoneStatus string

const (
	MilestoneStatusPending    MilestoneStatus = "pending"
	MilestoneStatusInProgress MilestoneStatus = "in_progress"
	MilestoneStatusSubmitted  MilestoneStatus = "submitted"
	MilestoneStatusApproved   MilestoneStatus = "approved"
	MilestoneStatusPaid       MilestoneStatus = "paid"
	MilestoneStatusDisputed   MilestoneStatus = "disputed"
)

// VerificationMethod represents how milestone completion is verified
type VerificationMethod string

const (
	VerificationAutomatic  VerificationMethod = "automatic"
	VerificationManual     VerificationMethod = "manual"
	VerificationThirdParty VerificationMethod = "third_party"
)

// Milestone represents a discrete, separately-payable unit of contracted work.
// The lifecycle is strictly forward (pending -> in_progress -> submitted ->
// approved -> paid) except for a diversion to disputed.
type Milestone struct {
	ID                 uuid.UUID          `json:"id"`
	Description        string             `json:"description"`
	Amount             int64              `json:"amount"`
	Percentage         float64            `json:"percentage"`
	Requirements       []string           `json:"requirements,omitempty"`
	VerificationMethod VerificationMethod `json:"verificationMethod"`
	Status             MilestoneStatus    `json:"status"`
	Deadline           null.Time          `json:"deadline,omitempty"`
	Evidence           []string           `json:"evidence,omitempty"`
	SubmittedAt        null.Time          `json:"submittedAt,omitempty"`
	ApprovedAt         null.Time          `json:"approvedAt,omitempty"`
	PaidAt             null.Time          `json:"paidAt,omitempty"`
}

// milestoneRank orders the forward lifecycle for monotonicity checks.
var milestoneRank = map[MilestoneStatus]int{
	MilestoneStatusPending:    0,
	MilestoneStatusInProgress: 1,
	MilestoneStatusSubmitted:  2,
	MilestoneStatusApproved:   3,
	MilestoneStatusPaid:       4,
}

// CanTransitionTo reports whether moving from the current status to next is a
// legal milestone transition. Disputed is reachable from any non-paid status.
func (m *Milestone) CanTransitionTo(next MilestoneStatus) bool {
	if next == MilestoneStatusDisputed {
		return m.Status != MilestoneStatusPaid && m.Status != MilestoneStatusDisputed
	}
	cur, ok := milestoneRank[m.Status]
	if !ok {
		return false
	}
	nxt, ok := milestoneRank[next]
	if !ok {
		return false
	}
	return nxt == cur+1
}
