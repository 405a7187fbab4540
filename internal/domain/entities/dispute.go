package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// DisputeStatus represents dispute lifecycle status
type DisputeStatus string

const (
	DisputeStatusOpen          DisputeStatus = "open"
	DisputeStatusInvestigating DisputeStatus = "investigating"
	DisputeStatusResolved      DisputeStatus = "resolved"
	DisputeStatusEscalated     DisputeStatus = "escalated"
)

// DisputeEvent is a timeline entry on a dispute
type DisputeEvent struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Actor       string    `json:"actor"`
	Timestamp   time.Time `json:"timestamp"`
}

// Resolution is the final outcome of a dispute. PaymentDistribution and
// Penalties are keyed by party ID, amounts in minor units.
type Resolution struct {
	Decision            string           `json:"decision"`
	PaymentDistribution map[string]int64 `json:"paymentDistribution"`
	Penalties           map[string]int64 `json:"penalties,omitempty"`
	DecidedBy           string           `json:"decidedBy"`
	DecidedAt           time.Time        `json:"decidedAt"`
}

// DisputeResolution tracks a dispute from initiation through resolution
type DisputeResolution struct {
	ID          uuid.UUID      `json:"id"`
	InitiatedBy string         `json:"initiatedBy"`
	Reason      string         `json:"reason"`
	Evidence    []string       `json:"evidence,omitempty"`
	Mediator    null.String    `json:"mediator,omitempty"`
	Status      DisputeStatus  `json:"status"`
	Resolution  *Resolution    `json:"resolution,omitempty"`
	Timeline    []DisputeEvent `json:"timeline"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Active reports whether the dispute still blocks normal fund flow.
func (d *DisputeResolution) Active() bool {
	return d.Status == DisputeStatusOpen || d.Status == DisputeStatusInvestigating || d.Status == DisputeStatusEscalated
}

// Clone returns a deep copy of the dispute.
func (d *DisputeResolution) Clone() *DisputeResolution {
	out := *d
	out.Evidence = append([]string(nil), d.Evidence...)
	out.Timeline = append([]DisputeEvent(nil), d.Timeline...)
	if d.Resolution != nil {
		res := *d.Resolution
		res.PaymentDistribution = cloneAmounts(d.Resolution.PaymentDistribution)
		res.Penalties = cloneAmounts(d.Resolution.Penalties)
		out.Resolution = &res
	}
	return &out
}

func cloneAmounts(in map[string]int64) map[string]int64 {
	if in == nil {
		return nil
	}
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
