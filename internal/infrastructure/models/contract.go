package models

import (
	"time"
)

// ContractRecord is the persistence row for a contract aggregate. The nested
// aggregate (parties, funds, milestones, dispute, history) is serialized as a
// JSON payload; the columns exist for querying only and the payload is the
// source of truth on load.
type ContractRecord struct {
	ID          string    `gorm:"primaryKey;type:uuid"`
	Type        string    `gorm:"index"`
	Status      string    `gorm:"index"`
	Currency    string
	TotalAmount int64
	Payload     []byte `gorm:"type:jsonb"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ContractRecord) TableName() string {
	return "contracts"
}

// ContractPartyRecord joins parties to contracts for GetByParty queries.
type ContractPartyRecord struct {
	ContractID string `gorm:"primaryKey;type:uuid;index"`
	PartyID    string `gorm:"primaryKey;index"`
	Role       string
}

func (ContractPartyRecord) TableName() string {
	return "contract_parties"
}
