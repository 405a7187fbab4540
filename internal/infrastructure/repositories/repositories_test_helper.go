package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"escrow-chain.backend/internal/domain/entities"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func newMigratedRepo(t *testing.T) *GormContractRepository {
	t.Helper()
	repo := NewGormContractRepository(newTestDB(t))
	require.NoError(t, repo.Migrate())
	return repo
}

func testContract(clientID, providerID string, createdAt time.Time) *entities.Contract {
	return &entities.Contract{
		ID:   uuid.New(),
		Type: entities.ContractTypeMilestone,
		Parties: []entities.ContractParty{
			{ID: clientID, Role: entities.PartyRoleClient, SignatureRequired: true, Signed: true},
			{ID: providerID, Role: entities.PartyRoleProvider, SignatureRequired: true, Signed: true},
		},
		Terms: entities.ContractTerms{
			TotalAmount: 1000,
			Currency:    "USD",
			Milestones: []entities.Milestone{
				{ID: uuid.New(), Description: "design", Amount: 600, Status: entities.MilestoneStatusPending},
				{ID: uuid.New(), Description: "launch", Amount: 400, Status: entities.MilestoneStatusPending},
			},
			StartDate: createdAt,
			EndDate:   createdAt.AddDate(0, 1, 0),
		},
		Status:    entities.ContractStatusActive,
		Funds:     entities.EscrowFunds{TotalAmount: 1000},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}
