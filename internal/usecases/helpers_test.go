package usecases_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"escrow-chain.backend/internal/domain/entities"
	"escrow-chain.backend/internal/infrastructure/repositories"
	"escrow-chain.backend/internal/usecases"
	"escrow-chain.backend/pkg/crypto"
	"escrow-chain.backend/pkg/utils"
)

const (
	clientID   = "client-1"
	providerID = "provider-1"

	// any non-trivial signature passes the simulation verifier
	testSignature = "sig-0123456789abcdef"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// recordingNotifier captures published notifications for assertions.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []usecases.PendingNotification
}

func (n *recordingNotifier) Notify(_ context.Context, contractID, recipient, kind, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, usecases.PendingNotification{
		ContractID: contractID,
		Recipient:  recipient,
		Kind:       kind,
		Message:    message,
	})
	return nil
}

func (n *recordingNotifier) len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

// engine wires the full usecase stack over the in-memory store with a
// controllable clock.
type engine struct {
	repo       *repositories.MemoryContractRepository
	contracts  *usecases.ContractUsecase
	escrow     *usecases.EscrowUsecase
	milestones *usecases.MilestoneUsecase
	disputes   *usecases.DisputeUsecase
	triggers   *usecases.TriggerEvaluator
	notifier   *recordingNotifier

	mu  sync.Mutex
	now time.Time
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	e := &engine{
		repo:     repositories.NewMemoryContractRepository(),
		notifier: &recordingNotifier{},
		now:      testTime,
	}
	clock := func() time.Time {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.now
	}

	conditions, err := usecases.NewConditionEvaluator()
	require.NoError(t, err)

	e.triggers = usecases.NewTriggerEvaluator(e.repo, conditions, e.notifier, clock)
	e.contracts = usecases.NewContractUsecase(e.repo, crypto.SimulationVerifier{}, e.triggers, clock)
	e.escrow = usecases.NewEscrowUsecase(e.repo, e.triggers, clock)
	e.milestones = usecases.NewMilestoneUsecase(e.repo, e.triggers, clock)
	e.disputes = usecases.NewDisputeUsecase(e.repo, e.triggers, clock)
	return e
}

func (e *engine) advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
}

// milestoneInput is the standard fixture: 1000 minor units across milestones
// of 600 and 400, manual verification, client and provider both required to
// sign.
func milestoneInput() entities.CreateContractInput {
	return entities.CreateContractInput{
		Type: entities.ContractTypeMilestone,
		Parties: []entities.ContractParty{
			{ID: clientID, Role: entities.PartyRoleClient, PublicKey: "pk-client", SignatureRequired: true},
			{ID: providerID, Role: entities.PartyRoleProvider, PublicKey: "pk-provider", SignatureRequired: true},
		},
		Terms: entities.ContractTerms{
			Description: "site build",
			TotalAmount: 1000,
			Currency:    "USD",
			Milestones: []entities.Milestone{
				{Description: "design", Amount: 600, VerificationMethod: entities.VerificationManual},
				{Description: "launch", Amount: 400, VerificationMethod: entities.VerificationManual},
			},
			StartDate:     testTime,
			EndDate:       testTime.Add(30 * 24 * time.Hour),
			DisputeMethod: entities.DisputeMethodNegotiation,
		},
	}
}

// createActive creates the fixture contract and signs it into active status.
func createActive(t *testing.T, e *engine, input entities.CreateContractInput) *entities.Contract {
	t.Helper()
	ctx := context.Background()
	c, err := e.contracts.CreateContract(ctx, input)
	require.NoError(t, err)
	for _, p := range input.Parties {
		if !p.SignatureRequired {
			continue
		}
		c, err = e.contracts.SignContract(ctx, c.ID, p.ID, testSignature)
		require.NoError(t, err)
	}
	require.Equal(t, entities.ContractStatusActive, c.Status)
	return c
}

// fund deposits the full contract amount from the client.
func fund(t *testing.T, e *engine, c *entities.Contract) *entities.Contract {
	t.Helper()
	funded, err := e.escrow.DepositFunds(context.Background(), c.ID, c.Terms.TotalAmount, clientID)
	require.NoError(t, err)
	return funded
}

// seedContract stores a hand-built active contract directly, for trigger and
// condition tests that need custom wiring the create path does not produce.
func seedContract(t *testing.T, e *engine, mutate func(*entities.Contract)) *entities.Contract {
	t.Helper()
	c := &entities.Contract{
		ID:   utils.GenerateUUIDv7(),
		Type: entities.ContractTypeEscrow,
		Parties: []entities.ContractParty{
			{ID: clientID, Role: entities.PartyRoleClient, PublicKey: "pk-client", Signed: true, SignatureRequired: true, SignedAt: null.TimeFrom(testTime)},
			{ID: providerID, Role: entities.PartyRoleProvider, PublicKey: "pk-provider", Signed: true, SignatureRequired: true, SignedAt: null.TimeFrom(testTime)},
		},
		Terms: entities.ContractTerms{
			Description:   "seeded",
			TotalAmount:   1000,
			Currency:      "USD",
			StartDate:     testTime,
			EndDate:       testTime.Add(30 * 24 * time.Hour),
			DisputeMethod: entities.DisputeMethodNegotiation,
		},
		Status:    entities.ContractStatusActive,
		Funds:     entities.EscrowFunds{TotalAmount: 1000},
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}
	if mutate != nil {
		mutate(c)
	}
	require.NoError(t, e.repo.Create(context.Background(), c))
	return c
}

// seedDeposit locks funds on a seeded contract with a matching confirmed
// deposit entry so the conservation invariant holds.
func seedDeposit(c *entities.Contract, amount int64) {
	c.Funds.Transactions = append(c.Funds.Transactions, entities.EscrowTransaction{
		ID:        utils.GenerateUUIDv7(),
		Type:      entities.TransactionTypeDeposit,
		Amount:    amount,
		From:      clientID,
		To:        "escrow",
		Timestamp: testTime,
		Status:    entities.TransactionStatusConfirmed,
	})
	c.Funds.LockedAmount += amount
}

func historyActions(c *entities.Contract) []string {
	out := make([]string, 0, len(c.ExecutionHistory))
	for i := range c.ExecutionHistory {
		out = append(out, c.ExecutionHistory[i].Action)
	}
	return out
}
