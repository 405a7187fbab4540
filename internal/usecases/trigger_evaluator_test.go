package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"escrow-chain.backend/internal/domain/entities"
	"escrow-chain.backend/pkg/utils"
)

func TestTriggerEvaluator_DeadlineApproachingFiresOnce(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	input := milestoneInput()
	input.Terms.Milestones[0].Deadline = null.TimeFrom(testTime.Add(10 * time.Hour))
	c := createActive(t, e, input)

	// deadline is 10h out, inside the 24h warning window
	require.NoError(t, e.triggers.EvaluateContract(ctx, c.ID))
	require.Equal(t, 1, e.notifier.len())
	assert.Equal(t, providerID, e.notifier.calls[0].Recipient)
	assert.Equal(t, string(entities.EventDeadlineApproaching), e.notifier.calls[0].Kind)

	after, err := e.contracts.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, after.AutomatedTriggers[0].Executed)
	assert.True(t, after.AutomatedTriggers[0].ExecutedAt.Valid)
	assert.Contains(t, historyActions(after), entities.ExecActionTriggerExecuted)

	// a second pass never re-fires
	require.NoError(t, e.triggers.EvaluateContract(ctx, c.ID))
	assert.Equal(t, 1, e.notifier.len())
}

func TestTriggerEvaluator_DeadlineOutsideWindowDoesNotFire(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	input := milestoneInput()
	input.Terms.Milestones[0].Deadline = null.TimeFrom(testTime.Add(72 * time.Hour))
	c := createActive(t, e, input)

	require.NoError(t, e.triggers.EvaluateContract(ctx, c.ID))
	assert.Zero(t, e.notifier.len())

	// once time advances into the window, it fires
	e.advance(60 * time.Hour)
	require.NoError(t, e.triggers.EvaluateContract(ctx, c.ID))
	assert.Equal(t, 1, e.notifier.len())
}

func TestTriggerEvaluator_ContractExpires(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	c := createActive(t, e, milestoneInput())
	e.advance(31 * 24 * time.Hour)

	require.NoError(t, e.triggers.EvaluateContract(ctx, c.ID))

	after, err := e.contracts.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ContractStatusExpired, after.Status)
	assert.Contains(t, historyActions(after), entities.ExecActionContractExpired)
}

func TestTriggerEvaluator_ConditionArmsNamedTrigger(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	triggerID := utils.GenerateUUIDv7()
	c := seedContract(t, e, func(c *entities.Contract) {
		seedDeposit(c, 1000)
		c.Conditions = []entities.ContractCondition{{
			ID:         utils.GenerateUUIDv7(),
			Type:       entities.ConditionExternalData,
			Expression: "lockedAmount >= totalAmount",
			Triggers:   []string{triggerID.String()},
		}}
		c.AutomatedTriggers = []entities.AutomatedTrigger{{
			ID:     triggerID,
			Event:  entities.EventFundingComplete,
			Action: entities.ActionSendNotification,
			Parameters: map[string]interface{}{
				"recipient": providerID,
				"message":   "funding target reached",
			},
		}}
	})

	require.NoError(t, e.triggers.EvaluateContract(ctx, c.ID))

	after, err := e.contracts.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, after.Conditions[0].Satisfied)
	assert.True(t, after.Conditions[0].SatisfiedAt.Valid)
	assert.True(t, after.AutomatedTriggers[0].Executed)
	assert.Equal(t, 1, e.notifier.len())
	assert.Contains(t, historyActions(after), entities.ExecActionConditionMet)

	// satisfied conditions are not re-evaluated
	require.NoError(t, e.triggers.EvaluateContract(ctx, c.ID))
	assert.Equal(t, 1, e.notifier.len())
}

func TestTriggerEvaluator_ConditionGateBlocksTrigger(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	c := seedContract(t, e, func(c *entities.Contract) {
		c.Terms.Milestones = []entities.Milestone{{
			ID:                 utils.GenerateUUIDv7(),
			Description:        "gated",
			Amount:             1000,
			Status:             entities.MilestoneStatusPending,
			VerificationMethod: entities.VerificationManual,
			Deadline:           null.TimeFrom(testTime.Add(time.Hour)),
		}}
		c.AutomatedTriggers = []entities.AutomatedTrigger{{
			ID:        utils.GenerateUUIDv7(),
			Event:     entities.EventDeadlineApproaching,
			Condition: "lockedAmount >= totalAmount",
			Action:    entities.ActionSendNotification,
			Parameters: map[string]interface{}{
				"milestoneId": c.Terms.Milestones[0].ID.String(),
				"recipient":   providerID,
				"message":     "deadline soon",
			},
		}}
	})

	// unfunded: the gate fails even though the deadline event is satisfied
	require.NoError(t, e.triggers.EvaluateContract(ctx, c.ID))
	assert.Zero(t, e.notifier.len())

	after, err := e.contracts.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, after.AutomatedTriggers[0].Executed)
}

func TestTriggerEvaluator_ReleasePaymentAction(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	c := seedContract(t, e, func(c *entities.Contract) {
		seedDeposit(c, 1000)
		c.AutomatedTriggers = []entities.AutomatedTrigger{{
			ID:     utils.GenerateUUIDv7(),
			Event:  entities.EventPaymentOverdue,
			Action: entities.ActionReleasePayment,
			Parameters: map[string]interface{}{
				"dueDate": testTime.Add(-time.Hour).Format(time.RFC3339),
				"amount":  float64(250), // JSON numbers arrive as float64
			},
		}}
	})

	require.NoError(t, e.triggers.EvaluateContract(ctx, c.ID))

	after, err := e.contracts.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, after.AutomatedTriggers[0].Executed)
	assert.Equal(t, int64(750), after.Funds.LockedAmount)
	assert.Equal(t, int64(250), after.Funds.ReleasedAmount)

	// with no "to" parameter the provider is the default recipient
	last := after.Funds.Transactions[len(after.Funds.Transactions)-1]
	assert.Equal(t, providerID, last.To)
	assert.True(t, after.Funds.Conserved())
}

func TestTriggerEvaluator_StartDisputeAction(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	c := seedContract(t, e, func(c *entities.Contract) {
		seedDeposit(c, 500)
		c.AutomatedTriggers = []entities.AutomatedTrigger{{
			ID:     utils.GenerateUUIDv7(),
			Event:  entities.EventPaymentOverdue,
			Action: entities.ActionStartDispute,
			Parameters: map[string]interface{}{
				"dueDate": testTime.Add(-time.Hour).Format(time.RFC3339),
			},
		}}
	})

	require.NoError(t, e.triggers.EvaluateContract(ctx, c.ID))

	after, err := e.contracts.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ContractStatusDisputed, after.Status)
	require.NotNil(t, after.Dispute)
	assert.Equal(t, entities.SystemActor, after.Dispute.InitiatedBy)
	assert.Equal(t, int64(500), after.Funds.DisputedAmount)
}

func TestTriggerEvaluator_ExtendDeadlineAction(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	deadline := testTime.Add(2 * time.Hour)
	var milestoneID string
	c := seedContract(t, e, func(c *entities.Contract) {
		c.Terms.Milestones = []entities.Milestone{{
			ID:                 utils.GenerateUUIDv7(),
			Description:        "slipping",
			Amount:             1000,
			Status:             entities.MilestoneStatusInProgress,
			VerificationMethod: entities.VerificationManual,
			Deadline:           null.TimeFrom(deadline),
		}}
		milestoneID = c.Terms.Milestones[0].ID.String()
		c.AutomatedTriggers = []entities.AutomatedTrigger{{
			ID:     utils.GenerateUUIDv7(),
			Event:  entities.EventPaymentOverdue,
			Action: entities.ActionExtendDeadline,
			Parameters: map[string]interface{}{
				"dueDate":        testTime.Add(-time.Hour).Format(time.RFC3339),
				"milestoneId":    milestoneID,
				"extensionHours": float64(48),
			},
		}}
	})

	require.NoError(t, e.triggers.EvaluateContract(ctx, c.ID))

	after, err := e.contracts.GetContract(ctx, c.ID)
	require.NoError(t, err)
	got := after.Terms.Milestones[0].Deadline.Time
	assert.True(t, got.Equal(deadline.Add(48*time.Hour)))
}

func TestSweep_EvaluatesOnlyActiveContracts(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	// active, inside warning window: fires
	input := milestoneInput()
	input.Terms.Milestones[0].Deadline = null.TimeFrom(testTime.Add(time.Hour))
	createActive(t, e, input)

	// draft contract with the same deadline: skipped
	draftInput := milestoneInput()
	draftInput.Terms.Milestones[0].Deadline = null.TimeFrom(testTime.Add(time.Hour))
	_, err := e.contracts.CreateContract(ctx, draftInput)
	require.NoError(t, err)

	e.triggers.Sweep(ctx)
	assert.Equal(t, 1, e.notifier.len())
}

func TestTriggerEvaluator_QueueCarriesNotices(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	input := milestoneInput()
	input.Terms.Milestones[0].Deadline = null.TimeFrom(testTime.Add(time.Hour))
	c := createActive(t, e, input)

	require.NoError(t, e.triggers.EvaluateContract(ctx, c.ID))
	notices := e.triggers.Queue().Drain()
	require.NotEmpty(t, notices)
	assert.Equal(t, c.ID, notices[0].ContractID)
	assert.Equal(t, entities.ExecActionTriggerExecuted, notices[0].Action)
	assert.Zero(t, e.triggers.Queue().Len())
}
