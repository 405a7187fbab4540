package usecases_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"escrow-chain.backend/internal/domain/entities"
	domainerrors "escrow-chain.backend/internal/domain/errors"
)

func TestMilestoneWorkflow_FullContract(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	c := fund(t, e, createActive(t, e, milestoneInput()))
	m1 := c.Terms.Milestones[0].ID
	m2 := c.Terms.Milestones[1].ID

	c, err := e.milestones.StartMilestone(ctx, c.ID, m1, providerID)
	require.NoError(t, err)
	assert.Equal(t, entities.MilestoneStatusInProgress, c.Milestone(m1).Status)

	c, err = e.milestones.SubmitMilestone(ctx, c.ID, m1, []string{"https://evidence/1"}, providerID)
	require.NoError(t, err)
	assert.Equal(t, entities.MilestoneStatusSubmitted, c.Milestone(m1).Status)
	assert.True(t, c.Milestone(m1).SubmittedAt.Valid)
	assert.Equal(t, []string{"https://evidence/1"}, c.Milestone(m1).Evidence)

	c, err = e.milestones.ApproveMilestone(ctx, c.ID, m1, clientID)
	require.NoError(t, err)
	assert.Equal(t, entities.MilestoneStatusPaid, c.Milestone(m1).Status)
	assert.True(t, c.Milestone(m1).PaidAt.Valid)
	assert.Equal(t, int64(400), c.Funds.LockedAmount)
	assert.Equal(t, int64(600), c.Funds.ReleasedAmount)
	assert.Equal(t, entities.ContractStatusActive, c.Status)

	// milestone payment is tagged with the milestone
	last := c.Funds.Transactions[len(c.Funds.Transactions)-1]
	require.NotNil(t, last.MilestoneID)
	assert.Equal(t, m1, *last.MilestoneID)
	assert.Equal(t, providerID, last.To)

	c, err = e.milestones.StartMilestone(ctx, c.ID, m2, providerID)
	require.NoError(t, err)
	c, err = e.milestones.SubmitMilestone(ctx, c.ID, m2, []string{"https://evidence/2"}, providerID)
	require.NoError(t, err)
	c, err = e.milestones.ApproveMilestone(ctx, c.ID, m2, clientID)
	require.NoError(t, err)

	// last milestone paid completes the contract
	assert.Equal(t, entities.ContractStatusCompleted, c.Status)
	assert.True(t, c.CompletedAt.Valid)
	assert.Zero(t, c.Funds.LockedAmount)
	assert.Equal(t, int64(1000), c.Funds.ReleasedAmount)
	assert.True(t, c.Funds.Conserved())
	assert.Contains(t, historyActions(c), entities.ExecActionContractCompleted)
}

func TestSubmitMilestone_AutomaticVerificationPaysImmediately(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	input := milestoneInput()
	input.Terms.Milestones[0].VerificationMethod = entities.VerificationAutomatic
	c := fund(t, e, createActive(t, e, input))
	m1 := c.Terms.Milestones[0].ID

	c, err := e.milestones.StartMilestone(ctx, c.ID, m1, providerID)
	require.NoError(t, err)
	c, err = e.milestones.SubmitMilestone(ctx, c.ID, m1, []string{"ci-run-42"}, providerID)
	require.NoError(t, err)

	assert.Equal(t, entities.MilestoneStatusPaid, c.Milestone(m1).Status)
	assert.Equal(t, int64(600), c.Funds.ReleasedAmount)

	// the automatic approval is recorded as a system action
	var approval *entities.ContractExecution
	for i := range c.ExecutionHistory {
		if c.ExecutionHistory[i].Action == entities.ExecActionMilestoneApproved {
			approval = &c.ExecutionHistory[i]
		}
	}
	require.NotNil(t, approval)
	assert.Equal(t, entities.SystemActor, approval.Actor)
}

func TestApproveMilestone_InsufficientFundsAbortsApproval(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	c := createActive(t, e, milestoneInput())
	m1 := c.Terms.Milestones[0].ID

	// only 500 locked, milestone needs 600
	_, err := e.escrow.DepositFunds(ctx, c.ID, 500, clientID)
	require.NoError(t, err)

	_, err = e.milestones.StartMilestone(ctx, c.ID, m1, providerID)
	require.NoError(t, err)
	_, err = e.milestones.SubmitMilestone(ctx, c.ID, m1, nil, providerID)
	require.NoError(t, err)

	_, err = e.milestones.ApproveMilestone(ctx, c.ID, m1, clientID)
	assert.ErrorIs(t, err, domainerrors.ErrInsufficientFunds)

	// failed approval rolls back entirely: milestone still submitted
	after, err := e.contracts.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.MilestoneStatusSubmitted, after.Milestone(m1).Status)
	assert.Equal(t, int64(500), after.Funds.LockedAmount)
	assert.Zero(t, after.Funds.ReleasedAmount)
}

func TestRejectMilestone_ReturnsToInProgress(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	c := fund(t, e, createActive(t, e, milestoneInput()))
	m1 := c.Terms.Milestones[0].ID

	_, err := e.milestones.StartMilestone(ctx, c.ID, m1, providerID)
	require.NoError(t, err)
	_, err = e.milestones.SubmitMilestone(ctx, c.ID, m1, []string{"draft"}, providerID)
	require.NoError(t, err)

	c, err = e.milestones.RejectMilestone(ctx, c.ID, m1, clientID, "missing pages")
	require.NoError(t, err)
	assert.Equal(t, entities.MilestoneStatusInProgress, c.Milestone(m1).Status)
	assert.False(t, c.Milestone(m1).SubmittedAt.Valid)
	assert.Contains(t, historyActions(c), entities.ExecActionMilestoneRejected)

	// resubmission after rework succeeds
	c, err = e.milestones.SubmitMilestone(ctx, c.ID, m1, []string{"final"}, providerID)
	require.NoError(t, err)
	assert.Equal(t, entities.MilestoneStatusSubmitted, c.Milestone(m1).Status)
}

func TestMilestoneTransitions_Enforced(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	c := fund(t, e, createActive(t, e, milestoneInput()))
	m1 := c.Terms.Milestones[0].ID

	// submit before start
	_, err := e.milestones.SubmitMilestone(ctx, c.ID, m1, nil, providerID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidState)

	// approve before submit
	_, err = e.milestones.ApproveMilestone(ctx, c.ID, m1, clientID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidState)

	// reject before submit
	_, err = e.milestones.RejectMilestone(ctx, c.ID, m1, clientID, "nope")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidState)

	_, err = e.milestones.StartMilestone(ctx, c.ID, m1, providerID)
	require.NoError(t, err)

	// double start
	_, err = e.milestones.StartMilestone(ctx, c.ID, m1, providerID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidState)

	// unknown milestone
	_, err = e.milestones.StartMilestone(ctx, c.ID, uuid.New(), providerID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestMilestoneOperations_BlockedWhileDisputed(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	c := fund(t, e, createActive(t, e, milestoneInput()))
	m1 := c.Terms.Milestones[0].ID

	_, err := e.milestones.StartMilestone(ctx, c.ID, m1, providerID)
	require.NoError(t, err)
	_, err = e.disputes.InitiateDispute(ctx, c.ID, clientID, "stalled", nil)
	require.NoError(t, err)

	_, err = e.milestones.SubmitMilestone(ctx, c.ID, m1, nil, providerID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidState)
	_, err = e.milestones.ApproveMilestone(ctx, c.ID, m1, clientID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidState)
}
