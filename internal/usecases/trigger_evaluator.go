package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"github.com/volatiletech/null/v8"
	"escrow-chain.backend/internal/domain/entities"
	domainRepos "escrow-chain.backend/internal/domain/repositories"
	"escrow-chain.backend/pkg/logger"
	"escrow-chain.backend/pkg/metrics"
)

// Notifier delivers send_notification trigger payloads. Delivery is
// best-effort and carries no transactional meaning.
type Notifier interface {
	Notify(ctx context.Context, contractID, recipient, kind, message string) error
}

// PendingNotification is a notification produced inside a store update and
// published after the update commits.
type PendingNotification struct {
	ContractID string
	Recipient  string
	Kind       string
	Message    string
}

// TriggerEvaluator evaluates automated triggers and contract conditions. The
// background sweep calls Sweep periodically; foreground operations fire
// lifecycle events (contract_activated, funding_complete, contract_complete)
// through FireEvent inside their own store updates.
type TriggerEvaluator struct {
	repo       domainRepos.ContractRepository
	conditions *ConditionEvaluator
	notifier   Notifier
	queue      *ExecutionQueue
	clock      Clock
}

// NewTriggerEvaluator creates the evaluator. notifier may be nil, in which
// case notifications are logged and dropped.
func NewTriggerEvaluator(repo domainRepos.ContractRepository, conditions *ConditionEvaluator, notifier Notifier, clock Clock) *TriggerEvaluator {
	return &TriggerEvaluator{
		repo:       repo,
		conditions: conditions,
		notifier:   notifier,
		queue:      NewExecutionQueue(),
		clock:      orNow(clock),
	}
}

// Queue returns the advisory execution queue drained by the logging job.
func (e *TriggerEvaluator) Queue() *ExecutionQueue {
	return e.queue
}

// Sweep evaluates every active contract. A failure on one contract never
// halts evaluation for the others.
func (e *TriggerEvaluator) Sweep(ctx context.Context) {
	metrics.SweepRuns.Inc()
	contracts, err := e.repo.ListByStatus(ctx, entities.ContractStatusActive)
	if err != nil {
		metrics.SweepErrors.Inc()
		logger.Error(ctx, "trigger sweep: listing active contracts failed", zap.Error(err))
		return
	}

	for _, c := range contracts {
		if err := e.EvaluateContract(ctx, c.ID); err != nil {
			metrics.SweepErrors.Inc()
			logger.Error(ctx, "trigger sweep: contract evaluation failed",
				zap.String("contract_id", c.ID.String()), zap.Error(err))
		}
	}
}

// EvaluateContract runs one evaluation pass over a single contract: deadline
// expiry, condition satisfaction and time-based triggers.
func (e *TriggerEvaluator) EvaluateContract(ctx context.Context, contractID uuid.UUID) error {
	var pending []PendingNotification
	_, err := e.repo.Update(ctx, contractID, func(c *entities.Contract) error {
		if c.Status != entities.ContractStatusActive {
			return nil
		}
		now := e.clock()
		pending = e.evaluate(c, now)
		return nil
	})
	if err != nil {
		return err
	}
	e.Publish(ctx, pending)
	return nil
}

func (e *TriggerEvaluator) evaluate(c *entities.Contract, now time.Time) []PendingNotification {
	var pending []PendingNotification

	// Contract deadline passed: the contract expires unless it already
	// finished or a dispute froze it.
	if !c.Terms.EndDate.IsZero() && now.After(c.Terms.EndDate) {
		c.Status = entities.ContractStatusExpired
		logExecution(c, entities.ExecActionContractExpired, entities.SystemActor, nil, "expired", now)
		e.queue.Push(ExecutionNotice{ContractID: c.ID, Action: entities.ExecActionContractExpired, Actor: entities.SystemActor, At: now})
		return pending
	}

	// Conditions: a satisfied condition arms the triggers it names by ID.
	for i := range c.Conditions {
		cond := &c.Conditions[i]
		if cond.Satisfied || cond.Expression == "" {
			continue
		}
		ok, err := e.conditions.Evaluate(cond.Expression, c, now)
		if err != nil {
			logger.Warn(context.Background(), "condition evaluation failed",
				zap.String("contract_id", c.ID.String()),
				zap.String("condition_id", cond.ID.String()),
				zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		cond.Satisfied = true
		cond.SatisfiedAt = null.TimeFrom(now)
		logExecution(c, entities.ExecActionConditionMet, entities.SystemActor, map[string]interface{}{
			"conditionId": cond.ID.String(),
			"expression":  cond.Expression,
		}, "satisfied", now)
		for _, name := range cond.Triggers {
			if t := findTrigger(c, name); t != nil && !t.Executed {
				pending = append(pending, e.execute(c, t, now)...)
			}
		}
	}

	// Time-based triggers.
	for i := range c.AutomatedTriggers {
		t := &c.AutomatedTriggers[i]
		if t.Executed {
			continue
		}
		if !e.eventSatisfied(c, t, now) {
			continue
		}
		if !e.conditionGatePasses(c, t, now) {
			continue
		}
		pending = append(pending, e.execute(c, t, now)...)
	}
	return pending
}

// FireEvent executes non-executed triggers registered for a lifecycle event.
// Callers invoke it inside their own store update and publish the returned
// notifications after commit.
func (e *TriggerEvaluator) FireEvent(c *entities.Contract, event entities.TriggerEvent, now time.Time) []PendingNotification {
	var pending []PendingNotification
	for i := range c.AutomatedTriggers {
		t := &c.AutomatedTriggers[i]
		if t.Executed || t.Event != event {
			continue
		}
		if !e.conditionGatePasses(c, t, now) {
			continue
		}
		pending = append(pending, e.execute(c, t, now)...)
	}
	return pending
}

// Publish delivers pending notifications. Failures are logged and dropped.
func (e *TriggerEvaluator) Publish(ctx context.Context, pending []PendingNotification) {
	for _, n := range pending {
		if e.notifier == nil {
			logger.Info(ctx, "notification (no publisher configured)",
				zap.String("contract_id", n.ContractID),
				zap.String("recipient", n.Recipient),
				zap.String("message", n.Message))
			continue
		}
		if err := e.notifier.Notify(ctx, n.ContractID, n.Recipient, n.Kind, n.Message); err != nil {
			logger.Warn(ctx, "notification publish failed",
				zap.String("contract_id", n.ContractID), zap.Error(err))
		}
	}
}

// execute marks the trigger executed and dispatches its action. The executed
// flag flips before dispatch, so a re-run of the sweep never double-fires even
// if the action fails. A panicking action is contained to this trigger.
func (e *TriggerEvaluator) execute(c *entities.Contract, t *entities.AutomatedTrigger, now time.Time) (pending []PendingNotification) {
	t.Executed = true
	t.ExecutedAt = null.TimeFrom(now)

	result := "ok"
	defer func() {
		if r := recover(); r != nil {
			result = "panic"
			logger.Error(context.Background(), "trigger action panicked",
				zap.String("contract_id", c.ID.String()),
				zap.String("trigger_id", t.ID.String()),
				zap.Any("panic", r))
		}
		logExecution(c, entities.ExecActionTriggerExecuted, entities.SystemActor, map[string]interface{}{
			"triggerId": t.ID.String(),
			"event":     string(t.Event),
			"action":    string(t.Action),
		}, result, now)
		e.queue.Push(ExecutionNotice{ContractID: c.ID, Action: entities.ExecActionTriggerExecuted, Actor: entities.SystemActor, At: now})
		metrics.TriggersExecuted.Inc()
	}()

	switch t.Action {
	case entities.ActionReleasePayment:
		if err := e.actionReleasePayment(c, t, now); err != nil {
			result = "failed: " + err.Error()
		}
	case entities.ActionStartDispute:
		if err := e.actionStartDispute(c, t, now); err != nil {
			result = "failed: " + err.Error()
		}
	case entities.ActionSendNotification:
		pending = append(pending, PendingNotification{
			ContractID: c.ID.String(),
			Recipient:  paramString(t.Parameters, "recipient"),
			Kind:       string(t.Event),
			Message:    paramString(t.Parameters, "message"),
		})
	case entities.ActionExtendDeadline:
		if err := e.actionExtendDeadline(c, t, now); err != nil {
			result = "failed: " + err.Error()
		}
	default:
		result = "skipped: unknown action"
	}
	return pending
}

func (e *TriggerEvaluator) actionReleasePayment(c *entities.Contract, t *entities.AutomatedTrigger, now time.Time) error {
	amount := paramInt64(t.Parameters, "amount")
	to := paramString(t.Parameters, "to")
	if to == "" {
		if provider := c.PartyByRole(entities.PartyRoleProvider); provider != nil {
			to = provider.ID
		}
	}
	if amount <= 0 || to == "" {
		return errInvalidTriggerParams
	}
	if err := applyRelease(c, amount, to, nil, "automated release", now); err != nil {
		return err
	}
	metrics.FundsReleased.Add(float64(amount))
	return nil
}

func (e *TriggerEvaluator) actionStartDispute(c *entities.Contract, t *entities.AutomatedTrigger, now time.Time) error {
	reason := paramString(t.Parameters, "reason")
	if reason == "" {
		reason = "automated dispute: " + string(t.Event)
	}
	return applyInitiateDispute(c, entities.SystemActor, reason, nil, now)
}

func (e *TriggerEvaluator) actionExtendDeadline(c *entities.Contract, t *entities.AutomatedTrigger, now time.Time) error {
	milestoneID, err := uuid.Parse(paramString(t.Parameters, "milestoneId"))
	if err != nil {
		return errInvalidTriggerParams
	}
	hours := paramInt64(t.Parameters, "extensionHours")
	if hours <= 0 {
		return errInvalidTriggerParams
	}
	m := c.Milestone(milestoneID)
	if m == nil || !m.Deadline.Valid {
		return errInvalidTriggerParams
	}
	m.Deadline = null.TimeFrom(m.Deadline.Time.Add(time.Duration(hours) * time.Hour))
	return nil
}

func (e *TriggerEvaluator) eventSatisfied(c *entities.Contract, t *entities.AutomatedTrigger, now time.Time) bool {
	switch t.Event {
	case entities.EventDeadlineApproaching:
		milestoneID, err := uuid.Parse(paramString(t.Parameters, "milestoneId"))
		if err != nil {
			return false
		}
		m := c.Milestone(milestoneID)
		if m == nil || !m.Deadline.Valid {
			return false
		}
		warning := paramInt64(t.Parameters, "warningHours")
		if warning <= 0 {
			warning = DefaultDeadlineWarningHours
		}
		return m.Deadline.Time.Sub(now) <= time.Duration(warning)*time.Hour
	case entities.EventPaymentOverdue:
		due, ok := paramTime(t.Parameters, "dueDate")
		return ok && now.After(due)
	case entities.EventQualityThresholdMet:
		current, okC := paramFloat(t.Parameters, "currentQuality")
		threshold, okT := paramFloat(t.Parameters, "threshold")
		return okC && okT && current >= threshold
	default:
		// Lifecycle events fire through FireEvent; unrecognized event
		// types evaluate false without error.
		return false
	}
}

func (e *TriggerEvaluator) conditionGatePasses(c *entities.Contract, t *entities.AutomatedTrigger, now time.Time) bool {
	if t.Condition == "" {
		return true
	}
	ok, err := e.conditions.Evaluate(t.Condition, c, now)
	if err != nil {
		logger.Warn(context.Background(), "trigger condition evaluation failed",
			zap.String("contract_id", c.ID.String()),
			zap.String("trigger_id", t.ID.String()),
			zap.Error(err))
		return false
	}
	return ok
}

func findTrigger(c *entities.Contract, idOrEvent string) *entities.AutomatedTrigger {
	for i := range c.AutomatedTriggers {
		t := &c.AutomatedTriggers[i]
		if t.ID.String() == idOrEvent || string(t.Event) == idOrEvent {
			return t
		}
	}
	return nil
}
