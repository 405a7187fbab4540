package usecases

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"escrow-chain.backend/internal/domain/entities"
)

// ConditionEvaluator evaluates contract condition expressions. Expressions are
// CEL over a flat activation of the contract state; compiled programs are
// cached per expression.
type ConditionEvaluator struct {
	env      *cel.Env
	mu       sync.RWMutex
	prgCache map[string]cel.Program
}

// NewConditionEvaluator creates an evaluator with the contract environment.
func NewConditionEvaluator() (*ConditionEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("now", cel.IntType),
		cel.Variable("status", cel.StringType),
		cel.Variable("allSigned", cel.BoolType),
		cel.Variable("totalAmount", cel.IntType),
		cel.Variable("lockedAmount", cel.IntType),
		cel.Variable("releasedAmount", cel.IntType),
		cel.Variable("disputedAmount", cel.IntType),
		cel.Variable("depositedAmount", cel.IntType),
		cel.Variable("milestonesTotal", cel.IntType),
		cel.Variable("milestonesApproved", cel.IntType),
		cel.Variable("milestonesPaid", cel.IntType),
		cel.Variable("startDate", cel.IntType),
		cel.Variable("endDate", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &ConditionEvaluator{
		env:      env,
		prgCache: make(map[string]cel.Program),
	}, nil
}

// Evaluate compiles (or fetches from cache) and runs the expression against
// the contract state at the given time. Non-boolean results are an error.
func (e *ConditionEvaluator) Evaluate(expr string, c *entities.Contract, now time.Time) (bool, error) {
	prg, err := e.program(expr)
	if err != nil {
		return false, err
	}

	paid := 0
	for i := range c.Terms.Milestones {
		if c.Terms.Milestones[i].Status == entities.MilestoneStatusPaid {
			paid++
		}
	}
	input := map[string]interface{}{
		"now":                now.Unix(),
		"status":             string(c.Status),
		"allSigned":          c.AllRequiredSigned(),
		"totalAmount":        c.Terms.TotalAmount,
		"lockedAmount":       c.Funds.LockedAmount,
		"releasedAmount":     c.Funds.ReleasedAmount,
		"disputedAmount":     c.Funds.DisputedAmount,
		"depositedAmount":    c.Funds.DepositedTotal(),
		"milestonesTotal":    len(c.Terms.Milestones),
		"milestonesApproved": c.MilestonesApproved(),
		"milestonesPaid":     paid,
		"startDate":          c.Terms.StartDate.Unix(),
		"endDate":            c.Terms.EndDate.Unix(),
	}

	out, _, err := prg.Eval(input)
	if err != nil {
		return false, fmt.Errorf("condition evaluation failed: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition %q is not boolean", expr)
	}
	return result, nil
}

func (e *ConditionEvaluator) program(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.prgCache[expr]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid condition %q: %w", expr, issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build condition program: %w", err)
	}

	e.mu.Lock()
	e.prgCache[expr] = prg
	e.mu.Unlock()
	return prg, nil
}
