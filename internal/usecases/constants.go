package usecases

import "time"

const (
	// DefaultDeadlineWarningHours is how far ahead of a milestone deadline
	// the default deadline_approaching trigger fires.
	DefaultDeadlineWarningHours = 24

	// Simulated gas bounds for ledger and audit entries.
	minSimulatedGas = 21000
	maxSimulatedGas = 71000

	// DefaultSweepInterval is how often the background trigger sweep runs.
	DefaultSweepInterval = 10 * time.Second
)

// mediatorPool holds the fixed mediator identities auto-assigned to
// mediation-method disputes.
var mediatorPool = []string{"mediator-alpha", "mediator-beta", "mediator-gamma"}

// Clock abstracts time so tests can drive time-based triggers without a live
// timer. A nil Clock means time.Now.
type Clock func() time.Time

func orNow(clock Clock) Clock {
	if clock == nil {
		return time.Now
	}
	return clock
}
