package usecases

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ExecutionNotice is an advisory record of a state-changing action, drained
// periodically for observability logging. The queue carries no transactional
// meaning; the audit log on the contract itself is the durable history.
type ExecutionNotice struct {
	ContractID uuid.UUID
	Action     string
	Actor      string
	At         time.Time
}

// ExecutionQueue is a bounded in-memory notice queue. When full, the oldest
// notices are dropped.
type ExecutionQueue struct {
	mu      sync.Mutex
	notices []ExecutionNotice
	limit   int
}

// NewExecutionQueue creates an empty queue
func NewExecutionQueue() *ExecutionQueue {
	return &ExecutionQueue{limit: 1024}
}

// Push appends a notice, evicting the oldest when over the limit
func (q *ExecutionQueue) Push(n ExecutionNotice) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notices = append(q.notices, n)
	if len(q.notices) > q.limit {
		q.notices = q.notices[len(q.notices)-q.limit:]
	}
}

// Drain removes and returns all queued notices
func (q *ExecutionQueue) Drain() []ExecutionNotice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.notices
	q.notices = nil
	return out
}

// Len returns the number of queued notices
func (q *ExecutionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.notices)
}
