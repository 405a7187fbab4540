package usecases_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"escrow-chain.backend/internal/usecases"
	"escrow-chain.backend/pkg/utils"
)

func TestExecutionQueue_PushDrain(t *testing.T) {
	q := usecases.NewExecutionQueue()
	assert.Zero(t, q.Len())

	id := utils.GenerateUUIDv7()
	q.Push(usecases.ExecutionNotice{ContractID: id, Action: "a"})
	q.Push(usecases.ExecutionNotice{ContractID: id, Action: "b"})
	assert.Equal(t, 2, q.Len())

	notices := q.Drain()
	assert.Len(t, notices, 2)
	assert.Equal(t, "a", notices[0].Action)
	assert.Zero(t, q.Len())
	assert.Empty(t, q.Drain())
}

func TestExecutionQueue_EvictsOldestWhenFull(t *testing.T) {
	q := usecases.NewExecutionQueue()
	id := utils.GenerateUUIDv7()
	for i := 0; i < 1100; i++ {
		q.Push(usecases.ExecutionNotice{ContractID: id, Action: "fill"})
	}
	assert.Equal(t, 1024, q.Len())
}
