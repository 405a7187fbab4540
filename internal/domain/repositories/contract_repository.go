package repositories

import (
	"context"

	"github.com/google/uuid"
	"escrow-chain.backend/internal/domain/entities"
)

// ContractRepository defines contract store operations. The store exclusively
// owns the contract aggregates; reads return copies the caller may inspect
// freely, and all mutation goes through Update so the fund-conservation
// invariant holds under concurrent callers.
type ContractRepository interface {
	Create(ctx context.Context, contract *entities.Contract) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Contract, error)
	GetByParty(ctx context.Context, partyID string, limit, offset int) ([]*entities.Contract, int, error)
	ListByStatus(ctx context.Context, status entities.ContractStatus) ([]*entities.Contract, error)
	// Update loads the aggregate, applies fn to it under the per-contract
	// lock and persists the result. If fn returns an error nothing is
	// persisted. The returned contract is a copy of the updated aggregate.
	Update(ctx context.Context, id uuid.UUID, fn func(*entities.Contract) error) (*entities.Contract, error)
}
