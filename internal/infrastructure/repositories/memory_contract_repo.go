package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"escrow-chain.backend/internal/domain/entities"
	domainerrors "escrow-chain.backend/internal/domain/errors"
)

// MemoryContractRepository is the engine's default contract store: a keyed map
// of contract aggregates guarded by a per-contract mutex. All state is
// memory-resident and lost on restart; the GORM store is the persistent
// alternative behind the same interface.
type MemoryContractRepository struct {
	mu        sync.RWMutex
	contracts map[uuid.UUID]*contractEntry
}

type contractEntry struct {
	mu       sync.Mutex
	contract *entities.Contract
}

// NewMemoryContractRepository creates an empty in-memory store
func NewMemoryContractRepository() *MemoryContractRepository {
	return &MemoryContractRepository{
		contracts: make(map[uuid.UUID]*contractEntry),
	}
}

// Create stores a new contract aggregate
func (r *MemoryContractRepository) Create(_ context.Context, contract *entities.Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.contracts[contract.ID]; exists {
		return domainerrors.BadRequest("contract already exists")
	}
	r.contracts[contract.ID] = &contractEntry{contract: contract.Clone()}
	return nil
}

// GetByID returns a copy of the contract aggregate
func (r *MemoryContractRepository) GetByID(_ context.Context, id uuid.UUID) (*entities.Contract, error) {
	entry, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.contract.Clone(), nil
}

// GetByParty returns contracts the party participates in, newest first
func (r *MemoryContractRepository) GetByParty(_ context.Context, partyID string, limit, offset int) ([]*entities.Contract, int, error) {
	r.mu.RLock()
	entries := make([]*contractEntry, 0, len(r.contracts))
	for _, e := range r.contracts {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	var matched []*entities.Contract
	for _, e := range entries {
		e.mu.Lock()
		if e.contract.Party(partyID) != nil {
			matched = append(matched, e.contract.Clone())
		}
		e.mu.Unlock()
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if offset >= total {
		return []*entities.Contract{}, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

// ListByStatus returns all contracts in the given status
func (r *MemoryContractRepository) ListByStatus(_ context.Context, status entities.ContractStatus) ([]*entities.Contract, error) {
	r.mu.RLock()
	entries := make([]*contractEntry, 0, len(r.contracts))
	for _, e := range r.contracts {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	var matched []*entities.Contract
	for _, e := range entries {
		e.mu.Lock()
		if e.contract.Status == status {
			matched = append(matched, e.contract.Clone())
		}
		e.mu.Unlock()
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched, nil
}

// Update applies fn to the aggregate under the per-contract lock. fn receives
// a working copy; nothing is visible to other callers until fn succeeds.
func (r *MemoryContractRepository) Update(_ context.Context, id uuid.UUID, fn func(*entities.Contract) error) (*entities.Contract, error) {
	entry, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	working := entry.contract.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	entry.contract = working
	return working.Clone(), nil
}

func (r *MemoryContractRepository) entry(id uuid.UUID) (*contractEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.contracts[id]
	if !ok {
		return nil, domainerrors.NotFound("contract not found")
	}
	return entry, nil
}
