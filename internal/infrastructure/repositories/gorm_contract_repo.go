package repositories

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"escrow-chain.backend/internal/domain/entities"
	domainerrors "escrow-chain.backend/internal/domain/errors"
	"escrow-chain.backend/internal/infrastructure/models"
)

// GormContractRepository persists contract aggregates through GORM. It
// implements the same ContractRepository interface as the in-memory store so
// the engine does not depend on a specific store implementation.
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a GORM-backed contract repository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// Migrate creates the contract tables
func (r *GormContractRepository) Migrate() error {
	return r.db.AutoMigrate(&models.ContractRecord{}, &models.ContractPartyRecord{})
}

// Create persists a new contract aggregate with its party join rows
func (r *GormContractRepository) Create(ctx context.Context, contract *entities.Contract) error {
	record, err := toRecord(contract)
	if err != nil {
		return domainerrors.InternalError(err)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return domainerrors.InternalError(err)
		}
		for i := range contract.Parties {
			party := models.ContractPartyRecord{
				ContractID: contract.ID.String(),
				PartyID:    contract.Parties[i].ID,
				Role:       string(contract.Parties[i].Role),
			}
			if err := tx.Create(&party).Error; err != nil {
				return domainerrors.InternalError(err)
			}
		}
		return nil
	})
}

// GetByID loads a contract aggregate
func (r *GormContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Contract, error) {
	return r.load(r.db.WithContext(ctx), id, false)
}

// GetByParty returns contracts the party participates in, newest first
func (r *GormContractRepository) GetByParty(ctx context.Context, partyID string, limit, offset int) ([]*entities.Contract, int, error) {
	var total int64
	base := r.db.WithContext(ctx).
		Model(&models.ContractRecord{}).
		Joins("JOIN contract_parties ON contract_parties.contract_id = contracts.id").
		Where("contract_parties.party_id = ?", partyID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, domainerrors.InternalError(err)
	}

	query := base.Order("contracts.created_at DESC").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []models.ContractRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, domainerrors.InternalError(err)
	}
	contracts, err := fromRecords(records)
	if err != nil {
		return nil, 0, err
	}
	return contracts, int(total), nil
}

// ListByStatus returns all contracts in the given status
func (r *GormContractRepository) ListByStatus(ctx context.Context, status entities.ContractStatus) ([]*entities.Contract, error) {
	var records []models.ContractRecord
	err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}
	return fromRecords(records)
}

// Update applies fn to the aggregate inside a transaction. The row is read
// with SELECT FOR UPDATE so concurrent Updates on the same contract serialize
// instead of overwriting each other's payload. If fn fails the transaction
// rolls back and nothing is persisted.
func (r *GormContractRepository) Update(ctx context.Context, id uuid.UUID, fn func(*entities.Contract) error) (*entities.Contract, error) {
	var updated *entities.Contract
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract, err := r.load(tx, id, true)
		if err != nil {
			return err
		}
		if err := fn(contract); err != nil {
			return err
		}
		record, err := toRecord(contract)
		if err != nil {
			return domainerrors.InternalError(err)
		}
		if err := tx.Save(record).Error; err != nil {
			return domainerrors.InternalError(err)
		}
		updated = contract
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// load reads one contract row. forUpdate takes a row lock; the sqlite driver
// drops the locking clause, so tests rely on connection-level serialization
// instead.
func (r *GormContractRepository) load(tx *gorm.DB, id uuid.UUID, forUpdate bool) (*entities.Contract, error) {
	if forUpdate {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var record models.ContractRecord
	if err := tx.First(&record, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.NotFound("contract not found")
		}
		return nil, domainerrors.InternalError(err)
	}
	return fromRecord(&record)
}

func toRecord(contract *entities.Contract) (*models.ContractRecord, error) {
	payload, err := json.Marshal(contract)
	if err != nil {
		return nil, err
	}
	return &models.ContractRecord{
		ID:          contract.ID.String(),
		Type:        string(contract.Type),
		Status:      string(contract.Status),
		Currency:    contract.Terms.Currency,
		TotalAmount: contract.Terms.TotalAmount,
		Payload:     payload,
		CreatedAt:   contract.CreatedAt,
		UpdatedAt:   contract.UpdatedAt,
	}, nil
}

func fromRecord(record *models.ContractRecord) (*entities.Contract, error) {
	var contract entities.Contract
	if err := json.Unmarshal(record.Payload, &contract); err != nil {
		return nil, domainerrors.InternalError(err)
	}
	return &contract, nil
}

func fromRecords(records []models.ContractRecord) ([]*entities.Contract, error) {
	out := make([]*entities.Contract, 0, len(records))
	for i := range records {
		contract, err := fromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		out = append(out, contract)
	}
	return out, nil
}
