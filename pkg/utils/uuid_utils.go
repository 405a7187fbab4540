package utils

import (
	"github.com/google/uuid"
)

// GenerateUUIDv7 generates a new time-ordered UUID v7. Contract, milestone,
// transaction and dispute IDs are all v7 so ledger entries sort by creation.
func GenerateUUIDv7() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails (highly unlikely)
		return uuid.New()
	}
	return id
}
