package services

import (
	"context"
	"time"

	"tripsplit/internal/models"
)

// Persistence is the full-replace storage contract. Save replaces everything
// previously persisted with the given state and returns the save timestamp.
// Load reconstructs the full state; a store that was never saved loads as an
// empty roster with a zero shared amount and a nil timestamp.
type Persistence interface {
	Save(ctx context.Context, state models.State) (time.Time, error)
	Load(ctx context.Context) (models.State, *time.Time, error)
}
