package services

import (
	"context"
	"sync"
	"time"

	"tripsplit/internal/models"
)

// MemoryPersistence holds the state in process memory. It backs the server
// when neither a database nor Redis is configured, and the store tests.
type MemoryPersistence struct {
	mu      sync.Mutex
	state   models.State
	savedAt *time.Time
}

func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{state: models.State{Roster: []models.RosterEntry{}}}
}

func (p *MemoryPersistence) Save(ctx context.Context, state models.State) (time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	p.state = state.Clone()
	p.savedAt = &now
	return now, nil
}

func (p *MemoryPersistence) Load(ctx context.Context) (models.State, *time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.savedAt == nil {
		return models.State{Roster: []models.RosterEntry{}}, nil, nil
	}
	savedAt := *p.savedAt
	return p.state.Clone(), &savedAt, nil
}
