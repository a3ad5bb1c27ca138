// Package store owns the authoritative in-memory payment state: the shared
// per-person amount and the ordered roster. Every mutation is followed by a
// full-state save through the configured persistence backend.
package store

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"tripsplit/internal/models"
	"tripsplit/internal/services"
)

// Store is the single logical writer for the payment state. All mutations
// serialize on one mutex, held across the persistence round-trip, so an
// operation only completes once its save has settled.
//
// When a save fails the in-memory mutation is kept: the caller gets the
// error, LastError records it, and the state stays valid and inspectable.
// There is no rollback and no automatic retry.
type Store struct {
	mu          sync.Mutex
	totalAmount float64
	roster      []models.RosterEntry
	lastSaved   *time.Time
	lastErr     error

	saving      atomic.Bool
	persistence services.Persistence
}

// ParticipantUpdate carries a partial update; nil fields are left untouched.
type ParticipantUpdate struct {
	Name       *string
	PaidAmount *float64
}

func New(persistence services.Persistence) *Store {
	return &Store{
		roster:      []models.RosterEntry{},
		persistence: persistence,
	}
}

// Hydrate replaces the in-memory state with whatever the backend has. Entry
// ids are assigned by position by the backend. A load failure leaves the
// current state untouched.
func (s *Store) Hydrate(ctx context.Context) error {
	state, lastSaved, err := s.persistence.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalAmount = state.TotalAmount
	s.roster = state.Roster
	s.lastSaved = lastSaved
	return nil
}

// SetTotalAmount replaces the shared per-person amount. The amount must be a
// finite non-negative number.
func (s *Store) SetTotalAmount(ctx context.Context, amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return models.NewValidationError("totalAmount",
			"totalAmount must be a valid non-negative number")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalAmount = amount
	return s.persist(ctx)
}

// AddParticipant appends a participant with the next free id: one past the
// highest id currently in the roster, or 0 for an empty roster.
func (s *Store) AddParticipant(ctx context.Context, name string, paidAmount float64) (models.RosterEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := 0
	for _, entry := range s.roster {
		if entry.ID >= id {
			id = entry.ID + 1
		}
	}

	entry := models.RosterEntry{ID: id, Name: name, PaidAmount: paidAmount}
	s.roster = append(s.roster, entry)
	return entry, s.persist(ctx)
}

// RemoveParticipant filters the matching entry out of the roster. Removing an
// unknown id is a no-op, not an error, but still triggers a save.
func (s *Store) RemoveParticipant(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.roster[:0]
	for _, entry := range s.roster {
		if entry.ID != id {
			kept = append(kept, entry)
		}
	}
	s.roster = kept
	return s.persist(ctx)
}

// UpdateParticipant merges the given fields into the matching entry. An
// unknown id is a no-op and does not save.
func (s *Store) UpdateParticipant(ctx context.Context, id int, update ParticipantUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.roster {
		if s.roster[i].ID != id {
			continue
		}
		if update.Name != nil {
			s.roster[i].Name = *update.Name
		}
		if update.PaidAmount != nil {
			s.roster[i].PaidAmount = *update.PaidAmount
		}
		return s.persist(ctx)
	}
	return nil
}

// ReplaceState swaps in a complete new state, renumbering entries by
// position. Amounts must be finite and non-negative; validation failures
// happen before anything is mutated.
func (s *Store) ReplaceState(ctx context.Context, state models.State) error {
	if math.IsNaN(state.TotalAmount) || math.IsInf(state.TotalAmount, 0) || state.TotalAmount < 0 {
		return models.NewValidationError("totalAmount",
			"totalAmount must be a valid non-negative number")
	}
	for _, entry := range state.Roster {
		if math.IsNaN(entry.PaidAmount) || math.IsInf(entry.PaidAmount, 0) || entry.PaidAmount < 0 {
			return models.NewValidationError("participants",
				"each participant's paidAmount must be a valid non-negative number")
		}
	}

	roster := make([]models.RosterEntry, len(state.Roster))
	for i, entry := range state.Roster {
		roster[i] = models.RosterEntry{ID: i, Name: entry.Name, PaidAmount: entry.PaidAmount}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalAmount = state.TotalAmount
	s.roster = roster
	return s.persist(ctx)
}

// ImportJSON replaces the whole roster from exported JSON text. Import is
// all-or-nothing: a parse failure leaves the state untouched and nothing is
// saved. Returns the number of imported participants.
func (s *Store) ImportJSON(ctx context.Context, data []byte) (int, error) {
	state, err := services.ParseImport(data)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalAmount = state.TotalAmount
	s.roster = state.Roster
	return len(state.Roster), s.persist(ctx)
}

// persist runs the unconditional full-state save that follows every
// mutation. Caller must hold s.mu.
func (s *Store) persist(ctx context.Context) error {
	s.saving.Store(true)
	defer s.saving.Store(false)

	savedAt, err := s.persistence.Save(ctx, models.State{
		TotalAmount: s.totalAmount,
		Roster:      s.roster,
	}.Clone())
	if err != nil {
		s.lastErr = err
		return err
	}

	s.lastSaved = &savedAt
	s.lastErr = nil
	return nil
}

// Snapshot returns a copy of the current state and the last save timestamp.
func (s *Store) Snapshot() (models.State, *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := models.State{TotalAmount: s.totalAmount, Roster: s.roster}.Clone()
	if s.lastSaved == nil {
		return state, nil
	}
	lastSaved := *s.lastSaved
	return state, &lastSaved
}

// Summary recomputes the roster aggregates from the current state.
func (s *Store) Summary() models.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.Summarize(s.roster, s.totalAmount)
}

// ParticipantRemaining returns the outstanding balance for one participant,
// or 0 for an unknown id.
func (s *Store) ParticipantRemaining(id int) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.roster {
		if entry.ID == id {
			return models.Remaining(s.totalAmount, entry.PaidAmount)
		}
	}
	return 0
}

// ParticipantStatus returns the payment status for one participant. An
// unknown id reads as not-paid.
func (s *Store) ParticipantStatus(id int) models.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.roster {
		if entry.ID == id {
			return models.Classify(s.totalAmount, entry.PaidAmount)
		}
	}
	return models.StatusNotPaid
}

// Saving reports whether a persistence call is currently in flight.
func (s *Store) Saving() bool {
	return s.saving.Load()
}

// LastError returns the most recent persistence failure, nil after a
// successful save.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
