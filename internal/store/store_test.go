package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"tripsplit/internal/models"
	"tripsplit/internal/services"
)

// countingPersistence wraps another backend and counts saves
type countingPersistence struct {
	inner services.Persistence
	saves int
}

func (p *countingPersistence) Save(ctx context.Context, state models.State) (time.Time, error) {
	p.saves++
	return p.inner.Save(ctx, state)
}

func (p *countingPersistence) Load(ctx context.Context) (models.State, *time.Time, error) {
	return p.inner.Load(ctx)
}

// failingPersistence always fails to save
type failingPersistence struct {
	err error
}

func (p *failingPersistence) Save(ctx context.Context, state models.State) (time.Time, error) {
	return time.Time{}, p.err
}

func (p *failingPersistence) Load(ctx context.Context) (models.State, *time.Time, error) {
	return models.State{Roster: []models.RosterEntry{}}, nil, nil
}

func newTestStore() (*Store, *countingPersistence) {
	backend := &countingPersistence{inner: services.NewMemoryPersistence()}
	return New(backend), backend
}

func TestAddParticipantAssignsMonotonicIDs(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	first, err := s.AddParticipant(ctx, "Anna", 0)
	if err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}
	second, _ := s.AddParticipant(ctx, "Bo", 0)

	if first.ID != 0 || second.ID != 1 {
		t.Fatalf("ids = %d, %d; want 0, 1", first.ID, second.ID)
	}

	// Removing a lower id must not make its id come back while a higher
	// one is still present
	if err := s.RemoveParticipant(ctx, 0); err != nil {
		t.Fatalf("RemoveParticipant: %v", err)
	}
	third, _ := s.AddParticipant(ctx, "Carla", 0)
	if third.ID != 2 {
		t.Errorf("id after removal = %d; want 2", third.ID)
	}
}

func TestEveryMutationPersists(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestStore()

	s.AddParticipant(ctx, "Anna", 0)
	s.SetTotalAmount(ctx, 100)
	paid := 50.0
	s.UpdateParticipant(ctx, 0, ParticipantUpdate{PaidAmount: &paid})
	s.RemoveParticipant(ctx, 0)

	if backend.saves != 4 {
		t.Errorf("saves = %d; want 4", backend.saves)
	}
}

func TestUpdateParticipantMergesPartially(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	s.AddParticipant(ctx, "Anna", 10)
	paid := 75.0
	if err := s.UpdateParticipant(ctx, 0, ParticipantUpdate{PaidAmount: &paid}); err != nil {
		t.Fatalf("UpdateParticipant: %v", err)
	}

	state, _ := s.Snapshot()
	if state.Roster[0].Name != "Anna" || state.Roster[0].PaidAmount != 75 {
		t.Errorf("entry after partial update = %+v", state.Roster[0])
	}
}

func TestUpdateUnknownParticipantIsNoop(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestStore()

	s.AddParticipant(ctx, "Anna", 10)
	saves := backend.saves

	name := "Ghost"
	if err := s.UpdateParticipant(ctx, 99, ParticipantUpdate{Name: &name}); err != nil {
		t.Fatalf("UpdateParticipant: %v", err)
	}
	if backend.saves != saves {
		t.Error("updating an unknown id must not persist")
	}
}

func TestRemoveUnknownParticipantIsNoop(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	s.AddParticipant(ctx, "Anna", 10)
	if err := s.RemoveParticipant(ctx, 99); err != nil {
		t.Fatalf("RemoveParticipant: %v", err)
	}

	state, _ := s.Snapshot()
	if len(state.Roster) != 1 {
		t.Errorf("roster length = %d; want 1", len(state.Roster))
	}
}

func TestSetTotalAmountRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestStore()

	err := s.SetTotalAmount(ctx, -5)
	var validationErr *models.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("SetTotalAmount(-5) = %v; want ValidationError", err)
	}
	if backend.saves != 0 {
		t.Error("rejected amount must not persist")
	}

	state, _ := s.Snapshot()
	if state.TotalAmount != 0 {
		t.Errorf("totalAmount after rejection = %v; want 0", state.TotalAmount)
	}
}

func TestReplaceStateRejectsNegativePaidAmount(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestStore()
	s.AddParticipant(ctx, "Anna", 10)
	saves := backend.saves

	err := s.ReplaceState(ctx, models.State{
		TotalAmount: 100,
		Roster:      []models.RosterEntry{{Name: "Bo", PaidAmount: -1}},
	})
	var validationErr *models.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("ReplaceState = %v; want ValidationError", err)
	}

	state, _ := s.Snapshot()
	if len(state.Roster) != 1 || state.Roster[0].Name != "Anna" {
		t.Error("rejected replace must not change state")
	}
	if backend.saves != saves {
		t.Error("rejected replace must not persist")
	}
}

func TestReplaceStateRenumbersByPosition(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	err := s.ReplaceState(ctx, models.State{
		TotalAmount: 100,
		Roster: []models.RosterEntry{
			{ID: 7, Name: "Anna", PaidAmount: 50},
			{ID: 3, Name: "Bo", PaidAmount: 100},
		},
	})
	if err != nil {
		t.Fatalf("ReplaceState: %v", err)
	}

	state, _ := s.Snapshot()
	if state.Roster[0].ID != 0 || state.Roster[1].ID != 1 {
		t.Errorf("ids = %d, %d; want 0, 1", state.Roster[0].ID, state.Roster[1].ID)
	}
}

func TestAddThenRemoveRestoresAggregates(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	s.SetTotalAmount(ctx, 100)
	s.AddParticipant(ctx, "Anna", 50)
	before := s.Summary()

	entry, _ := s.AddParticipant(ctx, "Bo", 80)
	s.RemoveParticipant(ctx, entry.ID)

	after := s.Summary()
	if after != before {
		t.Errorf("summary after add+remove = %+v; want %+v", after, before)
	}
}

func TestPersistenceFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	saveErr := errors.New("transaction failed")
	s := New(&failingPersistence{err: saveErr})

	_, err := s.AddParticipant(ctx, "Anna", 50)
	if !errors.Is(err, saveErr) {
		t.Fatalf("AddParticipant = %v; want save error", err)
	}

	// The optimistic mutation stays; only the save is reported failed
	state, lastSaved := s.Snapshot()
	if len(state.Roster) != 1 {
		t.Error("in-memory mutation was lost on save failure")
	}
	if lastSaved != nil {
		t.Error("lastSaved must stay unset after a failed save")
	}
	if !errors.Is(s.LastError(), saveErr) {
		t.Errorf("LastError() = %v; want save error", s.LastError())
	}
}

func TestHydrate(t *testing.T) {
	ctx := context.Background()
	backend := services.NewMemoryPersistence()

	seeded := New(backend)
	seeded.SetTotalAmount(ctx, 100)
	seeded.AddParticipant(ctx, "Anna", 50)

	s := New(backend)
	if err := s.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}

	state, lastSaved := s.Snapshot()
	if state.TotalAmount != 100 || len(state.Roster) != 1 || state.Roster[0].Name != "Anna" {
		t.Errorf("hydrated state = %+v", state)
	}
	if lastSaved == nil {
		t.Error("lastSaved = nil after hydrating a saved state")
	}
}

func TestHydrateEmptyBackend(t *testing.T) {
	s := New(services.NewMemoryPersistence())
	if err := s.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}

	state, lastSaved := s.Snapshot()
	if state.TotalAmount != 0 || len(state.Roster) != 0 || lastSaved != nil {
		t.Errorf("empty backend hydrated to %+v, lastSaved %v", state, lastSaved)
	}
}

func TestImportJSON(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	// Legacy field name and a string amount must both be accepted
	imported, err := s.ImportJSON(ctx, []byte(`{"persons":[{"name":"X","paidAmount":"20"}]}`))
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if imported != 1 {
		t.Errorf("imported = %d; want 1", imported)
	}

	state, _ := s.Snapshot()
	if state.Roster[0].Name != "X" || state.Roster[0].PaidAmount != 20 {
		t.Errorf("imported entry = %+v", state.Roster[0])
	}
}

func TestImportJSONParseFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestStore()
	s.SetTotalAmount(ctx, 100)
	s.AddParticipant(ctx, "Anna", 50)
	saves := backend.saves

	if _, err := s.ImportJSON(ctx, []byte("not json at all")); err == nil {
		t.Fatal("ImportJSON accepted garbage")
	}

	state, _ := s.Snapshot()
	if state.TotalAmount != 100 || len(state.Roster) != 1 {
		t.Error("failed import must not mutate state")
	}
	if backend.saves != saves {
		t.Error("failed import must not persist")
	}
}

func TestParticipantLookups(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	s.SetTotalAmount(ctx, 100)
	s.AddParticipant(ctx, "Anna", 50)

	if got := s.ParticipantRemaining(0); got != 50 {
		t.Errorf("ParticipantRemaining(0) = %v; want 50", got)
	}
	if got := s.ParticipantStatus(0); got != models.StatusPartial {
		t.Errorf("ParticipantStatus(0) = %q; want partial", got)
	}

	// Unknown ids fall back to zero balance and not-paid
	if got := s.ParticipantRemaining(42); got != 0 {
		t.Errorf("ParticipantRemaining(42) = %v; want 0", got)
	}
	if got := s.ParticipantStatus(42); got != models.StatusNotPaid {
		t.Errorf("ParticipantStatus(42) = %q; want not-paid", got)
	}
}
