package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tripsplit/internal/models"
)

// DBPersistence stores the state in Postgres. Every save is an atomic full
// replace: inside one transaction all existing payment records and
// participants are deleted, then the new set is inserted. Readers therefore
// see either the fully-old or the fully-new roster, never a mix.
type DBPersistence struct {
	db *gorm.DB
}

func NewDBPersistence(db *gorm.DB) *DBPersistence {
	return &DBPersistence{db: db}
}

// Save replaces all persisted records with the given state and returns the
// save timestamp, taken as the latest UpdatedAt across the inserted records.
// A transaction failure propagates to the caller; nothing is retried here.
func (p *DBPersistence) Save(ctx context.Context, state models.State) (time.Time, error) {
	var lastSaved time.Time

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Payment records first because of the foreign key constraint.
		// Unscoped: full-replace on every mutation would otherwise pile up
		// soft-deleted rows without bound.
		if err := tx.Unscoped().Where("1 = 1").Delete(&models.PaymentRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("1 = 1").Delete(&models.Participant{}).Error; err != nil {
			return err
		}

		for _, entry := range state.Roster {
			participant := models.Participant{Name: entry.Name}
			if err := tx.Create(&participant).Error; err != nil {
				return err
			}

			record := models.PaymentRecord{
				PaidAmount:    entry.PaidAmount,
				TotalAmount:   state.TotalAmount,
				ParticipantID: participant.ID,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}

			if record.UpdatedAt.After(lastSaved) {
				lastSaved = record.UpdatedAt
			}
		}

		return nil
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to save payments: %w", err)
	}

	if lastSaved.IsZero() {
		lastSaved = time.Now()
	}
	return lastSaved, nil
}

// Load reconstructs the full state by joining payment records to their
// participants, in insertion order. The shared amount is read from the first
// record; lastSaved is the latest UpdatedAt, or nil when nothing is stored.
func (p *DBPersistence) Load(ctx context.Context) (models.State, *time.Time, error) {
	var records []models.PaymentRecord
	err := p.db.WithContext(ctx).
		Preload("Participant").
		Order("created_at asc").
		Find(&records).Error
	if err != nil {
		return models.State{}, nil, fmt.Errorf("failed to fetch payments: %w", err)
	}

	if len(records) == 0 {
		return models.State{Roster: []models.RosterEntry{}}, nil, nil
	}

	state := models.State{
		TotalAmount: records[0].TotalAmount,
		Roster:      make([]models.RosterEntry, 0, len(records)),
	}

	lastSaved := records[0].UpdatedAt
	for i, record := range records {
		state.Roster = append(state.Roster, models.RosterEntry{
			ID:         i,
			Name:       record.Participant.Name,
			PaidAmount: record.PaidAmount,
		})
		if record.UpdatedAt.After(lastSaved) {
			lastSaved = record.UpdatedAt
		}
	}

	return state, &lastSaved, nil
}
