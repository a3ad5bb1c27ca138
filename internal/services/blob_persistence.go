package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"tripsplit/internal/models"
)

// stateKey is the single fixed key the whole state lives under.
const stateKey = "tripsplit:payments:state"

type blobParticipant struct {
	Name       string  `json:"name"`
	PaidAmount float64 `json:"paidAmount"`
}

type stateBlob struct {
	TotalAmount  float64           `json:"totalAmount"`
	Participants []blobParticipant `json:"participants"`
	SavedAt      time.Time         `json:"savedAt"`
}

// BlobPersistence keeps the whole state as one JSON blob under a fixed key.
// There is no partial write: every save overwrites the previous blob in a
// single SET. A malformed blob is treated as a recoverable condition, not an
// error: it is logged and the state loads as empty.
type BlobPersistence struct {
	cache *RedisCache
}

func NewBlobPersistence(cache *RedisCache) *BlobPersistence {
	return &BlobPersistence{cache: cache}
}

// Save overwrites the stored blob with the given state.
func (p *BlobPersistence) Save(ctx context.Context, state models.State) (time.Time, error) {
	blob := stateBlob{
		TotalAmount:  state.TotalAmount,
		Participants: make([]blobParticipant, 0, len(state.Roster)),
		SavedAt:      time.Now(),
	}
	for _, entry := range state.Roster {
		blob.Participants = append(blob.Participants, blobParticipant{
			Name:       entry.Name,
			PaidAmount: entry.PaidAmount,
		})
	}

	if err := p.cache.Set(ctx, stateKey, blob, 0); err != nil {
		return time.Time{}, err
	}
	return blob.SavedAt, nil
}

// Load reads the blob back. A missing key yields the empty state; corrupted
// data also yields the empty state so a bad blob can never wedge the app.
func (p *BlobPersistence) Load(ctx context.Context) (models.State, *time.Time, error) {
	empty := models.State{Roster: []models.RosterEntry{}}

	data, err := p.cache.GetRaw(ctx, stateKey)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return empty, nil, nil
		}
		return empty, nil, err
	}

	var blob stateBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		log.Printf("Warning: discarding malformed state blob: %v", err)
		return empty, nil, nil
	}

	state := models.State{
		TotalAmount: blob.TotalAmount,
		Roster:      make([]models.RosterEntry, 0, len(blob.Participants)),
	}
	for i, participant := range blob.Participants {
		state.Roster = append(state.Roster, models.RosterEntry{
			ID:         i,
			Name:       participant.Name,
			PaidAmount: participant.PaidAmount,
		})
	}

	if blob.SavedAt.IsZero() {
		return state, nil, nil
	}
	savedAt := blob.SavedAt
	return state, &savedAt, nil
}
