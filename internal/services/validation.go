package services

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"tripsplit/internal/models"
)

type rawStateRequest struct {
	TotalAmount  json.RawMessage `json:"totalAmount"`
	Participants json.RawMessage `json:"participants"`
}

type rawParticipant struct {
	Name       json.RawMessage `json:"name"`
	PaidAmount json.RawMessage `json:"paidAmount"`
}

// ValidateStateRequest checks a replace-full-state request body and converts
// it into a state. Unlike the import parser this one rejects: a non-object
// body, a non-array participants field, and any amount that is not a valid
// non-negative number (numeric strings are accepted and parsed). Nothing is
// mutated before validation passes. Names are trimmed; a non-string name
// counts as empty. Entry ids are assigned by position.
func ValidateStateRequest(data []byte) (models.State, error) {
	var req rawStateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return models.State{}, models.NewValidationError("", "Invalid request body")
	}

	totalAmount, ok := parseAmount(req.TotalAmount)
	if !ok {
		return models.State{}, models.NewValidationError("totalAmount",
			"totalAmount must be a valid non-negative number")
	}

	var participants []json.RawMessage
	if req.Participants == nil || json.Unmarshal(req.Participants, &participants) != nil {
		return models.State{}, models.NewValidationError("participants",
			"participants must be an array")
	}

	state := models.State{
		TotalAmount: totalAmount,
		Roster:      make([]models.RosterEntry, 0, len(participants)),
	}
	for i, raw := range participants {
		var entry rawParticipant
		if err := json.Unmarshal(raw, &entry); err != nil {
			return models.State{}, models.NewValidationError("participants",
				"each participant must be an object")
		}

		paidAmount, ok := parseAmount(entry.PaidAmount)
		if !ok {
			return models.State{}, models.NewValidationError("participants",
				"each participant's paidAmount must be a valid non-negative number")
		}

		name := ""
		if entry.Name != nil {
			var s string
			if err := json.Unmarshal(entry.Name, &s); err == nil {
				name = strings.TrimSpace(s)
			}
		}

		state.Roster = append(state.Roster, models.RosterEntry{
			ID:         i,
			Name:       name,
			PaidAmount: paidAmount,
		})
	}

	return state, nil
}

// parseAmount accepts a JSON number or a numeric string. A missing field
// defaults to 0. Returns false for anything else, and for NaN, infinite or
// negative values.
func parseAmount(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, true
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return number, validAmount(number)
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return 0, false
		}
		return parsed, validAmount(parsed)
	}

	return 0, false
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
