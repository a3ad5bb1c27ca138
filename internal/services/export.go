package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"tripsplit/internal/models"
)

// ExportVersion tags exported JSON documents. Bumped when the export shape
// changes; the importer still accepts the pre-2.0 "persons" field name.
const ExportVersion = "2.0"

// ErrImportParse marks import input that could not be parsed at all.
// Coercible field-level problems are handled silently, see ParseImport.
var ErrImportParse = errors.New("could not parse import data")

type exportParticipant struct {
	Name            string        `json:"name"`
	PaidAmount      float64       `json:"paidAmount"`
	RemainingAmount float64       `json:"remainingAmount"`
	Status          models.Status `json:"status"`
}

type exportDocument struct {
	TotalAmount  float64             `json:"totalAmount"`
	Participants []exportParticipant `json:"participants"`
	ExportedAt   string              `json:"exportedAt"`
	Version      string              `json:"version"`
}

// ExportJSON renders the state as an indented JSON snapshot, including the
// derived balance and status per participant. Exporting is read-only; it
// never touches persistence.
func ExportJSON(state models.State, exportedAt time.Time) ([]byte, error) {
	doc := exportDocument{
		TotalAmount:  state.TotalAmount,
		Participants: make([]exportParticipant, 0, len(state.Roster)),
		ExportedAt:   exportedAt.UTC().Format(time.RFC3339),
		Version:      ExportVersion,
	}
	for _, entry := range state.Roster {
		doc.Participants = append(doc.Participants, exportParticipant{
			Name:            entry.Name,
			PaidAmount:      entry.PaidAmount,
			RemainingAmount: models.Remaining(state.TotalAmount, entry.PaidAmount),
			Status:          models.Classify(state.TotalAmount, entry.PaidAmount),
		})
	}
	return json.MarshalIndent(doc, "", "  ")
}

// ExportCSV renders the state as comma-separated text with German headers and
// status labels, one row per participant and a trailing summary line with the
// shared amount. Text fields are quoted, amounts are not; the remaining
// balance is fixed to two decimals.
func ExportCSV(state models.State) string {
	var b strings.Builder
	b.WriteString("Name,Gezahlter Betrag (€),Restbetrag (€),Status\n")

	for _, entry := range state.Roster {
		remaining := models.Remaining(state.TotalAmount, entry.PaidAmount)
		status := models.Classify(state.TotalAmount, entry.PaidAmount)
		fmt.Fprintf(&b, "%s,%s,%.2f,%s\n",
			csvQuote(entry.Name),
			formatAmount(entry.PaidAmount),
			remaining,
			csvQuote(models.StatusText(status)))
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "Gesamtbetrag pro Teilnehmer,%s\n", formatAmount(state.TotalAmount))
	return b.String()
}

func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type importEntry struct {
	Name       json.RawMessage `json:"name"`
	PaidAmount json.RawMessage `json:"paidAmount"`
}

type importDocument struct {
	TotalAmount  json.RawMessage `json:"totalAmount"`
	Participants []importEntry   `json:"participants"`
	Persons      []importEntry   `json:"persons"`
}

// ParseImport converts exported (or hand-edited) JSON back into a full state.
// The parser is deliberately tolerant, with these exact coercion rules:
//   - the roster is read from "participants", falling back to the legacy
//     "persons" field name
//   - amounts accept a JSON number or a numeric string; anything else,
//     including a missing field, coerces to 0
//   - a missing or non-string name coerces to ""
//   - ids carried in the input are discarded; entries are renumbered by
//     position starting at 0
//
// Only input that is not a JSON object at all fails, with ErrImportParse.
func ParseImport(data []byte) (models.State, error) {
	var doc importDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.State{}, fmt.Errorf("%w: %v", ErrImportParse, err)
	}

	entries := doc.Participants
	if entries == nil {
		entries = doc.Persons
	}

	state := models.State{
		TotalAmount: coerceAmount(doc.TotalAmount),
		Roster:      make([]models.RosterEntry, 0, len(entries)),
	}
	for i, entry := range entries {
		state.Roster = append(state.Roster, models.RosterEntry{
			ID:         i,
			Name:       coerceString(entry.Name),
			PaidAmount: coerceAmount(entry.PaidAmount),
		})
	}
	return state, nil
}

// coerceAmount turns a raw JSON value into a float64, defaulting to 0 for
// anything that is not a number or a numeric string.
func coerceAmount(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return number
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err == nil && !math.IsNaN(parsed) && !math.IsInf(parsed, 0) {
			return parsed
		}
	}
	return 0
}

func coerceString(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return ""
	}
	return text
}
