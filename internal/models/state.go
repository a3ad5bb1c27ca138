package models

import "strings"

// RosterEntry is the in-memory roster unit. IDs are session-local: assigned
// monotonically by the store (max existing + 1) and by position on hydrate or
// import. The backends persist only name and paid amount.
type RosterEntry struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	PaidAmount float64 `json:"paidAmount"`
}

// State is the full authoritative state: the shared per-person amount and the
// ordered roster. It is always persisted and replaced as a whole.
type State struct {
	TotalAmount float64
	Roster      []RosterEntry
}

// Clone returns a deep copy so callers can hand out snapshots safely.
func (s State) Clone() State {
	roster := make([]RosterEntry, len(s.Roster))
	copy(roster, s.Roster)
	return State{TotalAmount: s.TotalAmount, Roster: roster}
}

// Summary holds the roster-wide aggregates. All values are derived; nothing
// here is ever stored.
type Summary struct {
	ActiveCount   int     `json:"activeCount"`
	TotalPaid     float64 `json:"totalPaid"`
	ExpectedTotal float64 `json:"expectedTotal"`
	PendingAmount float64 `json:"pendingAmount"`
}

// Summarize recomputes the aggregates from scratch. Participants with a blank
// (whitespace-only) name do not count as active but their payments still add
// to the paid total.
func Summarize(roster []RosterEntry, totalAmount float64) Summary {
	var summary Summary
	for _, entry := range roster {
		if strings.TrimSpace(entry.Name) != "" {
			summary.ActiveCount++
		}
		summary.TotalPaid += entry.PaidAmount
	}
	summary.ExpectedTotal = totalAmount * float64(summary.ActiveCount)
	summary.PendingAmount = summary.ExpectedTotal - summary.TotalPaid
	return summary
}

// ParticipantDisplay is a roster entry enriched with its derived balance and
// status, ready for rendering or export.
type ParticipantDisplay struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	PaidAmount      float64 `json:"paidAmount"`
	RemainingAmount float64 `json:"remainingAmount"`
	Status          Status  `json:"status"`
}

// Display derives the per-participant view rows for the current state.
func (s State) Display() []ParticipantDisplay {
	rows := make([]ParticipantDisplay, 0, len(s.Roster))
	for _, entry := range s.Roster {
		rows = append(rows, ParticipantDisplay{
			ID:              entry.ID,
			Name:            entry.Name,
			PaidAmount:      entry.PaidAmount,
			RemainingAmount: Remaining(s.TotalAmount, entry.PaidAmount),
			Status:          Classify(s.TotalAmount, entry.PaidAmount),
		})
	}
	return rows
}
