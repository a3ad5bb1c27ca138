package models

// Status describes how far a participant is with their share
type Status string

const (
	StatusNotPaid  Status = "not-paid"
	StatusPaid     Status = "paid"
	StatusPartial  Status = "partial"
	StatusOverpaid Status = "overpaid"
)

// Classify derives the payment status from the shared amount owed and the
// amount actually paid. The rules are order-sensitive: a participant who has
// paid nothing is "not-paid" even when nothing is owed.
func Classify(owed, paid float64) Status {
	remaining := owed - paid

	if paid == 0 {
		return StatusNotPaid
	}
	if remaining == 0 {
		return StatusPaid
	}
	if remaining > 0 {
		return StatusPartial
	}
	return StatusOverpaid
}

// Remaining returns the outstanding balance. Negative means overpayment.
func Remaining(owed, paid float64) float64 {
	return owed - paid
}

// StatusText returns the human-readable (German) label used in CSV exports
// and the UI.
func StatusText(status Status) string {
	switch status {
	case StatusNotPaid:
		return "Nicht gezahlt"
	case StatusPaid:
		return "✓ Vollständig gezahlt"
	case StatusPartial:
		return "Teilweise gezahlt"
	case StatusOverpaid:
		return "Überzahlung"
	}
	return "-"
}
