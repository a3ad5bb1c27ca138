package handlers

// wireParticipant is the roster entry shape on the read/replace API
type wireParticipant struct {
	Name       string  `json:"name"`
	PaidAmount float64 `json:"paidAmount"`
}

// stateResponse mirrors the read-full-state contract. LastSaved is RFC 3339
// or null when nothing has ever been saved.
type stateResponse struct {
	TotalAmount  float64           `json:"totalAmount"`
	Participants []wireParticipant `json:"participants"`
	LastSaved    *string           `json:"lastSaved"`
}
