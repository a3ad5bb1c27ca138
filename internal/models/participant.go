package models

import (
	"time"

	"gorm.io/gorm"
)

// Participant is the persisted identity row for a roster member
type Participant struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name string `gorm:"type:varchar(255)" json:"name"`

	// Relationships
	Payment *PaymentRecord `gorm:"foreignKey:ParticipantID" json:"payment,omitempty"`
}

// PaymentRecord stores one participant's paid amount together with the shared
// per-person amount in force at save time. The shared amount is denormalized
// onto every record; loads take it from the first one.
type PaymentRecord struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	PaidAmount    float64 `gorm:"type:decimal(15,2)" json:"paid_amount"`
	TotalAmount   float64 `gorm:"type:decimal(15,2)" json:"total_amount"`
	ParticipantID uint    `gorm:"index" json:"participant_id"`

	// Relationships
	Participant Participant `gorm:"foreignKey:ParticipantID" json:"participant,omitempty"`
}
