package delivery

import (
	"time"

	"lastmile-address/models/contact"
)

// AlternateAttempt links a failed lookup to the fallback contact chosen for
// the second delivery attempt, carrying the primary failure metadata.
type AlternateAttempt struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Foreign key for lookup relationship
	LookupID uint           `gorm:"not null;index" json:"lookup_id"`
	Lookup   ShipmentLookup `gorm:"foreignKey:LookupID" json:"lookup"`

	// Foreign key for the chosen fallback contact
	ContactID uint                    `gorm:"not null" json:"contact_id"`
	Contact   contact.FallbackContact `gorm:"foreignKey:ContactID" json:"contact"`

	Status AttemptStatus `gorm:"type:varchar(20);not null;default:in_progress" json:"status"`

	PrimaryFailureReason  string  `gorm:"type:varchar(100);not null" json:"primary_failure_reason"`
	PrimaryFailureDetails *string `gorm:"type:text" json:"primary_failure_details,omitempty"`

	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CanComplete returns true if the attempt is still awaiting its feedback.
func (aa *AlternateAttempt) CanComplete() bool {
	return aa.Status == AttemptStatusInProgress
}
