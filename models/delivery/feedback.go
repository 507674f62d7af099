package delivery

import (
	"time"
)

// DriverFeedback is one submitted feedback event for a shipment lookup.
// Company name and address digital id are denormalized so the reputation
// aggregator can group without joining back through lookups.
type DriverFeedback struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Foreign key for lookup relationship
	LookupID uint           `gorm:"not null;index" json:"lookup_id"`
	Lookup   ShipmentLookup `gorm:"foreignKey:LookupID" json:"lookup"`

	DeliveryStatus   DeliveryStatus   `gorm:"type:varchar(20);not null" json:"delivery_status"`
	LocationScore    *int             `gorm:"type:int" json:"location_score,omitempty"`
	CustomerBehavior CustomerBehavior `gorm:"type:varchar(30);not null" json:"customer_behavior"`
	FailureReason    *string          `gorm:"type:varchar(100)" json:"failure_reason,omitempty"`
	AdditionalNotes  *string          `gorm:"type:text" json:"additional_notes,omitempty"`

	CompanyName      string `gorm:"type:varchar(255);not null;index" json:"company_name"`
	AddressDigitalID string `gorm:"type:varchar(8);not null;index" json:"address_digital_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
