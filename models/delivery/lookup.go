package delivery

import (
	"time"
)

// ShipmentLookup represents one driver access attempt against an address.
// A driver (driver_id + company_name pair) may hold at most one lookup in
// pending_feedback at a time; a partial unique index backs that invariant.
type ShipmentLookup struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	ShipmentNumber string `gorm:"type:varchar(100);not null" json:"shipment_number"`
	DriverID       string `gorm:"type:varchar(100);not null;index" json:"driver_id"`
	CompanyName    string `gorm:"type:varchar(255);not null;index" json:"company_name"`

	AddressDigitalID string `gorm:"type:varchar(8);not null;index" json:"address_digital_id"`

	Status         LookupStatus    `gorm:"type:varchar(30);not null;default:pending_feedback" json:"status"`
	DeliveryStatus *DeliveryStatus `gorm:"type:varchar(20)" json:"delivery_status,omitempty"`

	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeliveryCompletedAt *time.Time `json:"delivery_completed_at,omitempty"`
}

// CanAcceptFeedback returns true if feedback may still be recorded against
// this lookup. A completed lookup never accepts another submission.
func (sl *ShipmentLookup) CanAcceptFeedback() bool {
	return sl.Status == LookupStatusPendingFeedback
}

// Complete marks the lookup terminal with the given outcome.
func (sl *ShipmentLookup) Complete(status DeliveryStatus, at time.Time) {
	sl.Status = LookupStatusCompleted
	sl.DeliveryStatus = &status
	sl.DeliveryCompletedAt = &at
}
