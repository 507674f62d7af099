package delivery

import (
	"time"
)

// DeliveryOutcome is a denormalized record of a terminal delivery result,
// written once per completed lookup. It feeds the reputation aggregator
// independently of raw feedback rows.
type DeliveryOutcome struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	AddressDigitalID string         `gorm:"type:varchar(8);not null;index" json:"address_digital_id"`
	DriverID         string         `gorm:"type:varchar(100);not null" json:"driver_id"`
	CompanyName      string         `gorm:"type:varchar(255);not null;index" json:"company_name"`
	Status           DeliveryStatus `gorm:"type:varchar(20);not null" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
