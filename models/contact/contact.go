package contact

import (
	"time"

	"lastmile-address/models/address"
)

// FallbackContact is an alternate drop location tied to a primary address,
// served to drivers when primary delivery fails. DistanceKm and
// RequiresExtraFee are always recomputed server-side from the primary
// address coordinates; values submitted by clients are discarded.
type FallbackContact struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Foreign key for address relationship
	AddressID uint            `gorm:"not null;index" json:"address_id"`
	Address   address.Address `gorm:"foreignKey:AddressID" json:"address"`

	Name         string  `gorm:"type:varchar(255);not null" json:"name"`
	Phone        string  `gorm:"type:varchar(20);not null" json:"phone"`
	Relationship *string `gorm:"type:varchar(100)" json:"relationship,omitempty"`

	Lat         *float64 `gorm:"type:double precision" json:"lat,omitempty"`
	Lng         *float64 `gorm:"type:double precision" json:"lng,omitempty"`
	TextAddress string   `gorm:"type:text;not null" json:"text_address"`

	PhotoBuilding *string `gorm:"type:text" json:"photo_building,omitempty"`
	PhotoGate     *string `gorm:"type:text" json:"photo_gate,omitempty"`
	SpecialNote   *string `gorm:"type:text" json:"special_note,omitempty"`

	DistanceKm       float64 `gorm:"type:double precision;not null" json:"distance_km"`
	RequiresExtraFee bool    `gorm:"default:false" json:"requires_extra_fee"`

	// Required only when RequiresExtraFee is true.
	ScheduledDate        *string `gorm:"type:varchar(10)" json:"scheduled_date,omitempty"`
	ScheduledTimeSlot    *string `gorm:"type:varchar(30)" json:"scheduled_time_slot,omitempty"`
	ExtraFeeAcknowledged bool    `gorm:"default:false" json:"extra_fee_acknowledged"`

	IsDefault bool `gorm:"default:false" json:"is_default"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}
