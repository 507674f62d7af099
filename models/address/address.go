package address

import (
	"time"

	"lastmile-address/models/user"
)

// Address is a registered delivery address. DigitalID is the public opaque
// identifier used in shareable links and QR codes; it never changes after
// registration even when the owner edits the address.
type Address struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	DigitalID string `gorm:"type:varchar(8);not null;unique" json:"digital_id"`

	// Foreign key for users relationship
	UserID uint      `gorm:"not null;index" json:"user_id"`
	// Never serialized: lookup responses expose the owner through
	// user.PublicContact only.
	User user.User `gorm:"foreignKey:UserID" json:"-"`

	Lat *float64 `gorm:"type:double precision" json:"lat,omitempty"`
	Lng *float64 `gorm:"type:double precision" json:"lng,omitempty"`

	TextAddress string `gorm:"type:text;not null" json:"text_address"`

	// Photos arrive from the upload pipeline as compressed data URIs and are
	// stored opaquely.
	PhotoBuilding *string `gorm:"type:text" json:"photo_building,omitempty"`
	PhotoGate     *string `gorm:"type:text" json:"photo_gate,omitempty"`
	PhotoDoor     *string `gorm:"type:text" json:"photo_door,omitempty"`

	PreferredTime *string `gorm:"type:varchar(50)" json:"preferred_time,omitempty"`
	SpecialNote   *string `gorm:"type:text" json:"special_note,omitempty"`
	IsPrimary     bool    `gorm:"default:false" json:"is_primary"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// HasLocation reports whether the address carries trusted map coordinates.
func (a *Address) HasLocation() bool {
	return a.Lat != nil && a.Lng != nil
}
