package contact

// ContactCreateRequest attaches a fallback contact to an address. Any
// distance value a client sends is ignored; the server recomputes it from
// the primary address's trusted coordinates.
type ContactCreateRequest struct {
	AddressID            uint     `json:"address_id" validate:"required"`
	Name                 string   `json:"name" validate:"required"`
	Phone                string   `json:"phone" validate:"required"`
	Relationship         *string  `json:"relationship"`
	Lat                  *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng                  *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	TextAddress          string   `json:"text_address" validate:"required"`
	PhotoBuilding        *string  `json:"photo_building"`
	PhotoGate            *string  `json:"photo_gate"`
	SpecialNote          *string  `json:"special_note"`
	ScheduledDate        *string  `json:"scheduled_date"`
	ScheduledTimeSlot    *string  `json:"scheduled_time_slot"`
	ExtraFeeAcknowledged bool     `json:"extra_fee_acknowledged"`
	IsDefault            bool     `json:"is_default"`
}

// ContactUpdateRequest carries edits to an existing fallback contact. The
// fee/scheduling gate is re-run whenever coordinates change.
type ContactUpdateRequest struct {
	Name                 *string  `json:"name"`
	Phone                *string  `json:"phone"`
	Relationship         *string  `json:"relationship"`
	Lat                  *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng                  *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	TextAddress          *string  `json:"text_address"`
	PhotoBuilding        *string  `json:"photo_building"`
	PhotoGate            *string  `json:"photo_gate"`
	SpecialNote          *string  `json:"special_note"`
	ScheduledDate        *string  `json:"scheduled_date"`
	ScheduledTimeSlot    *string  `json:"scheduled_time_slot"`
	ExtraFeeAcknowledged *bool    `json:"extra_fee_acknowledged"`
	IsDefault            *bool    `json:"is_default"`
}
