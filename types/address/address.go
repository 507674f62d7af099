package address

// AddressCreateRequest is the payload for registering a delivery address.
// Coordinates are optional at registration; the fallback-contact flow
// requires them later.
type AddressCreateRequest struct {
	Lat           *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng           *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	TextAddress   string   `json:"text_address" validate:"required"`
	PhotoBuilding *string  `json:"photo_building"`
	PhotoGate     *string  `json:"photo_gate"`
	PhotoDoor     *string  `json:"photo_door"`
	PreferredTime *string  `json:"preferred_time"`
	SpecialNote   *string  `json:"special_note"`
	IsPrimary     bool     `json:"is_primary"`
}

// AddressUpdateRequest carries owner edits; nil fields are left untouched.
type AddressUpdateRequest struct {
	Lat           *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng           *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	TextAddress   *string  `json:"text_address"`
	PhotoBuilding *string  `json:"photo_building"`
	PhotoGate     *string  `json:"photo_gate"`
	PhotoDoor     *string  `json:"photo_door"`
	PreferredTime *string  `json:"preferred_time"`
	SpecialNote   *string  `json:"special_note"`
}
