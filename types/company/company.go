package company

// CompanyProfileRequest bootstraps the company profile for an authenticated
// account. The profile uuid always comes from the verified token, never the
// body.
type CompanyProfileRequest struct {
	Name  string  `json:"name" validate:"required"`
	Email *string `json:"email" validate:"omitempty,email"`
	Phone *string `json:"phone"`
}

// DriverCreateRequest registers a driver under the authenticated company.
type DriverCreateRequest struct {
	DriverID string  `json:"driver_id" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Phone    string  `json:"phone" validate:"required"`
	Status   *string `json:"status" validate:"omitempty,oneof=active inactive suspended"`
}

// DriverUpdateRequest edits a registered driver; nil fields are untouched.
type DriverUpdateRequest struct {
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	Status *string `json:"status" validate:"omitempty,oneof=active inactive suspended"`
}
