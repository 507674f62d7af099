package driver

import (
	addressModel "lastmile-address/models/address"
	contactModel "lastmile-address/models/contact"
	deliveryModel "lastmile-address/models/delivery"
)

// CheckPendingFeedbackRequest asks whether a driver is locked behind an
// unsubmitted feedback form.
type CheckPendingFeedbackRequest struct {
	DriverID    string `json:"driver_id" validate:"required"`
	CompanyName string `json:"company_name" validate:"required"`
}

// CheckPendingFeedbackResponse mirrors the lock state to the client.
type CheckPendingFeedbackResponse struct {
	HasPendingFeedback bool                          `json:"has_pending_feedback"`
	PendingLookup      *deliveryModel.ShipmentLookup `json:"pending_lookup,omitempty"`
}

// LookupAddressRequest is a driver's shipment lookup. The company name is a
// best-effort hint (referrer, query param or stored device preference); the
// driver registry check is the trust boundary.
type LookupAddressRequest struct {
	ShipmentNumber string `json:"shipment_number" validate:"required"`
	DriverID       string `json:"driver_id" validate:"required"`
	CompanyName    string `json:"company_name" validate:"required"`
	DigitalID      string `json:"digital_id" validate:"required,len=8"`
}

// LookupAddressResponse returns the resolved address, the sanitized owner
// contact and the fallback contacts with the default first.
type LookupAddressResponse struct {
	LookupID         uint                          `json:"lookup_id"`
	Address          addressModel.Address          `json:"address"`
	User             map[string]interface{}        `json:"user"`
	FallbackContacts []contactModel.FallbackContact `json:"fallback_contacts"`
}

// SubmitFeedbackRequest records the outcome of a primary delivery attempt.
// A failure reason is mandatory exactly when the delivery failed.
type SubmitFeedbackRequest struct {
	LookupID         uint    `json:"lookup_id" validate:"required"`
	DeliveryStatus   string  `json:"delivery_status" validate:"required,oneof=delivered failed partial"`
	LocationScore    int     `json:"location_score" validate:"required,min=1,max=5"`
	CustomerBehavior string  `json:"customer_behavior" validate:"required,oneof=cooperative neutral uncooperative unreachable"`
	FailureReason    *string `json:"failure_reason" validate:"required_if=DeliveryStatus failed"`
	AdditionalNotes  *string `json:"additional_notes"`
}

// RequestAlternateRequest asks for an alternate drop location after a failed
// primary attempt, carrying the primary failure feedback.
type RequestAlternateRequest struct {
	LookupID         uint    `json:"lookup_id" validate:"required"`
	FailureReason    string  `json:"failure_reason" validate:"required"`
	LocationScore    int     `json:"location_score" validate:"required,min=1,max=5"`
	CustomerBehavior string  `json:"customer_behavior" validate:"required,oneof=cooperative neutral uncooperative unreachable"`
	AdditionalNotes  *string `json:"additional_notes"`
}

// RequestAlternateResponse hands the driver the chosen fallback contact.
type RequestAlternateResponse struct {
	AlternateLocation contactModel.FallbackContact    `json:"alternate_location"`
	Attempt           deliveryModel.AlternateAttempt `json:"attempt"`
}

// CompleteAlternateRequest closes an alternate attempt with its feedback and
// releases the originating lookup's feedback lock.
type CompleteAlternateRequest struct {
	AttemptID        uint    `json:"attempt_id" validate:"required"`
	DeliveryStatus   string  `json:"delivery_status" validate:"required,oneof=delivered failed partial"`
	LocationScore    int     `json:"location_score" validate:"required,min=1,max=5"`
	CustomerBehavior string  `json:"customer_behavior" validate:"required,oneof=cooperative neutral uncooperative unreachable"`
	FailureReason    *string `json:"failure_reason" validate:"required_if=DeliveryStatus failed"`
	AdditionalNotes  *string `json:"additional_notes"`
}

// AlternatesResponse lists the fallback locations available to a lookup and
// any attempt already in progress.
type AlternatesResponse struct {
	AlternateLocations []contactModel.FallbackContact  `json:"alternate_locations"`
	ActiveAttempt      *deliveryModel.AlternateAttempt `json:"active_attempt,omitempty"`
}
