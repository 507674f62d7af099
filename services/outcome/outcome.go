package outcome

import (
	deliveryModel "lastmile-address/models/delivery"

	"gorm.io/gorm"
)

// RecordTerminal writes the denormalized DeliveryOutcome row for a lookup
// that just reached a terminal state. Called inside the same transaction
// that completes the lookup so the event stream and the lookup row agree.
func RecordTerminal(tx *gorm.DB, lk *deliveryModel.ShipmentLookup, status deliveryModel.DeliveryStatus) error {
	out := deliveryModel.DeliveryOutcome{
		AddressDigitalID: lk.AddressDigitalID,
		DriverID:         lk.DriverID,
		CompanyName:      lk.CompanyName,
		Status:           status,
	}
	return tx.Create(&out).Error
}
