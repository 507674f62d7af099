package fallback

import (
	"errors"
	"math"
	"time"

	"lastmile-address/models/address"
	"lastmile-address/services/geo"
)

// Domain precondition failures surfaced to clients as 400s.
var (
	ErrPrimaryAddressMissingLocation = errors.New("primary address has no stored location")
	ErrContactLocationRequired       = errors.New("fallback contact coordinates are required")
	ErrSchedulingRequired            = errors.New("scheduled date, time slot and fee acknowledgement are required beyond the free distance")
	ErrInvalidScheduledDate          = errors.New("scheduled date must be in YYYY-MM-DD format")
	ErrInvalidTimeSlot               = errors.New("unknown delivery time slot")
)

// TimeSlots is the fixed enumeration offered for paid fallback deliveries.
var TimeSlots = []string{
	"morning-8-10",
	"morning-10-12",
	"noon-12-14",
	"afternoon-14-16",
	"afternoon-16-18",
	"evening-18-20",
	"evening-20-22",
}

// IsValidTimeSlot reports whether slot is one of the fixed slots.
func IsValidTimeSlot(slot string) bool {
	for _, s := range TimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// Placement is the server-computed position of a fallback contact relative
// to its primary address. Client-submitted distance values are never used.
type Placement struct {
	DistanceKm       float64
	RequiresExtraFee bool
}

// Scheduling carries the client-submitted scheduling fields, which only
// matter when the placement requires an extra fee.
type Scheduling struct {
	ScheduledDate        *string
	ScheduledTimeSlot    *string
	ExtraFeeAcknowledged bool
}

// Locate computes a fallback contact's placement relative to its primary
// address. It is also what repositions existing contacts when the primary
// address moves, so the stored distance never goes stale.
func Locate(addr *address.Address, lat, lng *float64) (Placement, error) {
	if addr == nil || !addr.HasLocation() {
		return Placement{}, ErrPrimaryAddressMissingLocation
	}
	if lat == nil || lng == nil {
		return Placement{}, ErrContactLocationRequired
	}

	distance := geo.DistanceKm(*addr.Lat, *addr.Lng, *lat, *lng)
	// Rounded to 3 decimals so the stored value and the fee decision agree.
	distance = math.Round(distance*1000) / 1000

	return Placement{
		DistanceKm:       distance,
		RequiresExtraFee: geo.RequiresExtraFee(distance),
	}, nil
}

// Resolve validates a fallback contact's location against its primary
// address and enforces the fee/scheduling gate. It runs on create and again
// on every edit that touches coordinates.
func Resolve(addr *address.Address, lat, lng *float64, sched Scheduling) (Placement, error) {
	placement, err := Locate(addr, lat, lng)
	if err != nil {
		return Placement{}, err
	}

	if !placement.RequiresExtraFee {
		return placement, nil
	}

	if sched.ScheduledDate == nil || *sched.ScheduledDate == "" ||
		sched.ScheduledTimeSlot == nil || *sched.ScheduledTimeSlot == "" ||
		!sched.ExtraFeeAcknowledged {
		return Placement{}, ErrSchedulingRequired
	}
	if _, err := time.Parse("2006-01-02", *sched.ScheduledDate); err != nil {
		return Placement{}, ErrInvalidScheduledDate
	}
	if !IsValidTimeSlot(*sched.ScheduledTimeSlot) {
		return Placement{}, ErrInvalidTimeSlot
	}

	return placement, nil
}
