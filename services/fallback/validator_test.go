package fallback

import (
	"testing"

	"lastmile-address/models/address"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }
func str(s string) *string   { return &s }

func addrAt(lat, lng float64) *address.Address {
	return &address.Address{Lat: f64(lat), Lng: f64(lng)}
}

func TestResolve_PrimaryAddressWithoutLocation(t *testing.T) {
	_, err := Resolve(&address.Address{}, f64(24.71), f64(46.67), Scheduling{})
	assert.ErrorIs(t, err, ErrPrimaryAddressMissingLocation)

	_, err = Resolve(nil, f64(24.71), f64(46.67), Scheduling{})
	assert.ErrorIs(t, err, ErrPrimaryAddressMissingLocation)
}

func TestResolve_ContactLocationRequired(t *testing.T) {
	addr := addrAt(24.7136, 46.6753)

	_, err := Resolve(addr, nil, nil, Scheduling{})
	assert.ErrorIs(t, err, ErrContactLocationRequired)

	_, err = Resolve(addr, f64(24.71), nil, Scheduling{})
	assert.ErrorIs(t, err, ErrContactLocationRequired)
}

func TestResolve_NearbyContactIsFree(t *testing.T) {
	addr := addrAt(24.7136, 46.6753)

	// About 2.2 km north of the primary address.
	placement, err := Resolve(addr, f64(24.7336), f64(46.6753), Scheduling{})
	require.NoError(t, err)
	assert.False(t, placement.RequiresExtraFee)
	assert.InDelta(t, 2.22, placement.DistanceKm, 0.02)
	assert.Nil(t, err)
}

func TestResolve_SamePointIsFree(t *testing.T) {
	addr := addrAt(24.7136, 46.6753)

	placement, err := Resolve(addr, f64(24.7136), f64(46.6753), Scheduling{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, placement.DistanceKm)
	assert.False(t, placement.RequiresExtraFee)
}

func TestResolve_DistantContactNeedsScheduling(t *testing.T) {
	addr := addrAt(24.7136, 46.6753)
	lat, lng := f64(24.7606), f64(46.6753) // about 5.2 km north

	_, err := Resolve(addr, lat, lng, Scheduling{})
	assert.ErrorIs(t, err, ErrSchedulingRequired)

	// Scheduling without the fee acknowledgement is still rejected.
	_, err = Resolve(addr, lat, lng, Scheduling{
		ScheduledDate:     str("2025-01-01"),
		ScheduledTimeSlot: str("evening-18-20"),
	})
	assert.ErrorIs(t, err, ErrSchedulingRequired)

	placement, err := Resolve(addr, lat, lng, Scheduling{
		ScheduledDate:        str("2025-01-01"),
		ScheduledTimeSlot:    str("evening-18-20"),
		ExtraFeeAcknowledged: true,
	})
	require.NoError(t, err)
	assert.True(t, placement.RequiresExtraFee)
	assert.InDelta(t, 5.2, placement.DistanceKm, 0.05)
}

func TestResolve_InvalidSchedulingFields(t *testing.T) {
	addr := addrAt(24.7136, 46.6753)
	lat, lng := f64(24.7606), f64(46.6753)

	_, err := Resolve(addr, lat, lng, Scheduling{
		ScheduledDate:        str("01/01/2025"),
		ScheduledTimeSlot:    str("evening-18-20"),
		ExtraFeeAcknowledged: true,
	})
	assert.ErrorIs(t, err, ErrInvalidScheduledDate)

	_, err = Resolve(addr, lat, lng, Scheduling{
		ScheduledDate:        str("2025-01-01"),
		ScheduledTimeSlot:    str("midnight-0-2"),
		ExtraFeeAcknowledged: true,
	})
	assert.ErrorIs(t, err, ErrInvalidTimeSlot)
}

func TestResolve_FeeDecisionMatchesStoredDistance(t *testing.T) {
	addr := addrAt(24.7136, 46.6753)

	// Walk latitude offsets around the boundary; whatever distance comes
	// back, the fee flag must agree with the stored (rounded) value.
	for _, dLat := range []float64{0.025, 0.0269, 0.027, 0.0271, 0.03} {
		placement, err := Resolve(addr, f64(24.7136+dLat), f64(46.6753), Scheduling{
			ScheduledDate:        str("2025-01-01"),
			ScheduledTimeSlot:    str("morning-8-10"),
			ExtraFeeAcknowledged: true,
		})
		require.NoError(t, err)
		assert.Equal(t, placement.DistanceKm > 3.0, placement.RequiresExtraFee,
			"fee flag must match rounded distance %v", placement.DistanceKm)
	}
}

func TestLocate_NoSchedulingEnforcement(t *testing.T) {
	addr := addrAt(24.7136, 46.6753)

	// Locate only positions the contact; a distant one carries the fee flag
	// without any scheduling fields being present.
	placement, err := Locate(addr, f64(24.7606), f64(46.6753))
	require.NoError(t, err)
	assert.True(t, placement.RequiresExtraFee)
	assert.InDelta(t, 5.2, placement.DistanceKm, 0.05)

	placement, err = Locate(addr, f64(24.7336), f64(46.6753))
	require.NoError(t, err)
	assert.False(t, placement.RequiresExtraFee)
}

func TestLocate_MissingCoordinates(t *testing.T) {
	_, err := Locate(&address.Address{}, f64(24.71), f64(46.67))
	assert.ErrorIs(t, err, ErrPrimaryAddressMissingLocation)

	_, err = Locate(addrAt(24.7136, 46.6753), nil, f64(46.67))
	assert.ErrorIs(t, err, ErrContactLocationRequired)
}

func TestLocate_MovedPrimaryChangesPlacement(t *testing.T) {
	contactLat, contactLng := f64(24.7336), f64(46.6753)

	near, err := Locate(addrAt(24.7136, 46.6753), contactLat, contactLng)
	require.NoError(t, err)
	assert.False(t, near.RequiresExtraFee)

	// The same contact falls outside the free distance once the primary
	// address moves south.
	far, err := Locate(addrAt(24.6936, 46.6753), contactLat, contactLng)
	require.NoError(t, err)
	assert.True(t, far.RequiresExtraFee)
	assert.Greater(t, far.DistanceKm, near.DistanceKm)
}

func TestIsValidTimeSlot(t *testing.T) {
	for _, slot := range TimeSlots {
		assert.True(t, IsValidTimeSlot(slot))
	}
	assert.False(t, IsValidTimeSlot(""))
	assert.False(t, IsValidTimeSlot("morning"))
}
