package delivery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShipmentLookup_FeedbackLifecycle(t *testing.T) {
	lk := ShipmentLookup{Status: LookupStatusPendingFeedback}
	assert.True(t, lk.CanAcceptFeedback())

	at := time.Now()
	lk.Complete(DeliveryStatusDelivered, at)

	assert.Equal(t, LookupStatusCompleted, lk.Status)
	assert.False(t, lk.CanAcceptFeedback(), "completed lookups never accept another submission")
	require.NotNil(t, lk.DeliveryStatus)
	assert.Equal(t, DeliveryStatusDelivered, *lk.DeliveryStatus)
	require.NotNil(t, lk.DeliveryCompletedAt)
	assert.Equal(t, at, *lk.DeliveryCompletedAt)
}

func TestDeliveryStatus(t *testing.T) {
	assert.True(t, DeliveryStatusDelivered.IsValid())
	assert.True(t, DeliveryStatusFailed.IsValid())
	assert.True(t, DeliveryStatusPartial.IsValid())
	assert.False(t, DeliveryStatus("returned").IsValid())

	assert.True(t, DeliveryStatusDelivered.IsSuccess())
	assert.False(t, DeliveryStatusFailed.IsSuccess())
	assert.False(t, DeliveryStatusPartial.IsSuccess(), "legacy partial status is not a success")

	assert.True(t, DeliveryStatusFailed.RequiresFailureReason())
	assert.False(t, DeliveryStatusDelivered.RequiresFailureReason())
	assert.False(t, DeliveryStatusPartial.RequiresFailureReason())
}

func TestCustomerBehavior(t *testing.T) {
	for _, cb := range []CustomerBehavior{
		CustomerBehaviorCooperative,
		CustomerBehaviorNeutral,
		CustomerBehaviorUncooperative,
		CustomerBehaviorUnreachable,
	} {
		assert.True(t, cb.IsValid())
	}
	assert.False(t, CustomerBehavior("angry").IsValid())
}

func TestAlternateAttempt_CanComplete(t *testing.T) {
	attempt := AlternateAttempt{Status: AttemptStatusInProgress}
	assert.True(t, attempt.CanComplete())

	attempt.Status = AttemptStatusCompleted
	assert.False(t, attempt.CanComplete())
}
