package utils

import (
	"testing"

	driverTypes "lastmile-address/types/driver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePhoneNumber(t *testing.T) {
	valid := []string{"0512345678", "+966512345678", " 0512345678 "}
	for _, phone := range valid {
		assert.True(t, ValidatePhoneNumber(phone), phone)
	}

	invalid := []string{"", "12345", "0612345678", "+966412345678", "051234567", "05123456789"}
	for _, phone := range invalid {
		assert.False(t, ValidatePhoneNumber(phone), phone)
	}
}

func TestValidationMessages_FailureReasonConditional(t *testing.T) {
	req := driverTypes.SubmitFeedbackRequest{
		LookupID:         1,
		DeliveryStatus:   "failed",
		LocationScore:    3,
		CustomerBehavior: "neutral",
	}

	err := Validate.Struct(&req)
	require.Error(t, err)

	messages := ValidationMessages(err)
	assert.Contains(t, messages, "failurereason")
}

func TestValidationMessages_ScoreBounds(t *testing.T) {
	req := driverTypes.SubmitFeedbackRequest{
		LookupID:         1,
		DeliveryStatus:   "delivered",
		LocationScore:    6,
		CustomerBehavior: "neutral",
	}

	err := Validate.Struct(&req)
	require.Error(t, err)

	messages := ValidationMessages(err)
	assert.Equal(t, "must be at most 5", messages["locationscore"])
}

func TestValidate_AcceptsCompleteFeedback(t *testing.T) {
	reason := "gate locked"
	req := driverTypes.SubmitFeedbackRequest{
		LookupID:         1,
		DeliveryStatus:   "failed",
		LocationScore:    2,
		CustomerBehavior: "unreachable",
		FailureReason:    &reason,
	}

	assert.NoError(t, Validate.Struct(&req))
}
