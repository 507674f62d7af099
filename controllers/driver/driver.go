package driver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"lastmile-address/logger"
	addressModel "lastmile-address/models/address"
	companyModel "lastmile-address/models/company"
	contactModel "lastmile-address/models/contact"
	deliveryModel "lastmile-address/models/delivery"
	outcomeService "lastmile-address/services/outcome"
	"lastmile-address/types"
	driverTypes "lastmile-address/types/driver"
	"lastmile-address/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DriverController handles the driver-facing delivery-resolution workflow.
// These endpoints are intentionally unauthenticated; the gate is the
// shipment-number/driver-id pair checked against the company driver
// registry, plus the pending-feedback lock.
type DriverController struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
}

// NewDriverController creates a new driver controller
func NewDriverController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *DriverController {
	return &DriverController{
		DB:     db,
		Logger: asyncLogger,
	}
}

// findPendingLookup returns the outstanding pending_feedback lookup for a
// normalized (driverID, companyName) pair, or nil.
func findPendingLookup(tx *gorm.DB, driverID, companyName string) (*deliveryModel.ShipmentLookup, error) {
	var lookup deliveryModel.ShipmentLookup
	err := tx.Where("LOWER(driver_id) = ? AND LOWER(company_name) = ? AND status = ?",
		companyModel.NormalizeDriverID(driverID),
		companyModel.NormalizeCompanyName(companyName),
		deliveryModel.LookupStatusPendingFeedback,
	).First(&lookup).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lookup, nil
}

// loadContacts returns an address's fallback contacts with the default first.
func loadContacts(tx *gorm.DB, addressID uint) ([]contactModel.FallbackContact, error) {
	var contacts []contactModel.FallbackContact
	err := tx.Where("address_id = ?", addressID).
		Order("is_default DESC, created_at ASC").
		Find(&contacts).Error
	return contacts, err
}

// CheckPendingFeedback reports whether the driver is locked behind an
// unsubmitted feedback form, so the client can redirect to it up front.
func (dc *DriverController) CheckPendingFeedback(c *fiber.Ctx) error {
	var req driverTypes.CheckPendingFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}
	if err := utils.Validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Validation failed",
			Data:    utils.ValidationMessages(err),
		})
	}

	pending, err := findPendingLookup(dc.DB, req.DriverID, req.CompanyName)
	if err != nil {
		logger.Error("Failed to query pending lookup", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Pending feedback status retrieved",
		Data: driverTypes.CheckPendingFeedbackResponse{
			HasPendingFeedback: pending != nil,
			PendingLookup:      pending,
		},
	})
}

// LookupAddress validates a driver's shipment lookup and, on success,
// creates the pending_feedback lookup and returns the address details.
func (dc *DriverController) LookupAddress(c *fiber.Ctx) error {
	var req driverTypes.LookupAddressRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}
	if err := utils.Validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Validation failed",
			Data:    utils.ValidationMessages(err),
		})
	}

	var (
		lookup   deliveryModel.ShipmentLookup
		addr     addressModel.Address
		blocked  *deliveryModel.ShipmentLookup
		denied   bool
		notFound bool
	)

	// The pending check and the insert run in one transaction; the partial
	// unique index on pending lookups closes the remaining race window.
	err := dc.DB.Transaction(func(tx *gorm.DB) error {
		pending, err := findPendingLookup(tx, req.DriverID, req.CompanyName)
		if err != nil {
			return err
		}
		if pending != nil {
			blocked = pending
			return nil
		}

		var profile companyModel.CompanyProfile
		if err := tx.Where("LOWER(name) = ?", companyModel.NormalizeCompanyName(req.CompanyName)).
			First(&profile).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				denied = true
				return nil
			}
			return err
		}

		var driver companyModel.CompanyDriver
		if err := tx.Where("company_profile_id = ? AND LOWER(driver_id) = ?",
			profile.ID, companyModel.NormalizeDriverID(req.DriverID)).
			First(&driver).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				denied = true
				return nil
			}
			return err
		}
		if !driver.Status.CanDeliver() {
			denied = true
			return nil
		}

		if err := tx.Preload("User").Where("digital_id = ?", req.DigitalID).
			First(&addr).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				notFound = true
				return nil
			}
			return err
		}

		// Canonical identity is stored, never the raw hints: the normalized
		// driver id and the registered company name. Pending-lock queries and
		// company dashboard scoping all compare against these.
		lookup = deliveryModel.ShipmentLookup{
			ShipmentNumber:   strings.TrimSpace(req.ShipmentNumber),
			DriverID:         companyModel.NormalizeDriverID(req.DriverID),
			CompanyName:      profile.Name,
			AddressDigitalID: addr.DigitalID,
			Status:           deliveryModel.LookupStatusPendingFeedback,
		}
		return tx.Create(&lookup).Error
	})

	if err != nil {
		// Two concurrent lookups from the same driver can both pass the
		// pending check; the partial unique index rejects the loser, which
		// is the same condition as an up-front pending match.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			data := map[string]interface{}{"requires_feedback": true}
			if pending, perr := findPendingLookup(dc.DB, req.DriverID, req.CompanyName); perr == nil && pending != nil {
				data["pending_lookup_id"] = pending.ID
			}
			return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
				Status:  fiber.StatusForbidden,
				Message: "Feedback required before a new lookup",
				Data:    data,
			})
		}
		logger.Error("Failed to process address lookup", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	if blocked != nil {
		return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "Feedback required before a new lookup",
			Data: map[string]interface{}{
				"requires_feedback": true,
				"pending_lookup_id": blocked.ID,
			},
		})
	}
	if denied {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "Driver is not registered or not active for this company",
			Data:    nil,
		})
	}
	if notFound {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status:  fiber.StatusNotFound,
			Message: "Address not found",
			Data:    nil,
		})
	}

	contacts, err := loadContacts(dc.DB, addr.ID)
	if err != nil {
		logger.Error("Failed to load fallback contacts", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Lookup %d created for address %s by driver %s", lookup.ID, addr.DigitalID, req.DriverID))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Address resolved successfully",
		Data: driverTypes.LookupAddressResponse{
			LookupID:         lookup.ID,
			Address:          addr,
			User:             addr.User.PublicContact(),
			FallbackContacts: contacts,
		},
	})
}

// SubmitFeedback records the outcome of a primary delivery attempt, closes
// the lookup and releases the pending-feedback lock.
func (dc *DriverController) SubmitFeedback(c *fiber.Ctx) error {
	var req driverTypes.SubmitFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}
	if err := utils.Validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Validation failed",
			Data:    utils.ValidationMessages(err),
		})
	}

	status := deliveryModel.DeliveryStatus(req.DeliveryStatus)

	var (
		notFound      bool
		completed     bool
		attemptActive bool
	)

	err := dc.DB.Transaction(func(tx *gorm.DB) error {
		var lookup deliveryModel.ShipmentLookup
		if err := tx.First(&lookup, req.LookupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				notFound = true
				return nil
			}
			return err
		}
		if !lookup.CanAcceptFeedback() {
			completed = true
			return nil
		}

		// Once an alternate attempt is open, the attempt owns the lookup's
		// terminal transition. Plain feedback here would close the lookup
		// underneath it and record a second outcome on completion.
		var attempt deliveryModel.AlternateAttempt
		attemptErr := tx.Where("lookup_id = ? AND status = ?", lookup.ID, deliveryModel.AttemptStatusInProgress).
			First(&attempt).Error
		if attemptErr == nil {
			attemptActive = true
			return nil
		}
		if !errors.Is(attemptErr, gorm.ErrRecordNotFound) {
			return attemptErr
		}

		score := req.LocationScore
		feedback := deliveryModel.DriverFeedback{
			LookupID:         lookup.ID,
			DeliveryStatus:   status,
			LocationScore:    &score,
			CustomerBehavior: deliveryModel.CustomerBehavior(req.CustomerBehavior),
			FailureReason:    req.FailureReason,
			AdditionalNotes:  req.AdditionalNotes,
			CompanyName:      lookup.CompanyName,
			AddressDigitalID: lookup.AddressDigitalID,
		}
		if err := tx.Create(&feedback).Error; err != nil {
			return err
		}

		lookup.Complete(status, time.Now())
		if err := tx.Save(&lookup).Error; err != nil {
			return err
		}

		return outcomeService.RecordTerminal(tx, &lookup, status)
	})

	if err != nil {
		logger.Error("Failed to submit feedback", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to submit feedback",
			Data:    nil,
		})
	}

	if notFound {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status:  fiber.StatusNotFound,
			Message: "Lookup not found",
			Data:    nil,
		})
	}
	if completed {
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: "Feedback was already submitted for this lookup",
			Data:    nil,
		})
	}
	if attemptActive {
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: "An alternate attempt is in progress; complete it instead",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Feedback recorded for lookup %d (%s)", req.LookupID, req.DeliveryStatus))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Feedback submitted successfully",
		Data:    nil,
	})
}

// GetAlternates lists the fallback locations available to a lookup and any
// alternate attempt already in progress.
func (dc *DriverController) GetAlternates(c *fiber.Ctx) error {
	lookupID, err := c.ParamsInt("id")
	if err != nil || lookupID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid lookup id",
			Data:    nil,
		})
	}

	var lookup deliveryModel.ShipmentLookup
	if err := dc.DB.First(&lookup, lookupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Lookup not found",
				Data:    nil,
			})
		}
		logger.Error("Failed to find lookup", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	var addr addressModel.Address
	if err := dc.DB.Where("digital_id = ?", lookup.AddressDigitalID).First(&addr).Error; err != nil {
		logger.Error("Failed to resolve lookup address", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	contacts, err := loadContacts(dc.DB, addr.ID)
	if err != nil {
		logger.Error("Failed to load fallback contacts", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	var active *deliveryModel.AlternateAttempt
	var attempt deliveryModel.AlternateAttempt
	err = dc.DB.Where("lookup_id = ? AND status = ?", lookup.ID, deliveryModel.AttemptStatusInProgress).
		First(&attempt).Error
	if err == nil {
		active = &attempt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to load active attempt", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Alternate locations retrieved",
		Data: driverTypes.AlternatesResponse{
			AlternateLocations: contacts,
			ActiveAttempt:      active,
		},
	})
}

// RequestAlternate records the primary failure feedback and serves the
// chosen fallback contact. The lookup stays pending_feedback: the lock is
// released only when the alternate attempt itself completes.
func (dc *DriverController) RequestAlternate(c *fiber.Ctx) error {
	var req driverTypes.RequestAlternateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}
	if err := utils.Validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Validation failed",
			Data:    utils.ValidationMessages(err),
		})
	}

	var (
		notFound     bool
		completed    bool
		noAlternates bool
		inProgress   bool
		chosen       contactModel.FallbackContact
		attempt      deliveryModel.AlternateAttempt
	)

	err := dc.DB.Transaction(func(tx *gorm.DB) error {
		var lookup deliveryModel.ShipmentLookup
		if err := tx.First(&lookup, req.LookupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				notFound = true
				return nil
			}
			return err
		}
		if !lookup.CanAcceptFeedback() {
			completed = true
			return nil
		}

		var existing deliveryModel.AlternateAttempt
		err := tx.Where("lookup_id = ? AND status = ?", lookup.ID, deliveryModel.AttemptStatusInProgress).
			First(&existing).Error
		if err == nil {
			inProgress = true
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var addr addressModel.Address
		if err := tx.Where("digital_id = ?", lookup.AddressDigitalID).First(&addr).Error; err != nil {
			return err
		}

		contacts, err := loadContacts(tx, addr.ID)
		if err != nil {
			return err
		}
		if len(contacts) == 0 {
			noAlternates = true
			return nil
		}
		// Default first ordering makes the preferred contact the head.
		chosen = contacts[0]

		score := req.LocationScore
		failureReason := req.FailureReason
		feedback := deliveryModel.DriverFeedback{
			LookupID:         lookup.ID,
			DeliveryStatus:   deliveryModel.DeliveryStatusFailed,
			LocationScore:    &score,
			CustomerBehavior: deliveryModel.CustomerBehavior(req.CustomerBehavior),
			FailureReason:    &failureReason,
			AdditionalNotes:  req.AdditionalNotes,
			CompanyName:      lookup.CompanyName,
			AddressDigitalID: lookup.AddressDigitalID,
		}
		if err := tx.Create(&feedback).Error; err != nil {
			return err
		}

		attempt = deliveryModel.AlternateAttempt{
			LookupID:              lookup.ID,
			ContactID:             chosen.ID,
			Status:                deliveryModel.AttemptStatusInProgress,
			PrimaryFailureReason:  req.FailureReason,
			PrimaryFailureDetails: req.AdditionalNotes,
		}
		return tx.Create(&attempt).Error
	})

	if err != nil {
		logger.Error("Failed to request alternate location", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to request alternate location",
			Data:    nil,
		})
	}

	if notFound {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status:  fiber.StatusNotFound,
			Message: "Lookup not found",
			Data:    nil,
		})
	}
	if completed {
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: "Lookup is already completed",
			Data:    nil,
		})
	}
	if inProgress {
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: "An alternate attempt is already in progress for this lookup",
			Data:    nil,
		})
	}
	if noAlternates {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "No alternate locations are registered for this address",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Alternate attempt %d created for lookup %d", attempt.ID, req.LookupID))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Alternate location assigned",
		Data: driverTypes.RequestAlternateResponse{
			AlternateLocation: chosen,
			Attempt:           attempt,
		},
	})
}

// CompleteAlternate records the alternate delivery feedback and closes both
// the attempt and the originating lookup, releasing the feedback lock.
func (dc *DriverController) CompleteAlternate(c *fiber.Ctx) error {
	var req driverTypes.CompleteAlternateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}
	if err := utils.Validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Validation failed",
			Data:    utils.ValidationMessages(err),
		})
	}

	status := deliveryModel.DeliveryStatus(req.DeliveryStatus)

	var (
		notFound     bool
		completed    bool
		lookupClosed bool
	)

	err := dc.DB.Transaction(func(tx *gorm.DB) error {
		var attempt deliveryModel.AlternateAttempt
		if err := tx.First(&attempt, req.AttemptID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				notFound = true
				return nil
			}
			return err
		}
		if !attempt.CanComplete() {
			completed = true
			return nil
		}

		var lookup deliveryModel.ShipmentLookup
		if err := tx.First(&lookup, attempt.LookupID).Error; err != nil {
			return err
		}
		// The lookup can reach a terminal state without this attempt (direct
		// feedback raced ahead). Completing anyway would overwrite the terminal
		// status and record a duplicate outcome row.
		if !lookup.CanAcceptFeedback() {
			lookupClosed = true
			return nil
		}

		// Feedback stays attributed to the primary address: the fallback
		// contact's distance was always relative to it.
		score := req.LocationScore
		feedback := deliveryModel.DriverFeedback{
			LookupID:         lookup.ID,
			DeliveryStatus:   status,
			LocationScore:    &score,
			CustomerBehavior: deliveryModel.CustomerBehavior(req.CustomerBehavior),
			FailureReason:    req.FailureReason,
			AdditionalNotes:  req.AdditionalNotes,
			CompanyName:      lookup.CompanyName,
			AddressDigitalID: lookup.AddressDigitalID,
		}
		if err := tx.Create(&feedback).Error; err != nil {
			return err
		}

		now := time.Now()
		attempt.Status = deliveryModel.AttemptStatusCompleted
		attempt.CompletedAt = &now
		if err := tx.Save(&attempt).Error; err != nil {
			return err
		}

		lookup.Complete(status, now)
		if err := tx.Save(&lookup).Error; err != nil {
			return err
		}

		return outcomeService.RecordTerminal(tx, &lookup, status)
	})

	if err != nil {
		logger.Error("Failed to complete alternate attempt", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to complete alternate attempt",
			Data:    nil,
		})
	}

	if notFound {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status:  fiber.StatusNotFound,
			Message: "Alternate attempt not found",
			Data:    nil,
		})
	}
	if completed {
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: "Alternate attempt was already completed",
			Data:    nil,
		})
	}
	if lookupClosed {
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: "Lookup is already completed",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Alternate attempt %d completed (%s)", req.AttemptID, req.DeliveryStatus))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Alternate delivery recorded successfully",
		Data:    nil,
	})
}
