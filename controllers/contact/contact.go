package contact

import (
	"errors"
	"fmt"

	"lastmile-address/logger"
	addressModel "lastmile-address/models/address"
	contactModel "lastmile-address/models/contact"
	"lastmile-address/services/fallback"
	"lastmile-address/types"
	contactTypes "lastmile-address/types/contact"
	"lastmile-address/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ContactController manages fallback contacts on the resident side. The
// distance and fee fields are always recomputed through the fallback
// resolver; nothing a client sends for them is trusted.
type ContactController struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
}

// NewContactController creates a new contact controller
func NewContactController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *ContactController {
	return &ContactController{
		DB:     db,
		Logger: asyncLogger,
	}
}

// resolveError maps fallback resolver failures onto 400 responses.
func resolveError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, fallback.ErrPrimaryAddressMissingLocation),
		errors.Is(err, fallback.ErrContactLocationRequired),
		errors.Is(err, fallback.ErrSchedulingRequired),
		errors.Is(err, fallback.ErrInvalidScheduledDate),
		errors.Is(err, fallback.ErrInvalidTimeSlot):
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	default:
		logger.Error("Failed to resolve fallback placement", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}
}

// ownedContact loads a contact along with its parent address, scoped to the
// authenticated owner.
func (cc *ContactController) ownedContact(c *fiber.Ctx) (*contactModel.FallbackContact, *addressModel.Address, error) {
	owner, err := utils.CurrentUser(c)
	if err != nil {
		return nil, nil, fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
	}

	contactID, err := c.ParamsInt("id")
	if err != nil || contactID <= 0 {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "Invalid contact id")
	}

	var contact contactModel.FallbackContact
	if err := cc.DB.First(&contact, contactID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fiber.NewError(fiber.StatusNotFound, "Fallback contact not found")
		}
		logger.Error("Failed to load fallback contact", err)
		return nil, nil, fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
	}

	var addr addressModel.Address
	if err := cc.DB.Where("id = ? AND user_id = ?", contact.AddressID, owner.ID).First(&addr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fiber.NewError(fiber.StatusNotFound, "Fallback contact not found")
		}
		logger.Error("Failed to load parent address", err)
		return nil, nil, fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
	}

	return &contact, &addr, nil
}

func contactError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(types.ApiResponse{
			Status:  fe.Code,
			Message: fe.Message,
			Data:    nil,
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
		Status:  fiber.StatusInternalServerError,
		Message: "Internal server error",
		Data:    nil,
	})
}

// Create attaches a fallback contact to one of the user's addresses after
// running the distance/fee gate.
func (cc *ContactController) Create(c *fiber.Ctx) error {
	owner, err := utils.CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "Authentication required",
			Data:    nil,
		})
	}

	var req contactTypes.ContactCreateRequest
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
	if !utils.ValidatePhoneNumber(req.Phone) {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid phone number",
			Data:    nil,
		})
	}

	var addr addressModel.Address
	if err := cc.DB.Where("id = ? AND user_id = ?", req.AddressID, owner.ID).First(&addr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Address not found",
				Data:    nil,
			})
		}
		logger.Error("Failed to load address", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	placement, err := fallback.Resolve(&addr, req.Lat, req.Lng, fallback.Scheduling{
		ScheduledDate:        req.ScheduledDate,
		ScheduledTimeSlot:    req.ScheduledTimeSlot,
		ExtraFeeAcknowledged: req.ExtraFeeAcknowledged,
	})
	if err != nil {
		return resolveError(c, err)
	}

	contact := contactModel.FallbackContact{
		AddressID:            addr.ID,
		Name:                 req.Name,
		Phone:                req.Phone,
		Relationship:         req.Relationship,
		Lat:                  req.Lat,
		Lng:                  req.Lng,
		TextAddress:          req.TextAddress,
		PhotoBuilding:        req.PhotoBuilding,
		PhotoGate:            req.PhotoGate,
		SpecialNote:          req.SpecialNote,
		DistanceKm:           placement.DistanceKm,
		RequiresExtraFee:     placement.RequiresExtraFee,
		ExtraFeeAcknowledged: req.ExtraFeeAcknowledged,
		IsDefault:            req.IsDefault,
	}
	if placement.RequiresExtraFee {
		contact.ScheduledDate = req.ScheduledDate
		contact.ScheduledTimeSlot = req.ScheduledTimeSlot
	}

	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		if contact.IsDefault {
			if err := tx.Model(&contactModel.FallbackContact{}).
				Where("address_id = ? AND is_default = ?", addr.ID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&contact).Error
	})
	if err != nil {
		logger.Error("Failed to create fallback contact", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to create fallback contact",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Fallback contact %d created for address %s (%.3f km)",
		contact.ID, addr.DigitalID, contact.DistanceKm))

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Fallback contact created successfully",
		Data:    contact,
	})
}

// List returns the fallback contacts for one of the user's addresses.
func (cc *ContactController) List(c *fiber.Ctx) error {
	owner, err := utils.CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "Authentication required",
			Data:    nil,
		})
	}

	addressID, err := c.ParamsInt("addressId")
	if err != nil || addressID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid address id",
			Data:    nil,
		})
	}

	var addr addressModel.Address
	if err := cc.DB.Where("id = ? AND user_id = ?", addressID, owner.ID).First(&addr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Address not found",
				Data:    nil,
			})
		}
		logger.Error("Failed to load address", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	var contacts []contactModel.FallbackContact
	if err := cc.DB.Where("address_id = ?", addr.ID).
		Order("is_default DESC, created_at ASC").
		Find(&contacts).Error; err != nil {
		logger.Error("Failed to list fallback contacts", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Fallback contacts retrieved",
		Data:    contacts,
	})
}

// Update edits a fallback contact. Any change to coordinates or scheduling
// re-runs the fee gate against the current primary address location.
func (cc *ContactController) Update(c *fiber.Ctx) error {
	contact, addr, err := cc.ownedContact(c)
	if err != nil {
		return contactError(c, err)
	}

	var req contactTypes.ContactUpdateRequest
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
	if req.Phone != nil && !utils.ValidatePhoneNumber(*req.Phone) {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid phone number",
			Data:    nil,
		})
	}

	if req.Name != nil {
		contact.Name = *req.Name
	}
	if req.Phone != nil {
		contact.Phone = *req.Phone
	}
	if req.Relationship != nil {
		contact.Relationship = req.Relationship
	}
	if req.Lat != nil {
		contact.Lat = req.Lat
	}
	if req.Lng != nil {
		contact.Lng = req.Lng
	}
	if req.TextAddress != nil {
		contact.TextAddress = *req.TextAddress
	}
	if req.PhotoBuilding != nil {
		contact.PhotoBuilding = req.PhotoBuilding
	}
	if req.PhotoGate != nil {
		contact.PhotoGate = req.PhotoGate
	}
	if req.SpecialNote != nil {
		contact.SpecialNote = req.SpecialNote
	}
	if req.ScheduledDate != nil {
		contact.ScheduledDate = req.ScheduledDate
	}
	if req.ScheduledTimeSlot != nil {
		contact.ScheduledTimeSlot = req.ScheduledTimeSlot
	}
	if req.ExtraFeeAcknowledged != nil {
		contact.ExtraFeeAcknowledged = *req.ExtraFeeAcknowledged
	}

	placement, err := fallback.Resolve(addr, contact.Lat, contact.Lng, fallback.Scheduling{
		ScheduledDate:        contact.ScheduledDate,
		ScheduledTimeSlot:    contact.ScheduledTimeSlot,
		ExtraFeeAcknowledged: contact.ExtraFeeAcknowledged,
	})
	if err != nil {
		return resolveError(c, err)
	}
	contact.DistanceKm = placement.DistanceKm
	contact.RequiresExtraFee = placement.RequiresExtraFee
	if !placement.RequiresExtraFee {
		contact.ScheduledDate = nil
		contact.ScheduledTimeSlot = nil
	}

	setDefault := req.IsDefault != nil && *req.IsDefault && !contact.IsDefault
	if req.IsDefault != nil {
		contact.IsDefault = *req.IsDefault
	}

	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		if setDefault {
			if err := tx.Model(&contactModel.FallbackContact{}).
				Where("address_id = ? AND is_default = ? AND id <> ?", contact.AddressID, true, contact.ID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Save(contact).Error
	})
	if err != nil {
		logger.Error("Failed to update fallback contact", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to update fallback contact",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Fallback contact %d updated (%.3f km)", contact.ID, contact.DistanceKm))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Fallback contact updated successfully",
		Data:    contact,
	})
}

// Delete removes a fallback contact.
func (cc *ContactController) Delete(c *fiber.Ctx) error {
	contact, _, err := cc.ownedContact(c)
	if err != nil {
		return contactError(c, err)
	}

	if err := cc.DB.Delete(contact).Error; err != nil {
		logger.Error("Failed to delete fallback contact", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to delete fallback contact",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Fallback contact %d deleted", contact.ID))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Fallback contact deleted successfully",
		Data:    nil,
	})
}
