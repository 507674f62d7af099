package address

import (
	"errors"
	"fmt"
	"os"

	"lastmile-address/logger"
	addressModel "lastmile-address/models/address"
	contactModel "lastmile-address/models/contact"
	"lastmile-address/services/digitalid"
	"lastmile-address/services/fallback"
	"lastmile-address/types"
	addressTypes "lastmile-address/types/address"
	"lastmile-address/utils"

	"github.com/gofiber/fiber/v2"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"
)

// AddressController handles the resident-facing address registry.
type AddressController struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
}

// NewAddressController creates a new address controller
func NewAddressController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *AddressController {
	return &AddressController{
		DB:     db,
		Logger: asyncLogger,
	}
}

// digitalIDRetries bounds the allocation loop; with an 8-char id from a
// 27-char alphabet collisions are vanishingly rare.
const digitalIDRetries = 5

// allocateDigitalID generates an id that is not yet taken. The unique index
// on digital_id remains the backstop for the window between check and insert.
func (ac *AddressController) allocateDigitalID() (string, error) {
	for attempt := 0; attempt < digitalIDRetries; attempt++ {
		id, err := digitalid.New()
		if err != nil {
			return "", err
		}

		var count int64
		if err := ac.DB.Model(&addressModel.Address{}).
			Where("digital_id = ?", id).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", errors.New("could not allocate a unique digital id")
}

func (ac *AddressController) ownedAddress(c *fiber.Ctx) (*addressModel.Address, error) {
	owner, err := utils.CurrentUser(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
	}

	addressID, err := c.ParamsInt("id")
	if err != nil || addressID <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid address id")
	}

	var addr addressModel.Address
	if err := ac.DB.Where("id = ? AND user_id = ?", addressID, owner.ID).First(&addr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Address not found")
		}
		logger.Error("Failed to load address", err)
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
	}
	return &addr, nil
}

func (ac *AddressController) ownedAddressByDigitalID(c *fiber.Ctx) (*addressModel.Address, error) {
	owner, err := utils.CurrentUser(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
	}

	digitalID := c.Params("digitalId")
	if !digitalid.IsValid(digitalID) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid digital id")
	}

	var addr addressModel.Address
	if err := ac.DB.Where("digital_id = ? AND user_id = ?", digitalID, owner.ID).First(&addr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Address not found")
		}
		logger.Error("Failed to load address", err)
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
	}
	return &addr, nil
}

func apiError(c *fiber.Ctx, err error) error {
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

// Create registers a new address for the authenticated user and mints its
// permanent digital id.
func (ac *AddressController) Create(c *fiber.Ctx) error {
	owner, err := utils.CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "Authentication required",
			Data:    nil,
		})
	}

	var req addressTypes.AddressCreateRequest
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

	digitalID, err := ac.allocateDigitalID()
	if err != nil {
		logger.Error("Failed to allocate digital id", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to create address",
			Data:    nil,
		})
	}

	var addr addressModel.Address
	err = ac.DB.Transaction(func(tx *gorm.DB) error {
		// First address for a user always becomes primary.
		var count int64
		if err := tx.Model(&addressModel.Address{}).Where("user_id = ?", owner.ID).Count(&count).Error; err != nil {
			return err
		}
		isPrimary := req.IsPrimary || count == 0

		if isPrimary {
			if err := tx.Model(&addressModel.Address{}).
				Where("user_id = ? AND is_primary = ?", owner.ID, true).
				Update("is_primary", false).Error; err != nil {
				return err
			}
		}

		addr = addressModel.Address{
			DigitalID:     digitalID,
			UserID:        owner.ID,
			Lat:           req.Lat,
			Lng:           req.Lng,
			TextAddress:   req.TextAddress,
			PhotoBuilding: req.PhotoBuilding,
			PhotoGate:     req.PhotoGate,
			PhotoDoor:     req.PhotoDoor,
			PreferredTime: req.PreferredTime,
			SpecialNote:   req.SpecialNote,
			IsPrimary:     isPrimary,
		}
		// The unique index on digital_id backstops the allocation race.
		return tx.Create(&addr).Error
	})

	if err != nil {
		logger.Error("Failed to create address", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to create address",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Address %s registered for user %s", addr.DigitalID, owner.Uuid))

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Address registered successfully",
		Data:    addr,
	})
}

// List returns the authenticated user's addresses, primary first.
func (ac *AddressController) List(c *fiber.Ctx) error {
	owner, err := utils.CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "Authentication required",
			Data:    nil,
		})
	}

	var addresses []addressModel.Address
	if err := ac.DB.Where("user_id = ?", owner.ID).
		Order("is_primary DESC, created_at ASC").
		Find(&addresses).Error; err != nil {
		logger.Error("Failed to list addresses", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Addresses retrieved",
		Data:    addresses,
	})
}

// Get returns one of the authenticated user's addresses with its contacts.
func (ac *AddressController) Get(c *fiber.Ctx) error {
	addr, err := ac.ownedAddress(c)
	if err != nil {
		return apiError(c, err)
	}

	var contacts []contactModel.FallbackContact
	if err := ac.DB.Where("address_id = ?", addr.ID).
		Order("is_default DESC, created_at ASC").
		Find(&contacts).Error; err != nil {
		logger.Error("Failed to load fallback contacts", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Address retrieved",
		Data: map[string]interface{}{
			"address":           addr,
			"fallback_contacts": contacts,
		},
	})
}

// GetByDigitalID resolves one of the user's addresses by its public digital
// id, with its contacts.
func (ac *AddressController) GetByDigitalID(c *fiber.Ctx) error {
	addr, err := ac.ownedAddressByDigitalID(c)
	if err != nil {
		return apiError(c, err)
	}

	var contacts []contactModel.FallbackContact
	if err := ac.DB.Where("address_id = ?", addr.ID).
		Order("is_default DESC, created_at ASC").
		Find(&contacts).Error; err != nil {
		logger.Error("Failed to load fallback contacts", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Address retrieved",
		Data: map[string]interface{}{
			"address":           addr,
			"fallback_contacts": contacts,
		},
	})
}

// Update applies owner edits. The digital id never changes; drivers resolving
// it mid-edit simply see the freshest stored details.
func (ac *AddressController) Update(c *fiber.Ctx) error {
	addr, err := ac.ownedAddress(c)
	if err != nil {
		return apiError(c, err)
	}

	var req addressTypes.AddressUpdateRequest
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

	locationChanged := req.Lat != nil || req.Lng != nil
	if req.Lat != nil {
		addr.Lat = req.Lat
	}
	if req.Lng != nil {
		addr.Lng = req.Lng
	}
	if req.TextAddress != nil {
		addr.TextAddress = *req.TextAddress
	}
	if req.PhotoBuilding != nil {
		addr.PhotoBuilding = req.PhotoBuilding
	}
	if req.PhotoGate != nil {
		addr.PhotoGate = req.PhotoGate
	}
	if req.PhotoDoor != nil {
		addr.PhotoDoor = req.PhotoDoor
	}
	if req.PreferredTime != nil {
		addr.PreferredTime = req.PreferredTime
	}
	if req.SpecialNote != nil {
		addr.SpecialNote = req.SpecialNote
	}

	err = ac.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(addr).Error; err != nil {
			return err
		}
		if !locationChanged {
			return nil
		}

		// Stored contact distances are relative to the primary coordinates;
		// moving the primary invalidates them, so they are repositioned in
		// the same transaction.
		var contacts []contactModel.FallbackContact
		if err := tx.Where("address_id = ?", addr.ID).Find(&contacts).Error; err != nil {
			return err
		}
		for i := range contacts {
			ct := &contacts[i]
			placement, err := fallback.Locate(addr, ct.Lat, ct.Lng)
			if err != nil {
				return err
			}
			if placement.DistanceKm == ct.DistanceKm && placement.RequiresExtraFee == ct.RequiresExtraFee {
				continue
			}
			if err := tx.Model(ct).Updates(map[string]interface{}{
				"distance_km":        placement.DistanceKm,
				"requires_extra_fee": placement.RequiresExtraFee,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to update address", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to update address",
			Data:    nil,
		})
	}

	logger.Success("Address updated: " + addr.DigitalID)

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Address updated successfully",
		Data:    addr,
	})
}

// SetPrimary marks one address as the user's primary, clearing the flag on
// the rest inside the same transaction.
func (ac *AddressController) SetPrimary(c *fiber.Ctx) error {
	addr, err := ac.ownedAddress(c)
	if err != nil {
		return apiError(c, err)
	}

	err = ac.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&addressModel.Address{}).
			Where("user_id = ? AND is_primary = ?", addr.UserID, true).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		return tx.Model(addr).Update("is_primary", true).Error
	})
	if err != nil {
		logger.Error("Failed to set primary address", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to set primary address",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Primary address updated",
		Data:    nil,
	})
}

// Delete removes an address and its fallback contacts.
func (ac *AddressController) Delete(c *fiber.Ctx) error {
	addr, err := ac.ownedAddress(c)
	if err != nil {
		return apiError(c, err)
	}

	err = ac.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("address_id = ?", addr.ID).
			Delete(&contactModel.FallbackContact{}).Error; err != nil {
			return err
		}
		return tx.Delete(addr).Error
	})
	if err != nil {
		logger.Error("Failed to delete address", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to delete address",
			Data:    nil,
		})
	}

	logger.Success("Address deleted: " + addr.DigitalID)

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Address deleted successfully",
		Data:    nil,
	})
}

// QRCode renders the address's shareable digital id as a PNG for printing
// on door stickers and parcel labels.
func (ac *AddressController) QRCode(c *fiber.Ctx) error {
	addr, err := ac.ownedAddressByDigitalID(c)
	if err != nil {
		return apiError(c, err)
	}

	baseURL := os.Getenv("APP_SHARE_BASE_URL")
	if baseURL == "" {
		baseURL = "https://app.lastmile-address.sa"
	}
	shareURL := fmt.Sprintf("%s/a/%s", baseURL, addr.DigitalID)

	png, err := qrcode.Encode(shareURL, qrcode.Medium, 256)
	if err != nil {
		logger.Error("Failed to render QR code", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to render QR code",
			Data:    nil,
		})
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Status(fiber.StatusOK).Send(png)
}
