package company

import (
	"errors"
	"fmt"
	"strings"

	"lastmile-address/logger"
	addressModel "lastmile-address/models/address"
	companyModel "lastmile-address/models/company"
	deliveryModel "lastmile-address/models/delivery"
	"lastmile-address/services/reputation"
	"lastmile-address/types"
	companyTypes "lastmile-address/types/company"
	"lastmile-address/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// CompanyController serves the logistics-company portal: profile bootstrap,
// the driver registry, and the reputation dashboards.
type CompanyController struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
}

// NewCompanyController creates a new company controller
func NewCompanyController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *CompanyController {
	return &CompanyController{
		DB:     db,
		Logger: asyncLogger,
	}
}

// claimsUUID extracts and validates the account uuid from the verified token.
func claimsUUID(c *fiber.Ctx) (string, error) {
	claims := utils.CurrentClaims(c)
	if claims == nil {
		return "", errors.New("missing authentication claims")
	}
	raw, _ := claims["uuid"].(string)
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid account uuid in token: %w", err)
	}
	return parsed.String(), nil
}

// currentProfile loads the company profile bound to the authenticated token.
func (cc *CompanyController) currentProfile(c *fiber.Ctx) (*companyModel.CompanyProfile, error) {
	accountUUID, err := claimsUUID(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
	}

	var profile companyModel.CompanyProfile
	if err := cc.DB.Where("uuid = ?", accountUUID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Company profile not found; create it first")
		}
		logger.Error("Failed to load company profile", err)
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
	}
	if !profile.IsActive {
		return nil, fiber.NewError(fiber.StatusForbidden, "Company account is inactive")
	}
	return &profile, nil
}

func companyError(c *fiber.Ctx, err error) error {
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

// CreateProfile bootstraps the company profile for the authenticated account.
func (cc *CompanyController) CreateProfile(c *fiber.Ctx) error {
	accountUUID, err := claimsUUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "Authentication required",
			Data:    nil,
		})
	}

	var req companyTypes.CompanyProfileRequest
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

	var existing companyModel.CompanyProfile
	err = cc.DB.Where("uuid = ? OR LOWER(name) = ?",
		accountUUID, companyModel.NormalizeCompanyName(req.Name)).
		First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: "Company profile already exists",
			Data:    existing,
		})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing company profile", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	profile := companyModel.CompanyProfile{
		Uuid:     accountUUID,
		Name:     strings.TrimSpace(req.Name),
		Email:    req.Email,
		Phone:    req.Phone,
		IsActive: true,
	}
	if err := cc.DB.Create(&profile).Error; err != nil {
		logger.Error("Failed to create company profile", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to create company profile",
			Data:    nil,
		})
	}

	logger.Success("Company profile created: " + profile.Name)

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Company profile created successfully",
		Data:    profile,
	})
}

// GetProfile returns the authenticated company's profile.
func (cc *CompanyController) GetProfile(c *fiber.Ctx) error {
	profile, err := cc.currentProfile(c)
	if err != nil {
		return companyError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Company profile retrieved",
		Data:    profile,
	})
}

// CreateDriver registers a driver under the authenticated company.
func (cc *CompanyController) CreateDriver(c *fiber.Ctx) error {
	profile, err := cc.currentProfile(c)
	if err != nil {
		return companyError(c, err)
	}

	var req companyTypes.DriverCreateRequest
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

	var existing companyModel.CompanyDriver
	err = cc.DB.Where("company_profile_id = ? AND LOWER(driver_id) = ?",
		profile.ID, companyModel.NormalizeDriverID(req.DriverID)).
		First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: "Driver id is already registered for this company",
			Data:    nil,
		})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing driver", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	// Driver ids are matched case-insensitively on lookup; store the
	// canonical form so LOWER(driver_id) comparisons never miss on padding.
	driver := companyModel.CompanyDriver{
		CompanyProfileID: profile.ID,
		DriverID:         companyModel.NormalizeDriverID(req.DriverID),
		Name:             strings.TrimSpace(req.Name),
		Phone:            req.Phone,
		Status:           companyModel.DriverStatusActive,
	}
	if req.Status != nil {
		driver.Status = companyModel.DriverStatus(*req.Status)
	}

	if err := cc.DB.Create(&driver).Error; err != nil {
		logger.Error("Failed to create driver", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to register driver",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Driver %s registered for company %s", driver.DriverID, profile.Name))

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Driver registered successfully",
		Data:    driver,
	})
}

// ListDrivers returns the company's driver registry.
func (cc *CompanyController) ListDrivers(c *fiber.Ctx) error {
	profile, err := cc.currentProfile(c)
	if err != nil {
		return companyError(c, err)
	}

	var drivers []companyModel.CompanyDriver
	if err := cc.DB.Where("company_profile_id = ?", profile.ID).
		Order("created_at ASC").
		Find(&drivers).Error; err != nil {
		logger.Error("Failed to list drivers", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Drivers retrieved",
		Data:    drivers,
	})
}

// UpdateDriver edits a driver's details or lifecycle status. Suspending a
// driver takes effect on their next lookup.
func (cc *CompanyController) UpdateDriver(c *fiber.Ctx) error {
	profile, err := cc.currentProfile(c)
	if err != nil {
		return companyError(c, err)
	}

	driverID, err := c.ParamsInt("id")
	if err != nil || driverID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid driver id",
			Data:    nil,
		})
	}

	var req companyTypes.DriverUpdateRequest
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

	var driver companyModel.CompanyDriver
	if err := cc.DB.Where("id = ? AND company_profile_id = ?", driverID, profile.ID).
		First(&driver).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Driver not found",
				Data:    nil,
			})
		}
		logger.Error("Failed to load driver", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	if req.Name != nil {
		driver.Name = *req.Name
	}
	if req.Phone != nil {
		driver.Phone = *req.Phone
	}
	if req.Status != nil {
		driver.Status = companyModel.DriverStatus(*req.Status)
	}

	if err := cc.DB.Save(&driver).Error; err != nil {
		logger.Error("Failed to update driver", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to update driver",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Driver %s updated (status %s)", driver.DriverID, driver.Status))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Driver updated successfully",
		Data:    driver,
	})
}

// DeleteDriver removes a driver from the registry.
func (cc *CompanyController) DeleteDriver(c *fiber.Ctx) error {
	profile, err := cc.currentProfile(c)
	if err != nil {
		return companyError(c, err)
	}

	driverID, err := c.ParamsInt("id")
	if err != nil || driverID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid driver id",
			Data:    nil,
		})
	}

	result := cc.DB.Where("id = ? AND company_profile_id = ?", driverID, profile.ID).
		Delete(&companyModel.CompanyDriver{})
	if result.Error != nil {
		logger.Error("Failed to delete driver", result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to delete driver",
			Data:    nil,
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status:  fiber.StatusNotFound,
			Message: "Driver not found",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Driver deleted successfully",
		Data:    nil,
	})
}

// AddressDeliveryStats serves the per-address credit score table derived
// from this company's feedback history.
func (cc *CompanyController) AddressDeliveryStats(c *fiber.Ctx) error {
	profile, err := cc.currentProfile(c)
	if err != nil {
		return companyError(c, err)
	}

	companyName := companyModel.NormalizeCompanyName(profile.Name)

	var feedback []deliveryModel.DriverFeedback
	if err := cc.DB.Where("LOWER(company_name) = ?", companyName).
		Find(&feedback).Error; err != nil {
		logger.Error("Failed to load feedback rows", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	credits := reputation.CreditScores(feedback)

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Address delivery statistics retrieved",
		Data: map[string]interface{}{
			"addresses":      credits,
			"total_feedback": len(feedback),
		},
	})
}

// DeliveryHotspots merges the company's lookup, feedback and outcome history
// into a plottable heat map plus an aggregate summary.
func (cc *CompanyController) DeliveryHotspots(c *fiber.Ctx) error {
	profile, err := cc.currentProfile(c)
	if err != nil {
		return companyError(c, err)
	}

	companyName := companyModel.NormalizeCompanyName(profile.Name)

	var lookups []deliveryModel.ShipmentLookup
	if err := cc.DB.Where("LOWER(company_name) = ?", companyName).
		Find(&lookups).Error; err != nil {
		logger.Error("Failed to load lookups", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	var feedback []deliveryModel.DriverFeedback
	if err := cc.DB.Where("LOWER(company_name) = ?", companyName).
		Find(&feedback).Error; err != nil {
		logger.Error("Failed to load feedback rows", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	var outcomes []deliveryModel.DeliveryOutcome
	if err := cc.DB.Where("LOWER(company_name) = ?", companyName).
		Find(&outcomes).Error; err != nil {
		logger.Error("Failed to load delivery outcomes", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	// Only addresses with stored coordinates can be plotted.
	digitalIDs := make(map[string]struct{})
	for _, lk := range lookups {
		digitalIDs[lk.AddressDigitalID] = struct{}{}
	}
	for _, fb := range feedback {
		digitalIDs[fb.AddressDigitalID] = struct{}{}
	}
	for _, out := range outcomes {
		digitalIDs[out.AddressDigitalID] = struct{}{}
	}

	ids := make([]string, 0, len(digitalIDs))
	for id := range digitalIDs {
		ids = append(ids, id)
	}

	coords := make(map[string]reputation.Coordinate)
	if len(ids) > 0 {
		var addresses []addressModel.Address
		if err := cc.DB.Where("digital_id IN ?", ids).Find(&addresses).Error; err != nil {
			logger.Error("Failed to load address coordinates", err)
			return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
				Status:  fiber.StatusInternalServerError,
				Message: "Internal server error",
				Data:    nil,
			})
		}
		for _, addr := range addresses {
			if addr.HasLocation() {
				coords[addr.DigitalID] = reputation.Coordinate{Lat: *addr.Lat, Lng: *addr.Lng}
			}
		}
	}

	points, summary := reputation.Hotspots(lookups, feedback, outcomes, coords)

	// Same-day activity counter for the dashboard header.
	lookupsToday := 0
	dayStart := now.BeginningOfDay()
	for _, lk := range lookups {
		if !lk.CreatedAt.Before(dayStart) {
			lookupsToday++
		}
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Delivery hotspots retrieved",
		Data: map[string]interface{}{
			"points":        points,
			"summary":       summary,
			"lookups_today": lookupsToday,
		},
	})
}
