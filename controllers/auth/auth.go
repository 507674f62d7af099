package auth

import (
	"errors"
	"os"
	"strings"

	"lastmile-address/database"
	httpServices "lastmile-address/httpServices/sso"
	"lastmile-address/logger"
	userModel "lastmile-address/models/user"
	"lastmile-address/types"
	"lastmile-address/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AuthController proxies authentication to the central SSO service and keeps
// a local mirror of the user record for ownership scoping.
type AuthController struct {
	db             *gorm.DB
	httpService    *httpServices.SSOClient
	loggerInstance *logger.AsyncLogger
}

func NewAuthController(service *httpServices.SSOClient, db *gorm.DB, asyncLogger *logger.AsyncLogger) *AuthController {
	return &AuthController{httpService: service, db: db, loggerInstance: asyncLogger}
}

// setSecureCookie sets auth cookies; Secure only in production so local
// development over plain HTTP keeps working.
func (h *AuthController) setSecureCookie(c *fiber.Ctx, name, value string, maxAge int) {
	isProduction := os.Getenv("APP_ENV") == "production"

	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		HTTPOnly: false,
		Secure:   isProduction,
		SameSite: "Strict",
		MaxAge:   maxAge,
		Path:     "/",
	})
}

// Login forwards credentials to the SSO service and mirrors the returned
// user into the local database on first login.
func (h *AuthController) Login(c *fiber.Ctx) error {
	var req types.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Error parsing request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
			Data:    nil,
		})
	}
	if err := utils.Validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Validation failed",
			Status:  fiber.StatusBadRequest,
			Data:    utils.ValidationMessages(err),
		})
	}

	loginResponse, err := h.httpService.RequestLoginUser(req)
	if err != nil {
		logger.Error("Failed to login user", err)
		return c.Status(fiber.StatusBadGateway).JSON(types.ApiResponse{
			Message: "Failed to login user",
			Status:  fiber.StatusBadGateway,
		})
	}

	if loginResponse.Status == "success" && loginResponse.User.UUID != "" {
		h.syncLocalUser(loginResponse.User)
	}

	if loginResponse.Access != "" {
		h.setSecureCookie(c, "access", loginResponse.Access, 8*60*60) // 8 hours
	}
	if loginResponse.Refresh != "" {
		h.setSecureCookie(c, "refresh", loginResponse.Refresh, 7*24*60*60) // 7 days
	}

	logger.Success("User logged in successfully. uuid: " + loginResponse.User.UUID)
	return c.Status(fiber.StatusOK).JSON(loginResponse)
}

// syncLocalUser creates or refreshes the local mirror of an SSO user.
func (h *AuthController) syncLocalUser(ssoUser types.SSOUser) {
	var existing userModel.User
	err := database.DB.Where("uuid = ?", ssoUser.UUID).First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to check local user", err)
			return
		}

		newUser := userModel.User{
			Uuid:        ssoUser.UUID,
			Username:    ssoUser.Username,
			Phone:       ssoUser.PhoneNumber,
			Permissions: userModel.StringSlice(ssoUser.Permissions),
		}
		if ssoUser.Name != nil {
			newUser.Name = *ssoUser.Name
		}
		if ssoUser.Email != nil && *ssoUser.Email != "" {
			newUser.Email = ssoUser.Email
		}

		if err := database.DB.Create(&newUser).Error; err != nil {
			logger.Error("Failed to create user in local database", err)
			return
		}
		logger.Success("User created in local database. UUID: " + newUser.Uuid)
		return
	}

	// Permissions can change on the SSO side between logins.
	existing.Permissions = userModel.StringSlice(ssoUser.Permissions)
	if ssoUser.Name != nil {
		existing.Name = *ssoUser.Name
	}
	if err := database.DB.Save(&existing).Error; err != nil {
		logger.Error("Failed to refresh local user", err)
	}
}

// GetServiceToken fetches an SSO redirect token for partner integrations.
func (h *AuthController) GetServiceToken(c *fiber.Ctx) error {
	var req types.GetServiceTokenRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Error parsing request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid request payload",
			Status:  fiber.StatusBadRequest,
		})
	}
	if err := utils.Validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Validation failed",
			Status:  fiber.StatusBadRequest,
			Data:    utils.ValidationMessages(err),
		})
	}

	redirectToken, err := h.httpService.RequestRedirectToken(httpServices.ServiceUserRequest{
		InternalIdentifier: req.InternalIdentifier,
		RedirectURL:        req.RedirectURL,
		UserType:           req.UserType,
	})
	if err != nil {
		logger.Error("Failed to retrieve redirect token", err)
		return c.Status(fiber.StatusBadGateway).JSON(types.ApiResponse{
			Message: "Failed to communicate with external service",
			Status:  fiber.StatusBadGateway,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Redirect token retrieved successfully",
		Status:  fiber.StatusOK,
		Data: map[string]interface{}{
			"redirect_token": redirectToken,
		},
	})
}

// LogOut invalidates the SSO session and clears the auth cookies.
func (h *AuthController) LogOut(c *fiber.Ctx) error {
	tokenStr := c.Get("Authorization")
	tokenStr = strings.TrimPrefix(tokenStr, "Bearer ")
	if tokenStr == "" {
		tokenStr = c.Cookies("access")
	}

	if tokenStr != "" {
		if err := h.httpService.RequestLogout(tokenStr); err != nil {
			logger.Warning("SSO logout failed: " + err.Error())
		}
	}

	h.setSecureCookie(c, "access", "", -1)
	h.setSecureCookie(c, "refresh", "", -1)

	logger.Success("Logout successful")
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Logout successful",
		Status:  fiber.StatusOK,
		Data:    nil,
	})
}
