package user

import (
	"lastmile-address/logger"
	"lastmile-address/types"
	"lastmile-address/utils"

	"github.com/gofiber/fiber/v2"
)

// GetUserInfo returns the authenticated user's local profile.
func GetUserInfo(c *fiber.Ctx) error {
	currentUser, err := utils.CurrentUser(c)
	if err != nil {
		logger.Error("Failed to resolve authenticated user", err)
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Message: "Invalid token data",
			Status:  fiber.StatusUnauthorized,
			Data:    nil,
		})
	}

	userInfo := map[string]interface{}{
		"uuid":           currentUser.Uuid,
		"username":       currentUser.Username,
		"name":           currentUser.Name,
		"phone":          currentUser.Phone,
		"phone_verified": currentUser.PhoneVerified,
		"email":          currentUser.Email,
		"email_verified": currentUser.EmailVerified,
		"permissions":    currentUser.Permissions,
		"created_at":     currentUser.CreatedAt.Format("2006-01-02 15:04:05"),
		"updated_at":     currentUser.UpdatedAt.Format("2006-01-02 15:04:05"),
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "User fetched successfully",
		Status:  fiber.StatusOK,
		Data:    userInfo,
	})
}
