package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"lastmile-address/database"
	"lastmile-address/models/user"
	"lastmile-address/types"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// Validate is the shared request validator. Struct rules live on the types
// package DTOs so the conditional checks (failure reason on failed delivery,
// score ranges, coordinate bounds) run at the schema boundary.
var Validate = validator.New()

// ValidationMessages flattens a validator error into field-level messages.
func ValidationMessages(err error) map[string]string {
	messages := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		messages["request"] = err.Error()
		return messages
	}

	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			messages[field] = "is required"
		case "required_if":
			messages[field] = "is required for this delivery status"
		case "min", "gte":
			messages[field] = fmt.Sprintf("must be at least %s", fe.Param())
		case "max", "lte":
			messages[field] = fmt.Sprintf("must be at most %s", fe.Param())
		case "len":
			messages[field] = fmt.Sprintf("must be exactly %s characters", fe.Param())
		case "oneof":
			messages[field] = fmt.Sprintf("must be one of: %s", fe.Param())
		default:
			messages[field] = "is invalid"
		}
	}
	return messages
}

// CurrentClaims returns the verified JWT claims the auth middleware attached
// to the request, or nil when the request is unauthenticated.
func CurrentClaims(c *fiber.Ctx) map[string]interface{} {
	if claims, ok := c.Locals("user").(map[string]interface{}); ok {
		return claims
	}
	if claims, ok := c.Locals("user").(jwt.MapClaims); ok {
		return claims
	}
	return nil
}

// CurrentUser resolves the authenticated local user from the JWT claims.
func CurrentUser(c *fiber.Ctx) (*user.User, error) {
	claims := CurrentClaims(c)
	if claims == nil {
		return nil, errors.New("missing authentication claims")
	}
	uuid, _ := claims["uuid"].(string)
	return GetUserByUUID(uuid)
}

// ValidatePhoneNumber validates a Saudi mobile number.
// Allows: 05xxxxxxxx or +9665xxxxxxxx (where x is any digit 0-9)
func ValidatePhoneNumber(phone string) bool {
	phone = strings.TrimSpace(phone)
	pattern := `^(?:\+9665|05)[0-9]{8}$`
	re := regexp.MustCompile(pattern)
	return re.MatchString(phone)
}

// GetUserByUUID retrieves a user by their UUID from the database
func GetUserByUUID(uuid string) (*user.User, error) {
	if uuid == "" {
		return nil, errors.New("UUID cannot be empty")
	}

	var userModel user.User
	if err := database.DB.Where("uuid = ?", uuid).First(&userModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &userModel, nil
}

// sanitizeRequestBody sanitizes request body for photo uploads and large content
func sanitizeRequestBody(c *fiber.Ctx) string {
	contentType := c.Get("Content-Type")
	if strings.Contains(contentType, "multipart/form-data") {
		formData := make(map[string]interface{})

		if form, err := c.MultipartForm(); err == nil {
			for key, values := range form.Value {
				if len(values) > 0 {
					formData[key] = values[0]
				}
			}
			for key, files := range form.File {
				fileInfo := make([]map[string]interface{}, len(files))
				for i, file := range files {
					fileInfo[i] = map[string]interface{}{
						"filename": file.Filename,
						"size":     file.Size,
						"content":  "[FILE_CONTENT_REMOVED]",
					}
				}
				formData[key] = fileInfo
			}
		}

		if jsonBytes, err := json.Marshal(formData); err == nil {
			return string(jsonBytes)
		}
		return "[MULTIPART_FORM_DATA]"
	}

	// Address and contact payloads may carry inline photo data URIs; keep
	// those out of the audit log.
	body := string(c.Body())
	if len(body) > 1000 && (strings.Contains(body, "data:image/") ||
		strings.Contains(body, "base64") ||
		isLikelyBase64(body)) {
		return "[LARGE_REQUEST_BODY_WITH_POSSIBLE_FILE_CONTENT]"
	}

	return body
}

// isLikelyBase64 detects if content looks like base64
func isLikelyBase64(content string) bool {
	if len(content) < 100 {
		return false
	}

	base64Chars := 0
	for _, char := range content {
		if (char >= 'A' && char <= 'Z') ||
			(char >= 'a' && char <= 'z') ||
			(char >= '0' && char <= '9') ||
			char == '+' || char == '/' || char == '=' {
			base64Chars++
		}
	}

	return float64(base64Chars)/float64(len(content)) > 0.8
}

// CreateSanitizedLogEntry creates a deep copied and sanitized log entry for
// the async DB logger. Photos and other large bodies are replaced with
// placeholders before persisting.
func CreateSanitizedLogEntry(c *fiber.Ctx, durationMs int64) types.LogEntry {
	method := string([]byte(c.Method()))
	url := string([]byte(c.OriginalURL()))
	clientIP := string([]byte(c.IP()))
	requestBody := sanitizeRequestBody(c)
	responseBody := string(append([]byte(nil), c.Response().Body()...))

	requestHeaders := make([]byte, len(c.Request().Header.Header()))
	copy(requestHeaders, c.Request().Header.Header())

	responseHeaders := make([]byte, len(c.Response().Header.Header()))
	copy(responseHeaders, c.Response().Header.Header())

	return types.LogEntry{
		Method:          method,
		URL:             url,
		ClientIP:        clientIP,
		RequestBody:     requestBody,
		ResponseBody:    responseBody,
		RequestHeaders:  string(requestHeaders),
		ResponseHeaders: string(responseHeaders),
		StatusCode:      c.Response().StatusCode(),
		DurationMs:      durationMs,
		CreatedAt:       time.Now(),
	}
}
