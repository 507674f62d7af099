package middleware

import (
	"time"

	"lastmile-address/logger"
	"lastmile-address/utils"

	"github.com/gofiber/fiber/v2"
)

// AuditLog persists a sanitized copy of every request/response pair through
// the async DB logger. It never blocks the response on log persistence.
func AuditLog(asyncLogger *logger.AsyncLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		durationMs := time.Since(start).Milliseconds()

		asyncLogger.Log(utils.CreateSanitizedLogEntry(c, durationMs))
		return err
	}
}
