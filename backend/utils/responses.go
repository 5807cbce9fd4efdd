package utils

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tcgwatch/pricewatch/backend/models"
)

// SendJSON sends a JSON response using Fiber
func SendJSON(c *fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(data)
}

// SendOK sends data as-is with a 200 status.
func SendOK(c *fiber.Ctx, data interface{}) error {
	return SendJSON(c, http.StatusOK, data)
}

// SendError sends an error JSON response
func SendError(c *fiber.Ctx, statusCode int, code, message string, details map[string]string) error {
	return SendJSON(c, statusCode, models.NewErrorResponse(code, message, details))
}

func SendBadRequest(c *fiber.Ctx, message string, details map[string]string) error {
	return SendError(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

func SendNotFound(c *fiber.Ctx, message string) error {
	return SendError(c, http.StatusNotFound, "NOT_FOUND", message, nil)
}

func SendConflict(c *fiber.Ctx, message string) error {
	return SendError(c, http.StatusConflict, "CONFLICT", message, nil)
}

func SendTooManyRequests(c *fiber.Ctx) error {
	return SendError(c, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED",
		"Too many requests. Please try again later.", nil)
}

// SendInternalServerError never includes the underlying error; log it
// before calling.
func SendInternalServerError(c *fiber.Ctx) error {
	return SendError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error", nil)
}

// GetIPAddress extracts the client IP address. Only the first hop of
// X-Forwarded-For is used.
func GetIPAddress(c *fiber.Ctx) string {
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := c.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return c.IP()
}

// GetUserAgent extracts the user agent
func GetUserAgent(c *fiber.Ctx) string {
	return c.Get("User-Agent")
}
