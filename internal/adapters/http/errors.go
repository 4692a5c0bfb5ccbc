package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/tzmonths/internal/core/domain"
)

// APIError is the JSON error body.
type APIError struct {
	Error string `json:"error"`
}

// newError builds a JSON error response.
func newError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIError{Error: message})
}

// errFromDomain maps a use case error to its status and public message.
func errFromDomain(c *fiber.Ctx, err error) error {
	status, msg := domain.ErrorStatus(err)
	return newError(c, status, msg)
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, msg)
}

// MethodNotAllowed answers 405 in plain text with an Allow header.
func MethodNotAllowed(allow ...string) fiber.Handler {
	allowed := strings.Join(allow, ", ")
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAllow, allowed)
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(fiber.StatusMethodNotAllowed).SendString(fmt.Sprintf("Method %s Not Allowed", c.Method()))
	}
}
