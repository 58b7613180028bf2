package utils

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse writes the standard error body. Validation errors are
// expanded into per-field details; other errors are reported by message.
func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	response := fiber.Map{
		"error": message,
	}
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		response["details"] = verrs
	} else if err != nil {
		response["details"] = err.Error()
	}
	return c.Status(status).JSON(response)
}

// Pointer returns a pointer to the given value
func Pointer[T any](v T) *T {
	return &v
}

// ParseUint parses a decimal id, reporting whether it was valid
func ParseUint(s string) (uint, bool) {
	i, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(i), true
}
