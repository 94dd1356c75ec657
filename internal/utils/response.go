package utils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
)

// Error codes shared by handlers and middleware. Domain-specific codes are passed to SendErrorCode directly.
const (
	CodeInvalidPayload   = "invalid_payload"
	CodeValidationFailed = "validation_failed"
	CodeNotFound         = "not_found"
	CodeRateLimited      = "rate_limited"
	CodePayloadTooLarge  = "payload_too_large"
	CodeInternal         = "internal_error"
)

// APIResponse is the GradX envelope. Error holds a stable code clients can switch on;
// Message is for humans.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// SendSuccess sends a 200 envelope.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus sends a success envelope using the provided HTTP status code.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// SendError sends a failure envelope whose code is derived from status.
func SendError(c *fiber.Ctx, status int, message string) error {
	return SendErrorCode(c, status, CodeForStatus(status), message)
}

// SendErrorCode sends a failure envelope carrying code.
func SendErrorCode(c *fiber.Ctx, status int, code, message string) error {
	return sendFailure(c, status, code, message, nil)
}

// SendErrorDetails sends a failure envelope with extra structured context.
func SendErrorDetails(c *fiber.Ctx, status int, code, message string, details interface{}) error {
	return sendFailure(c, status, code, message, details)
}

// SendValidationError reports field-level validation failures.
func SendValidationError(c *fiber.Ctx, message string, details interface{}) error {
	return sendFailure(c, fiber.StatusBadRequest, CodeValidationFailed, message, details)
}

// CodeForStatus maps an HTTP status onto the generic error code used when no domain code applies.
func CodeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return CodeInvalidPayload
	case fiber.StatusNotFound:
		return CodeNotFound
	case fiber.StatusRequestEntityTooLarge:
		return CodePayloadTooLarge
	case fiber.StatusTooManyRequests:
		return CodeRateLimited
	case 0, fiber.StatusInternalServerError:
		return CodeInternal
	}

	text := fiberutils.StatusMessage(status)
	if text == "" {
		return CodeInternal
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}

func sendFailure(c *fiber.Ctx, status int, code, message string, details interface{}) error {
	if message == "" {
		message = "error"
	}
	if status == 0 {
		status = fiber.StatusInternalServerError
	}
	if code == "" {
		code = CodeForStatus(status)
	}

	return c.Status(status).JSON(APIResponse{
		Success: false,
		Message: message,
		Error:   code,
		Details: details,
	})
}
