package utils

import "github.com/gofiber/fiber/v2"

// APIResponse is the envelope of every admin and teacher endpoint. Code carries a stable,
// machine readable reason on failures such as "slot_taken" or "transfer_mismatch".
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
}

// SendSuccess sends a successful JSON response with a message.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus sends a success payload using the provided HTTP status code.
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

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	return SendFailure(c, status, "", message, nil)
}

// SendErrorCode sends an error JSON response tagged with a reason code.
func SendErrorCode(c *fiber.Ctx, status int, code, message string) error {
	return SendFailure(c, status, code, message, nil)
}

// SendFailure sends an unsuccessful envelope that may still carry data, such as the component
// report of a failing health check.
func SendFailure(c *fiber.Ctx, status int, code, message string, data interface{}) error {
	if message == "" {
		message = "error"
	}
	if status == 0 {
		status = fiber.StatusInternalServerError
	}

	return c.Status(status).JSON(APIResponse{
		Success: false,
		Data:    data,
		Message: message,
		Code:    code,
	})
}
