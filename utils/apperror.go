package utils

import "github.com/gofiber/fiber/v2"

// Stable machine-readable error codes returned to clients. Provider error
// bodies and stack detail stay in the server logs.
const (
	CodeValidation          = "validation_error"
	CodeUnauthorized        = "unauthorized"
	CodeForbidden           = "forbidden"
	CodeNotFound            = "not_found"
	CodeConflict            = "conflict"
	CodeInsufficientBalance = "insufficient_balance"
	CodeExternalService     = "external_service_error"
	CodeInternal            = "internal_error"
)

type AppError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Status  int    `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func ValidationError(msg string) *AppError {
	return &AppError{Code: CodeValidation, Message: msg, Status: fiber.StatusBadRequest}
}

func Unauthorized(msg string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: msg, Status: fiber.StatusUnauthorized}
}

func Forbidden(msg string) *AppError {
	return &AppError{Code: CodeForbidden, Message: msg, Status: fiber.StatusForbidden}
}

func NotFound(msg string) *AppError {
	return &AppError{Code: CodeNotFound, Message: msg, Status: fiber.StatusNotFound}
}

func Conflict(msg string) *AppError {
	return &AppError{Code: CodeConflict, Message: msg, Status: fiber.StatusConflict}
}

func InsufficientBalance(msg string) *AppError {
	return &AppError{Code: CodeInsufficientBalance, Message: msg, Status: fiber.StatusBadRequest}
}

func ExternalService(msg string) *AppError {
	return &AppError{Code: CodeExternalService, Message: msg, Status: fiber.StatusBadGateway}
}

// RespondError writes an AppError as JSON, falling back to a generic 500 so
// internal error detail never reaches the client.
func RespondError(c *fiber.Ctx, err error) error {
	if appErr, ok := err.(*AppError); ok {
		return c.Status(appErr.Status).JSON(appErr)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(&AppError{
		Code:    CodeInternal,
		Message: "Something went wrong, please try again.",
	})
}
