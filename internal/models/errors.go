package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error keys returned with bad-request alerts.
const (
	ErrKeyIDExists        = "idexists"
	ErrKeyIDNull          = "idnull"
	ErrKeyIDInvalid       = "idinvalid"
	ErrKeyIDNotFound      = "idnotfound"
	ErrKeyUserNotFound    = "userNotFound"
	ErrKeyAccountNotFound = "accountNotFound"
	ErrKeyFileMissing     = "filemissing"
	ErrKeyUserExists      = "userexists"
	ErrKeyEmailExists     = "emailexists"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Entity  string `json:"entity,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Entity  string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
		Entity:  resource,
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
		Err:     err,
	}
}

// NewBadRequestAlert builds a 400 alert for entity carrying a machine readable key.
func NewBadRequestAlert(entity, key, message string) *AppError {
	return &AppError{
		Code:    key,
		Message: message,
		Entity:  entity,
	}
}

// IsBadRequestAlert reports whether err is an alert carrying key.
func IsBadRequestAlert(err error, key string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == key
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error:  appErr.Message,
			Code:   appErr.Code,
			Entity: appErr.Entity,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}

// StatusFor maps an application error onto the HTTP status handlers should answer with.
func StatusFor(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case "NOT_FOUND":
		return fiber.StatusNotFound
	case "UNAUTHORIZED":
		return fiber.StatusUnauthorized
	case "INTERNAL_ERROR":
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusBadRequest
	}
}
