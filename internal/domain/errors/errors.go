package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidState      = errors.New("invalid state for operation")
	ErrInsufficientFunds = errors.New("insufficient escrowed funds")
	ErrAlreadySigned     = errors.New("party already signed")
	ErrInvalidSignature  = errors.New("signature verification failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
)

// AppError represents an application error with an HTTP status
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrInvalidInput)
}

func InvalidState(message string) *AppError {
	return NewAppError(http.StatusConflict, message, ErrInvalidState)
}

func InsufficientFunds(message string) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, message, ErrInsufficientFunds)
}

func AlreadySigned(message string) *AppError {
	return NewAppError(http.StatusConflict, message, ErrAlreadySigned)
}

func InvalidSignature(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrInvalidSignature)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, message, ErrForbidden)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, "internal server error", err)
}
