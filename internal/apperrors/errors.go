package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInvalidState indicates the target entity is not in the state the operation requires.
var ErrInvalidState = errors.New("invalid state")

// ErrBusinessRule indicates a rule was violated even though the entity state is correct.
var ErrBusinessRule = errors.New("business rule violation")

// ErrStorage indicates a failure talking to the durable store. Never retried inside the core.
var ErrStorage = errors.New("storage error")

// ErrReceiptEmission marks failures of the receipt pipeline. Only ever logged.
var ErrReceiptEmission = errors.New("receipt emission error")

// ErrUnauthorized indicates that the caller is not authenticated.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates that the caller lacks permission for the action.
var ErrForbidden = errors.New("forbidden")

// AppError carries an HTTP-ish status code and a human message alongside the cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError. A 5xx code tags the error as ErrStorage.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes both the category sentinel and the underlying cause to errors.Is/As.
func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Code >= http.StatusInternalServerError {
		errs = append(errs, ErrStorage)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Storage wraps a store failure so callers can match it with errors.Is(err, ErrStorage).
func Storage(message string, err error) error {
	return NewAppError(http.StatusInternalServerError, message, err)
}

// HTTPStatus maps an error from the core onto the status code a handler should reply with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrBusinessRule):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
