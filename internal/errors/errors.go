// Package errors provides the application error type for the Divvy API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrWrongGroup         = &AppError{Code: "WRONG_GROUP", Message: "Resource does not belong to your group", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Friend errors.
var (
	ErrFriendNotFound = &AppError{Code: "FRIEND_NOT_FOUND", Message: "No user with that email", StatusCode: http.StatusNotFound}
	ErrNotFriends     = &AppError{Code: "NOT_FRIENDS", Message: "That user is not your friend", StatusCode: http.StatusBadRequest}
	ErrSelfFriend     = &AppError{Code: "SELF_FRIEND", Message: "You cannot befriend yourself", StatusCode: http.StatusBadRequest}
)

// Transaction errors. CANNOT_EDIT_TRANSACTION intentionally covers both
// "no such transaction" and "not yours", so the API never confirms the
// existence of another user's transactions.
var (
	ErrCannotEditTransaction = &AppError{Code: "CANNOT_EDIT_TRANSACTION", Message: "Transaction cannot be edited", StatusCode: http.StatusBadRequest}
	ErrSharedAmount          = &AppError{Code: "SHARED_AMOUNT", Message: "Amount of a shared transaction can only change through the split", StatusCode: http.StatusBadRequest}
	ErrSplitMismatch         = &AppError{Code: "SPLIT_MISMATCH", Message: "Split shares do not reproduce the submitted amounts", StatusCode: http.StatusBadRequest}
	ErrSplitNotFound         = &AppError{Code: "SPLIT_NOT_FOUND", Message: "Split not found", StatusCode: http.StatusBadRequest}
)

// Category errors.
var (
	ErrCategoryNotFound = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
)
