package utils

import (
	"errors"
	"net/http"
)

type AppError struct {
	Code    string
	Message string
	Origin  error // Original error that caused this error, if any
}

func (appErr *AppError) Error() string {
	if appErr.Origin != nil {
		return appErr.Message + ": " + appErr.Origin.Error()
	}
	return appErr.Message
}

func (appErr *AppError) Unwrap() error {
	return appErr.Origin
}

// Standard error codes for the application
const (
	// Resource errors
	ErrNotFound     = "NOT_FOUND"
	ErrDuplicate    = "DUPLICATE"
	ErrInvalidInput = "INVALID_INPUT"
	ErrConflict     = "CONFLICT" // Compare-and-swap precondition no longer holds

	// Authentication/Authorization errors
	ErrUnauthorized = "UNAUTHORIZED"
	ErrForbidden    = "FORBIDDEN" // User is authenticated but doesn't have permission
	ErrInvalidToken = "INVALID_TOKEN"

	// User-specific errors
	ErrUserNotFound     = "USER_NOT_FOUND"
	ErrAlreadyFollowing = "ALREADY_FOLLOWING"
	ErrNotFollowing     = "NOT_FOLLOWING"

	// Subreddit-specific errors
	ErrSubredditNotFound      = "SUBREDDIT_NOT_FOUND"
	ErrSubredditExists        = "SUBREDDIT_EXISTS"
	ErrNotSubredditMember     = "NOT_SUBREDDIT_MEMBER"
	ErrAlreadySubredditMember = "ALREADY_SUBREDDIT_MEMBER"

	// Actor communication errors
	ErrActorTimeout    = "ACTOR_TIMEOUT"
	ErrMessageRejected = "MESSAGE_REJECTED"

	// External listing API
	ErrTooManyRequests = "TOO_MANY_REQUESTS"
	ErrUpstream        = "UPSTREAM_ERROR"

	ErrDatabase = "database_error"
)

// Error creation helper functions
func NewAppError(code string, message string, originalErr error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Origin:  originalErr,
	}
}

func NewUserNotFoundError(userID string) *AppError {
	return &AppError{
		Code:    ErrUserNotFound,
		Message: "User not found: " + userID,
	}
}

func NewUnauthorizedError(reason string) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "Unauthorized: " + reason,
	}
}

func NewSubredditNotFoundError() *AppError {
	return &AppError{
		Code:    ErrSubredditNotFound,
		Message: "Community not found",
	}
}

func NewActorTimeoutError(actorName string) *AppError {
	return &AppError{
		Code:    ErrActorTimeout,
		Message: "Actor communication timeout: " + actorName,
	}
}

func NewDatabaseError(message string, origin error) *AppError {
	return &AppError{
		Code:    ErrDatabase,
		Message: message,
		Origin:  origin,
	}
}

// AsAppError returns err as an *AppError, wrapping unknown errors as database errors.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewDatabaseError("internal error", err)
}

// Helper method to check if an error is of a specific type
func IsErrorCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsNotFound reports whether err carries any of the not-found codes.
func IsNotFound(err error) bool {
	return IsErrorCode(err, ErrNotFound) ||
		IsErrorCode(err, ErrUserNotFound) ||
		IsErrorCode(err, ErrSubredditNotFound)
}

// Helper method to check if an error is related to authentication
func IsAuthError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == ErrUnauthorized ||
			appErr.Code == ErrForbidden ||
			appErr.Code == ErrInvalidToken
	}
	return false
}

// AppErrorToHTTPStatus converts an AppError code to an HTTP status code.
func AppErrorToHTTPStatus(errorCode string) int {
	switch errorCode {
	case ErrNotFound, ErrUserNotFound, ErrSubredditNotFound:
		return http.StatusNotFound
	case ErrInvalidInput, ErrDuplicate, ErrSubredditExists,
		ErrAlreadySubredditMember, ErrNotSubredditMember,
		ErrAlreadyFollowing, ErrNotFollowing:
		return http.StatusBadRequest
	case ErrUnauthorized, ErrInvalidToken:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrConflict:
		return http.StatusConflict
	case ErrTooManyRequests:
		return http.StatusTooManyRequests
	case ErrUpstream:
		return http.StatusBadGateway
	case ErrActorTimeout:
		return http.StatusGatewayTimeout
	case ErrDatabase, ErrMessageRejected:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
