package common

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound       = errors.New("requested resource not found")
	ErrUnauthorized   = errors.New("unauthorized access")
	ErrForbidden      = errors.New("forbidden access")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	ErrEmptyHandle  = errors.New("handle is empty")
	ErrUserNotFound = errors.New("user not found")
	ErrFetchFailed  = errors.New("failed to fetch data from codeforces")
	ErrSuperseded   = errors.New("search superseded by a newer request")
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch {
	case errors.Is(err, ErrEmptyHandle), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, ErrFetchFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// UserMessage picks the single message shown to an end user for err.
// Internal details never leak through it.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyHandle):
		return "Please enter a Codeforces handle"
	case errors.Is(err, ErrUserNotFound):
		return "User not found. Please check the handle and try again."
	case errors.Is(err, ErrFetchFailed):
		return "Failed to fetch submissions from Codeforces. Please try again."
	case errors.Is(err, ErrSuperseded):
		return "This search was replaced by a newer one."
	}
	return "Failed to load profile. Please try again."
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
