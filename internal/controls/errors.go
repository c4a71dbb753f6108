package controls

import (
	"errors"
	"net/http"
)

// Domain errors for control catalog operations.
var (
	ErrNotFound  = errors.New("control not found")
	ErrDuplicate = errors.New("control already exists")
	ErrInvalid   = errors.New("invalid control")
)

// MapHTTPStatus maps control domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalid) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
