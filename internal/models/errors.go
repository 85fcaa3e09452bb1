package models

import "errors"

var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrMalformedPayload is returned when a status payload cannot be turned
	// into a location report (unknown geometry type, bad coordinates, short ring).
	ErrMalformedPayload = errors.New("malformed status payload")

	// ErrMissingLocation is returned when a status payload has no Point feature.
	ErrMissingLocation = errors.New("status payload has no location")

	// ErrSweepInProgress is returned when a manual sweep is requested while
	// the scheduler is already polling.
	ErrSweepInProgress = errors.New("a sweep is already in progress")

	// ErrInvalidWorkerID is returned for worker IDs outside the monitored range.
	ErrInvalidWorkerID = errors.New("worker id is outside the monitored range")
)

// ErrorResponse is the JSON body returned for failed API requests.
type ErrorResponse struct {
	Message string `json:"message"`
}
