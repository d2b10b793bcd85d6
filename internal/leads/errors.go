package leads

import "errors"

var (
	// ErrMissingFields is returned when name or phone is absent
	ErrMissingFields = errors.New("missing required fields: name and phone")

	// ErrInvalidEmail is returned when a provided email does not look like an address
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidPhone is returned when the phone does not contain 10-11 digits
	ErrInvalidPhone = errors.New("invalid phone number format")

	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")
)
