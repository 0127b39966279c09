package translate

import "errors"

var (
	// ErrUnknownCollection is returned when a query references a collection
	// ID with no entry in the registry.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrInvalidGeometry is returned when an AOI cannot be parsed or is empty.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrInvalidDateTime is returned when datetime parsing fails.
	ErrInvalidDateTime = errors.New("invalid datetime format")

	// ErrInvalidCloudCover is returned when a cloud-cover range is malformed.
	ErrInvalidCloudCover = errors.New("invalid cloud cover range")
)
