package coverletter

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found for the caller.
	ErrJobNotFound = errors.New("cover letter job not found")

	// ErrJobTerminal is returned when a status write is refused because the
	// job already reached completed or failed.
	ErrJobTerminal = errors.New("cover letter job already in a terminal state")

	// ErrInvalidInput is returned when a submission is rejected before any
	// persistence happens.
	ErrInvalidInput = errors.New("invalid cover letter input")

	// ErrInvalidTone is returned for a tone outside the supported set.
	ErrInvalidTone = errors.New("invalid tone")
)
