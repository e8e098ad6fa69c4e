// Package services implements the business logic of the request bot: the
// submission handler, the maturation sweeper, and the reminder broadcaster.
// This file centralizes common service-level error values so they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing replies (the ephemeral command
// acknowledgment) happens at the platform-binding layer, not here.
package services

import "errors"

var (
	// ErrEmptyField is returned when a submission is missing the artist,
	// title, or link.
	ErrEmptyField = errors.New("artist, title and link are all required")

	// ErrFieldTooLong is returned when a submission field exceeds the
	// maximum accepted length.
	ErrFieldTooLong = errors.New("field exceeds maximum length")

	// ErrRateLimited is returned when a submitter exceeds their token
	// bucket. The submission is rejected before anything is posted.
	ErrRateLimited = errors.New("too many submissions, slow down")
)
