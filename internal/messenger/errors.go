// Package messenger – sentinel errors shared by every Messenger
// implementation so that services can branch on failure modes with
// errors.Is instead of inspecting transport details.
package messenger

import "errors"

var (
	// ErrChannelUnavailable indicates the target channel could not be
	// resolved. Submissions are rejected; scheduled jobs skip the cycle.
	ErrChannelUnavailable = errors.New("channel unavailable")

	// ErrMessageNotFound indicates the requested message no longer exists
	// (deleted, or never visible to the bot). Sweeps treat this as a fetch
	// failure and retry the request on the next cycle.
	ErrMessageNotFound = errors.New("message not found")
)
