package link

import "errors"

// Domain errors for the link package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, link.ErrChannelNotFound) {
//	    // handle not found case
//	}
var (
	// ErrChannelNotFound is returned when linking against a channel whose
	// thing does not exist or does not own the channel. A thing removal
	// racing an explicit link resolves to this error.
	ErrChannelNotFound = errors.New("link: channel not found")

	// ErrItemNotFound is returned when linking against an unknown item.
	ErrItemNotFound = errors.New("link: item not found")

	// ErrManagerStopped is returned when mutating a manager after Stop.
	ErrManagerStopped = errors.New("link: manager stopped")
)
