package thing

import "errors"

// Domain errors for the thing package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, thing.ErrThingNotFound) {
//	    // handle not found case
//	}
var (
	// ErrThingNotFound is returned when a Thing UID does not exist.
	ErrThingNotFound = errors.New("thing: not found")

	// ErrThingExists is returned when adding a Thing with a UID that already exists.
	ErrThingExists = errors.New("thing: already exists")

	// ErrInvalidThing is returned when thing validation fails.
	ErrInvalidThing = errors.New("thing: invalid")

	// ErrTypeNotFound is returned when a thing-type UID is not known to any provider.
	ErrTypeNotFound = errors.New("thing: type not found")

	// ErrChannelTypeNotFound is returned when a channel-type UID is not known to any provider.
	ErrChannelTypeNotFound = errors.New("thing: channel type not found")

	// ErrNoHandler is returned when no factory supports a thing type.
	ErrNoHandler = errors.New("thing: no handler factory")

	// ErrRegistryClosed is returned when mutating a registry after Close.
	ErrRegistryClosed = errors.New("thing: registry closed")
)
