package thing

import "context"

// Handler is the runtime companion of a Thing. The registry creates one
// via a HandlerFactory when the Thing is added and disposes it when the
// Thing is removed.
//
// ChannelLinked and ChannelUnlinked are invoked by the link manager when
// a channel's link count flips between zero and non-zero. Implementations
// must not block; long work should be handed off internally.
type Handler interface {
	// Initialize prepares the handler for operation. Implementations
	// typically move the Thing to StatusOnline via the registry once
	// ready.
	Initialize(ctx context.Context) error

	// Dispose releases handler resources. Called exactly once, after
	// which the handler receives no further callbacks.
	Dispose()

	// HandleCommand processes a command addressed to one of the Thing's
	// channels.
	HandleCommand(channel ChannelUID, command string) error

	// ChannelLinked notifies the handler that the channel gained its
	// first link.
	ChannelLinked(channel ChannelUID)

	// ChannelUnlinked notifies the handler that the channel lost its
	// last link.
	ChannelUnlinked(channel ChannelUID)
}

// HandlerFactory creates Handlers for the thing types it supports.
type HandlerFactory interface {
	// Supports reports whether this factory can build a handler for the
	// given thing-type UID.
	Supports(thingTypeUID string) bool

	// Create builds a handler for the thing. The handler is not yet
	// initialized.
	Create(t *Thing) (Handler, error)
}

// HandlerFactoryFunc adapts a function to a single-type HandlerFactory.
type HandlerFactoryFunc struct {
	TypeUID string
	New     func(t *Thing) (Handler, error)
}

// Supports reports whether the wrapped type UID matches.
func (f HandlerFactoryFunc) Supports(thingTypeUID string) bool {
	return f.TypeUID == thingTypeUID
}

// Create builds a handler using the wrapped constructor.
func (f HandlerFactoryFunc) Create(t *Thing) (Handler, error) {
	return f.New(t)
}
