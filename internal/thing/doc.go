// Package thing manages the Thing registry: devices and service
// instances together with the channels they expose.
//
// A Thing is described by a ThingType; its channels are materialised
// from the type's channel definitions via CreateThingOfType. The
// Registry wraps a persistence Repository with an in-memory cache,
// creates and disposes runtime Handlers through registered
// HandlerFactory implementations, and delivers ordered change events to
// subscribed Listeners on a dedicated dispatch goroutine.
//
// Example usage:
//
//	registry := thing.NewRegistry(thing.NewSQLiteRepository(db))
//	registry.AddThingTypeProvider(types)
//	registry.AddChannelTypeProvider(types)
//	registry.AddHandlerFactory(hueFactory)
//
//	t, err := registry.CreateThingOfType("hue:lamp", "hue:lamp:lamp1", nil, "Lamp", nil)
//	if err != nil {
//	    return err
//	}
//	if err := registry.Add(ctx, t); err != nil {
//	    return err
//	}
package thing
