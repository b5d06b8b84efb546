// Package link keeps channel-item links consistent while the thing and
// item registries mutate independently.
//
// The Store is the dual-indexed link table; the Manager wraps it with
// per-channel serial reconciliation. Registry watchers translate thing
// and item lifecycle events into queued link work: channels of a
// removed thing lose their links, links of a removed item disappear,
// and newly discovered channels are auto-linked by a pluggable
// AutoLinkStrategy. When a channel's link count flips between zero and
// non-zero, the thing's current handler is told via ChannelLinked or
// ChannelUnlinked; every mutation is also published on the MQTT event
// bus and recorded to InfluxDB when those are wired.
//
// Example usage:
//
//	store := link.NewStore(link.NewSQLiteRepository(db))
//	manager := link.NewManager(store, thingRegistry, itemRegistry)
//	if err := manager.Start(ctx); err != nil {
//	    return err
//	}
//	defer manager.Stop()
//
//	err := manager.Link(ctx, "hue:lamp:lamp1:1", "Livingroom_Brightness")
package link
