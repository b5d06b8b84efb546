// Package item manages the Item registry: named state holders that
// channels are linked to.
//
// Items are independent of things; nothing here knows about channels
// or links. The Registry wraps a persistence Repository with an
// in-memory cache and delivers ordered change events to subscribed
// Listeners. Rename is modelled as removal of the old name followed by
// addition of the new one, because downstream consumers address items
// purely by name.
package item
