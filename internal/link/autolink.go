package link

import (
	"strings"

	"github.com/lumina-home/lumina-core/internal/item"
	"github.com/lumina-home/lumina-core/internal/thing"
)

// AutoLinkStrategy decides which item, if any, a freshly discovered
// unlinked channel should be linked to. Implementations must be pure
// lookups; the manager applies the result under the channel's ordering
// domain.
type AutoLinkStrategy interface {
	// ItemFor returns the name of the item the channel should be linked
	// to, or "" to leave the channel unlinked.
	ItemFor(ch thing.Channel, items ItemLookup) string
}

// ItemLookup is the narrow item-registry view a strategy needs.
type ItemLookup interface {
	Get(name string) (*item.Item, error)
	GetAll() []item.Item
}

// NameStrategy links a channel to the existing item whose name equals
// the channel UID with separators normalised to underscores
// ("hue:lamp:lamp1:1" matches an item named "hue_lamp_lamp1_1").
// A name match is unambiguous; channels without a matching item stay
// unlinked. When the channel declares an item type, an existing item
// of a different type is not linked.
type NameStrategy struct{}

// ItemFor implements AutoLinkStrategy.
func (NameStrategy) ItemFor(ch thing.Channel, items ItemLookup) string {
	name := ItemNameForChannel(ch.UID)
	candidate, err := items.Get(name)
	if err != nil {
		return ""
	}
	if ch.ItemType != "" && candidate.Type != ch.ItemType {
		return ""
	}
	return name
}

// ItemNameForChannel returns the canonical item name for a channel UID.
func ItemNameForChannel(ch thing.ChannelUID) string {
	return strings.ReplaceAll(ch.String(), ":", "_")
}
