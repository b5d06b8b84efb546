package mqtt

import "fmt"

// Topic prefixes per the Lumina MQTT specification.
//
// Link lifecycle topics use the flat scheme: lumina/link/{event}/{channel_uid}
// where channel UIDs keep their natural "binding:type:thing:channel" form
// (colons are legal in MQTT topic levels).
const (
	// TopicPrefix is the base for all Lumina topics.
	TopicPrefix = "lumina"

	// TopicPrefixLink is the base for link lifecycle topics.
	TopicPrefixLink = "lumina/link"

	// TopicPrefixThing is the base for thing lifecycle topics.
	TopicPrefixThing = "lumina/thing"

	// TopicPrefixItem is the base for item lifecycle topics.
	TopicPrefixItem = "lumina/item"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "lumina/system"
)

// Topics provides builders for Lumina MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	linked := topics.LinkLinked("hue:lamp:lamp1:1")
//	// Returns: "lumina/link/linked/hue:lamp:lamp1:1"
type Topics struct{}

// LinkLinked returns the topic for a channel gaining its first link.
//
// Example: lumina/link/linked/hue:lamp:lamp1:1
func (Topics) LinkLinked(channelUID string) string {
	return fmt.Sprintf("%s/linked/%s", TopicPrefixLink, channelUID)
}

// LinkUnlinked returns the topic for a channel losing its last link.
//
// Example: lumina/link/unlinked/hue:lamp:lamp1:1
func (Topics) LinkUnlinked(channelUID string) string {
	return fmt.Sprintf("%s/unlinked/%s", TopicPrefixLink, channelUID)
}

// LinkAdded returns the topic for an individual link record being created.
//
// Example: lumina/link/added/hue:lamp:lamp1:1
func (Topics) LinkAdded(channelUID string) string {
	return fmt.Sprintf("%s/added/%s", TopicPrefixLink, channelUID)
}

// LinkRemoved returns the topic for an individual link record being removed.
//
// Example: lumina/link/removed/hue:lamp:lamp1:1
func (Topics) LinkRemoved(channelUID string) string {
	return fmt.Sprintf("%s/removed/%s", TopicPrefixLink, channelUID)
}

// ThingStatus returns the topic for thing status updates.
//
// Example: lumina/thing/status/hue:lamp:lamp1
func (Topics) ThingStatus(thingUID string) string {
	return fmt.Sprintf("%s/status/%s", TopicPrefixThing, thingUID)
}

// ItemEvent returns the topic for item lifecycle events.
//
// Example: lumina/item/added/DemoItem
func (Topics) ItemEvent(event, itemName string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixItem, event, itemName)
}

// SystemStatus returns the topic for core online/offline status.
// Retained; also used as the Last Will topic.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// AllLinkEvents returns a wildcard pattern matching every link event.
//
// Example subscription: lumina/link/#
func (Topics) AllLinkEvents() string {
	return TopicPrefixLink + "/#"
}

// AllLinked returns a wildcard pattern matching every linked event.
func (Topics) AllLinked() string {
	return TopicPrefixLink + "/linked/+"
}

// AllUnlinked returns a wildcard pattern matching every unlinked event.
func (Topics) AllUnlinked() string {
	return TopicPrefixLink + "/unlinked/+"
}

// AllTopics returns a wildcard pattern matching every Lumina topic.
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
