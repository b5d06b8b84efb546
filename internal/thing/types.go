package thing

import (
	"strings"
	"time"
)

// UID is the stable unique identifier of a Thing.
// Format: "binding:type:id" (e.g., "hue:lamp:lamp1").
type UID string

// String returns the UID as a plain string.
func (u UID) String() string { return string(u) }

// ChannelUID identifies a Channel within a Thing.
// Format: "binding:type:id:channel" (e.g., "hue:lamp:lamp1:1").
type ChannelUID string

// String returns the channel UID as a plain string.
func (u ChannelUID) String() string { return string(u) }

// ThingUID returns the UID of the Thing owning this channel.
func (u ChannelUID) ThingUID() UID {
	s := string(u)
	idx := strings.LastIndex(s, uidSeparator)
	if idx < 0 {
		return ""
	}
	return UID(s[:idx])
}

// ID returns the channel-local identifier (the last UID segment).
func (u ChannelUID) ID() string {
	s := string(u)
	idx := strings.LastIndex(s, uidSeparator)
	if idx < 0 {
		return s
	}
	return s[idx+1:]
}

// uidSeparator joins UID segments.
const uidSeparator = ":"

// NewChannelUID builds a channel UID from its owning Thing and channel ID.
func NewChannelUID(thingUID UID, channelID string) ChannelUID {
	return ChannelUID(string(thingUID) + uidSeparator + channelID)
}

// Status is the lifecycle status of a Thing.
type Status string

// Thing lifecycle statuses.
const (
	StatusUninitialized Status = "uninitialized"
	StatusInitializing  Status = "initializing"
	StatusOnline        Status = "online"
	StatusOffline       Status = "offline"
	StatusRemoving      Status = "removing"
	StatusRemoved       Status = "removed"
)

// Config holds free-form Thing configuration.
type Config map[string]any

// Channel is an addressable capability of a Thing (a sensor reading,
// an actuator command point). Channels are destroyed with their Thing.
type Channel struct {
	UID     ChannelUID `json:"uid"`
	ID      string     `json:"id"`
	TypeUID string     `json:"type_uid"`
	Label   string     `json:"label,omitempty"`

	// ItemType is the kind of item this channel can be linked to
	// ("Number", "Switch", ...). Copied from the channel type at creation.
	ItemType string `json:"item_type,omitempty"`
}

// Thing is a managed device or service instance. It owns an ordered set
// of Channels and carries a lifecycle status.
type Thing struct {
	UID       UID       `json:"uid"`
	TypeUID   string    `json:"type_uid"`
	BridgeUID *UID      `json:"bridge_uid,omitempty"`
	Label     string    `json:"label"`
	Status    Status    `json:"status"`
	Config    Config    `json:"config"`
	Channels  []Channel `json:"channels"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Channel returns the channel with the given UID, or nil.
func (t *Thing) Channel(uid ChannelUID) *Channel {
	for i := range t.Channels {
		if t.Channels[i].UID == uid {
			return &t.Channels[i]
		}
	}
	return nil
}

// DeepCopy returns a copy sharing no mutable state with the original.
func (t *Thing) DeepCopy() *Thing {
	if t == nil {
		return nil
	}
	out := *t
	if t.BridgeUID != nil {
		b := *t.BridgeUID
		out.BridgeUID = &b
	}
	if t.Config != nil {
		out.Config = make(Config, len(t.Config))
		for k, v := range t.Config {
			out.Config[k] = v
		}
	}
	if t.Channels != nil {
		out.Channels = make([]Channel, len(t.Channels))
		copy(out.Channels, t.Channels)
	}
	return &out
}

// ChannelDefinition declares a channel a ThingType instantiates.
type ChannelDefinition struct {
	ID      string `json:"id"`
	TypeUID string `json:"type_uid"`
}

// ThingType describes the static shape of a kind of Thing.
type ThingType struct {
	UID                string              `json:"uid"`
	Label              string              `json:"label"`
	ChannelDefinitions []ChannelDefinition `json:"channel_definitions"`
}

// StateOption is a named value of an enumerated channel state.
type StateOption struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// StateDescription carries state-rendering metadata for a channel type.
// It is static data supplied by the type provider; the link manager never
// interprets it.
type StateDescription struct {
	Minimum  *float64      `json:"minimum,omitempty"`
	Maximum  *float64      `json:"maximum,omitempty"`
	Step     *float64      `json:"step,omitempty"`
	Pattern  string        `json:"pattern,omitempty"`
	ReadOnly bool          `json:"read_only"`
	Options  []StateOption `json:"options,omitempty"`
}

// ChannelType describes the static shape of a kind of Channel.
type ChannelType struct {
	UID      string            `json:"uid"`
	Label    string            `json:"label"`
	ItemType string            `json:"item_type"`
	State    *StateDescription `json:"state,omitempty"`
}
