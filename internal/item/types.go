package item

import "time"

// Item is a named state holder. Items live independently of things;
// the link manager connects them to channels by name.
type Item struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Label     string    `json:"label,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item types understood by bindings. The set is open; these are the
// common ones.
const (
	TypeNumber        = "Number"
	TypeSwitch        = "Switch"
	TypeString        = "String"
	TypeDimmer        = "Dimmer"
	TypeContact       = "Contact"
	TypeRollershutter = "Rollershutter"
)

// HasTag reports whether the item carries the given tag.
func (i *Item) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// DeepCopy returns a copy sharing no mutable state with the original.
func (i *Item) DeepCopy() *Item {
	if i == nil {
		return nil
	}
	out := *i
	if i.Tags != nil {
		out.Tags = append([]string(nil), i.Tags...)
	}
	return &out
}
