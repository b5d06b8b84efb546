package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteLinkEvent records a link lifecycle event.
//
// This is the primary method for recording link manager activity.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - event: The event kind ("added", "removed", "linked", "unlinked")
//   - channelUID: Fully-qualified channel UID (e.g., "hue:lamp:lamp1:1")
//   - itemName: The item involved, empty for channel-level events
//
// Example:
//
//	client.WriteLinkEvent("added", "hue:lamp:lamp1:1", "Lamp1_Brightness")
//	client.WriteLinkEvent("unlinked", "hue:lamp:lamp1:1", "")
func (c *Client) WriteLinkEvent(event, channelUID, itemName string) {
	if !c.IsConnected() {
		return
	}

	tags := map[string]string{
		"event":       event,
		"channel_uid": channelUID,
	}
	if itemName != "" {
		tags["item_name"] = itemName
	}

	point := write.NewPoint(
		"link_events",
		tags,
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteLinkCount records the current total number of links.
//
// Written periodically and after batch reconciliation so dashboards can
// graph link population over time.
func (c *Client) WriteLinkCount(total int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"link_count",
		nil,
		map[string]interface{}{
			"total": total,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
