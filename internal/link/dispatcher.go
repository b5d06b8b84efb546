package link

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/lumina-home/lumina-core/internal/infrastructure/mqtt"
	"github.com/lumina-home/lumina-core/internal/thing"
)

// HandlerResolver resolves the current handler of a thing. The thing
// registry implements this.
type HandlerResolver interface {
	Handler(uid thing.UID) thing.Handler
}

// Publisher is the outbound event-bus surface the dispatcher needs.
// The mqtt.Client implements this.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// Recorder receives link mutations for time-series history. The
// influxdb.Client implements this.
type Recorder interface {
	WriteLinkEvent(event, channelUID, itemName string)
	WriteLinkCount(total int)
}

// linkEventPayload is the JSON body published on link topics. EventID
// lets subscribers deduplicate across reconnects.
type linkEventPayload struct {
	EventID    string    `json:"event_id"`
	ChannelUID string    `json:"channel_uid"`
	ItemName   string    `json:"item_name"`
	Timestamp  time.Time `json:"timestamp"`
}

// dispatcher delivers link notifications: zero/non-zero flips go to the
// thing's current handler, every mutation goes to the event bus and the
// recorder. Delivery is best-effort; a missing handler drops the flip
// notification, and a panicking handler is contained and logged.
//
// Calls for one channel arrive in store-mutation order because the
// manager invokes the dispatcher from the channel's serial queue.
type dispatcher struct {
	handlers  HandlerResolver
	publisher Publisher
	recorder  Recorder
	store     *Store
	topics    mqtt.Topics
	logger    Logger
}

func newDispatcher(handlers HandlerResolver, store *Store, logger Logger) *dispatcher {
	return &dispatcher{handlers: handlers, store: store, logger: logger}
}

// linkAdded announces a new link. flipped marks the channel's first link.
func (d *dispatcher) linkAdded(ch thing.ChannelUID, itemName string, flipped bool) {
	d.publish(d.topics.LinkAdded(ch.String()), ch, itemName)
	d.record("added", ch, itemName)

	if flipped {
		d.publish(d.topics.LinkLinked(ch.String()), ch, itemName)
		d.notifyHandler(ch, true)
	}
}

// linkRemoved announces a removed link. flipped marks the channel's
// last link going away.
func (d *dispatcher) linkRemoved(ch thing.ChannelUID, itemName string, flipped bool) {
	d.publish(d.topics.LinkRemoved(ch.String()), ch, itemName)
	d.record("removed", ch, itemName)

	if flipped {
		d.publish(d.topics.LinkUnlinked(ch.String()), ch, itemName)
		d.notifyHandler(ch, false)
	}
}

func (d *dispatcher) notifyHandler(ch thing.ChannelUID, linked bool) {
	h := d.handlers.Handler(ch.ThingUID())
	if h == nil {
		d.logger.Debug("no handler for link notification", "channel", ch, "linked", linked)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("handler link callback panicked", "channel", ch, "panic", rec)
		}
	}()

	if linked {
		h.ChannelLinked(ch)
	} else {
		h.ChannelUnlinked(ch)
	}
}

func (d *dispatcher) publish(topic string, ch thing.ChannelUID, itemName string) {
	if d.publisher == nil || !d.publisher.IsConnected() {
		return
	}
	payload, err := json.Marshal(linkEventPayload{
		EventID:    uuid.New().String(),
		ChannelUID: ch.String(),
		ItemName:   itemName,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if err := d.publisher.Publish(topic, payload, 0, false); err != nil {
		d.logger.Warn("publishing link event failed", "topic", topic, "error", err)
	}
}

func (d *dispatcher) record(event string, ch thing.ChannelUID, itemName string) {
	if d.recorder == nil {
		return
	}
	d.recorder.WriteLinkEvent(event, ch.String(), itemName)
	d.recorder.WriteLinkCount(d.store.Count())
}
