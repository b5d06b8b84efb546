package link

import (
	"context"
	"fmt"
	"sync"

	"github.com/lumina-home/lumina-core/internal/item"
	"github.com/lumina-home/lumina-core/internal/thing"
)

// Logger defines the logging interface used by the link package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ThingRegistry is the thing-registry surface the manager needs.
type ThingRegistry interface {
	Get(uid thing.UID) (*thing.Thing, error)
	GetAll() []thing.Thing
	Handler(uid thing.UID) thing.Handler
	Subscribe(l thing.Listener)
	Unsubscribe(l thing.Listener)
}

// ItemRegistry is the item-registry surface the manager needs.
type ItemRegistry interface {
	ItemLookup
	Subscribe(l item.Listener)
	Unsubscribe(l item.Listener)
}

// Manager keeps the link store consistent with the thing and item
// registries and delivers link notifications.
//
// Consistency is reconciled per channel: all link mutations for one
// channel, whether explicit calls or registry-event reactions, run on
// that channel's serial queue. Mutating calls return once the store has
// been updated; notification delivery completes asynchronously on the
// same queue, so per channel every mutation is followed by exactly one
// notification pass in mutation order. There is no global lock;
// different channels reconcile concurrently.
//
// Races between registries resolve to the consistent end state: a thing
// removal racing an explicit link either removes the link afterwards or
// causes the link call to fail with ErrChannelNotFound.
type Manager struct {
	store    *Store
	things   ThingRegistry
	items    ItemRegistry
	rec      *reconciler
	dispatch *dispatcher
	logger   Logger

	strategyMu sync.RWMutex
	strategy   AutoLinkStrategy
	autoLink   bool

	mu      sync.Mutex
	ctx     context.Context
	started bool
	stopped bool

	thingWatcher *thingWatcher
	itemWatcher  *itemWatcher
}

// NewManager creates a link manager over the given store and
// registries. Auto-linking defaults to enabled with the NameStrategy.
func NewManager(store *Store, things ThingRegistry, items ItemRegistry) *Manager {
	m := &Manager{
		store:    store,
		things:   things,
		items:    items,
		rec:      newReconciler(),
		logger:   noopLogger{},
		strategy: NameStrategy{},
		autoLink: true,
		ctx:      context.Background(),
	}
	m.dispatch = newDispatcher(things, store, m.logger)
	m.thingWatcher = &thingWatcher{m: m}
	m.itemWatcher = &itemWatcher{m: m}
	return m
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
	m.dispatch.logger = logger
}

// SetPublisher wires an event-bus publisher for link events. Optional.
func (m *Manager) SetPublisher(p Publisher) {
	m.dispatch.publisher = p
}

// SetRecorder wires a time-series recorder for link mutations. Optional.
func (m *Manager) SetRecorder(r Recorder) {
	m.dispatch.recorder = r
}

// SetAutoLink enables or disables automatic linking of new channels.
func (m *Manager) SetAutoLink(enabled bool) {
	m.strategyMu.Lock()
	defer m.strategyMu.Unlock()
	m.autoLink = enabled
}

// SetAutoLinkStrategy replaces the auto-link strategy.
func (m *Manager) SetAutoLinkStrategy(s AutoLinkStrategy) {
	m.strategyMu.Lock()
	defer m.strategyMu.Unlock()
	m.strategy = s
}

// Start loads the store and subscribes to both registries. Calling
// Start twice is a no-op.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}
	if m.stopped {
		return ErrManagerStopped
	}

	if err := m.store.Load(ctx); err != nil {
		return fmt.Errorf("loading link store: %w", err)
	}

	m.ctx = context.WithoutCancel(ctx)
	m.things.Subscribe(m.thingWatcher)
	m.items.Subscribe(m.itemWatcher)
	m.started = true

	m.logger.Info("link manager started", "links", m.store.Count())
	return nil
}

// Stop unsubscribes from the registries and drains in-flight
// reconciliation work. After Stop, mutating calls return
// ErrManagerStopped. Calling Stop twice is a no-op.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	started := m.started
	m.mu.Unlock()

	if started {
		m.things.Unsubscribe(m.thingWatcher)
		m.items.Unsubscribe(m.itemWatcher)
	}
	m.rec.stop()

	m.logger.Info("link manager stopped")
}

// Link creates a link between a channel and an item.
//
// Returns ErrItemNotFound if the item does not exist and
// ErrChannelNotFound if the channel's thing does not exist or does not
// own the channel. Linking an already linked pair is a no-op. The call
// returns once the store has been updated; notifications follow
// asynchronously.
func (m *Manager) Link(ctx context.Context, ch thing.ChannelUID, itemName string) error {
	if _, err := m.items.Get(itemName); err != nil {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemName)
	}

	done := make(chan error, 1)
	ok := m.rec.submit(ch, func() {
		if !m.channelExists(ch) {
			done <- fmt.Errorf("%w: %s", ErrChannelNotFound, ch)
			return
		}
		// Re-check under the queue: the registry empties its cache
		// before the removal event fires, so an item removed while this
		// task was queued fails here instead of leaving a dangling link.
		if _, err := m.items.Get(itemName); err != nil {
			done <- fmt.Errorf("%w: %s", ErrItemNotFound, itemName)
			return
		}
		added, total := m.store.Add(ctx, ch, itemName)
		done <- nil
		if added {
			m.logger.Debug("link added", "channel", ch, "item", itemName)
			m.dispatch.linkAdded(ch, itemName, total == 1)
		}
	})
	if !ok {
		return ErrManagerStopped
	}
	return <-done
}

// Unlink removes the link between a channel and an item. Removing a
// link that does not exist is a no-op. The call returns once the store
// has been updated; notifications follow asynchronously.
func (m *Manager) Unlink(ctx context.Context, ch thing.ChannelUID, itemName string) error {
	done := make(chan struct{})
	ok := m.rec.submit(ch, func() {
		removed, remaining := m.store.Remove(ctx, ch, itemName)
		close(done)
		if removed {
			m.logger.Debug("link removed", "channel", ch, "item", itemName)
			m.dispatch.linkRemoved(ch, itemName, remaining == 0)
		}
	})
	if !ok {
		return ErrManagerStopped
	}
	<-done
	return nil
}

// RemoveLinksForThing removes every link of every channel the thing
// owns. Handlers still attached to the thing observe ChannelUnlinked
// for each channel that loses its last link. The call returns once the
// store has been updated for all affected channels.
func (m *Manager) RemoveLinksForThing(ctx context.Context, uid thing.UID) error {
	channels := m.store.ChannelsForThing(uid)

	var wg sync.WaitGroup
	for _, ch := range channels {
		ch := ch
		wg.Add(1)
		ok := m.rec.submit(ch, func() {
			items := m.store.RemoveChannel(ctx, ch)
			wg.Done()
			for i, name := range items {
				m.dispatch.linkRemoved(ch, name, i == len(items)-1)
			}
		})
		if !ok {
			wg.Done()
			return ErrManagerStopped
		}
	}
	wg.Wait()

	if len(channels) > 0 {
		m.logger.Info("links removed for thing", "uid", uid, "channels", len(channels))
	}
	return nil
}

// LinkedItems returns the names of the items linked to the channel.
func (m *Manager) LinkedItems(ch thing.ChannelUID) []string {
	return m.store.LinkedItems(ch)
}

// LinkedChannels returns the channels linked to the item.
func (m *Manager) LinkedChannels(itemName string) []thing.ChannelUID {
	return m.store.LinkedChannels(itemName)
}

// IsLinked reports whether the channel and item are linked.
func (m *Manager) IsLinked(ch thing.ChannelUID, itemName string) bool {
	return m.store.IsLinked(ch, itemName)
}

// Links returns every link.
func (m *Manager) Links() []Link {
	return m.store.All()
}

func (m *Manager) channelExists(ch thing.ChannelUID) bool {
	t, err := m.things.Get(ch.ThingUID())
	if err != nil {
		return false
	}
	return t.Channel(ch) != nil
}

func (m *Manager) autoLinkEnabled() (AutoLinkStrategy, bool) {
	m.strategyMu.RLock()
	defer m.strategyMu.RUnlock()
	if !m.autoLink || m.strategy == nil {
		return nil, false
	}
	return m.strategy, true
}

// autoLinkChannel links an unlinked channel to the item the strategy
// selects, if any. Runs on the channel's serial queue.
func (m *Manager) autoLinkChannel(ch thing.Channel) {
	strategy, enabled := m.autoLinkEnabled()
	if !enabled {
		return
	}

	m.rec.submit(ch.UID, func() {
		if len(m.store.LinkedItems(ch.UID)) > 0 {
			return
		}
		name := strategy.ItemFor(ch, m.items)
		if name == "" {
			return
		}
		// The strategy's lookup and the store write are not atomic; the
		// item may have been removed in between.
		if _, err := m.items.Get(name); err != nil {
			return
		}
		added, total := m.store.Add(m.ctx, ch.UID, name)
		if added {
			m.logger.Debug("channel auto-linked", "channel", ch.UID, "item", name)
			m.dispatch.linkAdded(ch.UID, name, total == 1)
		}
	})
}

// removeChannelLinks drops every link of a channel, notifying as the
// channel flips to unlinked. Runs on the channel's serial queue.
func (m *Manager) removeChannelLinks(ch thing.ChannelUID) {
	m.rec.submit(ch, func() {
		items := m.store.RemoveChannel(m.ctx, ch)
		for i, name := range items {
			m.logger.Debug("link removed", "channel", ch, "item", name)
			m.dispatch.linkRemoved(ch, name, i == len(items)-1)
		}
	})
}

// thingWatcher reacts to thing-registry events. Callbacks only enqueue
// work and return; reconciliation happens on the per-channel queues.
type thingWatcher struct {
	m *Manager
}

func (w *thingWatcher) ThingAdded(t *thing.Thing) {
	for _, ch := range t.Channels {
		w.m.autoLinkChannel(ch)
	}
}

func (w *thingWatcher) ThingUpdated(old, updated *thing.Thing) {
	current := make(map[thing.ChannelUID]struct{}, len(updated.Channels))
	for _, ch := range updated.Channels {
		current[ch.UID] = struct{}{}
	}
	for _, ch := range old.Channels {
		if _, ok := current[ch.UID]; !ok {
			w.m.removeChannelLinks(ch.UID)
		}
	}

	previous := make(map[thing.ChannelUID]struct{}, len(old.Channels))
	for _, ch := range old.Channels {
		previous[ch.UID] = struct{}{}
	}
	for _, ch := range updated.Channels {
		if _, ok := previous[ch.UID]; !ok {
			w.m.autoLinkChannel(ch)
		}
	}
}

func (w *thingWatcher) ThingRemoved(t *thing.Thing) {
	// Channels from the store rather than the snapshot, so links that
	// outlived a channel edit are cleaned up too.
	for _, ch := range w.m.store.ChannelsForThing(t.UID) {
		w.m.removeChannelLinks(ch)
	}
}

// itemWatcher reacts to item-registry events. Callbacks only enqueue
// work and return.
type itemWatcher struct {
	m *Manager
}

func (w *itemWatcher) ItemAdded(i *item.Item) {
	strategy, enabled := w.m.autoLinkEnabled()
	if !enabled {
		return
	}

	// A new item may be the auto-link target of channels that were left
	// unlinked when their thing appeared.
	for _, t := range w.m.things.GetAll() {
		for _, ch := range t.Channels {
			if strategy.ItemFor(ch, w.m.items) == i.Name {
				w.m.autoLinkChannel(ch)
			}
		}
	}
}

func (w *itemWatcher) ItemRemoved(i *item.Item) {
	for _, ch := range w.m.store.LinkedChannels(i.Name) {
		ch := ch
		name := i.Name
		w.m.rec.submit(ch, func() {
			removed, remaining := w.m.store.Remove(w.m.ctx, ch, name)
			if removed {
				w.m.logger.Debug("link removed", "channel", ch, "item", name)
				w.m.dispatch.linkRemoved(ch, name, remaining == 0)
			}
		})
	}
}
