package thing

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
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

// Listener receives registry change notifications. Callbacks are invoked
// on the registry's dispatch goroutine in the order the mutations
// occurred; a listener must not block, and must not call back into
// mutating registry methods from the callback.
type Listener interface {
	// ThingAdded is called after a thing is added.
	ThingAdded(t *Thing)

	// ThingUpdated is called after a thing is replaced. old and updated
	// are snapshots taken at mutation time.
	ThingUpdated(old, updated *Thing)

	// ThingRemoved is called after a thing is removed. The snapshot
	// still carries the channels the thing owned.
	ThingRemoved(t *Thing)
}

type registryEventKind int

const (
	eventAdded registryEventKind = iota
	eventUpdated
	eventRemoved
)

type registryEvent struct {
	kind registryEventKind
	old  *Thing
	cur  *Thing
}

// defaultEventBuffer sizes the dispatch queue between mutators and
// listener callbacks.
const defaultEventBuffer = 64

// Registry provides thing management with caching, handler lifecycle
// and change notification.
//
// It wraps a Repository and adds an in-memory cache for fast lookups.
// Mutations persist first, then update the cache, then queue a change
// event; a single dispatch goroutine delivers events to subscribed
// listeners in mutation order so listeners never run under the
// registry lock.
//
// All public methods are thread-safe.
type Registry struct {
	repo   Repository
	logger Logger

	cacheMu sync.RWMutex
	cache   map[UID]*Thing

	typesMu          sync.RWMutex
	thingProviders   []ThingTypeProvider
	channelProviders []ChannelTypeProvider

	handlersMu sync.RWMutex
	factories  []HandlerFactory
	handlers   map[UID]Handler

	listenersMu sync.RWMutex
	listeners   []Listener

	events chan registryEvent
	done   chan struct{}
	closed bool
	mu     sync.Mutex
}

// NewRegistry creates a new thing registry.
// The repository is used for persistence; the registry adds caching,
// handler management and listener dispatch.
func NewRegistry(repo Repository) *Registry {
	r := &Registry{
		repo:     repo,
		logger:   noopLogger{},
		cache:    make(map[UID]*Thing),
		handlers: make(map[UID]Handler),
		events:   make(chan registryEvent, defaultEventBuffer),
		done:     make(chan struct{}),
	}
	go r.dispatch()
	return r
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// AddThingTypeProvider registers a source of ThingType descriptors.
func (r *Registry) AddThingTypeProvider(p ThingTypeProvider) {
	r.typesMu.Lock()
	defer r.typesMu.Unlock()
	r.thingProviders = append(r.thingProviders, p)
}

// AddChannelTypeProvider registers a source of ChannelType descriptors.
func (r *Registry) AddChannelTypeProvider(p ChannelTypeProvider) {
	r.typesMu.Lock()
	defer r.typesMu.Unlock()
	r.channelProviders = append(r.channelProviders, p)
}

// AddHandlerFactory registers a handler factory. Factories are consulted
// in registration order when a thing is added.
func (r *Registry) AddHandlerFactory(f HandlerFactory) {
	r.handlersMu.Lock()
	defer r.handlersMu.Unlock()
	r.factories = append(r.factories, f)
}

// Subscribe registers a listener for registry change events.
func (r *Registry) Subscribe(l Listener) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Unsubscribe removes a previously registered listener.
func (r *Registry) Unsubscribe(l Listener) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	for i, existing := range r.listeners {
		if existing == l {
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return
		}
	}
}

// RefreshCache reloads all things from the repository into the cache.
// This should be called on application startup, before handlers and
// listeners are wired.
func (r *Registry) RefreshCache(ctx context.Context) error {
	things, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading things: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[UID]*Thing, len(things))
	for i := range things {
		t := things[i]
		r.cache[t.UID] = t.DeepCopy()
	}

	r.logger.Info("thing cache refreshed", "count", len(things))
	return nil
}

// ThingType resolves a thing-type UID across all registered providers.
func (r *Registry) ThingType(uid string) *ThingType {
	r.typesMu.RLock()
	defer r.typesMu.RUnlock()
	for _, p := range r.thingProviders {
		if tt := p.ThingType(uid); tt != nil {
			return tt
		}
	}
	return nil
}

// ChannelType resolves a channel-type UID across all registered providers.
func (r *Registry) ChannelType(uid string) *ChannelType {
	r.typesMu.RLock()
	defer r.typesMu.RUnlock()
	for _, p := range r.channelProviders {
		if ct := p.ChannelType(uid); ct != nil {
			return ct
		}
	}
	return nil
}

// CreateThingOfType builds a Thing from its type descriptor, materialising
// one channel per channel definition. The channel's item type is copied
// from the channel type so linking can be validated without a provider
// lookup. The returned thing is not yet added to the registry.
//
// Returns ErrTypeNotFound if no provider knows the thing type, and
// ErrChannelTypeNotFound if a channel definition references an unknown
// channel type.
func (r *Registry) CreateThingOfType(typeUID string, uid UID, bridgeUID *UID, label string, config Config) (*Thing, error) {
	tt := r.ThingType(typeUID)
	if tt == nil {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, typeUID)
	}

	now := time.Now().UTC()
	t := &Thing{
		UID:       uid,
		TypeUID:   typeUID,
		BridgeUID: bridgeUID,
		Label:     label,
		Status:    StatusUninitialized,
		Config:    config,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if t.Config == nil {
		t.Config = Config{}
	}

	for _, def := range tt.ChannelDefinitions {
		ct := r.ChannelType(def.TypeUID)
		if ct == nil {
			return nil, fmt.Errorf("%w: %s", ErrChannelTypeNotFound, def.TypeUID)
		}
		t.Channels = append(t.Channels, Channel{
			UID:      NewChannelUID(uid, def.ID),
			ID:       def.ID,
			TypeUID:  def.TypeUID,
			Label:    ct.Label,
			ItemType: ct.ItemType,
		})
	}
	return t, nil
}

// Get retrieves a thing by UID.
// Returns ErrThingNotFound if the thing does not exist.
// The returned thing is a deep copy; callers can safely modify it.
func (r *Registry) Get(uid UID) (*Thing, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[uid]
	r.cacheMu.RUnlock()
	if !ok {
		return nil, ErrThingNotFound
	}
	return cached.DeepCopy(), nil
}

// GetAll retrieves all things.
// The returned things are deep copies; callers can safely modify them.
func (r *Registry) GetAll() []Thing {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	things := make([]Thing, 0, len(r.cache))
	for _, t := range r.cache {
		things = append(things, *t.DeepCopy())
	}
	return things
}

// Add persists a new thing, creates its handler and notifies listeners.
//
// Handler creation failures are logged but do not fail the add; the
// thing simply has no handler until one is attached by other means.
// The handler's Initialize runs on a separate goroutine so Add never
// blocks on binding I/O.
func (r *Registry) Add(ctx context.Context, t *Thing) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if err := validateThing(t); err != nil {
		return err
	}

	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = StatusUninitialized
	}

	if err := r.repo.Create(ctx, t); err != nil {
		return err
	}

	snapshot := t.DeepCopy()
	r.cacheMu.Lock()
	r.cache[t.UID] = snapshot
	r.cacheMu.Unlock()

	r.attachHandler(ctx, snapshot.DeepCopy())
	r.publish(registryEvent{kind: eventAdded, cur: snapshot.DeepCopy()})

	r.logger.Info("thing added", "uid", t.UID, "type", t.TypeUID)
	return nil
}

// Update replaces an existing thing and notifies listeners with both the
// old and the new snapshot.
func (r *Registry) Update(ctx context.Context, t *Thing) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if err := validateThing(t); err != nil {
		return err
	}

	r.cacheMu.RLock()
	old, ok := r.cache[t.UID]
	r.cacheMu.RUnlock()
	if !ok {
		return ErrThingNotFound
	}
	oldSnapshot := old.DeepCopy()

	t.UpdatedAt = time.Now().UTC()
	if err := r.repo.Update(ctx, t); err != nil {
		return err
	}

	snapshot := t.DeepCopy()
	r.cacheMu.Lock()
	r.cache[t.UID] = snapshot
	r.cacheMu.Unlock()

	r.publish(registryEvent{kind: eventUpdated, old: oldSnapshot, cur: snapshot.DeepCopy()})

	r.logger.Info("thing updated", "uid", t.UID)
	return nil
}

// Remove deletes a thing, disposes its handler and notifies listeners.
// It returns the removed thing so callers can inspect the channels the
// thing owned. Returns ErrThingNotFound if the UID is unknown.
//
// The handler is disposed before listeners are notified, so by the time
// a listener observes the removal the thing no longer has a handler.
func (r *Registry) Remove(ctx context.Context, uid UID) (*Thing, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	r.cacheMu.RLock()
	cached, ok := r.cache[uid]
	r.cacheMu.RUnlock()
	if !ok {
		return nil, ErrThingNotFound
	}
	snapshot := cached.DeepCopy()

	if err := r.repo.Delete(ctx, uid); err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	delete(r.cache, uid)
	r.cacheMu.Unlock()

	r.detachHandler(uid)
	r.publish(registryEvent{kind: eventRemoved, cur: snapshot.DeepCopy()})

	r.logger.Info("thing removed", "uid", uid)
	return snapshot, nil
}

// SetStatus updates the lifecycle status of a thing. Handlers call this
// as they bring things online and offline.
func (r *Registry) SetStatus(ctx context.Context, uid UID, status Status) error {
	if err := r.checkOpen(); err != nil {
		return err
	}

	r.cacheMu.Lock()
	cached, ok := r.cache[uid]
	if !ok {
		r.cacheMu.Unlock()
		return ErrThingNotFound
	}
	oldSnapshot := cached.DeepCopy()
	cached.Status = status
	cached.UpdatedAt = time.Now().UTC()
	snapshot := cached.DeepCopy()
	r.cacheMu.Unlock()

	if err := r.repo.UpdateStatus(ctx, uid, status); err != nil {
		return err
	}

	r.publish(registryEvent{kind: eventUpdated, old: oldSnapshot, cur: snapshot})

	r.logger.Debug("thing status changed", "uid", uid, "status", status)
	return nil
}

// Handler returns the current handler for a thing, or nil if the thing
// has none (unknown UID, removed, or handler creation failed).
func (r *Registry) Handler(uid UID) Handler {
	r.handlersMu.RLock()
	defer r.handlersMu.RUnlock()
	return r.handlers[uid]
}

// Close stops the dispatch goroutine after draining queued events and
// disposes all handlers. Mutations after Close return ErrRegistryClosed.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.events)
	r.mu.Unlock()

	<-r.done

	r.handlersMu.Lock()
	handlers := r.handlers
	r.handlers = make(map[UID]Handler)
	r.handlersMu.Unlock()

	for uid, h := range handlers {
		r.disposeHandler(uid, h)
	}
}

func (r *Registry) checkOpen() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRegistryClosed
	}
	return nil
}

func (r *Registry) publish(ev registryEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.events <- ev
}

func (r *Registry) dispatch() {
	defer close(r.done)
	for ev := range r.events {
		r.listenersMu.RLock()
		listeners := append([]Listener(nil), r.listeners...)
		r.listenersMu.RUnlock()

		for _, l := range listeners {
			r.deliver(l, ev)
		}
	}
}

func (r *Registry) deliver(l Listener, ev registryEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("thing listener panicked", "panic", rec)
		}
	}()

	switch ev.kind {
	case eventAdded:
		l.ThingAdded(ev.cur)
	case eventUpdated:
		l.ThingUpdated(ev.old, ev.cur)
	case eventRemoved:
		l.ThingRemoved(ev.cur)
	}
}

func (r *Registry) attachHandler(ctx context.Context, t *Thing) {
	r.handlersMu.Lock()
	defer r.handlersMu.Unlock()

	for _, f := range r.factories {
		if !f.Supports(t.TypeUID) {
			continue
		}
		h, err := f.Create(t)
		if err != nil {
			r.logger.Error("handler creation failed", "uid", t.UID, "error", err)
			return
		}
		r.handlers[t.UID] = h

		go func() {
			if err := h.Initialize(ctx); err != nil {
				r.logger.Error("handler initialization failed", "uid", t.UID, "error", err)
			}
		}()
		return
	}
	r.logger.Debug("no handler factory for thing type", "uid", t.UID, "type", t.TypeUID)
}

func (r *Registry) detachHandler(uid UID) {
	r.handlersMu.Lock()
	h, ok := r.handlers[uid]
	delete(r.handlers, uid)
	r.handlersMu.Unlock()

	if ok {
		r.disposeHandler(uid, h)
	}
}

func (r *Registry) disposeHandler(uid UID, h Handler) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("handler dispose panicked", "uid", uid, "panic", rec)
		}
	}()
	h.Dispose()
}

func validateThing(t *Thing) error {
	if t == nil {
		return fmt.Errorf("%w: nil thing", ErrInvalidThing)
	}
	if t.UID == "" {
		return fmt.Errorf("%w: empty uid", ErrInvalidThing)
	}
	if t.TypeUID == "" {
		return fmt.Errorf("%w: empty type uid", ErrInvalidThing)
	}
	for _, ch := range t.Channels {
		if ch.UID == "" {
			return fmt.Errorf("%w: channel with empty uid", ErrInvalidThing)
		}
		if ch.UID.ThingUID() != t.UID {
			return fmt.Errorf("%w: channel %s does not belong to thing %s", ErrInvalidThing, ch.UID, t.UID)
		}
	}
	return nil
}
