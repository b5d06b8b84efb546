package item

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
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
// occurred; a listener must not block.
type Listener interface {
	// ItemAdded is called after an item is added.
	ItemAdded(i *Item)

	// ItemRemoved is called after an item is removed.
	ItemRemoved(i *Item)
}

type registryEventKind int

const (
	eventAdded registryEventKind = iota
	eventRemoved
)

type registryEvent struct {
	kind registryEventKind
	item *Item
}

const defaultEventBuffer = 64

// Registry provides item management with caching and change
// notification. It wraps a Repository and adds an in-memory cache for
// fast lookups; a single dispatch goroutine delivers change events to
// subscribed listeners in mutation order.
//
// All public methods are thread-safe.
type Registry struct {
	repo   Repository
	logger Logger

	cacheMu sync.RWMutex
	cache   map[string]*Item

	listenersMu sync.RWMutex
	listeners   []Listener

	events chan registryEvent
	done   chan struct{}
	closed bool
	mu     sync.Mutex
}

// NewRegistry creates a new item registry.
func NewRegistry(repo Repository) *Registry {
	r := &Registry{
		repo:   repo,
		logger: noopLogger{},
		cache:  make(map[string]*Item),
		events: make(chan registryEvent, defaultEventBuffer),
		done:   make(chan struct{}),
	}
	go r.dispatch()
	return r
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
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

// RefreshCache reloads all items from the repository into the cache.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	items, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading items: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[string]*Item, len(items))
	for i := range items {
		it := items[i]
		r.cache[it.Name] = it.DeepCopy()
	}

	r.logger.Info("item cache refreshed", "count", len(items))
	return nil
}

// Get retrieves an item by name.
// Returns ErrItemNotFound if the item does not exist.
// The returned item is a deep copy; callers can safely modify it.
func (r *Registry) Get(name string) (*Item, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[name]
	r.cacheMu.RUnlock()
	if !ok {
		return nil, ErrItemNotFound
	}
	return cached.DeepCopy(), nil
}

// GetAll retrieves all items.
// The returned items are deep copies; callers can safely modify them.
func (r *Registry) GetAll() []Item {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	items := make([]Item, 0, len(r.cache))
	for _, i := range r.cache {
		items = append(items, *i.DeepCopy())
	}
	return items
}

// Add persists a new item and notifies listeners.
func (r *Registry) Add(ctx context.Context, i *Item) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if err := validateItem(i); err != nil {
		return err
	}

	now := time.Now().UTC()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	i.UpdatedAt = now

	if err := r.repo.Create(ctx, i); err != nil {
		return err
	}

	snapshot := i.DeepCopy()
	r.cacheMu.Lock()
	r.cache[i.Name] = snapshot
	r.cacheMu.Unlock()

	r.publish(registryEvent{kind: eventAdded, item: snapshot.DeepCopy()})

	r.logger.Info("item added", "name", i.Name, "type", i.Type)
	return nil
}

// Remove deletes an item and notifies listeners. It returns the removed
// item. Returns ErrItemNotFound if the name is unknown.
func (r *Registry) Remove(ctx context.Context, name string) (*Item, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	r.cacheMu.RLock()
	cached, ok := r.cache[name]
	r.cacheMu.RUnlock()
	if !ok {
		return nil, ErrItemNotFound
	}
	snapshot := cached.DeepCopy()

	if err := r.repo.Delete(ctx, name); err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	delete(r.cache, name)
	r.cacheMu.Unlock()

	r.publish(registryEvent{kind: eventRemoved, item: snapshot.DeepCopy()})

	r.logger.Info("item removed", "name", name)
	return snapshot, nil
}

// Rename gives an item a new name. Because links address items by name,
// a rename behaves as removal of the old name followed by addition of
// the new one: listeners see ItemRemoved(old) then ItemAdded(new), in
// that order.
func (r *Registry) Rename(ctx context.Context, oldName, newName string) (*Item, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	if newName == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidItem)
	}
	if oldName == newName {
		return r.Get(oldName)
	}

	r.cacheMu.RLock()
	cached, ok := r.cache[oldName]
	_, taken := r.cache[newName]
	r.cacheMu.RUnlock()
	if !ok {
		return nil, ErrItemNotFound
	}
	if taken {
		return nil, fmt.Errorf("%w: %s", ErrItemExists, newName)
	}
	oldSnapshot := cached.DeepCopy()

	renamed := cached.DeepCopy()
	renamed.Name = newName
	renamed.UpdatedAt = time.Now().UTC()

	if err := r.repo.Create(ctx, renamed); err != nil {
		return nil, err
	}
	if err := r.repo.Delete(ctx, oldName); err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	delete(r.cache, oldName)
	r.cache[newName] = renamed.DeepCopy()
	r.cacheMu.Unlock()

	r.publish(registryEvent{kind: eventRemoved, item: oldSnapshot})
	r.publish(registryEvent{kind: eventAdded, item: renamed.DeepCopy()})

	r.logger.Info("item renamed", "from", oldName, "to", newName)
	return renamed, nil
}

// Close stops the dispatch goroutine after draining queued events.
// Mutations after Close return ErrRegistryClosed.
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
			r.logger.Error("item listener panicked", "panic", rec)
		}
	}()

	switch ev.kind {
	case eventAdded:
		l.ItemAdded(ev.item)
	case eventRemoved:
		l.ItemRemoved(ev.item)
	}
}

func validateItem(i *Item) error {
	if i == nil {
		return fmt.Errorf("%w: nil item", ErrInvalidItem)
	}
	if i.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidItem)
	}
	if i.Type == "" {
		return fmt.Errorf("%w: empty type", ErrInvalidItem)
	}
	return nil
}
