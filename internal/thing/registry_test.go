package thing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// MockRepository is a test implementation of Repository.
type MockRepository struct {
	mu     sync.Mutex
	things map[UID]*Thing
	// For testing error paths
	createErr error
	updateErr error
	deleteErr error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		things: make(map[UID]*Thing),
	}
}

func (m *MockRepository) GetByUID(_ context.Context, uid UID) (*Thing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.things[uid]; ok {
		return t.DeepCopy(), nil
	}
	return nil, ErrThingNotFound
}

func (m *MockRepository) List(_ context.Context) ([]Thing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	things := make([]Thing, 0, len(m.things))
	for _, t := range m.things {
		things = append(things, *t.DeepCopy())
	}
	return things, nil
}

func (m *MockRepository) Create(_ context.Context, t *Thing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.things[t.UID]; ok {
		return ErrThingExists
	}
	m.things[t.UID] = t.DeepCopy()
	return nil
}

func (m *MockRepository) Update(_ context.Context, t *Thing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.things[t.UID]; !ok {
		return ErrThingNotFound
	}
	m.things[t.UID] = t.DeepCopy()
	return nil
}

func (m *MockRepository) Delete(_ context.Context, uid UID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.things[uid]; !ok {
		return ErrThingNotFound
	}
	delete(m.things, uid)
	return nil
}

func (m *MockRepository) UpdateStatus(_ context.Context, uid UID, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.things[uid]
	if !ok {
		return ErrThingNotFound
	}
	t.Status = status
	return nil
}

// recordingListener collects registry events for assertions.
type recordingListener struct {
	mu      sync.Mutex
	added   []*Thing
	updated [][2]*Thing
	removed []*Thing
}

func (l *recordingListener) ThingAdded(t *Thing) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.added = append(l.added, t)
}

func (l *recordingListener) ThingUpdated(old, updated *Thing) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updated = append(l.updated, [2]*Thing{old, updated})
}

func (l *recordingListener) ThingRemoved(t *Thing) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removed = append(l.removed, t)
}

func (l *recordingListener) counts() (added, updated, removed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.added), len(l.updated), len(l.removed)
}

// mockHandler records lifecycle callbacks.
type mockHandler struct {
	mu          sync.Mutex
	initialized bool
	disposed    bool
	linked      []ChannelUID
	unlinked    []ChannelUID
}

func (h *mockHandler) Initialize(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.initialized = true
	return nil
}

func (h *mockHandler) Dispose() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disposed = true
}

func (h *mockHandler) HandleCommand(ChannelUID, string) error { return nil }

func (h *mockHandler) ChannelLinked(ch ChannelUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.linked = append(h.linked, ch)
}

func (h *mockHandler) ChannelUnlinked(ch ChannelUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unlinked = append(h.unlinked, ch)
}

func (h *mockHandler) isDisposed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disposed
}

// waitFor polls cond until it returns true or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}

func testTypeProvider() *StaticTypeProvider {
	types := NewStaticTypeProvider()
	types.AddChannelType(ChannelType{
		UID:      "hue:brightness",
		Label:    "Brightness",
		ItemType: "Number",
		State:    &StateDescription{Pattern: "%d %%"},
	})
	types.AddThingType(ThingType{
		UID:   "hue:lamp",
		Label: "Hue Lamp",
		ChannelDefinitions: []ChannelDefinition{
			{ID: "1", TypeUID: "hue:brightness"},
		},
	})
	return types
}

func newTestRegistry(t *testing.T) (*Registry, *MockRepository) {
	t.Helper()
	repo := NewMockRepository()
	registry := NewRegistry(repo)
	registry.AddThingTypeProvider(testTypeProvider())
	registry.AddChannelTypeProvider(testTypeProvider())
	t.Cleanup(registry.Close)
	return registry, repo
}

func TestCreateThingOfType(t *testing.T) {
	registry, _ := newTestRegistry(t)

	t.Run("materialises channels from type definitions", func(t *testing.T) {
		created, err := registry.CreateThingOfType("hue:lamp", "hue:lamp:lamp1", nil, "Lamp", nil)
		if err != nil {
			t.Fatalf("CreateThingOfType failed: %v", err)
		}
		if len(created.Channels) != 1 {
			t.Fatalf("expected 1 channel, got %d", len(created.Channels))
		}
		ch := created.Channels[0]
		if ch.UID != "hue:lamp:lamp1:1" {
			t.Errorf("expected channel uid hue:lamp:lamp1:1, got %s", ch.UID)
		}
		if ch.ItemType != "Number" {
			t.Errorf("expected item type Number, got %s", ch.ItemType)
		}
		if created.Status != StatusUninitialized {
			t.Errorf("expected status uninitialized, got %s", created.Status)
		}
	})

	t.Run("unknown thing type", func(t *testing.T) {
		_, err := registry.CreateThingOfType("hue:bulb", "hue:bulb:x", nil, "", nil)
		if !errors.Is(err, ErrTypeNotFound) {
			t.Errorf("expected ErrTypeNotFound, got %v", err)
		}
	})

	t.Run("unknown channel type", func(t *testing.T) {
		types := NewStaticTypeProvider()
		types.AddThingType(ThingType{
			UID: "bad:type",
			ChannelDefinitions: []ChannelDefinition{
				{ID: "1", TypeUID: "bad:channel"},
			},
		})
		registry.AddThingTypeProvider(types)

		_, err := registry.CreateThingOfType("bad:type", "bad:type:x", nil, "", nil)
		if !errors.Is(err, ErrChannelTypeNotFound) {
			t.Errorf("expected ErrChannelTypeNotFound, got %v", err)
		}
	})
}

func TestRegistryAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("adds and caches", func(t *testing.T) {
		registry, repo := newTestRegistry(t)

		created, err := registry.CreateThingOfType("hue:lamp", "hue:lamp:lamp1", nil, "Lamp", nil)
		if err != nil {
			t.Fatalf("CreateThingOfType failed: %v", err)
		}
		if err := registry.Add(ctx, created); err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		got, err := registry.Get("hue:lamp:lamp1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Label != "Lamp" {
			t.Errorf("expected label Lamp, got %s", got.Label)
		}

		stored, err := repo.GetByUID(ctx, "hue:lamp:lamp1")
		if err != nil {
			t.Fatalf("thing not persisted: %v", err)
		}
		if len(stored.Channels) != 1 {
			t.Errorf("expected 1 persisted channel, got %d", len(stored.Channels))
		}
	})

	t.Run("duplicate uid", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		created, _ := registry.CreateThingOfType("hue:lamp", "hue:lamp:lamp1", nil, "Lamp", nil)
		if err := registry.Add(ctx, created); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		again, _ := registry.CreateThingOfType("hue:lamp", "hue:lamp:lamp1", nil, "Lamp", nil)
		if err := registry.Add(ctx, again); !errors.Is(err, ErrThingExists) {
			t.Errorf("expected ErrThingExists, got %v", err)
		}
	})

	t.Run("validation", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		if err := registry.Add(ctx, &Thing{TypeUID: "hue:lamp"}); !errors.Is(err, ErrInvalidThing) {
			t.Errorf("expected ErrInvalidThing for empty uid, got %v", err)
		}
		foreign := &Thing{
			UID:     "hue:lamp:lamp1",
			TypeUID: "hue:lamp",
			Channels: []Channel{
				{UID: "hue:lamp:other:1", ID: "1"},
			},
		}
		if err := registry.Add(ctx, foreign); !errors.Is(err, ErrInvalidThing) {
			t.Errorf("expected ErrInvalidThing for foreign channel, got %v", err)
		}
	})

	t.Run("notifies listeners", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		listener := &recordingListener{}
		registry.Subscribe(listener)

		created, _ := registry.CreateThingOfType("hue:lamp", "hue:lamp:lamp1", nil, "Lamp", nil)
		if err := registry.Add(ctx, created); err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		waitFor(t, time.Second, func() bool {
			added, _, _ := listener.counts()
			return added == 1
		}, "ThingAdded not delivered")
	})
}

func TestRegistryHandlerLifecycle(t *testing.T) {
	ctx := context.Background()
	registry, _ := newTestRegistry(t)

	handler := &mockHandler{}
	registry.AddHandlerFactory(HandlerFactoryFunc{
		TypeUID: "hue:lamp",
		New:     func(*Thing) (Handler, error) { return handler, nil },
	})

	created, _ := registry.CreateThingOfType("hue:lamp", "hue:lamp:lamp1", nil, "Lamp", nil)
	if err := registry.Add(ctx, created); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if got := registry.Handler("hue:lamp:lamp1"); got != handler {
		t.Fatal("expected handler to be attached after Add")
	}

	waitFor(t, time.Second, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return handler.initialized
	}, "handler not initialized")

	removed, err := registry.Remove(ctx, "hue:lamp:lamp1")
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if len(removed.Channels) != 1 {
		t.Errorf("expected removed snapshot to carry channels, got %d", len(removed.Channels))
	}
	if !handler.isDisposed() {
		t.Error("expected handler to be disposed on Remove")
	}
	if got := registry.Handler("hue:lamp:lamp1"); got != nil {
		t.Error("expected no handler after Remove")
	}
}

func TestRegistryRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown uid", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		if _, err := registry.Remove(ctx, "hue:lamp:missing"); !errors.Is(err, ErrThingNotFound) {
			t.Errorf("expected ErrThingNotFound, got %v", err)
		}
	})

	t.Run("notifies listeners with channel snapshot", func(t *testing.T) {
		registry, _ := newTestRegistry(t)

		listener := &recordingListener{}
		registry.Subscribe(listener)

		created, _ := registry.CreateThingOfType("hue:lamp", "hue:lamp:lamp1", nil, "Lamp", nil)
		if err := registry.Add(ctx, created); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if _, err := registry.Remove(ctx, "hue:lamp:lamp1"); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}

		waitFor(t, time.Second, func() bool {
			_, _, removed := listener.counts()
			return removed == 1
		}, "ThingRemoved not delivered")

		listener.mu.Lock()
		defer listener.mu.Unlock()
		if len(listener.removed[0].Channels) != 1 {
			t.Error("expected removal event to carry the channel snapshot")
		}
	})
}

func TestRegistrySetStatus(t *testing.T) {
	ctx := context.Background()
	registry, _ := newTestRegistry(t)

	created, _ := registry.CreateThingOfType("hue:lamp", "hue:lamp:lamp1", nil, "Lamp", nil)
	if err := registry.Add(ctx, created); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := registry.SetStatus(ctx, "hue:lamp:lamp1", StatusOnline); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	got, err := registry.Get("hue:lamp:lamp1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != StatusOnline {
		t.Errorf("expected status online, got %s", got.Status)
	}

	if err := registry.SetStatus(ctx, "hue:lamp:missing", StatusOnline); !errors.Is(err, ErrThingNotFound) {
		t.Errorf("expected ErrThingNotFound, got %v", err)
	}
}

func TestRegistryEventOrdering(t *testing.T) {
	ctx := context.Background()
	registry, _ := newTestRegistry(t)

	type ordered struct {
		mu     sync.Mutex
		events []string
	}
	record := &ordered{}

	listener := listenerFuncs{
		added: func(t *Thing) {
			record.mu.Lock()
			defer record.mu.Unlock()
			record.events = append(record.events, "added:"+string(t.UID))
		},
		removed: func(t *Thing) {
			record.mu.Lock()
			defer record.mu.Unlock()
			record.events = append(record.events, "removed:"+string(t.UID))
		},
	}
	registry.Subscribe(listener)

	created, _ := registry.CreateThingOfType("hue:lamp", "hue:lamp:lamp1", nil, "Lamp", nil)
	if err := registry.Add(ctx, created); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := registry.Remove(ctx, "hue:lamp:lamp1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	waitFor(t, time.Second, func() bool {
		record.mu.Lock()
		defer record.mu.Unlock()
		return len(record.events) == 2
	}, "events not delivered")

	record.mu.Lock()
	defer record.mu.Unlock()
	if record.events[0] != "added:hue:lamp:lamp1" || record.events[1] != "removed:hue:lamp:lamp1" {
		t.Errorf("events out of order: %v", record.events)
	}
}

func TestRegistryClose(t *testing.T) {
	ctx := context.Background()
	registry, _ := newTestRegistry(t)

	registry.Close()
	registry.Close() // idempotent

	created := &Thing{UID: "hue:lamp:lamp1", TypeUID: "hue:lamp"}
	if err := registry.Add(ctx, created); !errors.Is(err, ErrRegistryClosed) {
		t.Errorf("expected ErrRegistryClosed, got %v", err)
	}
}

func TestChannelUID(t *testing.T) {
	ch := ChannelUID("hue:lamp:lamp1:1")
	if ch.ThingUID() != "hue:lamp:lamp1" {
		t.Errorf("expected thing uid hue:lamp:lamp1, got %s", ch.ThingUID())
	}
	if ch.ID() != "1" {
		t.Errorf("expected channel id 1, got %s", ch.ID())
	}
	if NewChannelUID("hue:lamp:lamp1", "1") != ch {
		t.Error("NewChannelUID round trip mismatch")
	}
}

// listenerFuncs adapts plain functions to the Listener interface.
type listenerFuncs struct {
	added   func(*Thing)
	updated func(old, updated *Thing)
	removed func(*Thing)
}

func (l listenerFuncs) ThingAdded(t *Thing) {
	if l.added != nil {
		l.added(t)
	}
}

func (l listenerFuncs) ThingUpdated(old, updated *Thing) {
	if l.updated != nil {
		l.updated(old, updated)
	}
}

func (l listenerFuncs) ThingRemoved(t *Thing) {
	if l.removed != nil {
		l.removed(t)
	}
}
