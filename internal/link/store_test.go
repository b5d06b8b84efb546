package link

import (
	"context"
	"sync"
	"testing"

	"github.com/lumina-home/lumina-core/internal/thing"
)

// MockLinkRepository is a test implementation of Repository.
type MockLinkRepository struct {
	mu    sync.Mutex
	links map[string]Link
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{links: make(map[string]Link)}
}

func (m *MockLinkRepository) key(ch thing.ChannelUID, itemName string) string {
	return ch.String() + "|" + itemName
}

func (m *MockLinkRepository) List(context.Context) ([]Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	links := make([]Link, 0, len(m.links))
	for _, l := range m.links {
		links = append(links, l)
	}
	return links, nil
}

func (m *MockLinkRepository) Create(_ context.Context, l *Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[m.key(l.ChannelUID, l.ItemName)] = *l
	return nil
}

func (m *MockLinkRepository) Delete(_ context.Context, ch thing.ChannelUID, itemName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.links, m.key(ch, itemName))
	return nil
}

func (m *MockLinkRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.links)
}

func TestStoreAddRemove(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	t.Run("add is idempotent", func(t *testing.T) {
		added, total := store.Add(ctx, "hue:lamp:lamp1:1", "item1")
		if !added || total != 1 {
			t.Errorf("expected added with total 1, got %v %d", added, total)
		}
		added, total = store.Add(ctx, "hue:lamp:lamp1:1", "item1")
		if added || total != 1 {
			t.Errorf("expected duplicate no-op with total 1, got %v %d", added, total)
		}
	})

	t.Run("counts track per channel", func(t *testing.T) {
		_, total := store.Add(ctx, "hue:lamp:lamp1:1", "item2")
		if total != 2 {
			t.Errorf("expected total 2, got %d", total)
		}
		removed, remaining := store.Remove(ctx, "hue:lamp:lamp1:1", "item1")
		if !removed || remaining != 1 {
			t.Errorf("expected removed with remaining 1, got %v %d", removed, remaining)
		}
		removed, remaining = store.Remove(ctx, "hue:lamp:lamp1:1", "item1")
		if removed || remaining != 1 {
			t.Errorf("expected missing no-op with remaining 1, got %v %d", removed, remaining)
		}
	})
}

func TestStoreBidirectionalIndex(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	store.Add(ctx, "hue:lamp:lamp1:1", "shared")
	store.Add(ctx, "hue:lamp:lamp2:1", "shared")
	store.Add(ctx, "hue:lamp:lamp1:1", "solo")

	items := store.LinkedItems("hue:lamp:lamp1:1")
	if len(items) != 2 || items[0] != "shared" || items[1] != "solo" {
		t.Errorf("unexpected linked items: %v", items)
	}

	channels := store.LinkedChannels("shared")
	if len(channels) != 2 || channels[0] != "hue:lamp:lamp1:1" || channels[1] != "hue:lamp:lamp2:1" {
		t.Errorf("unexpected linked channels: %v", channels)
	}

	if !store.IsLinked("hue:lamp:lamp1:1", "solo") {
		t.Error("expected solo to be linked")
	}
	if store.IsLinked("hue:lamp:lamp2:1", "solo") {
		t.Error("did not expect lamp2 linked to solo")
	}
	if store.Count() != 3 {
		t.Errorf("expected 3 links, got %d", store.Count())
	}
}

func TestStoreRemoveChannel(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	store.Add(ctx, "hue:lamp:lamp1:1", "a")
	store.Add(ctx, "hue:lamp:lamp1:1", "b")
	store.Add(ctx, "hue:lamp:lamp2:1", "a")

	removed := store.RemoveChannel(ctx, "hue:lamp:lamp1:1")
	if len(removed) != 2 || removed[0] != "a" || removed[1] != "b" {
		t.Errorf("unexpected removed items: %v", removed)
	}
	if len(store.LinkedItems("hue:lamp:lamp1:1")) != 0 {
		t.Error("expected channel to have no links")
	}
	if !store.IsLinked("hue:lamp:lamp2:1", "a") {
		t.Error("expected lamp2 link to survive")
	}

	if again := store.RemoveChannel(ctx, "hue:lamp:lamp1:1"); len(again) != 0 {
		t.Errorf("expected empty removal, got %v", again)
	}
}

func TestStoreChannelsForThing(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	store.Add(ctx, "hue:lamp:lamp1:1", "a")
	store.Add(ctx, "hue:lamp:lamp1:2", "b")
	store.Add(ctx, "hue:lamp:lamp10:1", "c")

	channels := store.ChannelsForThing("hue:lamp:lamp1")
	if len(channels) != 2 {
		t.Fatalf("expected 2 channels, got %v", channels)
	}
	if channels[0] != "hue:lamp:lamp1:1" || channels[1] != "hue:lamp:lamp1:2" {
		t.Errorf("unexpected channels: %v", channels)
	}
}

func TestStorePersistence(t *testing.T) {
	ctx := context.Background()
	repo := NewMockLinkRepository()
	store := NewStore(repo)

	store.Add(ctx, "hue:lamp:lamp1:1", "a")
	store.Add(ctx, "hue:lamp:lamp1:1", "b")
	if repo.count() != 2 {
		t.Errorf("expected 2 persisted links, got %d", repo.count())
	}

	store.Remove(ctx, "hue:lamp:lamp1:1", "a")
	if repo.count() != 1 {
		t.Errorf("expected 1 persisted link, got %d", repo.count())
	}

	// A fresh store loads the survivors.
	reloaded := NewStore(repo)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reloaded.IsLinked("hue:lamp:lamp1:1", "b") {
		t.Error("expected persisted link after reload")
	}
	if reloaded.Count() != 1 {
		t.Errorf("expected 1 link after reload, got %d", reloaded.Count())
	}
}

func TestStoreAll(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	store.Add(ctx, "b:t:x:1", "z")
	store.Add(ctx, "a:t:x:1", "y")
	store.Add(ctx, "a:t:x:1", "x")

	all := store.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 links, got %d", len(all))
	}
	if all[0].ChannelUID != "a:t:x:1" || all[0].ItemName != "x" {
		t.Errorf("unexpected first link: %+v", all[0])
	}
	if all[2].ChannelUID != "b:t:x:1" {
		t.Errorf("unexpected last link: %+v", all[2])
	}
}
