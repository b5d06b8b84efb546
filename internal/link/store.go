package link

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lumina-home/lumina-core/internal/thing"
)

// Link is a persistent association between a channel and an item.
type Link struct {
	ChannelUID thing.ChannelUID `json:"channel_uid"`
	ItemName   string           `json:"item_name"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Store is the in-memory link table, indexed both by channel and by
// item for O(1) lookups in either direction. Mutations are atomic;
// each returns whether it changed anything together with the channel's
// post-mutation link count so callers can detect zero/non-zero flips
// without a second, racy read.
//
// A Repository, when set, is written through after each mutation;
// persistence failures are logged and never fail the mutation.
//
// All methods are thread-safe.
type Store struct {
	mu        sync.RWMutex
	byChannel map[thing.ChannelUID]map[string]time.Time
	byItem    map[string]map[thing.ChannelUID]struct{}

	repo   Repository
	logger Logger
}

// NewStore creates an empty link store. repo may be nil for a purely
// in-memory store.
func NewStore(repo Repository) *Store {
	return &Store{
		byChannel: make(map[thing.ChannelUID]map[string]time.Time),
		byItem:    make(map[string]map[thing.ChannelUID]struct{}),
		repo:      repo,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// Load populates the store from the repository. Call once at startup,
// before any mutation.
func (s *Store) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	links, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byChannel = make(map[thing.ChannelUID]map[string]time.Time, len(links))
	s.byItem = make(map[string]map[thing.ChannelUID]struct{}, len(links))
	for _, l := range links {
		s.index(l.ChannelUID, l.ItemName, l.CreatedAt)
	}

	s.logger.Info("link store loaded", "count", len(links))
	return nil
}

// Add records a link. It returns false if the link already existed,
// and the channel's link count after the call.
func (s *Store) Add(ctx context.Context, ch thing.ChannelUID, itemName string) (added bool, total int) {
	now := time.Now().UTC()

	s.mu.Lock()
	if _, exists := s.byChannel[ch][itemName]; exists {
		total = len(s.byChannel[ch])
		s.mu.Unlock()
		return false, total
	}
	s.index(ch, itemName, now)
	total = len(s.byChannel[ch])
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.Create(ctx, &Link{ChannelUID: ch, ItemName: itemName, CreatedAt: now}); err != nil {
			s.logger.Error("persisting link failed", "channel", ch, "item", itemName, "error", err)
		}
	}
	return true, total
}

// Remove deletes a link. It returns false if the link did not exist,
// and the channel's link count after the call.
func (s *Store) Remove(ctx context.Context, ch thing.ChannelUID, itemName string) (removed bool, remaining int) {
	s.mu.Lock()
	if _, exists := s.byChannel[ch][itemName]; !exists {
		remaining = len(s.byChannel[ch])
		s.mu.Unlock()
		return false, remaining
	}
	s.unindex(ch, itemName)
	remaining = len(s.byChannel[ch])
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.Delete(ctx, ch, itemName); err != nil {
			s.logger.Error("deleting link failed", "channel", ch, "item", itemName, "error", err)
		}
	}
	return true, remaining
}

// RemoveChannel deletes every link of a channel and returns the item
// names that were linked, in sorted order.
func (s *Store) RemoveChannel(ctx context.Context, ch thing.ChannelUID) []string {
	s.mu.Lock()
	linked := s.byChannel[ch]
	items := make([]string, 0, len(linked))
	for name := range linked {
		items = append(items, name)
	}
	for _, name := range items {
		s.unindex(ch, name)
	}
	s.mu.Unlock()
	sort.Strings(items)

	if s.repo != nil {
		for _, name := range items {
			if err := s.repo.Delete(ctx, ch, name); err != nil {
				s.logger.Error("deleting link failed", "channel", ch, "item", name, "error", err)
			}
		}
	}
	return items
}

// LinkedItems returns the names of all items linked to the channel,
// in sorted order.
func (s *Store) LinkedItems(ch thing.ChannelUID) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]string, 0, len(s.byChannel[ch]))
	for name := range s.byChannel[ch] {
		items = append(items, name)
	}
	sort.Strings(items)
	return items
}

// LinkedChannels returns the UIDs of all channels linked to the item,
// in sorted order.
func (s *Store) LinkedChannels(itemName string) []thing.ChannelUID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	channels := make([]thing.ChannelUID, 0, len(s.byItem[itemName]))
	for ch := range s.byItem[itemName] {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })
	return channels
}

// IsLinked reports whether the channel and item are linked.
func (s *Store) IsLinked(ch thing.ChannelUID, itemName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byChannel[ch][itemName]
	return ok
}

// ChannelsForThing returns all linked channels owned by the thing,
// in sorted order.
func (s *Store) ChannelsForThing(uid thing.UID) []thing.ChannelUID {
	prefix := uid.String() + ":"

	s.mu.RLock()
	defer s.mu.RUnlock()

	var channels []thing.ChannelUID
	for ch := range s.byChannel {
		if strings.HasPrefix(ch.String(), prefix) {
			channels = append(channels, ch)
		}
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })
	return channels
}

// All returns every link, sorted by channel then item.
func (s *Store) All() []Link {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var links []Link
	for ch, items := range s.byChannel {
		for name, created := range items {
			links = append(links, Link{ChannelUID: ch, ItemName: name, CreatedAt: created})
		}
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].ChannelUID != links[j].ChannelUID {
			return links[i].ChannelUID < links[j].ChannelUID
		}
		return links[i].ItemName < links[j].ItemName
	})
	return links
}

// Count returns the number of links.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, items := range s.byChannel {
		n += len(items)
	}
	return n
}

// index inserts into both maps. Caller holds the write lock.
func (s *Store) index(ch thing.ChannelUID, itemName string, created time.Time) {
	if s.byChannel[ch] == nil {
		s.byChannel[ch] = make(map[string]time.Time)
	}
	s.byChannel[ch][itemName] = created

	if s.byItem[itemName] == nil {
		s.byItem[itemName] = make(map[thing.ChannelUID]struct{})
	}
	s.byItem[itemName][ch] = struct{}{}
}

// unindex removes from both maps. Caller holds the write lock.
func (s *Store) unindex(ch thing.ChannelUID, itemName string) {
	delete(s.byChannel[ch], itemName)
	if len(s.byChannel[ch]) == 0 {
		delete(s.byChannel, ch)
	}
	delete(s.byItem[itemName], ch)
	if len(s.byItem[itemName]) == 0 {
		delete(s.byItem, itemName)
	}
}
