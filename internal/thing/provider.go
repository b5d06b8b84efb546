package thing

import "sync"

// ThingTypeProvider supplies ThingType descriptors.
type ThingTypeProvider interface {
	// ThingType returns the type for the given UID, or nil if unknown.
	ThingType(uid string) *ThingType
}

// ChannelTypeProvider supplies ChannelType descriptors.
type ChannelTypeProvider interface {
	// ChannelType returns the type for the given UID, or nil if unknown.
	ChannelType(uid string) *ChannelType
}

// StaticTypeProvider is an in-memory ThingTypeProvider and
// ChannelTypeProvider backed by maps. Bindings register their types at
// startup; lookups are safe for concurrent use.
type StaticTypeProvider struct {
	mu           sync.RWMutex
	thingTypes   map[string]ThingType
	channelTypes map[string]ChannelType
}

// NewStaticTypeProvider creates an empty type provider.
func NewStaticTypeProvider() *StaticTypeProvider {
	return &StaticTypeProvider{
		thingTypes:   make(map[string]ThingType),
		channelTypes: make(map[string]ChannelType),
	}
}

// AddThingType registers a thing type, replacing any previous entry.
func (p *StaticTypeProvider) AddThingType(tt ThingType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.thingTypes[tt.UID] = tt
}

// AddChannelType registers a channel type, replacing any previous entry.
func (p *StaticTypeProvider) AddChannelType(ct ChannelType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channelTypes[ct.UID] = ct
}

// ThingType returns the registered thing type, or nil.
func (p *StaticTypeProvider) ThingType(uid string) *ThingType {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tt, ok := p.thingTypes[uid]
	if !ok {
		return nil
	}
	out := tt
	out.ChannelDefinitions = append([]ChannelDefinition(nil), tt.ChannelDefinitions...)
	return &out
}

// ChannelTypes returns all registered channel types.
func (p *StaticTypeProvider) ChannelTypes() []ChannelType {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]ChannelType, 0, len(p.channelTypes))
	for _, ct := range p.channelTypes {
		out = append(out, ct)
	}
	return out
}

// ChannelType returns the registered channel type, or nil.
func (p *StaticTypeProvider) ChannelType(uid string) *ChannelType {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ct, ok := p.channelTypes[uid]
	if !ok {
		return nil
	}
	out := ct
	if ct.State != nil {
		st := *ct.State
		st.Options = append([]StateOption(nil), ct.State.Options...)
		out.State = &st
	}
	return &out
}
