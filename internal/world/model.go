package world

import (
	"bytes"
	"encoding/json"
)

// Record is an opaque entity or event record. The store only looks at the
// key it is filed under.
type Record map[string]any

// WorldModel is the aggregate world state.
type WorldModel struct {
	PhysicalWorld map[string]any    `json:"physical_world"`
	Culture       map[string]any    `json:"culture"`
	Factions      map[string]Record `json:"factions"`
	Characters    map[string]Record `json:"characters"`
	Locations     map[string]Record `json:"locations"`
	Artifacts     map[string]Record `json:"artifacts"`
	Events        map[string]Record `json:"events"`
	// Interactions is most-recent-first.
	Interactions []Record `json:"interactions"`
	// ChatHistory is oldest-first.
	ChatHistory []Record `json:"chat_history"`

	IsInitialized bool   `json:"is_initialized"`
	ProviderKey   string `json:"provider_key,omitempty"`
}

func NewWorldModel() *WorldModel {
	return &WorldModel{
		PhysicalWorld: map[string]any{},
		Culture:       map[string]any{},
		Factions:      map[string]Record{},
		Characters:    map[string]Record{},
		Locations:     map[string]Record{},
		Artifacts:     map[string]Record{},
		Events:        map[string]Record{},
		Interactions:  []Record{},
		ChatHistory:   []Record{},
	}
}

func (m *WorldModel) singleton(s Section) *map[string]any {
	switch s {
	case PhysicalWorld:
		return &m.PhysicalWorld
	case Culture:
		return &m.Culture
	}
	return nil
}

func (m *WorldModel) keyed(s Section) map[string]Record {
	switch s {
	case Factions:
		return m.Factions
	case Characters:
		return m.Characters
	case Locations:
		return m.Locations
	case Artifacts:
		return m.Artifacts
	case Events:
		return m.Events
	}
	return nil
}

// Keyed returns the named keyed section, or nil for other sections.
func (m *WorldModel) Keyed(s Section) map[string]Record {
	if m == nil {
		return nil
	}
	return m.keyed(s)
}

// Singleton returns the named singleton section, or nil for other sections.
func (m *WorldModel) Singleton(s Section) map[string]any {
	if m == nil {
		return nil
	}
	if p := m.singleton(s); p != nil {
		return *p
	}
	return nil
}

// Len is the number of entries held by a section.
func (m *WorldModel) Len(s Section) int {
	if m == nil {
		return 0
	}
	switch s.Kind() {
	case KindSingleton:
		return len(*m.singleton(s))
	case KindKeyed:
		return len(m.keyed(s))
	case KindOrdered:
		if s == Interactions {
			return len(m.Interactions)
		}
		return len(m.ChatHistory)
	}
	return 0
}

func (m *WorldModel) IsEmpty(s Section) bool {
	return m.Len(s) == 0
}

// Lookup finds an entity by name in characters, factions then locations.
func (m *WorldModel) Lookup(name string) (Record, Section, bool) {
	if m == nil {
		return nil, "", false
	}
	for _, s := range []Section{Characters, Factions, Locations} {
		if rec, ok := m.keyed(s)[name]; ok {
			return rec, s, true
		}
	}
	return nil, "", false
}

// Clone returns a deep copy.
func (m *WorldModel) Clone() *WorldModel {
	if m == nil {
		return nil
	}
	out := &WorldModel{
		PhysicalWorld: cloneMap(m.PhysicalWorld),
		Culture:       cloneMap(m.Culture),
		Factions:      cloneRecords(m.Factions),
		Characters:    cloneRecords(m.Characters),
		Locations:     cloneRecords(m.Locations),
		Artifacts:     cloneRecords(m.Artifacts),
		Events:        cloneRecords(m.Events),
		Interactions:  cloneList(m.Interactions),
		ChatHistory:   cloneList(m.ChatHistory),
		IsInitialized: m.IsInitialized,
		ProviderKey:   m.ProviderKey,
	}
	return out
}

// UnmarshalJSON fills missing sections with empty collections so a decoded
// model is always safe to merge into. Numbers stay json.Number, as they are
// at the merge boundary.
func (m *WorldModel) UnmarshalJSON(data []byte) error {
	type plain WorldModel
	decoded := plain(*NewWorldModel())
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return err
	}
	*m = WorldModel(decoded)
	fresh := NewWorldModel()
	if m.PhysicalWorld == nil {
		m.PhysicalWorld = fresh.PhysicalWorld
	}
	if m.Culture == nil {
		m.Culture = fresh.Culture
	}
	for _, s := range KeyedSections {
		if m.keyed(s) == nil {
			m.setKeyed(s, map[string]Record{})
		}
	}
	if m.Interactions == nil {
		m.Interactions = []Record{}
	}
	if m.ChatHistory == nil {
		m.ChatHistory = []Record{}
	}
	return nil
}

func (m *WorldModel) setKeyed(s Section, v map[string]Record) {
	switch s {
	case Factions:
		m.Factions = v
	case Characters:
		m.Characters = v
	case Locations:
		m.Locations = v
	case Artifacts:
		m.Artifacts = v
	case Events:
		m.Events = v
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case Record:
		return Record(cloneMap(t))
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneRecords(in map[string]Record) map[string]Record {
	out := make(map[string]Record, len(in))
	for k, v := range in {
		out[k] = Record(cloneMap(v))
	}
	return out
}

func cloneList(in []Record) []Record {
	out := make([]Record, len(in))
	for i, v := range in {
		out[i] = Record(cloneMap(v))
	}
	return out
}
