package world

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"worldforge/internal/logger"
)

// Change describes one applied mutation.
type Change struct {
	Version uint64  `json:"version"`
	Section Section `json:"section"`
	// Names lists the keyed entries written; empty for other sections.
	Names []string `json:"names,omitempty"`
}

// Store is the single owner of a WorldModel. All reads return copies and all
// writes go through the merge operations.
type Store struct {
	mu      sync.RWMutex
	model   *WorldModel
	gate    Gate
	version uint64

	// pubMu is taken before mu by every mutation and held until its
	// changes are delivered, so subscribers see versions in order.
	pubMu     sync.Mutex
	subMu     sync.Mutex
	nextSubID int
	subs      map[int]func(Change)
}

func NewStore() *Store {
	return &Store{
		model: NewWorldModel(),
		subs:  make(map[int]func(Change)),
	}
}

// Initialize marks the generation backend as ready.
func (s *Store) Initialize(providerKey string) {
	s.mu.Lock()
	s.gate.Initialize(providerKey)
	s.model.IsInitialized = true
	s.model.ProviderKey = providerKey
	s.mu.Unlock()
}

func (s *Store) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gate.IsReady()
}

func (s *Store) ProviderKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gate.ProviderKey()
}

// GetState returns a deep copy of the current world.
func (s *Store) GetState() *WorldModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model.Clone()
}

func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) NamesOf() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return NamesOf(s.model)
}

func (s *Store) IsSectionReady(section Section) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return IsSectionReady(s.model, section)
}

// CheckGenerate combines the capability gate with section readiness. A nil
// result means a producer may submit a request for section.
func (s *Store) CheckGenerate(section Section) error {
	if section.Kind() == 0 {
		return fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.gate.IsReady() {
		return ErrNotReady
	}
	missing, needed := MissingPrerequisites(s.model, section)
	if len(missing) > 0 || needed > 0 {
		return &PrerequisiteError{Section: section, Missing: missing, NamesNeeded: needed}
	}
	return nil
}

// Merge applies a generation result to section using the policy of its kind.
// Ordered sections receive result as a single record.
func (s *Store) Merge(section Section, result any) error {
	switch section.Kind() {
	case KindSingleton:
		return s.MergeSingleton(section, result)
	case KindKeyed:
		return s.MergeKeyed(section, result)
	case KindOrdered:
		if section == Interactions {
			return s.AppendInteraction(result)
		}
		return s.AppendChatMessage(result)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}
}

// MergeSingleton replaces the singleton section with result in full.
func (s *Store) MergeSingleton(section Section, result any) error {
	if section.Kind() != KindSingleton {
		return fmt.Errorf("merge singleton into %s: %w", section, ErrWrongSectionKind)
	}
	obj, err := s.accept(section, result)
	if err != nil {
		return err
	}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	*s.model.singleton(section) = obj
	change := s.bump(section, nil)
	s.mu.Unlock()

	s.publish(change)
	return nil
}

// MergeKeyed upserts every named record of result into the section. An
// existing record with the same name is overwritten, not field-merged.
func (s *Store) MergeKeyed(section Section, result any) error {
	if section.Kind() != KindKeyed {
		return fmt.Errorf("merge keyed into %s: %w", section, ErrWrongSectionKind)
	}
	obj, err := s.accept(section, result)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(obj))
	for name := range obj {
		names = append(names, name)
	}
	sort.Strings(names)

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	target := s.model.keyed(section)
	for _, name := range names {
		target[name] = Record(obj[name].(map[string]any))
	}
	change := s.bump(section, names)
	s.mu.Unlock()

	s.publish(change)
	return nil
}

// AppendInteraction prepends record; interactions read newest first.
func (s *Store) AppendInteraction(record any) error {
	obj, err := s.accept(Interactions, record)
	if err != nil {
		return err
	}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	s.model.Interactions = append([]Record{Record(obj)}, s.model.Interactions...)
	change := s.bump(Interactions, nil)
	s.mu.Unlock()

	s.publish(change)
	return nil
}

// AppendChatMessage appends record; chat history reads oldest first.
func (s *Store) AppendChatMessage(record any) error {
	obj, err := s.accept(ChatHistory, record)
	if err != nil {
		return err
	}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	s.model.ChatHistory = append(s.model.ChatHistory, Record(obj))
	change := s.bump(ChatHistory, nil)
	s.mu.Unlock()

	s.publish(change)
	return nil
}

// Load replaces the aggregate with m, for example a saved world. Every
// populated section of m must pass the same shape checks as a merge. The
// capability gate is left as it is.
func (s *Store) Load(m *WorldModel) error {
	if m == nil {
		return fmt.Errorf("loading world: model is nil")
	}
	loaded := NewWorldModel()
	for _, section := range AllSections {
		if m.IsEmpty(section) {
			continue
		}
		switch section.Kind() {
		case KindSingleton:
			obj, err := s.accept(section, m.Singleton(section))
			if err != nil {
				return fmt.Errorf("loading world: %w", err)
			}
			*loaded.singleton(section) = obj
		case KindKeyed:
			obj, err := s.accept(section, m.Keyed(section))
			if err != nil {
				return fmt.Errorf("loading world: %w", err)
			}
			target := loaded.keyed(section)
			for name, rec := range obj {
				target[name] = Record(rec.(map[string]any))
			}
		case KindOrdered:
			list := m.Interactions
			if section == ChatHistory {
				list = m.ChatHistory
			}
			records := make([]Record, 0, len(list))
			for _, rec := range list {
				obj, err := s.accept(section, rec)
				if err != nil {
					return fmt.Errorf("loading world: %w", err)
				}
				records = append(records, Record(obj))
			}
			if section == Interactions {
				loaded.Interactions = records
			} else {
				loaded.ChatHistory = records
			}
		}
	}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	loaded.IsInitialized = s.model.IsInitialized
	loaded.ProviderKey = s.model.ProviderKey
	s.model = loaded
	changes := make([]Change, 0, len(AllSections))
	for _, section := range AllSections {
		changes = append(changes, s.bump(section, sortedKeys(loaded.keyed(section))))
	}
	s.mu.Unlock()

	for _, change := range changes {
		s.publish(change)
	}
	return nil
}

// Subscribe registers fn to be called after every applied mutation, in
// version order. fn may read the store but must not mutate it. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) accept(section Section, result any) (map[string]any, error) {
	obj, err := checkShape(section, result)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"section": section,
		}).WithError(err).Warn("rejected generation result")
		return nil, err
	}
	return obj, nil
}

// bump must be called with mu held.
func (s *Store) bump(section Section, names []string) Change {
	s.version++
	return Change{Version: s.version, Section: section, Names: names}
}

func (s *Store) publish(change Change) {
	logger.Log.WithFields(logrus.Fields{
		"section": change.Section,
		"version": change.Version,
		"names":   len(change.Names),
	}).Debug("world updated")

	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}

func sortedKeys(m map[string]Record) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
