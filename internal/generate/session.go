package generate

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"worldforge/internal/config"
	"worldforge/internal/logger"
	"worldforge/internal/world"
)

// Session binds a store to the generation backend and owns one producer per
// section. It is the owner of the store's capability gate.
type Session struct {
	store   *world.Store
	catalog *config.Catalog

	mu        sync.Mutex
	gen       Generator
	producers map[world.Section]*Producer
}

func NewSession(store *world.Store, catalog *config.Catalog) *Session {
	if store == nil {
		store = world.NewStore()
	}
	if catalog == nil {
		catalog = config.DefaultCatalog()
	}
	return &Session{
		store:     store,
		catalog:   catalog,
		producers: make(map[world.Section]*Producer),
	}
}

func (s *Session) Store() *world.Store {
	return s.store
}

func (s *Session) Catalog() *config.Catalog {
	return s.catalog
}

// Initialize sets up the generator for cfg.Provider and, only on success,
// opens the capability gate. Re-initializing replaces the generator used by
// future submissions.
func (s *Session) Initialize(cfg config.GeneratorConfig) error {
	gen, err := NewGenerator(cfg, s.catalog)
	if err != nil {
		return fmt.Errorf("initializing generator: %w", err)
	}
	s.Use(strings.ToLower(strings.TrimSpace(cfg.Provider)), gen)
	return nil
}

// Use installs an already constructed generator under providerKey. Existing
// producers are kept, so their single-flight and last-error state survive a
// re-initialization.
func (s *Session) Use(providerKey string, gen Generator) {
	s.mu.Lock()
	s.gen = gen
	for _, p := range s.producers {
		p.setGenerator(gen)
	}
	s.mu.Unlock()

	s.store.Initialize(providerKey)
	logger.Log.WithFields(logrus.Fields{"provider": providerKey}).Info("generator initialized")
}

// Producer returns the producer for section, creating it on first use.
func (s *Session) Producer(section world.Section) (*Producer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen == nil {
		return nil, world.ErrNotReady
	}
	if p, ok := s.producers[section]; ok {
		return p, nil
	}
	p, err := NewProducer(section, s.store, s.gen, s.catalog)
	if err != nil {
		return nil, err
	}
	s.producers[section] = p
	return p, nil
}

// Active returns the producer for section if one has been created.
func (s *Session) Active(section world.Section) (*Producer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.producers[section]
	return p, ok
}
