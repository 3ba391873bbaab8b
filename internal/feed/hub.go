package feed

import (
	"sync"

	"github.com/sirupsen/logrus"

	"worldforge/internal/logger"
	"worldforge/internal/world"
)

// Event is what every feed client receives.
type Event struct {
	Type    string   `json:"type"`
	Version uint64   `json:"version"`
	Section string   `json:"section,omitempty"`
	Names   []string `json:"names,omitempty"`
	// GeneratorReady mirrors the capability gate.
	GeneratorReady bool `json:"generator_ready"`
	// Ready maps every section to its content readiness.
	Ready map[string]bool `json:"ready"`
}

const (
	EventSnapshot = "snapshot"
	EventChange   = "change"
)

const clientBuffer = 64

// Hub fans events out to subscribers. A subscriber whose buffer is full
// misses the event instead of blocking the store.
type Hub struct {
	store *world.Store

	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Event
	closed bool
}

func NewHub(store *world.Store) *Hub {
	return &Hub{
		store: store,
		subs:  make(map[int]chan Event),
	}
}

// Attach starts forwarding store changes. The returned function detaches.
func (h *Hub) Attach() func() {
	return h.store.Subscribe(func(change world.Change) {
		h.Broadcast(h.event(EventChange, change))
	})
}

// Snapshot describes the current store without a specific change.
func (h *Hub) Snapshot() Event {
	return h.event(EventSnapshot, world.Change{Version: h.store.Version()})
}

func (h *Hub) event(kind string, change world.Change) Event {
	state := h.store.GetState()
	ready := make(map[string]bool, len(world.AllSections))
	for _, section := range world.AllSections {
		ready[string(section)] = world.IsSectionReady(state, section)
	}
	return Event{
		Type:           kind,
		Version:        change.Version,
		Section:        string(change.Section),
		Names:          change.Names,
		GeneratorReady: h.store.IsReady(),
		Ready:          ready,
	}
}

func (h *Hub) Register() (int, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, clientBuffer)
	if h.closed {
		close(ch)
		return id, ch
	}
	h.subs[id] = ch
	logger.Log.WithFields(logrus.Fields{"subscriber": id}).Debug("feed subscriber registered")
	return id, ch
}

func (h *Hub) Unregister(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
		logger.Log.WithFields(logrus.Fields{"subscriber": id}).Debug("feed subscriber removed")
	}
}

func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			logger.Log.WithFields(logrus.Fields{
				"subscriber": id,
				"version":    ev.Version,
			}).Warn("feed subscriber buffer full, event dropped")
		}
	}
}

// Close ends every subscription. Feed connections see their channel closed,
// send a close frame and disconnect; later registrations are closed at once.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}

// Subscribers returns the number of registered subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
