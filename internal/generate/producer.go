package generate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"worldforge/internal/config"
	"worldforge/internal/logger"
	"worldforge/internal/world"
)

// Producer submits generation requests for one section and hands successful
// results to the store. It allows one outstanding request at a time; different
// producers run independently.
type Producer struct {
	section world.Section
	store   *world.Store
	catalog *config.Catalog

	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	gen      Generator
	inFlight bool
	lastErr  error
}

func NewProducer(section world.Section, store *world.Store, gen Generator, catalog *config.Catalog) (*Producer, error) {
	if section.Kind() == 0 {
		return nil, fmt.Errorf("%w: %q", world.ErrUnknownSection, section)
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if catalog == nil {
		catalog = config.DefaultCatalog()
	}
	return &Producer{
		section: section,
		store:   store,
		gen:     gen,
		catalog: catalog,
		now:     time.Now,
		newID:   uuid.NewString,
	}, nil
}

func (p *Producer) Section() world.Section {
	return p.section
}

// Loading reports whether a request is outstanding.
func (p *Producer) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}

// LastError is the error of the most recent submission, nil after a success.
func (p *Producer) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// CanSubmit re-derives whether a submission is currently permitted.
func (p *Producer) CanSubmit() error {
	if p.Loading() {
		return ErrBusy
	}
	return p.store.CheckGenerate(p.section)
}

// Submit runs one generation and merges its result. Nothing reaches the
// store unless the generator succeeds.
func (p *Producer) Submit(ctx context.Context, input map[string]string) (any, error) {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return nil, ErrBusy
	}
	p.inFlight = true
	gen := p.gen
	p.mu.Unlock()

	result, err := p.submit(ctx, gen, input)

	p.mu.Lock()
	p.inFlight = false
	p.lastErr = err
	p.mu.Unlock()

	return result, err
}

// setGenerator swaps the generator used by later submissions. A request
// already in flight finishes with the generator it started with.
func (p *Producer) setGenerator(gen Generator) {
	p.mu.Lock()
	p.gen = gen
	p.mu.Unlock()
}

func (p *Producer) submit(ctx context.Context, gen Generator, input map[string]string) (any, error) {
	log := logger.Log.WithFields(logrus.Fields{"section": p.section})

	if err := p.store.CheckGenerate(p.section); err != nil {
		return nil, err
	}
	if missing := p.catalog.MissingInputs(p.section, input); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, strings.Join(missing, ", "))
	}

	snapshot := p.store.GetState()
	if p.section == world.Interactions {
		if err := checkParticipants(snapshot, input["entity1"], input["entity2"]); err != nil {
			return nil, err
		}
	}

	log.Info("generating")
	result, err := gen.Generate(ctx, Request{Section: p.section, Input: cloneInput(input), World: snapshot})
	if err != nil {
		log.WithError(err).Warn("generation failed")
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	if p.section.Kind() == world.KindOrdered {
		// Checked before stamping so an empty record is still rejected.
		if err := world.ValidateResult(p.section, result); err != nil {
			return nil, err
		}
	}

	switch p.section {
	case world.Interactions:
		result = p.stamp(result)
		if err := p.store.AppendInteraction(result); err != nil {
			return nil, err
		}
	case world.ChatHistory:
		question := map[string]any{"role": "user", "content": input["message"]}
		answer := p.stamp(result)
		if err := p.store.AppendChatMessage(p.stamp(question)); err != nil {
			return nil, err
		}
		if err := p.store.AppendChatMessage(answer); err != nil {
			return nil, err
		}
	default:
		if err := p.store.Merge(p.section, result); err != nil {
			return nil, err
		}
	}

	log.Info("generation merged")
	return result, nil
}

// stamp adds an id and completion timestamp to an ordered-section record.
func (p *Producer) stamp(result any) any {
	record, ok := result.(map[string]any)
	if !ok {
		return result
	}
	if _, exists := record["id"]; !exists {
		record["id"] = p.newID()
	}
	if _, exists := record["timestamp"]; !exists {
		record["timestamp"] = p.now().UTC().Format(time.RFC3339)
	}
	return record
}

func checkParticipants(m *world.WorldModel, names ...string) error {
	var missing []string
	for _, name := range names {
		if _, _, ok := m.Lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, strings.Join(missing, ", "))
	}
	return nil
}

func cloneInput(input map[string]string) map[string]string {
	out := make(map[string]string, len(input))
	for k, v := range input {
		out[k] = strings.TrimSpace(v)
	}
	return out
}
