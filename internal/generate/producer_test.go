package generate

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"worldforge/internal/config"
	"worldforge/internal/world"
)

type fakeGenerator struct {
	result  any
	err     error
	release chan struct{}
	started chan struct{}

	calls       int
	lastRequest Request
}

func (f *fakeGenerator) Generate(ctx context.Context, req Request) (any, error) {
	f.calls++
	f.lastRequest = req
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result, f.err
}

func readyStore(t *testing.T) *world.Store {
	t.Helper()
	store := world.NewStore()
	store.Initialize("mock")
	return store
}

func newTestProducer(t *testing.T, section world.Section, store *world.Store, gen Generator) *Producer {
	t.Helper()
	p, err := NewProducer(section, store, gen, config.DefaultCatalog())
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}
	p.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	p.newID = func() string { return "id-1" }
	return p
}

func TestProducerRefusesWhenNotInitialized(t *testing.T) {
	gen := &fakeGenerator{result: map[string]any{"geography": "hills"}}
	p := newTestProducer(t, world.PhysicalWorld, world.NewStore(), gen)

	_, err := p.Submit(context.Background(), map[string]string{"prompt": "islands"})
	if !errors.Is(err, world.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("generator must not be called")
	}
	if !errors.Is(p.LastError(), world.ErrNotReady) {
		t.Fatalf("expected last error recorded, got %v", p.LastError())
	}
}

func TestProducerRefusesWithoutPrerequisites(t *testing.T) {
	gen := &fakeGenerator{result: map[string]any{"art": "song"}}
	p := newTestProducer(t, world.Culture, readyStore(t), gen)

	_, err := p.Submit(context.Background(), map[string]string{"societal_structure": "clans"})
	var prereq *world.PrerequisiteError
	if !errors.As(err, &prereq) {
		t.Fatalf("expected PrerequisiteError, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("generator must not be called")
	}
}

func TestProducerRequiresInputs(t *testing.T) {
	gen := &fakeGenerator{result: map[string]any{"geography": "hills"}}
	p := newTestProducer(t, world.PhysicalWorld, readyStore(t), gen)

	_, err := p.Submit(context.Background(), map[string]string{"prompt": "  "})
	if !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
}

func TestProducerMergesSuccess(t *testing.T) {
	store := readyStore(t)
	gen := &fakeGenerator{result: map[string]any{"geography": "hills"}}
	p := newTestProducer(t, world.PhysicalWorld, store, gen)

	if _, err := p.Submit(context.Background(), map[string]string{"prompt": " islands "}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := store.GetState().PhysicalWorld["geography"]; got != "hills" {
		t.Fatalf("expected merged result, got %v", got)
	}
	if gen.lastRequest.Input["prompt"] != "islands" {
		t.Fatalf("expected trimmed input, got %q", gen.lastRequest.Input["prompt"])
	}
	if gen.lastRequest.World == nil {
		t.Fatalf("expected world snapshot in request")
	}
	if p.LastError() != nil || p.Loading() {
		t.Fatalf("expected idle producer without error")
	}
}

func TestProducerFailureLeavesStoreUntouched(t *testing.T) {
	store := readyStore(t)
	gen := &fakeGenerator{err: errors.New("backend exploded")}
	p := newTestProducer(t, world.PhysicalWorld, store, gen)

	_, err := p.Submit(context.Background(), map[string]string{"prompt": "islands"})
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if store.Version() != 0 {
		t.Fatalf("store mutated by failed generation")
	}
}

func TestProducerRejectsMalformedResult(t *testing.T) {
	store := readyStore(t)
	gen := &fakeGenerator{result: []any{"not", "a", "map"}}
	p := newTestProducer(t, world.PhysicalWorld, store, gen)

	_, err := p.Submit(context.Background(), map[string]string{"prompt": "islands"})
	if !errors.Is(err, world.ErrInvalidShape) {
		t.Fatalf("expected ErrInvalidShape, got %v", err)
	}
	if !store.GetState().IsEmpty(world.PhysicalWorld) {
		t.Fatalf("malformed result merged")
	}
}

func TestProducerSingleFlight(t *testing.T) {
	store := readyStore(t)
	gen := &fakeGenerator{
		result:  map[string]any{"geography": "hills"},
		release: make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	p := newTestProducer(t, world.PhysicalWorld, store, gen)

	done := make(chan error, 1)
	go func() {
		_, err := p.Submit(context.Background(), map[string]string{"prompt": "islands"})
		done <- err
	}()
	<-gen.started

	if !p.Loading() {
		t.Fatalf("expected loading")
	}
	if err := p.CanSubmit(); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy from CanSubmit, got %v", err)
	}
	if _, err := p.Submit(context.Background(), map[string]string{"prompt": "again"}); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(gen.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected one generator call, got %d", gen.calls)
	}
}

func TestProducersCompleteOutOfOrder(t *testing.T) {
	store := seededStore(t)
	slow := &fakeGenerator{
		result:  map[string]any{"Ana": map[string]any{"from": "A"}},
		release: make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	fast := &fakeGenerator{result: map[string]any{"Ana": map[string]any{"from": "B"}}}

	first := newTestProducer(t, world.Characters, store, slow)
	second := newTestProducer(t, world.Characters, store, fast)

	done := make(chan error, 1)
	go func() {
		_, err := first.Submit(context.Background(), map[string]string{"name": "Ana"})
		done <- err
	}()
	<-slow.started

	if _, err := second.Submit(context.Background(), map[string]string{"name": "Ana"}); err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if got := store.GetState().Characters["Ana"]["from"]; got != "B" {
		t.Fatalf("expected B applied first, got %v", got)
	}

	close(slow.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if got := store.GetState().Characters["Ana"]["from"]; got != "A" {
		t.Fatalf("expected last applied A to win, got %v", got)
	}
}

func TestInteractionProducer(t *testing.T) {
	t.Run("stamps and prepends", func(t *testing.T) {
		store := seededStore(t)
		gen := &fakeGenerator{result: map[string]any{"result": "they talk"}}
		p := newTestProducer(t, world.Interactions, store, gen)

		_, err := p.Submit(context.Background(), map[string]string{"entity1": "Ana", "entity2": "Red Hand", "type": "negotiation"})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		got := store.GetState().Interactions
		if len(got) != 1 {
			t.Fatalf("expected one interaction, got %d", len(got))
		}
		want := world.Record{"result": "they talk", "id": "id-1", "timestamp": "2024-05-01T12:00:00Z"}
		if !reflect.DeepEqual(got[0], want) {
			t.Fatalf("expected %v, got %v", want, got[0])
		}
	})

	t.Run("unknown entity", func(t *testing.T) {
		store := seededStore(t)
		gen := &fakeGenerator{result: map[string]any{"result": "x"}}
		p := newTestProducer(t, world.Interactions, store, gen)

		_, err := p.Submit(context.Background(), map[string]string{"entity1": "Ana", "entity2": "Nobody", "type": "duel"})
		if !errors.Is(err, ErrUnknownEntity) {
			t.Fatalf("expected ErrUnknownEntity, got %v", err)
		}
		if gen.calls != 0 {
			t.Fatalf("generator must not be called")
		}
	})

	t.Run("empty record rejected", func(t *testing.T) {
		store := seededStore(t)
		gen := &fakeGenerator{result: map[string]any{}}
		p := newTestProducer(t, world.Interactions, store, gen)

		_, err := p.Submit(context.Background(), map[string]string{"entity1": "Ana", "entity2": "Red Hand", "type": "duel"})
		if !errors.Is(err, world.ErrInvalidShape) {
			t.Fatalf("expected ErrInvalidShape, got %v", err)
		}
	})
}

func TestChatProducer(t *testing.T) {
	store := seededStore(t)
	gen := &fakeGenerator{result: map[string]any{"role": "assistant", "content": "hello"}}
	p := newTestProducer(t, world.ChatHistory, store, gen)

	if _, err := p.Submit(context.Background(), map[string]string{"message": "hi"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	got := store.GetState().ChatHistory
	if len(got) != 2 {
		t.Fatalf("expected question and answer, got %v", got)
	}
	if got[0]["role"] != "user" || got[1]["role"] != "assistant" {
		t.Fatalf("expected user then assistant, got %v", got)
	}

	gen.result = "not a record"
	if _, err := p.Submit(context.Background(), map[string]string{"message": "again"}); !errors.Is(err, world.ErrInvalidShape) {
		t.Fatalf("expected ErrInvalidShape, got %v", err)
	}
	if n := len(store.GetState().ChatHistory); n != 2 {
		t.Fatalf("rejected reply left %d messages", n)
	}
}

// seededStore returns an initialized store where every section can be
// generated.
func seededStore(t *testing.T) *world.Store {
	t.Helper()
	store := readyStore(t)
	seed := []struct {
		section world.Section
		result  map[string]any
	}{
		{world.PhysicalWorld, map[string]any{"geography": "hills"}},
		{world.Culture, map[string]any{"art": "song"}},
		{world.Factions, map[string]any{"Red Hand": map[string]any{"goal": "revenge"}}},
		{world.Characters, map[string]any{"Ana": map[string]any{"role": "scout"}}},
		{world.Locations, map[string]any{"Aerie Peak": map[string]any{"type": "city"}}},
	}
	for _, s := range seed {
		if err := store.Merge(s.section, s.result); err != nil {
			t.Fatalf("seeding %s: %v", s.section, err)
		}
	}
	return store
}
