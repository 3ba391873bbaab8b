package generate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"worldforge/internal/config"
	"worldforge/internal/world"
)

func TestMockSingletonCoversCategories(t *testing.T) {
	catalog := config.DefaultCatalog()
	m := NewMock(catalog, 0)

	got, err := m.Generate(context.Background(), Request{
		Section: world.PhysicalWorld,
		Input:   map[string]string{"prompt": "volcanic archipelago"},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	categories := got.(map[string]any)
	entry, _ := catalog.Section(world.PhysicalWorld)
	if len(categories) != len(entry.Categories) {
		t.Fatalf("expected %d categories, got %d", len(entry.Categories), len(categories))
	}
	if err := world.ValidateResult(world.PhysicalWorld, got); err != nil {
		t.Fatalf("mock result does not fit section: %v", err)
	}
}

func TestMockKeyedResult(t *testing.T) {
	m := NewMock(nil, 0)
	got, err := m.Generate(context.Background(), Request{
		Section: world.Characters,
		Input:   map[string]string{"name": "Ana", "role": "scout", "quirk": ""},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	entries := got.(map[string]any)
	rec, ok := entries["Ana"].(map[string]any)
	if !ok {
		t.Fatalf("expected record keyed by name, got %v", got)
	}
	if rec["role"] != "scout" {
		t.Fatalf("expected role carried over, got %v", rec["role"])
	}
	if _, ok := rec["quirk"]; ok {
		t.Fatalf("blank inputs should be dropped")
	}
	if err := world.ValidateResult(world.Characters, got); err != nil {
		t.Fatalf("mock result does not fit section: %v", err)
	}
}

func TestMockInteractionUsesWorld(t *testing.T) {
	m := NewMock(nil, 0)
	model := world.NewWorldModel()
	model.Characters["Ana"] = world.Record{"role": "scout"}

	got, err := m.Generate(context.Background(), Request{
		Section: world.Interactions,
		Input:   map[string]string{"entity1": "Ana", "entity2": "Bo", "type": "duel"},
		World:   model,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	result := got.(map[string]any)["result"].(string)
	if !strings.Contains(result, "Ana (scout)") {
		t.Fatalf("expected entity description, got %q", result)
	}
}

func TestMockChat(t *testing.T) {
	m := NewMock(nil, 0)
	tests := []struct {
		message string
		want    string
	}{
		{"Tell me about the climate", "temperate climate"},
		{"who rules the night?", "Okay, let's think about"},
	}
	for _, tt := range tests {
		got, err := m.Generate(context.Background(), Request{
			Section: world.ChatHistory,
			Input:   map[string]string{"message": tt.message},
		})
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		reply := got.(map[string]any)
		if reply["role"] != "assistant" {
			t.Fatalf("expected assistant role, got %v", reply["role"])
		}
		if !strings.Contains(reply["content"].(string), tt.want) {
			t.Fatalf("message %q: expected %q in %q", tt.message, tt.want, reply["content"])
		}
	}
}

func TestMockHonoursContext(t *testing.T) {
	m := NewMock(nil, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Generate(ctx, Request{Section: world.PhysicalWorld})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewGenerator(t *testing.T) {
	if _, err := NewGenerator(config.GeneratorConfig{Provider: " Mock "}, nil); err != nil {
		t.Fatalf("expected mock provider, got %v", err)
	}
	if _, err := NewGenerator(config.GeneratorConfig{Provider: "oracle"}, nil); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
	if got := Providers()["Mock (No API)"]; got != "mock" {
		t.Fatalf("expected display name mapping, got %q", got)
	}
}
