package world

import (
	"reflect"
	"testing"
)

func TestIsSectionReadyEmptyModel(t *testing.T) {
	m := NewWorldModel()
	for _, s := range AllSections {
		want := s == PhysicalWorld
		if got := IsSectionReady(m, s); got != want {
			t.Errorf("IsSectionReady(%s) = %v, want %v", s, got, want)
		}
	}
	if IsSectionReady(m, Section("weather")) {
		t.Errorf("unknown section must never be ready")
	}
}

func TestIsSectionReadyTable(t *testing.T) {
	populate := func(sections ...Section) *WorldModel {
		m := NewWorldModel()
		for _, s := range sections {
			switch s.Kind() {
			case KindSingleton:
				*m.singleton(s) = map[string]any{"x": "y"}
			case KindKeyed:
				m.keyed(s)[string(s)+"-1"] = Record{"x": "y"}
			}
		}
		return m
	}

	tests := []struct {
		name    string
		model   *WorldModel
		section Section
		want    bool
	}{
		{"culture after seed", populate(PhysicalWorld), Culture, true},
		{"factions need culture", populate(PhysicalWorld), Factions, false},
		{"factions after culture", populate(PhysicalWorld, Culture), Factions, true},
		{"characters need only culture", populate(Culture), Characters, true},
		{"locations need seed", populate(Culture), Locations, false},
		{"artifacts need locations", populate(PhysicalWorld, Culture), Artifacts, false},
		{"artifacts after locations", populate(PhysicalWorld, Culture, Locations), Artifacts, true},
		{"events need characters", populate(PhysicalWorld, Culture, Factions, Locations), Events, false},
		{"events all present", populate(PhysicalWorld, Culture, Factions, Characters, Locations), Events, true},
		{"chat after culture", populate(PhysicalWorld, Culture), ChatHistory, true},
		{"chat needs seed", populate(Culture), ChatHistory, false},
		{"interactions with five names", populate(PhysicalWorld, Culture, Factions, Characters, Locations), Interactions, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSectionReady(tt.model, tt.section); got != tt.want {
				t.Fatalf("IsSectionReady(%s) = %v, want %v", tt.section, got, tt.want)
			}
		})
	}
}

func TestInteractionsNeedTwoNames(t *testing.T) {
	store := NewStore()
	mustMerge(t, store, PhysicalWorld, map[string]any{"geography": "hills"})
	mustMerge(t, store, Culture, map[string]any{"art": "song"})
	// one shared name across all three sections
	for _, s := range []Section{Factions, Characters, Locations} {
		mustMerge(t, store, s, map[string]any{"Ash": map[string]any{"kind": string(s)}})
	}
	if store.IsSectionReady(Interactions) {
		t.Fatalf("expected interactions not ready with a single distinct name")
	}
	missing, needed := MissingPrerequisites(store.GetState(), Interactions)
	if len(missing) != 0 || needed != 1 {
		t.Fatalf("expected one more name, got missing=%v needed=%d", missing, needed)
	}

	mustMerge(t, store, Characters, map[string]any{"Bram": map[string]any{"role": "guard"}})
	if !store.IsSectionReady(Interactions) {
		t.Fatalf("expected interactions ready")
	}
}

func TestInteractionsNeedSections(t *testing.T) {
	store := NewStore()
	mustMerge(t, store, PhysicalWorld, map[string]any{"geography": "hills"})
	mustMerge(t, store, Culture, map[string]any{"art": "song"})
	mustMerge(t, store, Characters, map[string]any{"A": map[string]any{"r": "1"}, "B": map[string]any{"r": "2"}})
	if store.IsSectionReady(Interactions) {
		t.Fatalf("expected interactions blocked on factions and locations")
	}
	missing, _ := MissingPrerequisites(store.GetState(), Interactions)
	if want := []Section{Factions, Locations}; !reflect.DeepEqual(missing, want) {
		t.Fatalf("expected missing %v, got %v", want, missing)
	}
}

func TestPrerequisitesIsACopy(t *testing.T) {
	p := Prerequisites(Events)
	p[0] = ChatHistory
	if Prerequisites(Events)[0] != PhysicalWorld {
		t.Fatalf("prerequisite table mutated")
	}
}
