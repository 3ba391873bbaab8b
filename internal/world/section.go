package world

import (
	"fmt"
	"strings"
)

type Section string

const (
	PhysicalWorld Section = "physical_world"
	Culture       Section = "culture"
	Factions      Section = "factions"
	Characters    Section = "characters"
	Locations     Section = "locations"
	Artifacts     Section = "artifacts"
	Events        Section = "events"
	Interactions  Section = "interactions"
	ChatHistory   Section = "chat_history"
)

type Kind int

const (
	KindSingleton Kind = iota + 1
	KindKeyed
	KindOrdered
)

func (k Kind) String() string {
	switch k {
	case KindSingleton:
		return "singleton"
	case KindKeyed:
		return "keyed"
	case KindOrdered:
		return "ordered"
	default:
		return "unknown"
	}
}

// AllSections lists every section in dependency order.
var AllSections = []Section{
	PhysicalWorld,
	Culture,
	Factions,
	Characters,
	Locations,
	Artifacts,
	Events,
	Interactions,
	ChatHistory,
}

// KeyedSections are the sections whose keys feed the name index.
var KeyedSections = []Section{Factions, Characters, Locations, Artifacts, Events}

func ParseSection(name string) (Section, error) {
	s := Section(strings.ToLower(strings.TrimSpace(name)))
	if s.Kind() == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}
	return s, nil
}

func (s Section) Kind() Kind {
	switch s {
	case PhysicalWorld, Culture:
		return KindSingleton
	case Factions, Characters, Locations, Artifacts, Events:
		return KindKeyed
	case Interactions, ChatHistory:
		return KindOrdered
	default:
		return 0
	}
}

func (s Section) String() string {
	return string(s)
}
