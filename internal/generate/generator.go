package generate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"worldforge/internal/config"
	"worldforge/internal/world"
)

var (
	ErrUnknownProvider = errors.New("unknown generator provider")
	ErrGeneration      = errors.New("generation failed")
	ErrBusy            = errors.New("a request for this section is already in flight")
	ErrMissingInput    = errors.New("missing required input")
	ErrUnknownEntity   = errors.New("entity not found")
)

// Request is what a producer sends to the generation backend.
type Request struct {
	Section world.Section
	Input   map[string]string
	// World is a read-only snapshot used as prompt context.
	World *world.WorldModel
}

// Generator is the remote generation capability. A successful result has the
// shape the section expects: a category map for singleton sections, a
// name-to-record map for keyed sections and a single record for ordered ones.
type Generator interface {
	Generate(ctx context.Context, req Request) (any, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (any, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (any, error) {
	return f(ctx, req)
}

type providerFactory func(cfg config.GeneratorConfig, catalog *config.Catalog) (Generator, error)

var providers = map[string]struct {
	display string
	factory providerFactory
}{
	"mock": {
		display: "Mock (No API)",
		factory: func(cfg config.GeneratorConfig, catalog *config.Catalog) (Generator, error) {
			return NewMock(catalog, cfg.Latency), nil
		},
	},
}

// Providers maps display names to provider keys.
func Providers() map[string]string {
	out := make(map[string]string, len(providers))
	for key, p := range providers {
		out[p.display] = key
	}
	return out
}

// ProviderKeys returns the registered provider keys, sorted.
func ProviderKeys() []string {
	keys := make([]string, 0, len(providers))
	for key := range providers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func NewGenerator(cfg config.GeneratorConfig, catalog *config.Catalog) (Generator, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Provider))
	p, ok := providers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	return p.factory(cfg, catalog)
}
