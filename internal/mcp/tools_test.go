package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"worldforge/internal/config"
	"worldforge/internal/generate"
	"worldforge/internal/store"
	"worldforge/internal/world"
)

type mockArchive struct {
	loadResult *world.WorldModel
	loadErr    error
	listResult []store.WorldSummary
	saveErr    error

	lastSaveName  string
	lastSaveWorld *world.WorldModel
	lastLoadName  string
}

func (m *mockArchive) Close(ctx context.Context) error { return nil }

func (m *mockArchive) EnsureSchema(ctx context.Context) error { return nil }

func (m *mockArchive) SaveWorld(ctx context.Context, name string, w *world.WorldModel) error {
	m.lastSaveName = name
	m.lastSaveWorld = w
	return m.saveErr
}

func (m *mockArchive) LoadWorld(ctx context.Context, name string) (*world.WorldModel, error) {
	m.lastLoadName = name
	return m.loadResult, m.loadErr
}

func (m *mockArchive) ListWorlds(ctx context.Context) ([]store.WorldSummary, error) {
	return m.listResult, nil
}

func (m *mockArchive) DeleteWorld(ctx context.Context, name string) (bool, error) {
	return false, nil
}

func newTestServer(t *testing.T, archive store.Store) *Server {
	t.Helper()
	session := generate.NewSession(world.NewStore(), config.DefaultCatalog())
	return NewServer(session, archive, config.GeneratorConfig{Provider: "mock"}, "test")
}

func TestGenerateSection_RequiresInitialization(t *testing.T) {
	server := newTestServer(t, nil)

	_, _, err := server.handleGenerateSection(context.Background(), nil, GenerateSectionInput{
		Section: "physical_world",
		Input:   map[string]string{"prompt": "islands"},
	})
	if !errors.Is(err, world.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestInitializeAndGenerate(t *testing.T) {
	server := newTestServer(t, nil)
	ctx := context.Background()

	_, initOut, err := server.handleInitializeGenerator(ctx, nil, InitializeGeneratorInput{})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if !initOut.Ready || initOut.Provider != "mock" {
		t.Fatalf("unexpected init output: %+v", initOut)
	}

	_, genOut, err := server.handleGenerateSection(ctx, nil, GenerateSectionInput{
		Section: "Physical_World",
		Input:   map[string]string{"prompt": "islands"},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if genOut.Section != "physical_world" || genOut.Version != 1 {
		t.Fatalf("unexpected generate output: %+v", genOut)
	}

	_, worldOut, err := server.handleGetWorld(ctx, nil, GetWorldInput{Section: "physical_world"})
	if err != nil {
		t.Fatalf("get world: %v", err)
	}
	content := worldOut.Sections["physical_world"].(map[string]any)
	if len(content) == 0 {
		t.Fatalf("expected physical world content")
	}
}

func TestInitialize_UnknownProvider(t *testing.T) {
	server := newTestServer(t, nil)
	_, _, err := server.handleInitializeGenerator(context.Background(), nil, InitializeGeneratorInput{Provider: "oracle"})
	if !errors.Is(err, generate.ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestGenerateSection_UnknownSection(t *testing.T) {
	server := newTestServer(t, nil)
	_, _, err := server.handleGenerateSection(context.Background(), nil, GenerateSectionInput{Section: "weather"})
	if !errors.Is(err, world.ErrUnknownSection) {
		t.Fatalf("expected ErrUnknownSection, got %v", err)
	}
}

func TestSectionStatus(t *testing.T) {
	server := newTestServer(t, nil)
	ctx := context.Background()
	if _, _, err := server.handleInitializeGenerator(ctx, nil, InitializeGeneratorInput{}); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	_, out, err := server.handleSectionStatus(ctx, nil, SectionStatusInput{})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(out.Sections) != len(world.AllSections) {
		t.Fatalf("expected every section, got %d", len(out.Sections))
	}
	byName := make(map[string]SectionStatusEntry)
	for _, entry := range out.Sections {
		byName[entry.Section] = entry
	}
	if !byName["physical_world"].CanGenerate {
		t.Fatalf("expected physical world generatable")
	}
	culture := byName["culture"]
	if culture.CanGenerate || len(culture.Missing) != 1 || culture.Missing[0] != "physical_world" {
		t.Fatalf("unexpected culture status: %+v", culture)
	}
	if byName["interactions"].NamesNeeded != 2 {
		t.Fatalf("expected two names needed, got %+v", byName["interactions"])
	}
}

func TestListNames(t *testing.T) {
	server := newTestServer(t, nil)
	if err := server.session.Store().MergeKeyed(world.Characters, map[string]any{"Ana": map[string]any{"role": "scout"}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, out, err := server.handleListNames(context.Background(), nil, ListNamesInput{})
	if err != nil {
		t.Fatalf("list names: %v", err)
	}
	if len(out.Names) != 1 || out.Names[0] != "Ana" {
		t.Fatalf("unexpected names: %+v", out.Names)
	}
	if len(out.Options) != 2 || out.Options[0] != world.NoSelection {
		t.Fatalf("unexpected options: %+v", out.Options)
	}
}

func TestSaveAndLoadWorld(t *testing.T) {
	loaded := world.NewWorldModel()
	loaded.Factions["Ash Court"] = world.Record{"type": "guild"}
	archive := &mockArchive{loadResult: loaded}
	server := newTestServer(t, archive)
	ctx := context.Background()

	_, saveOut, err := server.handleSaveWorld(ctx, nil, WorldNameInput{Name: " isles "})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if archive.lastSaveName != "isles" || archive.lastSaveWorld == nil || saveOut.Name != "isles" {
		t.Fatalf("unexpected save params: %q %+v", archive.lastSaveName, saveOut)
	}

	_, loadOut, err := server.handleLoadWorld(ctx, nil, WorldNameInput{Name: "isles"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loadOut.Found || archive.lastLoadName != "isles" {
		t.Fatalf("unexpected load output: %+v", loadOut)
	}
	if _, ok := server.session.Store().GetState().Factions["Ash Court"]; !ok {
		t.Fatalf("expected loaded world in store")
	}
}

func TestLoadWorld_NotFound(t *testing.T) {
	server := newTestServer(t, &mockArchive{})
	_, out, err := server.handleLoadWorld(context.Background(), nil, WorldNameInput{Name: "missing"})
	if err == nil || out.Found {
		t.Fatalf("expected not found error, got %+v, %v", out, err)
	}
}

func TestArchiveToolsWithoutArchive(t *testing.T) {
	server := newTestServer(t, nil)
	if _, _, err := server.handleSaveWorld(context.Background(), nil, WorldNameInput{Name: "x"}); !errors.Is(err, errNoArchive) {
		t.Fatalf("expected errNoArchive, got %v", err)
	}
	if _, _, err := server.handleListWorlds(context.Background(), nil, ListWorldsInput{}); !errors.Is(err, errNoArchive) {
		t.Fatalf("expected errNoArchive, got %v", err)
	}
}

func TestListWorlds(t *testing.T) {
	archive := &mockArchive{listResult: []store.WorldSummary{{
		Name:    "isles",
		Counts:  map[world.Section]int{world.Characters: 2},
		SavedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}}}
	server := newTestServer(t, archive)

	_, out, err := server.handleListWorlds(context.Background(), nil, ListWorldsInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out.Worlds) != 1 || out.Worlds[0].Counts["characters"] != 2 || out.Worlds[0].SavedAt != "2024-05-01T12:00:00Z" {
		t.Fatalf("unexpected list output: %+v", out)
	}
}

func TestCheckWorld(t *testing.T) {
	server := newTestServer(t, nil)
	err := server.session.Store().MergeKeyed(world.Characters, map[string]any{"Ana": map[string]any{"faction": "Nobody"}})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, out, err := server.handleCheckWorld(context.Background(), nil, CheckWorldInput{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if out.Errors != 1 {
		t.Fatalf("expected one dangling reference, got %+v", out.Issues)
	}
}
