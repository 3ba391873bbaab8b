package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"worldforge/internal/world"
)

func useTempProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "worldforge.yaml")
	contents := fmt.Sprintf("project: isles\nversion: 1\narchive:\n  dsn: sqlite://%s\nlog:\n  level: error\n", filepath.Join(dir, "worlds.db"))
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	prev := configPath
	configPath = path
	t.Cleanup(func() { configPath = prev })
	return dir
}

func TestGenerateSavesWorld(t *testing.T) {
	useTempProject(t)
	ctx := context.Background()

	if err := runGenerate(ctx, "physical_world", []string{"prompt=volcanic islands"}, ""); err != nil {
		t.Fatalf("generate physical world: %v", err)
	}
	if err := runGenerate(ctx, "culture", []string{"societal_structure=clans"}, ""); err != nil {
		t.Fatalf("generate culture: %v", err)
	}
	if err := runGenerate(ctx, "interactions", []string{"entity1=a", "entity2=b", "type=duel"}, ""); err == nil {
		t.Fatalf("expected interactions to be refused")
	}

	ws, err := openWorkspace(ctx, "")
	if err != nil {
		t.Fatalf("open workspace: %v", err)
	}
	defer ws.close(ctx)

	if !ws.found || ws.name != "isles" {
		t.Fatalf("expected saved world isles, got %q found=%v", ws.name, ws.found)
	}
	state := ws.session.Store().GetState()
	if state.IsEmpty(world.PhysicalWorld) || state.IsEmpty(world.Culture) {
		t.Fatalf("expected both sections saved")
	}
}

func TestImportAndCheck(t *testing.T) {
	dir := useTempProject(t)
	ctx := context.Background()

	lore := filepath.Join(dir, "lore")
	if err := os.MkdirAll(lore, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	doc := "---\ntitle: Ana\ntype: character\nfaction: Nobody\n---\n"
	if err := os.WriteFile(filepath.Join(lore, "ana.md"), []byte(doc), 0o644); err != nil {
		t.Fatalf("write lore: %v", err)
	}

	if err := runImport(ctx, []string{lore}, nil, "imported"); err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := runCheck(ctx, "imported"); err == nil {
		t.Fatalf("expected check to report the dangling faction")
	}
}

func TestOpenArchiveRequiresDSN(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "worldforge.yaml")
	if err := os.WriteFile(path, []byte("project: isles\nversion: 1\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	prev := configPath
	configPath = path
	defer func() { configPath = prev }()

	if _, err := openWorkspace(context.Background(), ""); err == nil {
		t.Fatalf("expected error without archive dsn")
	}
}
