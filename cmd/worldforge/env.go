package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"worldforge/internal/config"
	"worldforge/internal/generate"
	"worldforge/internal/logger"
	"worldforge/internal/store"
	"worldforge/internal/store/postgres"
	"worldforge/internal/store/sqlite"
	"worldforge/internal/world"
)

// loadConfig reads the project config and configures logging from it.
func loadConfig() (*config.ProjectConfig, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadCatalog(cfg *config.ProjectConfig) (*config.Catalog, error) {
	if strings.TrimSpace(cfg.Generator.Catalog) == "" {
		return config.DefaultCatalog(), nil
	}
	return config.LoadCatalog(cfg.Generator.Catalog)
}

func openArchive(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	dsn := strings.TrimSpace(cfg.Archive.DSN)
	var (
		archive store.Store
		err     error
	)
	switch {
	case dsn == "":
		return nil, fmt.Errorf("archive.dsn is not configured")
	case strings.HasPrefix(dsn, "sqlite://"):
		archive, err = sqlite.New(ctx, dsn)
	default:
		archive, err = postgres.New(ctx, dsn)
	}
	if err != nil {
		return nil, err
	}
	if err := archive.EnsureSchema(ctx); err != nil {
		archive.Close(ctx)
		return nil, err
	}
	return archive, nil
}

// workspace is one archived world opened for a single command.
type workspace struct {
	cfg     *config.ProjectConfig
	archive store.Store
	session *generate.Session
	name    string
	found   bool
}

func worldName(cfg *config.ProjectConfig, flag string) string {
	if name := strings.TrimSpace(flag); name != "" {
		return name
	}
	return cfg.Project
}

// openWorkspace loads the named world from the archive. A world that has not
// been saved yet starts empty.
func openWorkspace(ctx context.Context, name string) (*workspace, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	archive, err := openArchive(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ws := &workspace{
		cfg:     cfg,
		archive: archive,
		session: generate.NewSession(world.NewStore(), catalog),
		name:    worldName(cfg, name),
	}
	m, err := archive.LoadWorld(ctx, ws.name)
	if err != nil {
		archive.Close(ctx)
		return nil, err
	}
	if m != nil {
		if err := ws.session.Store().Load(m); err != nil {
			archive.Close(ctx)
			return nil, fmt.Errorf("loading world %q: %w", ws.name, err)
		}
		ws.found = true
	}
	logger.Log.WithFields(logrus.Fields{"world": ws.name, "found": ws.found}).Debug("workspace opened")
	return ws, nil
}

func (ws *workspace) save(ctx context.Context) error {
	return ws.archive.SaveWorld(ctx, ws.name, ws.session.Store().GetState())
}

func (ws *workspace) close(ctx context.Context) {
	if err := ws.archive.Close(ctx); err != nil {
		logger.Log.WithError(err).Warn("closing archive")
	}
}
