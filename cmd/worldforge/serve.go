package main

import (
	"context"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"worldforge/internal/feed"
	"worldforge/internal/generate"
	"worldforge/internal/logger"
	"worldforge/internal/mcp"
	"worldforge/internal/store"
	"worldforge/internal/world"
)

func serveCmd() *cobra.Command {
	var feedAddr string
	var worldFlag string
	var noFeed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio and the optional change feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), feedAddr, worldFlag, noFeed)
		},
	}
	cmd.Flags().StringVar(&feedAddr, "feed", "", "Websocket feed address (overrides feed.addr)")
	cmd.Flags().BoolVar(&noFeed, "no-feed", false, "Do not start the websocket feed")
	cmd.Flags().StringVar(&worldFlag, "world", "", "Archived world to load at startup")
	return cmd
}

func runServe(ctx context.Context, feedAddr, worldFlag string, noFeed bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	var archive store.Store
	if strings.TrimSpace(cfg.Archive.DSN) != "" {
		archive, err = openArchive(ctx, cfg)
		if err != nil {
			return err
		}
		defer archive.Close(ctx)
	}

	session := generate.NewSession(world.NewStore(), catalog)
	if name := strings.TrimSpace(worldFlag); name != "" && archive != nil {
		m, err := archive.LoadWorld(ctx, name)
		if err != nil {
			return err
		}
		if m != nil {
			if err := session.Store().Load(m); err != nil {
				return err
			}
			logger.Log.WithFields(logrus.Fields{"world": name}).Info("world loaded")
		}
	}

	if feedAddr == "" {
		feedAddr = cfg.Feed.Addr
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	server := mcp.NewServer(session, archive, cfg.Generator, version)
	g.Go(func() error {
		// The feed has no purpose once the MCP client is gone.
		defer cancel()
		return server.Run(ctx, &sdk.StdioTransport{})
	})
	if !noFeed && feedAddr != "" {
		hub := feed.NewHub(session.Store())
		g.Go(func() error {
			return feed.Serve(ctx, feedAddr, hub)
		})
	}
	return g.Wait()
}
