package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var configPath = "worldforge.yaml"

func main() {
	root := &cobra.Command{
		Use:          "worldforge",
		Short:        "Incrementally generated fictional worlds",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", configPath, "Path to the project config")
	root.AddCommand(initCmd())
	root.AddCommand(generateCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(namesCmd())
	root.AddCommand(showCmd())
	root.AddCommand(importCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(worldsCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
