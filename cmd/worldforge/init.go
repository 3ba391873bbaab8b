package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"worldforge/internal/config"
)

func initCmd() *cobra.Command {
	var projectName string
	var withCatalog bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new worldforge project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(projectName, withCatalog)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name, also the default world name")
	cmd.Flags().BoolVar(&withCatalog, "catalog", false, "Write the built-in section catalog for editing")
	return cmd
}

func runInit(projectName string, withCatalog bool) error {
	catalogPath := "catalog.yaml"
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}
	if withCatalog {
		if _, err := os.Stat(catalogPath); err == nil {
			return fmt.Errorf("%s already exists", catalogPath)
		}
	}

	catalogLine := ""
	if withCatalog {
		catalogLine = "  catalog: ./" + catalogPath + "\n"
	}
	configContents := fmt.Sprintf("project: %s\nversion: 1\n\ngenerator:\n  provider: mock\n  latency: 0s\n%s\narchive:\n  dsn: sqlite://./worlds.db\n\nfeed:\n  addr: 127.0.0.1:8090\n\nlog:\n  level: info\n  format: text\n", projectName, catalogLine)
	if err := os.WriteFile(configPath, []byte(configContents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	if withCatalog {
		if err := os.WriteFile(catalogPath, config.DefaultCatalogYAML(), 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", catalogPath, err)
		}
	}
	fmt.Fprintf(os.Stdout, "Created %s\n", configPath)
	return nil
}
