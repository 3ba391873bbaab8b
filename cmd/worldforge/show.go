package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"worldforge/internal/world"
)

func showCmd() *cobra.Command {
	var worldFlag string
	var sectionFlag string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a world, or one section of it, as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), worldFlag, sectionFlag)
		},
	}
	cmd.Flags().StringVar(&worldFlag, "world", "", "World name (defaults to the project name)")
	cmd.Flags().StringVar(&sectionFlag, "section", "", "Only print this section")
	return cmd
}

func runShow(ctx context.Context, worldFlag, sectionFlag string) error {
	ws, err := openWorkspace(ctx, worldFlag)
	if err != nil {
		return err
	}
	defer ws.close(ctx)

	state := ws.session.Store().GetState()
	var payload any = state
	if strings.TrimSpace(sectionFlag) != "" {
		section, err := world.ParseSection(sectionFlag)
		if err != nil {
			return err
		}
		payload = sectionPayload(state, section)
	}

	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding world: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}

func sectionPayload(m *world.WorldModel, section world.Section) any {
	switch section.Kind() {
	case world.KindSingleton:
		return m.Singleton(section)
	case world.KindKeyed:
		return m.Keyed(section)
	}
	if section == world.Interactions {
		return m.Interactions
	}
	return m.ChatHistory
}
