package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"worldforge/internal/world"
)

func statusCmd() *cobra.Command {
	var worldFlag string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which sections of a world can be generated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), worldFlag)
		},
	}
	cmd.Flags().StringVar(&worldFlag, "world", "", "World name (defaults to the project name)")
	return cmd
}

func runStatus(ctx context.Context, worldFlag string) error {
	ws, err := openWorkspace(ctx, worldFlag)
	if err != nil {
		return err
	}
	defer ws.close(ctx)

	state := ws.session.Store().GetState()
	if !ws.found {
		fmt.Fprintf(os.Stdout, "World %q has not been saved yet.\n", ws.name)
	}
	fmt.Fprintf(os.Stdout, "%-16s %-10s %6s  %s\n", "SECTION", "KIND", "COUNT", "STATUS")
	for _, section := range world.AllSections {
		fmt.Fprintf(os.Stdout, "%-16s %-10s %6d  %s\n", section, section.Kind(), state.Len(section), describeReadiness(state, section))
	}
	return nil
}

func describeReadiness(m *world.WorldModel, section world.Section) string {
	missing, needed := world.MissingPrerequisites(m, section)
	if len(missing) == 0 && needed == 0 {
		return "ready"
	}
	var parts []string
	if len(missing) > 0 {
		names := make([]string, len(missing))
		for i, s := range missing {
			names[i] = string(s)
		}
		parts = append(parts, "needs "+strings.Join(names, ", "))
	}
	if needed > 0 {
		parts = append(parts, fmt.Sprintf("needs %d more names", needed))
	}
	return strings.Join(parts, "; ")
}
