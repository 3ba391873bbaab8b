package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"worldforge/internal/ingest"
	"worldforge/internal/world"
)

func importCmd() *cobra.Command {
	var worldFlag string
	var exclude []string
	cmd := &cobra.Command{
		Use:   "import <dir>...",
		Short: "Merge markdown lore files into a world's entity sections",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), args, exclude, worldFlag)
		},
	}
	cmd.Flags().StringVar(&worldFlag, "world", "", "World name (defaults to the project name)")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Paths to skip")
	return cmd
}

func runImport(ctx context.Context, roots, exclude []string, worldFlag string) error {
	ws, err := openWorkspace(ctx, worldFlag)
	if err != nil {
		return err
	}
	defer ws.close(ctx)

	result, err := ingest.Run(ctx, roots, ws.session.Store(), ingest.Options{Exclude: exclude})
	if err != nil {
		return err
	}
	if result.EntriesMerged > 0 {
		if err := ws.save(ctx); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stdout, "Merged %d entries, skipped %d files\n", result.EntriesMerged, result.FilesSkipped)
	for _, section := range world.KeyedSections {
		if n, ok := result.Sections[section]; ok {
			fmt.Fprintf(os.Stdout, "  %s: %d\n", section, n)
		}
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stdout, "Errors (%d):\n", len(result.Errors))
		for _, err := range result.Errors {
			fmt.Fprintf(os.Stdout, "  - %v\n", err)
		}
		return fmt.Errorf("import finished with errors")
	}
	return nil
}
