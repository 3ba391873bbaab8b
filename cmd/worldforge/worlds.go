package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"worldforge/internal/world"
)

func worldsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worlds",
		Short: "Manage archived worlds",
	}
	cmd.AddCommand(worldsListCmd())
	cmd.AddCommand(worldsDeleteCmd())
	return cmd
}

func worldsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archived worlds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			archive, err := openArchive(ctx, cfg)
			if err != nil {
				return err
			}
			defer archive.Close(ctx)

			summaries, err := archive.ListWorlds(ctx)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Fprintln(os.Stdout, "No worlds saved.")
				return nil
			}
			for _, summary := range summaries {
				var counts []string
				for _, section := range world.AllSections {
					if n := summary.Counts[section]; n > 0 {
						counts = append(counts, fmt.Sprintf("%s=%d", section, n))
					}
				}
				fmt.Fprintf(os.Stdout, "%s\t%s\t%s\n", summary.Name, summary.SavedAt.Local().Format("2006-01-02 15:04"), strings.Join(counts, " "))
			}
			return nil
		},
	}
}

func worldsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an archived world",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			archive, err := openArchive(ctx, cfg)
			if err != nil {
				return err
			}
			defer archive.Close(ctx)

			removed, err := archive.DeleteWorld(ctx, args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("world %q not found", args[0])
			}
			fmt.Fprintf(os.Stdout, "Deleted %s\n", args[0])
			return nil
		},
	}
}
