package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"worldforge/internal/world"
)

func namesCmd() *cobra.Command {
	var worldFlag string
	cmd := &cobra.Command{
		Use:   "names",
		Short: "List the entity names of a world",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := openWorkspace(ctx, worldFlag)
			if err != nil {
				return err
			}
			defer ws.close(ctx)

			state := ws.session.Store().GetState()
			names := world.Names(state)
			if len(names) == 0 {
				fmt.Fprintln(os.Stdout, "No names yet.")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(os.Stdout, name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&worldFlag, "world", "", "World name (defaults to the project name)")
	return cmd
}
