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

func generateCmd() *cobra.Command {
	var inputs []string
	var worldFlag string
	cmd := &cobra.Command{
		Use:   "generate <section>",
		Short: "Generate one section of a world and save the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), args[0], inputs, worldFlag)
		},
	}
	cmd.Flags().StringArrayVar(&inputs, "input", nil, "Producer input as key=value (repeatable)")
	cmd.Flags().StringVar(&worldFlag, "world", "", "World name (defaults to the project name)")
	return cmd
}

func runGenerate(ctx context.Context, sectionName string, inputs []string, worldFlag string) error {
	section, err := world.ParseSection(sectionName)
	if err != nil {
		return err
	}
	input, err := parseInputs(inputs)
	if err != nil {
		return err
	}

	ws, err := openWorkspace(ctx, worldFlag)
	if err != nil {
		return err
	}
	defer ws.close(ctx)

	if err := ws.session.Initialize(ws.cfg.Generator); err != nil {
		return err
	}
	producer, err := ws.session.Producer(section)
	if err != nil {
		return err
	}
	result, err := producer.Submit(ctx, input)
	if err != nil {
		return err
	}
	if err := ws.save(ctx); err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}

// parseInputs turns key=value pairs into a producer input map.
func parseInputs(pairs []string) (map[string]string, error) {
	input := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --input %q, expected key=value", pair)
		}
		input[key] = value
	}
	return input, nil
}
