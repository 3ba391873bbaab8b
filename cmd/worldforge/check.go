package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"worldforge/internal/validate"
)

func checkCmd() *cobra.Command {
	var worldFlag string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run consistency checks against a world",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), worldFlag)
		},
	}
	cmd.Flags().StringVar(&worldFlag, "world", "", "World name (defaults to the project name)")
	return cmd
}

func runCheck(ctx context.Context, worldFlag string) error {
	ws, err := openWorkspace(ctx, worldFlag)
	if err != nil {
		return err
	}
	defer ws.close(ctx)

	report, err := validate.Run(ws.session.Store().GetState(), ws.session.Catalog())
	if err != nil {
		return err
	}

	var errorIssues []validate.Issue
	var warnIssues []validate.Issue
	for _, issue := range report.Issues {
		switch issue.Severity {
		case validate.SeverityError:
			errorIssues = append(errorIssues, issue)
		case validate.SeverityWarn:
			warnIssues = append(warnIssues, issue)
		}
	}

	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(os.Stdout, "No issues found.")
		return nil
	}
	if len(errorIssues) > 0 {
		fmt.Fprintf(os.Stdout, "Errors (%d):\n", len(errorIssues))
		printIssues(os.Stdout, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(os.Stdout, "")
		}
		fmt.Fprintf(os.Stdout, "Warnings (%d):\n", len(warnIssues))
		printIssues(os.Stdout, warnIssues)
	}

	if len(errorIssues) > 0 {
		return fmt.Errorf("check found errors")
	}
	return nil
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.Entity
		if location == "" {
			location = issue.Section
		} else if issue.Section != "" {
			location = fmt.Sprintf("%s [%s]", issue.Entity, issue.Section)
		}
		if issue.FilePath != "" {
			location = fmt.Sprintf("%s (%s)", location, issue.FilePath)
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
