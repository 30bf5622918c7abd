package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"viewing-wrapped/internal/dashboard"
)

var (
	summaryJSON   bool
	summaryOutput string
)

// summaryCmd prints the year in review to the terminal.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the year in review",
	Long: `Load the viewing history and genre document and print the same tables the
dashboard shows. With --html the rendered dashboard page is written to a file
instead.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "print the aggregates as JSON")
	summaryCmd.Flags().StringVar(&summaryOutput, "html", "", "write the dashboard page to this file")
}

func runSummary(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	review, err := s.pipeline.Review(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	switch {
	case summaryOutput != "":
		doc, err := s.pipeline.Render(review)
		if err != nil {
			return err
		}
		if err := os.WriteFile(summaryOutput, doc.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", summaryOutput, err)
		}
		fmt.Fprintf(out, "wrote %s (%d bytes)\n", summaryOutput, doc.Len())
		return nil

	case summaryJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(review)

	default:
		return dashboard.RenderTerminal(out, review, s.cfg.Dashboard.Title)
	}
}
