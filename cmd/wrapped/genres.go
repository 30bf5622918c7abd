package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"viewing-wrapped/internal/metadata"
	"viewing-wrapped/internal/services"
)

var genresOutput string

// genresCmd groups the genre document tools.
var genresCmd = &cobra.Command{
	Use:   "genres",
	Short: "Look up genres and build the genre document",
}

var genresLookupCmd = &cobra.Command{
	Use:   "lookup TITLE",
	Short: "Print the genres of the best matching title",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGenresLookup,
}

var genresBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the genre document from the viewing history",
	Long: `Look up every series and movie watched in the selected year and count how
many titles carry each genre. The result is written as the flat genre -> count
document the dashboard reads. Titles without a match are skipped.`,
	Args: cobra.NoArgs,
	RunE: runGenresBuild,
}

func init() {
	genresBuildCmd.Flags().StringVarP(&genresOutput, "output", "o", "", "output path (default data.genres_path)")

	genresCmd.AddCommand(genresLookupCmd)
	genresCmd.AddCommand(genresBuildCmd)
}

func requireAPIKey(s *session) error {
	if s.cfg.Metadata.APIKey == "" {
		return errors.New("metadata.api_key is required (set WRAPPED_METADATA_API_KEY)")
	}
	return nil
}

func runGenresLookup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := requireAPIKey(s); err != nil {
		return err
	}

	title := strings.Join(args, " ")
	genres, err := s.pipeline.MetadataClient().Genres(ctx, title)
	if errors.Is(err, metadata.ErrNotFound) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: no match\n", title)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", title, strings.Join(genres, ", "))
	return nil
}

func runGenresBuild(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := requireAPIKey(s); err != nil {
		return err
	}

	if _, err := s.pipeline.LoadHistory(ctx); err != nil {
		return err
	}

	result, err := s.pipeline.GenreService(s.pipeline.MetadataClient()).Build(ctx, s.cfg.Dashboard.Year)
	if err != nil {
		return err
	}

	path := genresOutput
	if path == "" {
		path = s.cfg.Data.GenresPath
	}
	if err := services.WriteGenres(path, result.Genres); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d genres from %d titles (%d matched, %d without match, %d failed)\n",
		path, len(result.Genres), result.Titles, result.Matched, result.NoMatch, result.Failed)
	return nil
}
