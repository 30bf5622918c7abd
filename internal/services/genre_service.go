package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"viewing-wrapped/internal/metadata"
	"viewing-wrapped/internal/repository"
	"viewing-wrapped/pkg/logging"
)

// GenreLookup resolves the genres of a title
type GenreLookup interface {
	Genres(ctx context.Context, title string) ([]string, error)
}

// GenreService builds the genre document from the watched titles
type GenreService struct {
	repo        repository.HistoryRepository
	lookup      GenreLookup
	logger      *logging.StructuredLogger
	concurrency int
}

// GenreBuildResult contains genre build statistics
type GenreBuildResult struct {
	Titles   int
	Matched  int
	NoMatch  int
	Failed   int
	Genres   map[string]int
	Duration time.Duration
}

// NewGenreService creates a new genre service
func NewGenreService(repo repository.HistoryRepository, lookup GenreLookup, logger *logging.StructuredLogger, concurrency int) *GenreService {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &GenreService{
		repo:        repo,
		lookup:      lookup,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Build looks up every title watched in year and counts the titles carrying each genre.
// Titles without a match and failed lookups are counted and skipped.
func (s *GenreService) Build(ctx context.Context, year int) (*GenreBuildResult, error) {
	startTime := time.Now()

	titles, err := s.repo.DistinctTitles(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list titles: %w", err)
	}

	s.logger.Info(ctx, "[GENRE_BUILD_START] Looking up genres", logging.Fields{
		"year":        year,
		"titles":      len(titles),
		"concurrency": s.concurrency,
	})

	result := &GenreBuildResult{
		Titles: len(titles),
		Genres: make(map[string]int),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, title := range titles {
		g.Go(func() error {
			genres, err := s.lookup.Genres(gctx, title)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case errors.Is(err, metadata.ErrNotFound):
				result.NoMatch++
			case err != nil:
				result.Failed++
				s.logger.Warn(gctx, "[GENRE_LOOKUP_FAILED] Genre lookup failed", logging.Fields{
					"title": title,
					"error": err.Error(),
				})
			default:
				result.Matched++
				seen := make(map[string]bool, len(genres))
				for _, genre := range genres {
					if !seen[genre] {
						seen[genre] = true
						result.Genres[genre]++
					}
				}
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("genre build cancelled: %w", err)
	}

	result.Duration = time.Since(startTime)

	s.logger.Info(ctx, "[GENRE_BUILD_COMPLETE] Genre lookups finished", logging.Fields{
		"titles":      result.Titles,
		"matched":     result.Matched,
		"no_match":    result.NoMatch,
		"failed":      result.Failed,
		"genres":      len(result.Genres),
		"duration_ms": result.Duration.Milliseconds(),
	})

	return result, nil
}

// WriteGenres writes the flat genre -> count document to path
func WriteGenres(path string, genres map[string]int) error {
	data, err := json.MarshalIndent(genres, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode genres: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write genre document %s: %w", path, err)
	}

	return nil
}
