package services

import (
	"context"
	"fmt"
	"sort"

	"viewing-wrapped/internal/models"
	"viewing-wrapped/internal/repository"
	"viewing-wrapped/pkg/logging"
	"viewing-wrapped/pkg/metrics"
)

// TopShowsLimit is the number of series shown in the top shows table
const TopShowsLimit = 10

// StatisticsService computes the year in review from the event store
type StatisticsService struct {
	repo    repository.HistoryRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(repo repository.HistoryRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *StatisticsService {
	return &StatisticsService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Aggregate calculates every table of the dashboard for year.
// An empty year yields empty tables and zero totals.
func (s *StatisticsService) Aggregate(ctx context.Context, year int, genres map[string]int) (*models.YearInReview, error) {
	timer := s.metrics.NewTimer(s.metrics.AggregationDuration)

	s.logger.Info(ctx, "[STATS_CALC_START] Starting year in review", logging.Fields{
		"year":  year,
		"stage": "INITIALIZATION",
	})

	current, err := s.repo.Partition(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to partition year %d: %w", year, err)
	}

	prior, err := s.repo.Partition(ctx, year-1)
	if err != nil {
		return nil, fmt.Errorf("failed to partition year %d: %w", year-1, err)
	}

	s.logger.Info(ctx, "[STATS_PARTITIONS] Year partitions built", logging.Fields{
		"year":              year,
		"event_count":       current.EventCount,
		"prior_year":        prior.Year,
		"prior_event_count": prior.EventCount,
		"prior_hours":       models.Round(prior.TotalSeconds/3600, 2),
	})

	weekdays, err := s.repo.WeekdayAverages(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate weekday averages: %w", err)
	}

	months, err := s.repo.MonthlyTotals(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate monthly totals: %w", err)
	}

	shows, err := s.repo.ShowTotals(ctx, year, TopShowsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate show totals: %w", err)
	}
	for i := range shows {
		shows[i].Hours = models.Round(shows[i].Hours, 1)
	}

	categories, err := s.repo.CategoryCounts(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}

	review := &models.YearInReview{
		Year:       year,
		EventCount: current.EventCount,
		TotalHours: current.TotalSeconds / 3600,
		Weekdays:   weekdays,
		Months:     months,
		TopShows:   shows,
		Categories: categories,
		Genres:     RankGenres(genres),
	}

	duration := timer.ObserveDuration()

	s.logger.Info(ctx, "[STATS_CALC_COMPLETE] Year in review calculated", logging.Fields{
		"year":        year,
		"event_count": review.EventCount,
		"total_hours": review.HeadlineHours(),
		"top_shows":   len(review.TopShows),
		"genres":      len(review.Genres),
		"duration_ms": duration.Milliseconds(),
		"stage":       "COMPLETE",
	})

	return review, nil
}

// RankGenres orders the genre document by ascending quantity, ties by name
func RankGenres(genres map[string]int) []models.GenreCount {
	ranked := make([]models.GenreCount, 0, len(genres))
	for genre, quantity := range genres {
		ranked = append(ranked, models.GenreCount{Genre: genre, Quantity: quantity})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Quantity != ranked[j].Quantity {
			return ranked[i].Quantity < ranked[j].Quantity
		}
		return ranked[i].Genre < ranked[j].Genre
	})

	return ranked
}
