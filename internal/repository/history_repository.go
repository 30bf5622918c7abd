package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"viewing-wrapped/internal/models"
	"viewing-wrapped/pkg/database"
	"viewing-wrapped/pkg/logging"
	"viewing-wrapped/pkg/metrics"
)

// HistoryRepository provides data access for loaded watch events
type HistoryRepository interface {
	// Event operations
	CreateEventsBatch(ctx context.Context, events []*models.WatchEvent) error
	CountEvents(ctx context.Context) (int, error)

	// Aggregate operations over one calendar year
	Partition(ctx context.Context, year int) (*models.YearPartition, error)
	WeekdayAverages(ctx context.Context, year int) ([]models.WeekdayAggregate, error)
	MonthlyTotals(ctx context.Context, year int) ([]models.MonthAggregate, error)
	ShowTotals(ctx context.Context, year int, limit int) ([]models.ShowAggregate, error)
	CategoryCounts(ctx context.Context, year int) ([]models.CategoryCount, error)
	DistinctTitles(ctx context.Context, year int) ([]string, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

const schema = `
	CREATE TABLE IF NOT EXISTS watch_events (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		watched_at       INTEGER NOT NULL,
		month            INTEGER NOT NULL,
		weekday          INTEGER NOT NULL,
		duration_seconds REAL    NOT NULL CHECK (duration_seconds >= 0),
		title            TEXT    NOT NULL DEFAULT '',
		series_title     TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_watch_events_watched_at ON watch_events (watched_at);
`

// historyRepository implements HistoryRepository
type historyRepository struct {
	db      *database.SQLiteDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewHistoryRepository creates the event store schema and returns a repository over it
func NewHistoryRepository(ctx context.Context, db *database.SQLiteDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (HistoryRepository, error) {
	if _, err := db.ExecContext(ctx, "create_schema", schema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &historyRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}, nil
}

// CreateEventsBatch inserts multiple events in a single transaction
func (r *historyRepository) CreateEventsBatch(ctx context.Context, events []*models.WatchEvent) error {
	if len(events) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.IngestionBatchSize.Observe(float64(len(events)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(events),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO watch_events (watched_at, month, weekday, duration_seconds, title, series_title)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, event := range events {
		at := event.WatchedAt.UTC()

		var series sql.NullString
		if title, ok := models.SeriesTitle(event.Content); ok {
			series = sql.NullString{String: title, Valid: true}
		}

		_, err := stmt.ExecContext(ctx,
			at.Unix(),
			int(at.Month()),
			int(models.WeekdayOf(at)),
			event.DurationSeconds,
			event.Title,
			series,
		)
		if err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(events)))

	return nil
}

// CountEvents returns the number of loaded events across all years
func (r *historyRepository) CountEvents(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, "count_events", &count, `SELECT COUNT(*) FROM watch_events`); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// Partition summarises the events of one calendar year
func (r *historyRepository) Partition(ctx context.Context, year int) (*models.YearPartition, error) {
	partition := models.NewYearPartition(year)

	query := `
		SELECT
			COUNT(*) AS event_count,
			COALESCE(SUM(duration_seconds), 0) AS total_seconds
		FROM watch_events
		WHERE watched_at >= ? AND watched_at < ?
	`

	var result struct {
		EventCount   int     `db:"event_count"`
		TotalSeconds float64 `db:"total_seconds"`
	}

	err := r.db.GetContext(ctx, "partition_summary", &result, query, partition.Start.Unix(), partition.End.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to summarise partition %d: %w", year, err)
	}

	partition.EventCount = result.EventCount
	partition.TotalSeconds = result.TotalSeconds

	return &partition, nil
}

// WeekdayAverages returns the mean minutes per event for each weekday present, Monday first
func (r *historyRepository) WeekdayAverages(ctx context.Context, year int) ([]models.WeekdayAggregate, error) {
	partition := models.NewYearPartition(year)

	query := `
		SELECT weekday, AVG(duration_seconds) / 60.0 AS mean_minutes
		FROM watch_events
		WHERE watched_at >= ? AND watched_at < ?
		GROUP BY weekday
		ORDER BY weekday
	`

	var rows []struct {
		Weekday     int     `db:"weekday"`
		MeanMinutes float64 `db:"mean_minutes"`
	}

	if err := r.db.SelectContext(ctx, "weekday_averages", &rows, query, partition.Start.Unix(), partition.End.Unix()); err != nil {
		return nil, fmt.Errorf("failed to aggregate weekdays: %w", err)
	}

	aggregates := make([]models.WeekdayAggregate, 0, len(rows))
	for _, row := range rows {
		day := models.Weekday(row.Weekday)
		aggregates = append(aggregates, models.WeekdayAggregate{
			Day:         day,
			MeanMinutes: row.MeanMinutes,
			IsWeekend:   day.IsWeekend(),
		})
	}

	return aggregates, nil
}

// MonthlyTotals returns total hours for each month present, ascending
func (r *historyRepository) MonthlyTotals(ctx context.Context, year int) ([]models.MonthAggregate, error) {
	partition := models.NewYearPartition(year)

	query := `
		SELECT month, SUM(duration_seconds) / 3600.0 AS total_hours
		FROM watch_events
		WHERE watched_at >= ? AND watched_at < ?
		GROUP BY month
		ORDER BY month
	`

	var rows []struct {
		Month      int     `db:"month"`
		TotalHours float64 `db:"total_hours"`
	}

	if err := r.db.SelectContext(ctx, "monthly_totals", &rows, query, partition.Start.Unix(), partition.End.Unix()); err != nil {
		return nil, fmt.Errorf("failed to aggregate months: %w", err)
	}

	aggregates := make([]models.MonthAggregate, 0, len(rows))
	for _, row := range rows {
		aggregates = append(aggregates, models.MonthAggregate{
			Month:      time.Month(row.Month),
			TotalHours: row.TotalHours,
		})
	}

	return aggregates, nil
}

// ShowTotals returns total hours per series, most watched first. Hours are not rounded here.
func (r *historyRepository) ShowTotals(ctx context.Context, year int, limit int) ([]models.ShowAggregate, error) {
	partition := models.NewYearPartition(year)

	query := `
		SELECT series_title AS title, SUM(duration_seconds) / 3600.0 AS hours
		FROM watch_events
		WHERE watched_at >= ? AND watched_at < ?
		  AND series_title IS NOT NULL
		GROUP BY series_title
		ORDER BY hours DESC, title ASC
		LIMIT ?
	`

	var shows []models.ShowAggregate
	if err := r.db.SelectContext(ctx, "show_totals", &shows, query, partition.Start.Unix(), partition.End.Unix(), limit); err != nil {
		return nil, fmt.Errorf("failed to aggregate shows: %w", err)
	}

	if shows == nil {
		shows = []models.ShowAggregate{}
	}

	return shows, nil
}

// CategoryCounts returns the distinct series count and the movie event count
func (r *historyRepository) CategoryCounts(ctx context.Context, year int) ([]models.CategoryCount, error) {
	partition := models.NewYearPartition(year)

	query := `
		SELECT
			COUNT(DISTINCT series_title) AS tv_shows,
			COALESCE(SUM(CASE WHEN series_title IS NULL THEN 1 ELSE 0 END), 0) AS movies
		FROM watch_events
		WHERE watched_at >= ? AND watched_at < ?
	`

	var result struct {
		TVShows int `db:"tv_shows"`
		Movies  int `db:"movies"`
	}

	if err := r.db.GetContext(ctx, "category_counts", &result, query, partition.Start.Unix(), partition.End.Unix()); err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}

	return []models.CategoryCount{
		{Label: models.CategoryTVShows, Count: result.TVShows},
		{Label: models.CategoryMovies, Count: result.Movies},
	}, nil
}

// DistinctTitles lists the series titles and movie titles watched in a year, sorted
func (r *historyRepository) DistinctTitles(ctx context.Context, year int) ([]string, error) {
	partition := models.NewYearPartition(year)

	query := `
		SELECT DISTINCT COALESCE(series_title, title) AS name
		FROM watch_events
		WHERE watched_at >= ? AND watched_at < ?
		  AND COALESCE(series_title, title) <> ''
		ORDER BY name
	`

	var titles []string
	if err := r.db.SelectContext(ctx, "distinct_titles", &titles, query, partition.Start.Unix(), partition.End.Unix()); err != nil {
		return nil, fmt.Errorf("failed to list titles: %w", err)
	}

	return titles, nil
}

// HealthCheck performs a repository health check
func (r *historyRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
