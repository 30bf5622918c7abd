// Package app wires the load, aggregate and render pipeline shared by the
// server and the command line tool.
package app

import (
	"context"
	"fmt"

	"viewing-wrapped/internal/config"
	"viewing-wrapped/internal/dashboard"
	"viewing-wrapped/internal/metadata"
	"viewing-wrapped/internal/models"
	"viewing-wrapped/internal/repository"
	"viewing-wrapped/internal/services"
	"viewing-wrapped/pkg/database"
	"viewing-wrapped/pkg/logging"
	"viewing-wrapped/pkg/metrics"
)

// Version is stamped on every log entry
const Version = "1.0.0"

// Pipeline owns the event store and the services built on it
type Pipeline struct {
	cfg       *config.Config
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
	db        *database.SQLiteDB
	Repo      repository.HistoryRepository
	Ingestion *services.IngestionService
	Stats     *services.StatisticsService
}

// NewLogger builds the structured logger described by cfg
func NewLogger(cfg config.LoggingConfig, service string) *logging.StructuredLogger {
	logger := logging.NewStructuredLogger(service, Version, logging.ParseLevel(cfg.Level))
	logger.SetFormat(cfg.Format)
	return logger
}

// NewPipeline opens the in-memory event store and builds the services
func NewPipeline(ctx context.Context, cfg *config.Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*Pipeline, error) {
	delimiter, err := services.ParseDelimiter(cfg.Data.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("data.delimiter: %w", err)
	}

	db, err := database.NewMemoryDB(logger, metricsCollector)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %w", err)
	}

	repo, err := repository.NewHistoryRepository(ctx, db, logger, metricsCollector)
	if err != nil {
		db.Close()
		return nil, err
	}

	ingestion := services.NewIngestionService(repo, logger, metricsCollector, services.IngestionOptions{
		Delimiter: delimiter,
		Columns: services.HistoryColumns{
			Date:        cfg.Data.DateColumn,
			Duration:    cfg.Data.DurationColumn,
			SeriesTitle: cfg.Data.SeriesColumn,
			Title:       cfg.Data.TitleColumn,
		},
		DateLayouts: cfg.Data.DateLayouts,
		BatchSize:   cfg.Data.BatchSize,
	})

	return &Pipeline{
		cfg:       cfg,
		logger:    logger,
		metrics:   metricsCollector,
		db:        db,
		Repo:      repo,
		Ingestion: ingestion,
		Stats:     services.NewStatisticsService(repo, logger, metricsCollector),
	}, nil
}

// Close releases the event store
func (p *Pipeline) Close() error {
	return p.db.Close()
}

// LoadHistory loads the configured viewing history into the event store
func (p *Pipeline) LoadHistory(ctx context.Context) (*services.IngestionResult, error) {
	return p.Ingestion.IngestHistory(ctx, p.cfg.Data.HistoryPath)
}

// Review loads both input files and aggregates the configured year
func (p *Pipeline) Review(ctx context.Context) (*models.YearInReview, error) {
	if _, err := p.LoadHistory(ctx); err != nil {
		return nil, err
	}

	genres, err := p.Ingestion.LoadGenres(ctx, p.cfg.Data.GenresPath)
	if err != nil {
		return nil, err
	}

	return p.Stats.Aggregate(ctx, p.cfg.Dashboard.Year, genres)
}

// Render builds the dashboard page for review
func (p *Pipeline) Render(review *models.YearInReview) (*dashboard.Document, error) {
	doc, err := dashboard.Build(review, dashboard.Options{
		Title:     p.cfg.Dashboard.Title,
		PlotlyURL: p.cfg.Dashboard.PlotlyURL,
	})
	if err != nil {
		return nil, err
	}

	p.metrics.DocumentBytes.Set(float64(doc.Len()))
	return doc, nil
}

// MetadataClient builds the OMDb client described by cfg
func (p *Pipeline) MetadataClient() *metadata.Client {
	m := p.cfg.Metadata
	return metadata.NewClient(metadata.Config{
		BaseURL:           m.BaseURL,
		APIKey:            m.APIKey,
		Timeout:           m.Timeout,
		RequestsPerSecond: m.RequestsPerSecond,
		Burst:             m.Burst,
		FailureThreshold:  m.FailureThreshold,
		OpenTimeout:       m.OpenTimeout,
	}, p.logger, p.metrics)
}

// GenreService builds the genre document builder over lookup
func (p *Pipeline) GenreService(lookup services.GenreLookup) *services.GenreService {
	return services.NewGenreService(p.Repo, lookup, p.logger, p.cfg.Metadata.Concurrency)
}
