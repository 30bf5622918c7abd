package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"viewing-wrapped/internal/models"
	"viewing-wrapped/internal/repository"
	"viewing-wrapped/pkg/logging"
	"viewing-wrapped/pkg/metrics"
)

var (
	// ErrDateColumn is returned when no row of the history has a parseable date
	ErrDateColumn = errors.New("date column could not be parsed")

	// ErrMissingColumn is returned when a required column is absent from the header
	ErrMissingColumn = errors.New("required column missing from header")
)

// Skip reasons recorded per row
const (
	skipCSVSyntax   = "csv_syntax"
	skipFieldCount  = "field_count"
	skipBadDate     = "bad_date"
	skipBadDuration = "bad_duration"
)

// HistoryColumns names the CSV header columns to read
type HistoryColumns struct {
	Date        string
	Duration    string
	SeriesTitle string
	Title       string
}

// DefaultHistoryColumns matches the viewing history export
var DefaultHistoryColumns = HistoryColumns{
	Date:        "dateStr",
	Duration:    "duration",
	SeriesTitle: "seriesTitle",
	Title:       "title",
}

// IngestionOptions configures how the viewing history is parsed
type IngestionOptions struct {
	Delimiter   rune
	Columns     HistoryColumns
	DateLayouts []string
	BatchSize   int
}

// IngestionService loads the viewing history and genre document
type IngestionService struct {
	repo    repository.HistoryRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	opts    IngestionOptions
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	FilePath          string
	TotalRecords      int
	SuccessfulRecords int
	SkippedRecords    int
	SkippedByReason   map[string]int
	Duration          time.Duration
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(repo repository.HistoryRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, opts IngestionOptions) *IngestionService {
	if opts.Delimiter == 0 {
		opts.Delimiter = ';'
	}
	if opts.Columns == (HistoryColumns{}) {
		opts.Columns = DefaultHistoryColumns
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}

	return &IngestionService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
		opts:    opts,
	}
}

// IngestHistory reads the viewing history at path into the event store.
// Malformed rows are skipped; a missing file, a missing required column or a
// date column with no parseable value fails the whole load.
func (s *IngestionService) IngestHistory(ctx context.Context, path string) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_START] Loading viewing history", logging.Fields{
		"file_path":  path,
		"batch_size": s.opts.BatchSize,
		"stage":      "INITIALIZATION",
	})

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open viewing history %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = s.opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("viewing history %s is empty: %w", path, ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	idx, err := resolveColumns(header, s.opts.Columns)
	if err != nil {
		return nil, fmt.Errorf("viewing history %s: %w", path, err)
	}
	width := len(header)
	required := max(idx.date, idx.duration) + 1
	parsed := 0

	result := &IngestionResult{
		FilePath:        path,
		SkippedByReason: make(map[string]int),
	}
	batch := make([]*models.WatchEvent, 0, s.opts.BatchSize)

	skip := func(reason string) {
		result.SkippedRecords++
		result.SkippedByReason[reason]++
		s.metrics.RecordSkippedRow(reason)
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		result.TotalRecords++

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			skip(skipCSVSyntax)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", path, err)
		}

		// Short rows keep their leading fields; trailing optional columns read as empty.
		if len(record) > width || len(record) < required {
			skip(skipFieldCount)
			continue
		}

		raw := &models.RawHistoryRecord{
			Date:        record[idx.date],
			Duration:    record[idx.duration],
			SeriesTitle: field(record, idx.series),
			Title:       field(record, idx.title),
		}

		parsed++
		event, err := raw.ToEvent(s.opts.DateLayouts)
		if err != nil {
			var vErr *models.ValidationError
			if errors.As(err, &vErr) && vErr.Field == "date" {
				skip(skipBadDate)
			} else {
				skip(skipBadDuration)
			}
			continue
		}

		batch = append(batch, event)

		if len(batch) >= s.opts.BatchSize {
			if err := s.repo.CreateEventsBatch(ctx, batch); err != nil {
				return nil, fmt.Errorf("failed to insert batch: %w", err)
			}
			result.SuccessfulRecords += len(batch)
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := s.repo.CreateEventsBatch(ctx, batch); err != nil {
			return nil, fmt.Errorf("failed to insert final batch: %w", err)
		}
		result.SuccessfulRecords += len(batch)
	}

	if parsed > 0 && result.SkippedByReason[skipBadDate] == parsed {
		return nil, fmt.Errorf("viewing history %s: column %q: %w", path, s.opts.Columns.Date, ErrDateColumn)
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Viewing history loaded", logging.Fields{
		"file_path":          path,
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"skipped_records":    result.SkippedRecords,
		"skipped_by_reason":  result.SkippedByReason,
		"duration_ms":        result.Duration.Milliseconds(),
		"stage":              "COMPLETE",
	})

	return result, nil
}

// LoadGenres reads the flat genre -> count document at path
func (s *IngestionService) LoadGenres(ctx context.Context, path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read genre document %s: %w", path, err)
	}

	genres := make(map[string]int)
	if err := json.Unmarshal(data, &genres); err != nil {
		return nil, fmt.Errorf("failed to decode genre document %s: %w", path, err)
	}

	s.logger.Info(ctx, "[INGEST_GENRES] Genre document loaded", logging.Fields{
		"file_path":   path,
		"genre_count": len(genres),
	})

	return genres, nil
}

type columnIndex struct {
	date, duration, series, title int
}

func resolveColumns(header []string, cols HistoryColumns) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}

	lookup := func(name string, required bool) (int, error) {
		if i, ok := positions[name]; ok && name != "" {
			return i, nil
		}
		if required {
			return -1, fmt.Errorf("column %q: %w", name, ErrMissingColumn)
		}
		return -1, nil
	}

	var idx columnIndex
	var err error
	if idx.date, err = lookup(cols.Date, true); err != nil {
		return idx, err
	}
	if idx.duration, err = lookup(cols.Duration, true); err != nil {
		return idx, err
	}
	idx.series, _ = lookup(cols.SeriesTitle, false)
	idx.title, _ = lookup(cols.Title, false)

	return idx, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

// ParseDelimiter converts a configured delimiter string to a rune
func ParseDelimiter(s string) (rune, error) {
	if s == `\t` {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	return r, nil
}
