package repository

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewing-wrapped/internal/models"
	"viewing-wrapped/pkg/database"
	"viewing-wrapped/pkg/logging"
	"viewing-wrapped/pkg/metrics"
)

func newTestRepository(t *testing.T) (HistoryRepository, *metrics.Collector) {
	t.Helper()

	logger := logging.NewStructuredLogger("repository-test", "test", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	collector := metrics.NewCollector("test", prometheus.NewRegistry())

	db, err := database.NewMemoryDB(logger, collector)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewHistoryRepository(context.Background(), db, logger, collector)
	require.NoError(t, err)

	return repo, collector
}

func episode(at string, seconds float64, series string) *models.WatchEvent {
	ts, _ := time.Parse(time.RFC3339, at)
	return &models.WatchEvent{
		WatchedAt:       ts,
		DurationSeconds: seconds,
		Title:           series + ": Episode",
		Content:         models.Episode{SeriesTitle: series},
	}
}

func movie(at string, seconds float64, title string) *models.WatchEvent {
	ts, _ := time.Parse(time.RFC3339, at)
	return &models.WatchEvent{
		WatchedAt:       ts,
		DurationSeconds: seconds,
		Title:           title,
		Content:         models.Movie{},
	}
}

func seed(t *testing.T, repo HistoryRepository) {
	t.Helper()

	events := []*models.WatchEvent{
		// 2020-01-06 is a Monday, 2020-01-11 a Saturday.
		episode("2020-01-06T20:00:00Z", 3600, "Dark"),
		episode("2020-01-06T21:00:00Z", 1800, "Dark"),
		episode("2020-01-11T20:00:00Z", 2400, "Ozark"),
		movie("2020-03-02T19:00:00Z", 7200, "Roma"),
		movie("2020-03-03T19:00:00Z", 5400, "Roma"),
		episode("2020-12-31T23:59:59Z", 600, "Ozark"),
		// Outside 2020.
		episode("2019-12-31T23:59:59Z", 900, "Dark"),
		movie("2021-01-01T00:00:00Z", 6000, "Tenet"),
	}

	require.NoError(t, repo.CreateEventsBatch(context.Background(), events))
}

func TestCreateEventsBatch(t *testing.T) {
	repo, collector := newTestRepository(t)
	seed(t, repo)

	count, err := repo.CountEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, count)
	assert.Equal(t, 8.0, testutil.ToFloat64(collector.IngestionRecordsTotal))

	// Empty batches are a no-op.
	require.NoError(t, repo.CreateEventsBatch(context.Background(), nil))
}

func TestPartition_HalfOpenRange(t *testing.T) {
	repo, _ := newTestRepository(t)
	seed(t, repo)

	p, err := repo.Partition(context.Background(), 2020)
	require.NoError(t, err)
	assert.Equal(t, 6, p.EventCount)
	assert.InDelta(t, 3600+1800+2400+7200+5400+600, p.TotalSeconds, 1e-9)

	prior, err := repo.Partition(context.Background(), 2019)
	require.NoError(t, err)
	assert.Equal(t, 1, prior.EventCount)
	assert.InDelta(t, 900, prior.TotalSeconds, 1e-9)
}

func TestWeekdayAverages(t *testing.T) {
	repo, _ := newTestRepository(t)
	seed(t, repo)

	days, err := repo.WeekdayAverages(context.Background(), 2020)
	require.NoError(t, err)

	// Monday (2 episodes + Roma on 03-02), Tuesday (Roma 03-03), Thursday (12-31), Saturday.
	require.Len(t, days, 4)
	assert.Equal(t, models.Monday, days[0].Day)
	assert.InDelta(t, (3600.0+1800+7200)/3/60, days[0].MeanMinutes, 1e-9)
	assert.Equal(t, models.Tuesday, days[1].Day)
	assert.Equal(t, models.Thursday, days[2].Day)
	assert.Equal(t, models.Saturday, days[3].Day)
	assert.True(t, days[3].IsWeekend)
	assert.False(t, days[0].IsWeekend)
}

func TestMonthlyTotals(t *testing.T) {
	repo, _ := newTestRepository(t)
	seed(t, repo)

	months, err := repo.MonthlyTotals(context.Background(), 2020)
	require.NoError(t, err)

	require.Len(t, months, 3)
	assert.Equal(t, time.January, months[0].Month)
	assert.InDelta(t, (3600.0+1800+2400)/3600, months[0].TotalHours, 1e-9)
	assert.Equal(t, time.March, months[1].Month)
	assert.InDelta(t, (7200.0+5400)/3600, months[1].TotalHours, 1e-9)
	assert.Equal(t, time.December, months[2].Month)
}

func TestShowTotals(t *testing.T) {
	repo, _ := newTestRepository(t)
	seed(t, repo)

	shows, err := repo.ShowTotals(context.Background(), 2020, 10)
	require.NoError(t, err)

	require.Len(t, shows, 2)
	assert.Equal(t, "Dark", shows[0].Title)
	assert.InDelta(t, 1.5, shows[0].Hours, 1e-9)
	assert.Equal(t, "Ozark", shows[1].Title)
	assert.InDelta(t, 3000.0/3600, shows[1].Hours, 1e-9)

	limited, err := repo.ShowTotals(context.Background(), 2020, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := repo.ShowTotals(context.Background(), 1999, 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestCategoryCounts(t *testing.T) {
	repo, _ := newTestRepository(t)
	seed(t, repo)

	counts, err := repo.CategoryCounts(context.Background(), 2020)
	require.NoError(t, err)

	// Two distinct series; two movie events even though both are Roma.
	assert.Equal(t, []models.CategoryCount{
		{Label: models.CategoryTVShows, Count: 2},
		{Label: models.CategoryMovies, Count: 2},
	}, counts)

	empty, err := repo.CategoryCounts(context.Background(), 1999)
	require.NoError(t, err)
	assert.Equal(t, 0, empty[0].Count)
	assert.Equal(t, 0, empty[1].Count)
}

func TestDistinctTitles(t *testing.T) {
	repo, _ := newTestRepository(t)
	seed(t, repo)

	titles, err := repo.DistinctTitles(context.Background(), 2020)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dark", "Ozark", "Roma"}, titles)
}

func TestEmptyYear(t *testing.T) {
	repo, _ := newTestRepository(t)
	seed(t, repo)
	ctx := context.Background()

	p, err := repo.Partition(ctx, 1990)
	require.NoError(t, err)
	assert.Zero(t, p.EventCount)
	assert.Zero(t, p.TotalSeconds)

	days, err := repo.WeekdayAverages(ctx, 1990)
	require.NoError(t, err)
	assert.Empty(t, days)

	months, err := repo.MonthlyTotals(ctx, 1990)
	require.NoError(t, err)
	assert.Empty(t, months)
}

func TestHealthCheck(t *testing.T) {
	repo, _ := newTestRepository(t)
	assert.NoError(t, repo.HealthCheck(context.Background()))
}
