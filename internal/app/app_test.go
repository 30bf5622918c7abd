package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewing-wrapped/internal/config"
	"viewing-wrapped/pkg/logging"
	"viewing-wrapped/pkg/metrics"
)

func testConfig(t *testing.T, history, genres string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	cfg.Data.HistoryPath = filepath.Join(dir, "viewedHistory.csv")
	cfg.Data.GenresPath = filepath.Join(dir, "genres.json")
	require.NoError(t, os.WriteFile(cfg.Data.HistoryPath, []byte(history), 0o644))
	if genres != "" {
		require.NoError(t, os.WriteFile(cfg.Data.GenresPath, []byte(genres), 0o644))
	}

	return cfg
}

func newTestPipeline(t *testing.T, cfg *config.Config) (*Pipeline, *metrics.Collector) {
	t.Helper()

	logger := logging.NewStructuredLogger("app-test", Version, logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	collector := metrics.NewCollector("test", prometheus.NewRegistry())

	p, err := NewPipeline(context.Background(), cfg, logger, collector)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	return p, collector
}

const history = `dateStr;duration;seriesTitle;title
2020-01-01 20:00:00;3600;ShowA;ShowA: Episode 2
2020-01-02 21:00:00;1800;;Some Film
2019-12-31 22:00:00;900;ShowA;ShowA: Episode 1
`

func TestPipeline_ReviewAndRender(t *testing.T) {
	cfg := testConfig(t, history, `{"Drama": 5, "Comedy": 2}`)
	p, collector := newTestPipeline(t, cfg)

	review, err := p.Review(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, review.EventCount)
	assert.Equal(t, 1.5, review.HeadlineHours())

	doc, err := p.Render(review)
	require.NoError(t, err)
	assert.Contains(t, string(doc.Bytes()), "ShowA")
	assert.Equal(t, float64(doc.Len()), testutil.ToFloat64(collector.DocumentBytes))
}

func TestPipeline_MissingGenresIsFatal(t *testing.T) {
	cfg := testConfig(t, history, "")
	p, _ := newTestPipeline(t, cfg)

	_, err := p.Review(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), cfg.Data.GenresPath)
}

func TestNewPipeline_BadDelimiter(t *testing.T) {
	cfg := testConfig(t, history, "{}")
	cfg.Data.Delimiter = "::"

	logger := logging.NewStructuredLogger("app-test", Version, logging.ErrorLevel)
	logger.SetOutput(io.Discard)

	_, err := NewPipeline(context.Background(), cfg, logger, metrics.NewCollector("test", prometheus.NewRegistry()))
	assert.Error(t, err)
}
