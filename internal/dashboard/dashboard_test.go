package dashboard

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewing-wrapped/internal/models"
)

func sampleReview() *models.YearInReview {
	return &models.YearInReview{
		Year:       2020,
		EventCount: 4,
		TotalHours: 100.123456,
		Weekdays: []models.WeekdayAggregate{
			{Day: models.Monday, MeanMinutes: 42},
			{Day: models.Saturday, MeanMinutes: 90, IsWeekend: true},
			{Day: models.Sunday, MeanMinutes: 75, IsWeekend: true},
		},
		Months: []models.MonthAggregate{
			{Month: time.January, TotalHours: 60},
			{Month: time.March, TotalHours: 40.123456},
		},
		TopShows: []models.ShowAggregate{
			{Title: "Dark", Hours: 12.5},
			{Title: "Tom & Jerry", Hours: 3},
		},
		Categories: []models.CategoryCount{
			{Label: models.CategoryTVShows, Count: 2},
			{Label: models.CategoryMovies, Count: 7},
		},
		Genres: []models.GenreCount{
			{Genre: "Comedy", Quantity: 2},
			{Genre: "Drama", Quantity: 5},
		},
	}
}

func TestWeekdayFigure(t *testing.T) {
	fig := WeekdayFigure(sampleReview().Weekdays)

	require.Len(t, fig.Data, 2)
	assert.Equal(t, "no", fig.Data[0].Name)
	assert.Equal(t, []string{"Monday"}, fig.Data[0].X)
	assert.Equal(t, ColorSecond, fig.Data[0].Marker.Color)
	assert.Equal(t, "yes", fig.Data[1].Name)
	assert.Equal(t, []string{"Saturday", "Sunday"}, fig.Data[1].X)
	assert.Equal(t, []float64{90, 75}, fig.Data[1].Y)
	assert.Equal(t, ColorMain, fig.Data[1].Marker.Color)

	assert.Equal(t, "array", fig.Layout.XAxis.CategoryOrder)
	assert.Equal(t, models.AllWeekdays(), fig.Layout.XAxis.CategoryArray)
	assert.Equal(t, "Avg. Minutes", fig.Layout.YAxis.Title.Text)
	assert.Equal(t, "Average number of minutes spent per day of week", fig.Layout.Title.Text)
}

func TestMonthFigure_FixedAxis(t *testing.T) {
	tests := []struct {
		name   string
		months []models.MonthAggregate
		wantX  []int
	}{
		{name: "sparse months", months: sampleReview().Months, wantX: []int{1, 3}},
		{name: "no months", months: nil, wantX: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fig := MonthFigure(tt.months)

			require.Len(t, fig.Data, 1)
			assert.Equal(t, tt.wantX, fig.Data[0].X)
			assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, fig.Layout.XAxis.TickVals)
			assert.Equal(t, []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}, fig.Layout.XAxis.TickText)
			assert.Equal(t, "Total hours", fig.Layout.YAxis.Title.Text)
		})
	}
}

func TestCategoryFigure(t *testing.T) {
	fig := CategoryFigure(sampleReview().Categories)

	require.Len(t, fig.Data, 1)
	pie := fig.Data[0]
	assert.Equal(t, "pie", pie.Type)
	assert.Equal(t, []string{"TV Shows", "Movies"}, pie.Labels)
	assert.Equal(t, []int{2, 7}, pie.Values)
	assert.Equal(t, 0.5, pie.Hole)
	assert.Equal(t, "label+percent", pie.HoverInfo)
	assert.Equal(t, "value", pie.TextInfo)
	assert.Equal(t, 15, pie.TextFont.Size)
	assert.Equal(t, []string{ColorMain, ColorSecond}, pie.Marker.Colors)
}

func TestGenreFigure(t *testing.T) {
	fig := GenreFigure(sampleReview().Genres)

	require.Len(t, fig.Data, 1)
	assert.Equal(t, "h", fig.Data[0].Orientation)
	assert.Equal(t, []int{2, 5}, fig.Data[0].X)
	assert.Equal(t, []string{"Comedy", "Drama"}, fig.Data[0].Y)
	assert.Equal(t, "Top genres for TV Shows and Movies", fig.Layout.Title.Text)
}

func TestFigure_JSONShape(t *testing.T) {
	b, err := json.Marshal(CategoryFigure(sampleReview().Categories))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Contains(t, decoded, "data")
	assert.Contains(t, decoded, "layout")

	layout := decoded["layout"].(map[string]any)
	assert.Equal(t, ColorBackground, layout["paper_bgcolor"])
	assert.Equal(t, ColorBackground, layout["plot_bgcolor"])
}

func TestShowTable(t *testing.T) {
	rows := ShowTable(sampleReview().TopShows)
	assert.Equal(t, []ShowRow{{Title: "Dark", Hours: "12.5"}, {Title: "Tom & Jerry", Hours: "3"}}, rows)
}

func TestBuild(t *testing.T) {
	doc, err := Build(sampleReview(), Options{})
	require.NoError(t, err)

	page := string(doc.Bytes())
	assert.Equal(t, len(doc.Bytes()), doc.Len())

	assert.Contains(t, page, "<title>Netflix Wrapped</title>")
	assert.Contains(t, page, DefaultPlotlyURL)
	assert.Contains(t, page, "In 2020 you watched the total of")
	assert.Contains(t, page, `id="total-hours">100.12<`)
	assert.Contains(t, page, `id="total-days">4.17<`)
	assert.Contains(t, page, "What did you watch?")
	assert.Contains(t, page, "<th class=\"title\">TV show</th>")
	assert.Contains(t, page, "Tom &amp; Jerry")

	// Fixed section order.
	order := []string{
		"<h1>",
		"total-hours",
		"total-days",
		`id="weekday"`,
		`id="month"`,
		"What did you watch?",
		`id="table"`,
		`id="donut"`,
		`id="genres"`,
	}
	last := -1
	for _, marker := range order {
		idx := strings.Index(page, marker)
		require.NotEqual(t, -1, idx, marker)
		assert.Greater(t, idx, last, marker)
		last = idx
	}

	assert.Contains(t, page, `"hole":0.5`)
	assert.Contains(t, page, `"orientation":"h"`)
}

func TestBuild_EmptyYear(t *testing.T) {
	doc, err := Build(&models.YearInReview{
		Year: 2020,
		Categories: []models.CategoryCount{
			{Label: models.CategoryTVShows},
			{Label: models.CategoryMovies},
		},
	}, Options{Title: "Wrapped"})
	require.NoError(t, err)

	page := string(doc.Bytes())
	assert.Contains(t, page, "<title>Wrapped</title>")
	assert.Contains(t, page, `id="total-hours">0<`)
	assert.Contains(t, page, `id="total-days">0<`)
}

func TestBuild_NilReview(t *testing.T) {
	_, err := Build(nil, Options{})
	assert.Error(t, err)
}

func TestDocument_ServeHTTP(t *testing.T) {
	doc, err := Build(sampleReview(), Options{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	doc.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, doc.Bytes(), rec.Body.Bytes())

	head := httptest.NewRecorder()
	doc.ServeHTTP(head, httptest.NewRequest(http.MethodHead, "/", nil))
	assert.Zero(t, head.Body.Len())
}

func TestRenderTerminal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTerminal(&buf, sampleReview(), ""))

	out := buf.String()
	assert.Contains(t, out, "Netflix Wrapped")
	assert.Contains(t, out, "In 2020 you watched the total of")
	assert.Contains(t, out, "100.12")
	assert.Contains(t, out, "4.17")
	assert.Contains(t, out, "TV show")
	assert.Contains(t, out, "Dark")
	assert.Contains(t, out, "12.5")
	assert.Contains(t, out, "Movies: ")
	assert.Contains(t, out, "Drama")
	assert.Contains(t, out, "Saturday")
}

func TestRenderTerminal_EmptyYear(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTerminal(&buf, &models.YearInReview{Year: 2021}, "Wrapped"))

	out := buf.String()
	assert.Contains(t, out, "In 2021 you watched the total of")
	assert.Contains(t, out, "No data available")
}
