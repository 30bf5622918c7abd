package dashboard

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/guptarohit/asciigraph"

	"viewing-wrapped/internal/models"
)

const barWidth = 30

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorMain))

	headlineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorMain))

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorMain))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorText)).
			MarginTop(1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecond))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorMain)).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorText)).
			Padding(0, 1)
)

// RenderTerminal writes a text rendition of the dashboard to w
func RenderTerminal(w io.Writer, review *models.YearInReview, title string) error {
	if title == "" {
		title = DefaultTitle
	}

	sections := []string{
		titleStyle.Render(title),
		headlineStyle.Render(fmt.Sprintf("In %d you watched the total of ", review.Year)) +
			valueStyle.Render(formatNumber(review.HeadlineHours())) +
			headlineStyle.Render(" hours"),
		headlineStyle.Render("or ") +
			valueStyle.Render(formatNumber(review.HeadlineDays())) +
			headlineStyle.Render(" days"),
		sectionStyle.Render("Average number of minutes spent per day of week"),
		renderWeekdays(review.Weekdays),
		sectionStyle.Render("Total number of hours per month"),
		renderMonths(review.Months),
		sectionStyle.Render("What did you watch?"),
		renderShows(review.TopShows),
		renderCategories(review.Categories),
		sectionStyle.Render("Top genres for TV Shows and Movies"),
		renderGenres(review.Genres),
	}

	_, err := io.WriteString(w, lipgloss.JoinVertical(lipgloss.Left, sections...)+"\n")
	return err
}

func renderWeekdays(days []models.WeekdayAggregate) string {
	if len(days) == 0 {
		return mutedStyle.Render("No data available")
	}

	peak := 0.0
	for _, d := range days {
		peak = max(peak, d.MeanMinutes)
	}

	lines := make([]string, 0, len(days))
	for _, d := range days {
		style := mutedStyle
		if d.IsWeekend {
			style = valueStyle
		}
		lines = append(lines, fmt.Sprintf("%-9s %s %s",
			d.Day.String(),
			style.Render(bar(d.MeanMinutes, peak)),
			formatNumber(models.Round(d.MeanMinutes, 1)),
		))
	}
	return strings.Join(lines, "\n")
}

func renderMonths(months []models.MonthAggregate) string {
	if len(months) == 0 {
		return mutedStyle.Render("No data available")
	}

	series := make([]float64, len(monthLabels))
	for _, m := range months {
		series[m.Month-1] = m.TotalHours
	}

	return asciigraph.Plot(series,
		asciigraph.Height(8),
		asciigraph.Width(48),
		asciigraph.Precision(1),
		asciigraph.SeriesColors(asciigraph.Red),
		asciigraph.Caption(strings.Join(monthLabels, " ")),
	)
}

func renderShows(shows []models.ShowAggregate) string {
	rows := ShowTable(shows)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("TV show", "Hours").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, r := range rows {
		t.Row(r.Title, r.Hours)
	}

	return t.String()
}

func renderCategories(categories []models.CategoryCount) string {
	parts := make([]string, 0, len(categories))
	for _, c := range categories {
		parts = append(parts, fmt.Sprintf("%s: %s", c.Label, valueStyle.Render(fmt.Sprint(c.Count))))
	}
	return strings.Join(parts, "   ")
}

func renderGenres(genres []models.GenreCount) string {
	if len(genres) == 0 {
		return mutedStyle.Render("No data available")
	}

	peak, width := 0, 0
	for _, g := range genres {
		peak = max(peak, g.Quantity)
		width = max(width, len(g.Genre))
	}

	lines := make([]string, 0, len(genres))
	for _, g := range genres {
		lines = append(lines, fmt.Sprintf("%-*s %s %d",
			width,
			g.Genre,
			valueStyle.Render(bar(float64(g.Quantity), float64(peak))),
			g.Quantity,
		))
	}
	return strings.Join(lines, "\n")
}

func bar(value, peak float64) string {
	if peak <= 0 || value <= 0 {
		return ""
	}
	n := int(value / peak * barWidth)
	if n < 1 {
		n = 1
	}
	return strings.Repeat("█", n)
}
