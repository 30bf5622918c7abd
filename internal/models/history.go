package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Content tags a watch event as either an Episode of a series or a Movie.
// The interface is sealed so every event is exactly one of the two.
type Content interface {
	isContent()
}

// Episode is a TV episode belonging to a series
type Episode struct {
	SeriesTitle string
}

// Movie is a standalone title with no series
type Movie struct{}

func (Episode) isContent() {}
func (Movie) isContent()   {}

// SeriesTitle returns the series title and true for episodes, "" and false for movies
func SeriesTitle(c Content) (string, bool) {
	if ep, ok := c.(Episode); ok {
		return ep.SeriesTitle, true
	}
	return "", false
}

// WatchEvent represents one row of the viewing history
type WatchEvent struct {
	WatchedAt       time.Time
	DurationSeconds float64
	Title           string
	Content         Content
}

// IsMovie reports whether the event has no series title
func (e WatchEvent) IsMovie() bool {
	_, ok := e.Content.(Movie)
	return ok
}

// YearPartition describes the watch events falling in one calendar year
type YearPartition struct {
	Year         int
	Start        time.Time
	End          time.Time
	EventCount   int
	TotalSeconds float64
}

// NewYearPartition returns the half-open UTC range [Jan 1 year, Jan 1 year+1)
func NewYearPartition(year int) YearPartition {
	return YearPartition{
		Year:  year,
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Contains reports whether t falls inside the partition
func (p YearPartition) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Weekday indexes days Monday=0 through Sunday=6
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayOf converts a time to its Monday-first weekday index
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return "Weekday(" + strconv.Itoa(int(d)) + ")"
	}
	return weekdayNames[d]
}

// IsWeekend reports Saturday and Sunday
func (d Weekday) IsWeekend() bool {
	return d == Saturday || d == Sunday
}

// AllWeekdays lists the weekday names Monday first
func AllWeekdays() []string {
	return weekdayNames[:]
}

// WeekdayAggregate is the mean watch time for one day of the week
type WeekdayAggregate struct {
	Day         Weekday `json:"weekday"`
	MeanMinutes float64 `json:"mean_minutes"`
	IsWeekend   bool    `json:"is_weekend"`
}

// WeekendLabel returns the "yes"/"no" tag used to colour the weekday chart
func (w WeekdayAggregate) WeekendLabel() string {
	if w.IsWeekend {
		return "yes"
	}
	return "no"
}

// MonthAggregate is the total watch time in one month
type MonthAggregate struct {
	Month      time.Month `json:"month"`
	TotalHours float64    `json:"total_hours"`
}

// ShowAggregate is the total watch time of one series
type ShowAggregate struct {
	Title string  `json:"title" db:"title"`
	Hours float64 `json:"hours" db:"hours"`
}

// Category labels
const (
	CategoryTVShows = "TV Shows"
	CategoryMovies  = "Movies"
)

// CategoryCount counts TV shows or movies
type CategoryCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// GenreCount is one entry of the genre document
type GenreCount struct {
	Genre    string `json:"genre"`
	Quantity int    `json:"quantity"`
}

// YearInReview holds every table the dashboard displays
type YearInReview struct {
	Year       int                `json:"year"`
	EventCount int                `json:"event_count"`
	TotalHours float64            `json:"total_hours"`
	Weekdays   []WeekdayAggregate `json:"weekdays"`
	Months     []MonthAggregate   `json:"months"`
	TopShows   []ShowAggregate    `json:"top_shows"`
	Categories []CategoryCount    `json:"categories"`
	Genres     []GenreCount       `json:"genres"`
}

// HeadlineHours is the total hours rounded to 2 decimals for display
func (y *YearInReview) HeadlineHours() float64 {
	return Round(y.TotalHours, 2)
}

// HeadlineDays approximates the total as 24-hour days, rounded to 2 decimals
func (y *YearInReview) HeadlineDays() float64 {
	return Round(y.TotalHours/24, 2)
}

// Round rounds x half away from zero to the given number of decimals
func Round(x float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(x*p) / p
}

// RawHistoryRecord represents a single row of the viewing history CSV
// Used during ingestion process
type RawHistoryRecord struct {
	Date        string
	Duration    string
	SeriesTitle string
	Title       string
}

// DefaultDateLayouts are tried in order when parsing the date column
var DefaultDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"1/2/06",
}

// ToEvent converts RawHistoryRecord to WatchEvent
// Dates without a zone are read as UTC; all dates are normalised to UTC
func (r *RawHistoryRecord) ToEvent(layouts []string) (*WatchEvent, error) {
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}

	watchedAt, err := parseDate(strings.TrimSpace(r.Date), layouts)
	if err != nil {
		return nil, &ValidationError{
			Field:   "date",
			Value:   r.Date,
			Message: "unrecognised date format",
		}
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(r.Duration), 64)
	if err != nil || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil, &ValidationError{
			Field:   "duration",
			Value:   r.Duration,
			Message: "duration must be a number of seconds",
		}
	}

	if duration < 0 {
		return nil, &ValidationError{
			Field:   "duration",
			Value:   r.Duration,
			Message: "duration must not be negative",
		}
	}

	event := &WatchEvent{
		WatchedAt:       watchedAt,
		DurationSeconds: duration,
		Title:           strings.TrimSpace(r.Title),
		Content:         Movie{},
	}

	if series := strings.TrimSpace(r.SeriesTitle); series != "" {
		event.Content = Episode{SeriesTitle: series}
	}

	return event, nil
}

func parseDate(value string, layouts []string) (time.Time, error) {
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
