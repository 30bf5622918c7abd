package dashboard

import (
	"viewing-wrapped/internal/models"
)

// Theme
const (
	ColorMain       = "#E50914"
	ColorSecond     = "#94A3BC"
	ColorText       = "#564d4d"
	ColorThird      = "#C1666B"
	ColorBackground = "white"
	FontFamily      = "Montserrat"
	TitleFontSize   = 15
)

var monthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Figure is a Plotly figure definition drawn client side by plotly.js
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one Plotly trace. Only the attributes the dashboard uses are modelled.
type Trace struct {
	Type        string   `json:"type"`
	Name        string   `json:"name,omitempty"`
	X           any      `json:"x,omitempty"`
	Y           any      `json:"y,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Values      []int    `json:"values,omitempty"`
	Mode        string   `json:"mode,omitempty"`
	Orientation string   `json:"orientation,omitempty"`
	Hole        float64  `json:"hole,omitempty"`
	HoverInfo   string   `json:"hoverinfo,omitempty"`
	TextInfo    string   `json:"textinfo,omitempty"`
	TextFont    *Font    `json:"textfont,omitempty"`
	Marker      *Marker  `json:"marker,omitempty"`
	Line        *Line    `json:"line,omitempty"`
}

// Marker sets the fill colour of a trace, or one colour per slice for pies
type Marker struct {
	Color  string   `json:"color,omitempty"`
	Colors []string `json:"colors,omitempty"`
}

// Line styles the stroke of a scatter trace
type Line struct {
	Color string `json:"color,omitempty"`
}

// Font is a Plotly font description
type Font struct {
	Family string `json:"family,omitempty"`
	Color  string `json:"color,omitempty"`
	Size   int    `json:"size,omitempty"`
}

// Title is a figure, axis or legend title
type Title struct {
	Text string  `json:"text"`
	X    float64 `json:"x,omitempty"`
	Font *Font   `json:"font,omitempty"`
}

// Axis configures tick placement and category ordering of an axis
type Axis struct {
	Title         *Title   `json:"title,omitempty"`
	TickMode      string   `json:"tickmode,omitempty"`
	TickVals      []int    `json:"tickvals,omitempty"`
	TickText      []string `json:"ticktext,omitempty"`
	CategoryOrder string   `json:"categoryorder,omitempty"`
	CategoryArray []string `json:"categoryarray,omitempty"`
}

// Legend positions the legend relative to the plot area
type Legend struct {
	Title   *Title  `json:"title,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	XAnchor string  `json:"xanchor,omitempty"`
	YAnchor string  `json:"yanchor,omitempty"`
}

// Layout is the Plotly layout of a figure
type Layout struct {
	Title        *Title  `json:"title,omitempty"`
	Font         *Font   `json:"font,omitempty"`
	PaperBGColor string  `json:"paper_bgcolor,omitempty"`
	PlotBGColor  string  `json:"plot_bgcolor,omitempty"`
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
	XAxis        *Axis   `json:"xaxis,omitempty"`
	YAxis        *Axis   `json:"yaxis,omitempty"`
	Legend       *Legend `json:"legend,omitempty"`
	BarMode      string  `json:"barmode,omitempty"`
}

func themedLayout(title string, width, height int) Layout {
	layout := Layout{
		Font:         &Font{Family: FontFamily, Color: ColorText},
		PaperBGColor: ColorBackground,
		PlotBGColor:  ColorBackground,
		Width:        width,
		Height:       height,
	}
	if title != "" {
		layout.Title = &Title{Text: title, Font: &Font{Color: ColorText, Size: TitleFontSize}}
	}
	return layout
}

// WeekdayFigure charts the mean minutes per weekday, weekend days in the main colour
func WeekdayFigure(days []models.WeekdayAggregate) Figure {
	weekdayX, weekendX := []string{}, []string{}
	weekdayY, weekendY := []float64{}, []float64{}

	for _, d := range days {
		if d.IsWeekend {
			weekendX = append(weekendX, d.Day.String())
			weekendY = append(weekendY, d.MeanMinutes)
			continue
		}
		weekdayX = append(weekdayX, d.Day.String())
		weekdayY = append(weekdayY, d.MeanMinutes)
	}

	weekdays := Trace{Type: "bar", Name: "no", X: weekdayX, Y: weekdayY, Marker: &Marker{Color: ColorSecond}}
	weekend := Trace{Type: "bar", Name: "yes", X: weekendX, Y: weekendY, Marker: &Marker{Color: ColorMain}}

	layout := themedLayout("Average number of minutes spent per day of week", 450, 350)
	layout.XAxis = &Axis{
		Title:         &Title{Text: "weekDay"},
		CategoryOrder: "array",
		CategoryArray: models.AllWeekdays(),
	}
	layout.YAxis = &Axis{Title: &Title{Text: "Avg. Minutes"}}
	layout.Legend = &Legend{Title: &Title{Text: "isWeekend"}, X: 1.02, Y: 1}
	layout.BarMode = "relative"

	return Figure{Data: []Trace{weekdays, weekend}, Layout: layout}
}

// MonthFigure charts total hours per month with a fixed Jan..Dec axis
func MonthFigure(months []models.MonthAggregate) Figure {
	x := make([]int, 0, len(months))
	y := make([]float64, 0, len(months))
	for _, m := range months {
		x = append(x, int(m.Month))
		y = append(y, m.TotalHours)
	}

	tickVals := make([]int, len(monthLabels))
	for i := range tickVals {
		tickVals[i] = i + 1
	}

	layout := themedLayout("Total number of hours per month", 800, 350)
	layout.Title.X = 0.5
	layout.XAxis = &Axis{
		Title:    &Title{Text: "month"},
		TickMode: "array",
		TickVals: tickVals,
		TickText: monthLabels,
	}
	layout.YAxis = &Axis{Title: &Title{Text: "Total hours"}}

	return Figure{
		Data: []Trace{{
			Type: "scatter",
			Mode: "lines",
			X:    x,
			Y:    y,
			Line: &Line{Color: ColorMain},
		}},
		Layout: layout,
	}
}

// CategoryFigure is the TV shows against movies donut
func CategoryFigure(categories []models.CategoryCount) Figure {
	labels := make([]string, 0, len(categories))
	values := make([]int, 0, len(categories))
	for _, c := range categories {
		labels = append(labels, c.Label)
		values = append(values, c.Count)
	}

	layout := themedLayout("", 450, 450)
	layout.Legend = &Legend{X: 0.35, Y: 1.4, XAnchor: "left", YAnchor: "top"}

	return Figure{
		Data: []Trace{{
			Type:      "pie",
			Labels:    labels,
			Values:    values,
			Hole:      0.5,
			HoverInfo: "label+percent",
			TextInfo:  "value",
			TextFont:  &Font{Size: 15},
			Marker:    &Marker{Colors: []string{ColorMain, ColorSecond}},
		}},
		Layout: layout,
	}
}

// GenreFigure is a horizontal bar of genres in ascending quantity order
func GenreFigure(genres []models.GenreCount) Figure {
	x := make([]int, 0, len(genres))
	y := make([]string, 0, len(genres))
	for _, g := range genres {
		x = append(x, g.Quantity)
		y = append(y, g.Genre)
	}

	layout := themedLayout("Top genres for TV Shows and Movies", 460, 500)
	layout.XAxis = &Axis{Title: &Title{Text: "Quantity"}}
	layout.YAxis = &Axis{Title: &Title{Text: "Genre"}}

	return Figure{
		Data: []Trace{{
			Type:        "bar",
			Orientation: "h",
			X:           x,
			Y:           y,
			Marker:      &Marker{Color: ColorMain},
		}},
		Layout: layout,
	}
}

// ShowRow is one row of the top shows table
type ShowRow struct {
	Title string
	Hours string
}

// ShowTable formats the top shows for display
func ShowTable(shows []models.ShowAggregate) []ShowRow {
	rows := make([]ShowRow, 0, len(shows))
	for _, s := range shows {
		rows = append(rows, ShowRow{Title: s.Title, Hours: formatNumber(s.Hours)})
	}
	return rows
}
