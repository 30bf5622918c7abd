package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"sync"

	"github.com/goccy/go-json"

	"viewing-wrapped/internal/models"
)

// Defaults for Options
const (
	DefaultTitle     = "Netflix Wrapped"
	DefaultPlotlyURL = "https://cdn.plot.ly/plotly-2.35.2.min.js"
)

// Options configures the rendered page
type Options struct {
	Title     string
	PlotlyURL string
}

// Document is a rendered dashboard page. It is immutable once built.
type Document struct {
	body []byte
}

// Bytes returns the rendered page
func (d *Document) Bytes() []byte {
	return d.body
}

// Len returns the size of the rendered page in bytes
func (d *Document) Len() int {
	return len(d.body)
}

// ServeHTTP writes the rendered page
func (d *Document) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(d.body)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(d.body)
	}
}

type pageData struct {
	Title     string
	PlotlyURL string
	Year      int
	Hours     string
	Days      string
	Shows     []ShowRow
	Charts    []chart
	Bottom    []chart
}

type chart struct {
	ID     string
	Figure Figure
}

var (
	pageTmplOnce sync.Once
	pageTmpl     *template.Template
	pageTmplErr  error
)

func loadTemplate() (*template.Template, error) {
	pageTmplOnce.Do(func() {
		pageTmpl, pageTmplErr = template.New("dashboard").Funcs(template.FuncMap{
			"json": func(v any) (template.JS, error) {
				b, err := json.Marshal(v)
				if err != nil {
					return "", err
				}
				return template.JS(b), nil
			},
		}).Parse(pageTemplate)
	})
	return pageTmpl, pageTmplErr
}

// Build renders the year in review into a page
func Build(review *models.YearInReview, opts Options) (*Document, error) {
	if review == nil {
		return nil, fmt.Errorf("build dashboard: nil review")
	}
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.PlotlyURL == "" {
		opts.PlotlyURL = DefaultPlotlyURL
	}

	tmpl, err := loadTemplate()
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}

	data := pageData{
		Title:     opts.Title,
		PlotlyURL: opts.PlotlyURL,
		Year:      review.Year,
		Hours:     formatNumber(review.HeadlineHours()),
		Days:      formatNumber(review.HeadlineDays()),
		Shows:     ShowTable(review.TopShows),
		Charts: []chart{
			{ID: "weekday", Figure: WeekdayFigure(review.Weekdays)},
			{ID: "month", Figure: MonthFigure(review.Months)},
		},
		Bottom: []chart{
			{ID: "donut", Figure: CategoryFigure(review.Categories)},
			{ID: "genres", Figure: GenreFigure(review.Genres)},
		},
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute dashboard template: %w", err)
	}

	return &Document{body: buf.Bytes()}, nil
}

// formatNumber prints the shortest decimal form, so 1.50 reads as 1.5
func formatNumber(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <link rel="stylesheet" href="https://fonts.googleapis.com/css?family=Montserrat:400,600">
    <script src="{{.PlotlyURL}}"></script>
    <style>
        body { background: white; font-family: Montserrat, sans-serif; margin: 0; }
        h1 { text-align: center; color: #E50914; font-weight: 600; }
        .headline { display: table; margin: auto; color: #E50914; font-size: 20px; }
        .headline.first { padding-top: 30px; }
        .headline div { display: table-cell; padding-right: 10px; vertical-align: middle; }
        .headline .value { font-size: 40px; font-weight: 600; }
        .row { display: table; }
        .row > div { display: table-cell; vertical-align: top; }
        .section { text-align: center; color: #E50914; font-size: 20px; }
        table.shows { border-collapse: collapse; margin: 70px 0 0 50px; color: #564d4d; }
        table.shows th { color: #E50914; font-weight: 600; background: white; }
        table.shows th, table.shows td { text-align: center; border: 1px solid white; padding: 4px 8px; }
        table.shows .title { width: 230px; }
        table.shows .hours { width: 100px; }
    </style>
</head>
<body>
    <h1>{{.Title}}</h1>
    <div class="headline first">
        <div>In {{.Year}} you watched the total of</div>
        <div class="value" id="total-hours">{{.Hours}}</div>
        <div>hours</div>
    </div>
    <div class="headline">
        <div>or</div>
        <div class="value" id="total-days">{{.Days}}</div>
        <div>days</div>
    </div>
    <div class="row" style="width: 1209px">
        {{- range .Charts}}
        <div id="{{.ID}}"></div>
        {{- end}}
    </div>
    <div class="section">What did you watch?</div>
    <div class="row">
        <div>
            <table class="shows" id="table">
                <thead><tr><th class="title">TV show</th><th class="hours">Hours</th></tr></thead>
                <tbody>
                {{- range .Shows}}
                    <tr><td>{{.Title}}</td><td>{{.Hours}}</td></tr>
                {{- end}}
                </tbody>
            </table>
        </div>
        {{- range .Bottom}}
        <div id="{{.ID}}"></div>
        {{- end}}
    </div>
    <script>
        {{- range .Charts}}
        Plotly.newPlot({{.ID}}, {{json .Figure}});
        {{- end}}
        {{- range .Bottom}}
        Plotly.newPlot({{.ID}}, {{json .Figure}});
        {{- end}}
    </script>
</body>
</html>
`
