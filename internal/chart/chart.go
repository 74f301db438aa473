// Package chart renders PNG bar charts for document exports.
package chart

import (
	"bytes"
	"fmt"
	"math"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/sadopc/babylog/internal/export"
	"github.com/sadopc/babylog/internal/stats"
	"github.com/sadopc/babylog/internal/store"
)

const (
	width    = 1024
	height   = 400
	maxBars  = 31
	barWidth = 24
)

var barColor = drawing.ColorFromHex("7C3AED")

// Bar is one labelled value.
type Bar struct {
	Label string
	Value float64
}

// Series is the input for one chart.
type Series struct {
	Title string
	Bars  []Bar
}

// Empty reports whether the series has nothing worth drawing.
func (s Series) Empty() bool {
	for _, b := range s.Bars {
		if b.Value != 0 {
			return false
		}
	}
	return true
}

// Render draws s as a PNG. The y axis always starts at zero.
func Render(s Series) ([]byte, error) {
	if len(s.Bars) == 0 {
		return nil, fmt.Errorf("render %q: no bars", s.Title)
	}

	top := 0.0
	values := make([]gochart.Value, 0, len(s.Bars))
	for _, b := range s.Bars {
		top = math.Max(top, b.Value)
		values = append(values, gochart.Value{
			Label: b.Label,
			Value: b.Value,
			Style: gochart.Style{FillColor: barColor, StrokeColor: barColor, StrokeWidth: 1},
		})
	}
	if top == 0 {
		top = 1
	}

	bw := barWidth
	if n := len(values); n*bw*2 > width {
		bw = max(width/(n*2), 4)
	}

	bc := gochart.BarChart{
		Title:    s.Title,
		Width:    width,
		Height:   height,
		BarWidth: bw,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: values,
	}

	var buf bytes.Buffer
	if err := bc.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %q: %w", s.Title, err)
	}
	return buf.Bytes(), nil
}

// daily turns a per-day series into bars, folding long windows into weeks so
// the labels stay readable.
func daily(title string, days []stats.DayValue) Series {
	s := Series{Title: title}
	if len(days) <= maxBars {
		for _, d := range days {
			s.Bars = append(s.Bars, Bar{Label: d.Day.Format("01-02"), Value: d.Value})
		}
		return s
	}
	for i := 0; i < len(days); i += 7 {
		b := Bar{Label: days[i].Day.Format("01-02")}
		for _, d := range days[i:min(i+7, len(days))] {
			b.Value += d.Value
		}
		s.Bars = append(s.Bars, b)
	}
	return s
}

// Titles names the charts built by ForExport.
type Titles struct {
	Feeding      string
	Sleep        string
	Distribution string
}

var DefaultTitles = Titles{
	Feeding:      "Feeding amount per day (ml)",
	Sleep:        "Sleep per day (hours)",
	Distribution: "Records by category",
}

// Build assembles the chart series for data over [from, to]. Series without
// any non-zero value are left out.
func Build(data export.Data, from, to time.Time, loc *time.Location, titles Titles) []Series {
	feeding := stats.Daily(data.Feedings,
		func(r store.FeedingRecord) time.Time { return r.StartTime },
		func(r store.FeedingRecord) float64 {
			if r.Amount == nil {
				return 0
			}
			return float64(*r.Amount)
		}, from, to, loc)

	sleep := stats.Daily(data.Sleeps,
		func(r store.SleepRecord) time.Time { return r.StartTime },
		func(r store.SleepRecord) float64 { return r.Duration().Hours() },
		from, to, loc)

	dist := Series{Title: titles.Distribution}
	for _, c := range store.Categories {
		dist.Bars = append(dist.Bars, Bar{Label: string(c), Value: float64(data.Count(c))})
	}

	var out []Series
	for _, s := range []Series{daily(titles.Feeding, feeding), daily(titles.Sleep, sleep), dist} {
		if !s.Empty() {
			out = append(out, s)
		}
	}
	return out
}

// ForExport renders the default charts for a PDF export. Titles are drawn
// into the images.
func ForExport(data export.Data, from, to time.Time, loc *time.Location) ([]export.Chart, error) {
	var charts []export.Chart
	for _, s := range Build(data, from, to, loc, DefaultTitles) {
		png, err := Render(s)
		if err != nil {
			return nil, err
		}
		charts = append(charts, export.Chart{PNG: png})
	}
	return charts, nil
}
