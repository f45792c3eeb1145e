// Package chart selects and draws the per-column charts referenced by
// column insights.
package chart

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// Kind names a chart type.
type Kind string

const (
	Histogram   Kind = "histogram"
	Box         Kind = "box"
	Bar         Kind = "bar"
	Pie         Kind = "pie"
	YearlyTrend Kind = "yearly_trend"
	DailyTrend  Kind = "daily_trend"
)

// HistogramBins is the bin count for numeric histograms.
const HistogramBins = 30

// Request describes one chart. Values feeds histograms and box plots;
// Labels with Counts feed bar, pie and trend charts.
type Request struct {
	Column string
	Kind   Kind
	Title  string
	Values []float64
	Labels []string
	Counts []float64
	Bins   int
}

// Renderer writes the chart described by req as a PNG at path.
type Renderer interface {
	Render(req Request, path string) error
}

// Nop accepts every request without drawing anything.
type Nop struct{}

func (Nop) Render(Request, string) error { return nil }

// NumericKind picks a histogram for wide, roughly symmetric columns, a box
// plot for wide skewed ones, and a bar chart of value counts otherwise.
func NumericKind(unique int, skew float64) Kind {
	switch {
	case unique > 20 && math.Abs(skew) < 2:
		return Histogram
	case unique > 20:
		return Box
	default:
		return Bar
	}
}

// CategoricalKind picks a pie for a few balanced categories and a top-10
// bar chart otherwise. maxShare is the percentage of the leading value.
func CategoricalKind(unique int, maxShare float64) Kind {
	if unique <= 5 && maxShare < 80 {
		return Pie
	}
	return Bar
}

// DatetimeKind picks a yearly trend for spans longer than a year.
func DatetimeKind(spanDays int) Kind {
	if spanDays > 365 {
		return YearlyTrend
	}
	return DailyTrend
}

// NumericRequest builds the chart for a numerical column.
func NumericRequest(column string, values []float64, unique int, skew float64) Request {
	req := Request{Column: column, Kind: NumericKind(unique, skew)}
	switch req.Kind {
	case Histogram:
		req.Title = fmt.Sprintf("Histogram of %s", column)
		req.Values, req.Bins = values, HistogramBins
	case Box:
		req.Title = fmt.Sprintf("Boxplot of %s (Skewed)", column)
		req.Values = values
	default:
		req.Title = fmt.Sprintf("Bar Chart of %s", column)
		labels := make([]string, len(values))
		for i, v := range values {
			labels[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		req.Labels, req.Counts = countLabels(labels)
	}
	return req
}

// CategoricalRequest builds the chart for a categorical column from its
// values ordered by descending frequency.
func CategoricalRequest(column string, labels []string, counts []int, maxShare float64) Request {
	req := Request{Column: column, Kind: CategoricalKind(len(labels), maxShare)}
	n := len(labels)
	if req.Kind == Pie {
		req.Title = fmt.Sprintf("Pie Chart of %s", column)
	} else {
		req.Title = fmt.Sprintf("Bar Chart of %s (Top 10)", column)
		if n > 10 {
			n = 10
		}
	}
	req.Labels = append([]string{}, labels[:n]...)
	req.Counts = make([]float64, n)
	for i := 0; i < n; i++ {
		req.Counts[i] = float64(counts[i])
	}
	return req
}

// DatetimeRequest builds a trend chart from sorted timestamps.
func DatetimeRequest(column string, sorted []time.Time, spanDays int) Request {
	req := Request{Column: column, Kind: DatetimeKind(spanDays)}
	layout := "2006-01-02"
	if req.Kind == YearlyTrend {
		req.Title = fmt.Sprintf("Yearly Trend of %s", column)
		layout = "2006"
	} else {
		req.Title = fmt.Sprintf("Daily Trend of %s", column)
	}
	// sorted input keeps each period contiguous
	for _, t := range sorted {
		key := t.Format(layout)
		if n := len(req.Labels); n > 0 && req.Labels[n-1] == key {
			req.Counts[n-1]++
			continue
		}
		req.Labels = append(req.Labels, key)
		req.Counts = append(req.Counts, 1)
	}
	return req
}

// countLabels returns distinct labels by descending count, ties by first
// appearance.
func countLabels(labels []string) ([]string, []float64) {
	idx := map[string]int{}
	var keys []string
	var counts []float64
	for _, l := range labels {
		if i, ok := idx[l]; ok {
			counts[i]++
			continue
		}
		idx[l] = len(keys)
		keys = append(keys, l)
		counts = append(counts, 1)
	}
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return counts[order[a]] > counts[order[b]] })
	outK := make([]string, len(keys))
	outC := make([]float64, len(keys))
	for i, o := range order {
		outK[i], outC[i] = keys[o], counts[o]
	}
	return outK, outC
}
