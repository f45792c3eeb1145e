package insight

import (
	"fmt"
	"math"
	"path"
	"path/filepath"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/deva-0608/dataslide/internal/chart"
	"github.com/deva-0608/dataslide/internal/dataset"
	"github.com/deva-0608/dataslide/internal/profile"
	"github.com/deva-0608/dataslide/internal/scoring"
	"github.com/deva-0608/dataslide/internal/utils"
)

// NumericInsight describes a top-ranked numerical column.
type NumericInsight struct {
	ColumnName    string       `json:"column_name"`
	Mean          *utils.Float `json:"mean"`
	Median        *utils.Float `json:"median"`
	Mode          *utils.Float `json:"mode"`
	Std           *utils.Float `json:"std"`
	Min           *utils.Float `json:"min"`
	Max           *utils.Float `json:"max"`
	Skewness      *utils.Float `json:"skewness"`
	Kurtosis      *utils.Float `json:"kurtosis"`
	MissingValues int          `json:"missing_values"`
	UniqueValues  int          `json:"unique_values"`
	ChartKind     chart.Kind   `json:"chart_kind,omitempty"`
	PlotPath      string       `json:"plot_path"`
}

// CategoricalInsight describes a top-ranked categorical column.
type CategoricalInsight struct {
	ColumnName string `json:"column_name"`
	profile.CategoryDetail
	ChartKind chart.Kind `json:"chart_kind,omitempty"`
	PlotPath  string     `json:"plot_path"`
}

// DatetimeInsight describes a top-ranked datetime column. A column without
// valid dates carries the error marker and an empty plot_path.
type DatetimeInsight struct {
	ColumnName string `json:"column_name"`
	profile.DatetimeStats
	ChartKind chart.Kind `json:"chart_kind,omitempty"`
	PlotPath  string     `json:"plot_path"`
}

// Insights is the insights.json document, columns in rank order.
type Insights struct {
	Numerical   *orderedmap.OrderedMap[string, NumericInsight]     `json:"numerical"`
	Categorical *orderedmap.OrderedMap[string, CategoricalInsight] `json:"categorical"`
	Datetime    *orderedmap.OrderedMap[string, DatetimeInsight]    `json:"datetime"`
}

// NewInsights returns an empty document.
func NewInsights() *Insights {
	return &Insights{
		Numerical:   orderedmap.New[string, NumericInsight](),
		Categorical: orderedmap.New[string, CategoricalInsight](),
		Datetime:    orderedmap.New[string, DatetimeInsight](),
	}
}

// Len returns the number of described columns.
func (in *Insights) Len() int {
	return in.Numerical.Len() + in.Categorical.Len() + in.Datetime.Len()
}

// ColumnBuilder computes column insights and has their charts drawn.
type ColumnBuilder struct {
	Renderer chart.Renderer
	// PlotsDir is where chart files are written.
	PlotsDir string
	// PlotsRef prefixes the plot_path recorded for each chart.
	PlotsRef string
}

// Build describes the top-ranked columns of res. A chart that fails to
// render fails the build.
func (b ColumnBuilder) Build(ds *dataset.Dataset, res scoring.Result) (*Insights, error) {
	out := NewInsights()
	files := plotNamer{}
	for _, fs := range res.TopNumerical {
		col, ok := ds.Column(fs.Feature)
		if !ok {
			continue
		}
		st := profile.DescribeNumeric(col)
		ni := NumericInsight{
			ColumnName: col.Name, Mean: st.Mean, Median: st.Median, Mode: st.Mode, Std: st.Std,
			Min: st.Min, Max: st.Max, Skewness: st.Skewness, Kurtosis: st.Kurtosis,
			MissingValues: st.Missing, UniqueValues: st.Unique,
		}
		if st.Count > 0 {
			skew := math.NaN()
			if st.Skewness != nil {
				skew = float64(*st.Skewness)
			}
			req := chart.NumericRequest(col.Name, col.Numbers(), st.Unique, skew)
			ref, err := b.render(req, files.name(col.Name))
			if err != nil {
				return nil, err
			}
			ni.ChartKind, ni.PlotPath = req.Kind, ref
		}
		out.Numerical.Set(col.Name, ni)
	}
	for _, fs := range res.TopCategorical {
		col, ok := ds.Column(fs.Feature)
		if !ok {
			continue
		}
		ci := CategoricalInsight{ColumnName: col.Name, CategoryDetail: profile.DescribeCategoryDetail(col)}
		if counts := profile.ValueCounts(col); len(counts) > 0 {
			labels := make([]string, len(counts))
			n := make([]int, len(counts))
			for i, c := range counts {
				labels[i], n[i] = c.Value, c.Count
			}
			req := chart.CategoricalRequest(col.Name, labels, n, ci.MaxShare)
			ref, err := b.render(req, files.name(col.Name))
			if err != nil {
				return nil, err
			}
			ci.ChartKind, ci.PlotPath = req.Kind, ref
		}
		out.Categorical.Set(col.Name, ci)
	}
	for _, fs := range res.TopDatetime {
		col, ok := ds.Column(fs.Feature)
		if !ok {
			continue
		}
		di := DatetimeInsight{ColumnName: col.Name, DatetimeStats: profile.DescribeDatetime(col)}
		if di.Error == "" {
			req := chart.DatetimeRequest(col.Name, di.Sorted, *di.TimeSpanDays)
			ref, err := b.render(req, files.name(col.Name))
			if err != nil {
				return nil, err
			}
			di.ChartKind, di.PlotPath = req.Kind, ref
		}
		out.Datetime.Set(col.Name, di)
	}
	return out, nil
}

func (b ColumnBuilder) render(req chart.Request, file string) (string, error) {
	r := b.Renderer
	if r == nil {
		r = chart.Nop{}
	}
	if err := r.Render(req, filepath.Join(b.PlotsDir, file)); err != nil {
		return "", fmt.Errorf("render chart for %s: %w", req.Column, err)
	}
	return path.Join(b.PlotsRef, file), nil
}

// plotNamer maps column names to distinct, filesystem-safe PNG names.
type plotNamer map[string]int

func (n plotNamer) name(column string) string {
	base := SafeFileName(column)
	n[base]++
	if c := n[base]; c > 1 {
		return fmt.Sprintf("%s_%d.png", base, c)
	}
	return base + ".png"
}

// SafeFileName replaces characters that are unsafe in file names.
func SafeFileName(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			b.WriteRune('_')
		case r < 0x20:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "column"
	}
	return out
}
