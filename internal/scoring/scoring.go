// Package scoring ranks dataset columns by association strength within
// their type class.
package scoring

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/deva-0608/dataslide/internal/classify"
	"github.com/deva-0608/dataslide/internal/dataset"
	"github.com/deva-0608/dataslide/internal/utils"
)

// FeatureScore is a normalized score in [0,1], comparable only with scores
// of the same class.
type FeatureScore struct {
	Feature  string         `json:"feature"`
	Score    utils.Float    `json:"score"`
	Class    classify.Class `json:"type"`
	Position int            `json:"-"`
}

// Options configures eligibility and list sizes.
type Options struct {
	// MaxCategories excludes categorical columns with this many distinct
	// values or more.
	MaxCategories  int
	TopNumerical   int
	TopCategorical int
	TopDatetime    int
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{MaxCategories: 50, TopNumerical: 2, TopCategorical: 2, TopDatetime: 1}
}

// Result is the ranked output of Score.
type Result struct {
	OverallRank    []FeatureScore `json:"overall_rank"`
	TopNumerical   []FeatureScore `json:"top_numerical_features"`
	TopCategorical []FeatureScore `json:"top_categorical_features"`
	TopDatetime    []FeatureScore `json:"top_datetime_features"`

	// Excluded lists categorical columns left out for high cardinality.
	Excluded []string `json:"-"`
	// SkippedPairs counts categorical pairs whose table was degenerate.
	SkippedPairs int `json:"-"`
}

// Names returns the feature names of a score list.
func Names(scores []FeatureScore) []string {
	out := make([]string, len(scores))
	for i, s := range scores {
		out[i] = s.Feature
	}
	return out
}

// Score computes per-class normalized scores for ds and ranks them. A class
// without enough members produces no scores.
func Score(ds *dataset.Dataset, part classify.Partition, opt Options) Result {
	var res Result
	all := numericalScores(ds, part.Numerical)
	cat, excluded, skipped := categoricalScores(ds, part.Categorical, opt.MaxCategories)
	res.Excluded, res.SkippedPairs = excluded, skipped
	dt := datetimeScores(ds, part.Datetime)

	res.TopNumerical = top(all, opt.TopNumerical)
	res.TopCategorical = top(cat, opt.TopCategorical)
	res.TopDatetime = top(dt, opt.TopDatetime)

	all = append(append(all, cat...), dt...)
	rank(all)
	res.OverallRank = all
	return res
}

// numericalScores scores each column by its largest absolute Pearson
// correlation with another numeric column, over rows where both are present.
func numericalScores(ds *dataset.Dataset, names []string) []FeatureScore {
	cols := lookup(ds, names)
	if len(cols) < 2 {
		return nil
	}
	raw := make([]float64, len(cols))
	for i := range cols {
		for j := i + 1; j < len(cols); j++ {
			r := math.Abs(pearson(cols[i], cols[j]))
			if math.IsNaN(r) || math.IsInf(r, 0) {
				continue
			}
			raw[i] = math.Max(raw[i], r)
			raw[j] = math.Max(raw[j], r)
		}
	}
	return scored(ds, cols, raw, classify.Numerical)
}

func pearson(a, b *dataset.Column) float64 {
	var x, y []float64
	for i := range a.Cells {
		if i >= len(b.Cells) {
			break
		}
		if a.Cells[i].Null || b.Cells[i].Null {
			continue
		}
		x = append(x, a.Cells[i].Num)
		y = append(y, b.Cells[i].Num)
	}
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// categoricalScores scores each eligible column by the strongest chi-square
// association (1 - p) it has with another eligible column.
func categoricalScores(ds *dataset.Dataset, names []string, maxCategories int) ([]FeatureScore, []string, int) {
	if maxCategories <= 0 {
		maxCategories = DefaultOptions().MaxCategories
	}
	var cols []*dataset.Column
	var excluded []string
	for _, c := range lookup(ds, names) {
		if distinct(c) < maxCategories {
			cols = append(cols, c)
		} else {
			excluded = append(excluded, c.Name)
		}
	}
	if len(cols) < 2 {
		return nil, excluded, 0
	}
	raw := make([]float64, len(cols))
	skipped := 0
	for i := range cols {
		for j := i + 1; j < len(cols); j++ {
			_, p, _, err := ChiSquare(Crosstab(cols[i], cols[j]))
			if err != nil {
				skipped++
				continue
			}
			s := 1 - p
			raw[i] = math.Max(raw[i], s)
			raw[j] = math.Max(raw[j], s)
		}
	}
	return scored(ds, cols, raw, classify.Categorical), excluded, skipped
}

func distinct(c *dataset.Column) int {
	seen := map[string]struct{}{}
	for i, cell := range c.Cells {
		if !cell.Null {
			seen[c.Key(i)] = struct{}{}
		}
	}
	return len(seen)
}

// datetimeScores scores each column by the summed sample variance of its
// year, month and day components.
func datetimeScores(ds *dataset.Dataset, names []string) []FeatureScore {
	cols := lookup(ds, names)
	if len(cols) == 0 {
		return nil
	}
	raw := make([]float64, len(cols))
	for i, c := range cols {
		raw[i] = calendarVariance(classify.Times(c))
	}
	return scored(ds, cols, raw, classify.Datetime)
}

func calendarVariance(times []time.Time) float64 {
	if len(times) < 2 {
		return 0
	}
	years := make([]float64, len(times))
	months := make([]float64, len(times))
	days := make([]float64, len(times))
	for i, t := range times {
		years[i] = float64(t.Year())
		months[i] = float64(t.Month())
		days[i] = float64(t.Day())
	}
	return stat.Variance(years, nil) + stat.Variance(months, nil) + stat.Variance(days, nil)
}

func lookup(ds *dataset.Dataset, names []string) []*dataset.Column {
	var out []*dataset.Column
	for _, n := range names {
		if c, ok := ds.Column(n); ok {
			out = append(out, c)
		}
	}
	return out
}

func scored(ds *dataset.Dataset, cols []*dataset.Column, raw []float64, class classify.Class) []FeatureScore {
	norm := Normalize(raw)
	out := make([]FeatureScore, len(cols))
	for i, c := range cols {
		out[i] = FeatureScore{Feature: c.Name, Score: utils.Float(norm[i]), Class: class, Position: ds.Position(c.Name)}
	}
	return out
}

// Normalize min-max scales raw into [0,1]. When every value ties, including
// the single-value case, all results are 0.
func Normalize(raw []float64) []float64 {
	out := make([]float64, len(raw))
	if len(raw) == 0 {
		return out
	}
	lo, hi := raw[0], raw[0]
	for _, v := range raw[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if !(hi > lo) {
		return out
	}
	for i, v := range raw {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}

// rank sorts by score descending, ties by column position.
func rank(scores []FeatureScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Position < scores[j].Position
	})
}

func top(scores []FeatureScore, n int) []FeatureScore {
	cp := append([]FeatureScore{}, scores...)
	rank(cp)
	if n >= 0 && len(cp) > n {
		cp = cp[:n]
	}
	return cp
}
