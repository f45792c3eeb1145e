package profile

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/deva-0608/dataslide/internal/dataset"
	"github.com/deva-0608/dataslide/internal/utils"
)

const (
	outlierMinValues = 8
	outlierThreshold = 3.5
)

// DescribeNumeric computes the numerical statistics of col. Missing cells
// are excluded from every statistic except Missing.
func DescribeNumeric(col *dataset.Column) NumericStats {
	vals := col.Numbers()
	st := NumericStats{Count: len(vals), Missing: col.Missing()}
	if len(vals) == 0 {
		return st
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	st.Mean = utils.FloatPtr(stat.Mean(vals, nil))
	st.Min = utils.FloatPtr(sorted[0])
	st.Max = utils.FloatPtr(sorted[len(sorted)-1])
	st.Q25 = utils.FloatPtr(quantile(sorted, 0.25))
	st.Median = utils.FloatPtr(quantile(sorted, 0.5))
	st.Q75 = utils.FloatPtr(quantile(sorted, 0.75))
	mode, unique := modeAndUnique(sorted)
	st.Mode = utils.FloatPtr(mode)
	st.Unique = unique
	if len(vals) >= 2 {
		st.Std = utils.FloatPtr(stat.StdDev(vals, nil))
	}
	// A constant column has no spread; its moments are reported as 0.
	constant := sorted[0] == sorted[len(sorted)-1]
	if len(vals) >= 3 {
		skew := 0.0
		if !constant {
			skew = stat.Skew(vals, nil)
		}
		st.Skewness = utils.FloatPtr(skew)
	}
	if len(vals) >= 4 {
		kurt := 0.0
		if !constant {
			kurt = stat.ExKurtosis(vals, nil)
		}
		st.Kurtosis = utils.FloatPtr(kurt)
	}
	st.Outliers = countOutliers(vals)
	return st
}

// modeAndUnique walks sorted values once. The mode is the smallest of the
// most frequent values.
func modeAndUnique(sorted []float64) (float64, int) {
	mode, best := sorted[0], 0
	unique := 0
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		unique++
		if j-i > best {
			mode, best = sorted[i], j-i
		}
		i = j
	}
	return mode, unique
}

// countOutliers counts values with a robust z-score (MAD based) above the
// threshold. Short or constant series have no outliers.
func countOutliers(vals []float64) int {
	if len(vals) < outlierMinValues {
		return 0
	}
	median, mad := medianMAD(vals)
	if mad == 0 {
		return 0
	}
	n := 0
	for _, v := range vals {
		if math.Abs(0.6745*(v-median)/mad) > outlierThreshold {
			n++
		}
	}
	return n
}

func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

// quantile interpolates linearly between closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
