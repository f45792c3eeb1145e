// Package profile computes descriptive statistics and data-quality metrics
// for a classified dataset.
package profile

import (
	"sort"

	"github.com/deva-0608/dataslide/internal/classify"
	"github.com/deva-0608/dataslide/internal/utils"
)

// Report is the complete profile of one dataset. It is built once by
// Analyze and never modified afterwards.
type Report struct {
	BasicInfo           BasicInfo                `json:"basic_info"`
	DataTypes           classify.Partition       `json:"data_types"`
	MissingValues       MissingSummary           `json:"missing_values"`
	NumericalSummary    map[string]NumericStats  `json:"numerical_summary"`
	CategoricalInsights map[string]CategoryStats `json:"categorical_insights"`
	DataQuality         Quality                  `json:"data_quality"`
}

// BasicInfo describes the shape of the dataset.
type BasicInfo struct {
	TotalRows    int      `json:"total_rows"`
	TotalColumns int      `json:"total_columns"`
	FileName     string   `json:"file_name"`
	Columns      []string `json:"columns"`
}

// MissingSummary lists missing cells. Only columns with at least one
// missing value appear in the maps.
type MissingSummary struct {
	TotalMissing       int                    `json:"total_missing"`
	ColumnsWithMissing map[string]int         `json:"columns_with_missing"`
	MissingPercentages map[string]utils.Float `json:"missing_percentages"`
}

// MostMissing returns up to n columns with the most missing values,
// largest first, ties in column order.
func (m MissingSummary) MostMissing(columns []string, n int) []string {
	var out []string
	for _, c := range columns {
		if m.ColumnsWithMissing[c] > 0 {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return m.ColumnsWithMissing[out[i]] > m.ColumnsWithMissing[out[j]]
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Quality holds dataset-wide quality metrics.
type Quality struct {
	DuplicateRows int `json:"duplicate_rows"`
	// CompletenessScore is the percentage of non-missing cells, 100 for an
	// empty dataset.
	CompletenessScore utils.Float `json:"completeness_score"`
}

// NumericStats summarizes a numerical column. Statistics that need more
// observations than are available are nil.
type NumericStats struct {
	Count    int          `json:"count"`
	Mean     *utils.Float `json:"mean"`
	Std      *utils.Float `json:"std"`
	Min      *utils.Float `json:"min"`
	Q25      *utils.Float `json:"25%"`
	Median   *utils.Float `json:"50%"`
	Q75      *utils.Float `json:"75%"`
	Max      *utils.Float `json:"max"`
	Mode     *utils.Float `json:"mode"`
	Skewness *utils.Float `json:"skewness"`
	Kurtosis *utils.Float `json:"kurtosis"`
	Missing  int          `json:"missing_values"`
	Unique   int          `json:"unique_values"`
	// Outliers counts values whose robust z-score exceeds 3.5.
	Outliers int `json:"outliers"`
}

// ValueCount is a categorical value and its frequency.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CategoryStats summarizes a categorical column.
type CategoryStats struct {
	UniqueValues     int          `json:"unique_values"`
	MostCommonValues []ValueCount `json:"most_common_values"`
}
