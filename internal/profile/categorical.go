package profile

import (
	"math"
	"sort"

	"github.com/deva-0608/dataslide/internal/dataset"
	"github.com/deva-0608/dataslide/internal/utils"
)

// ValueCounts returns the distinct non-null values of col with their
// frequencies, most frequent first. Ties keep first-appearance order.
func ValueCounts(col *dataset.Column) []ValueCount {
	idx := map[string]int{}
	var out []ValueCount
	for _, v := range col.Strings() {
		if i, ok := idx[v]; ok {
			out[i].Count++
			continue
		}
		idx[v] = len(out)
		out = append(out, ValueCount{Value: v, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// DescribeCategory returns the unique count and top-3 values of col.
func DescribeCategory(col *dataset.Column) CategoryStats {
	counts := ValueCounts(col)
	top := counts
	if len(top) > 3 {
		top = top[:3]
	}
	return CategoryStats{UniqueValues: len(counts), MostCommonValues: append([]ValueCount{}, top...)}
}

// CategoryDetail is the extended summary of a categorical column used for
// per-column insights.
type CategoryDetail struct {
	UniqueValues       int            `json:"unique_values"`
	MostFrequent       *string        `json:"most_frequent"`
	MostFrequentCount  *int           `json:"most_frequent_count"`
	LeastFrequent      *string        `json:"least_frequent"`
	LeastFrequentCount *int           `json:"least_frequent_count"`
	MissingValues      int            `json:"missing_values"`
	Entropy            *utils.Float   `json:"entropy"`
	ValueDistribution  map[string]int `json:"value_distribution,omitempty"`
	// MaxShare is the percentage held by the most frequent value.
	MaxShare float64 `json:"-"`
}

// DescribeCategoryDetail computes the extended categorical summary. The
// value distribution is included when there are fewer than 10 values.
func DescribeCategoryDetail(col *dataset.Column) CategoryDetail {
	counts := ValueCounts(col)
	d := CategoryDetail{UniqueValues: len(counts), MissingValues: col.Missing()}
	if len(counts) == 0 {
		return d
	}
	most, least := counts[0], counts[0]
	total := 0
	for _, c := range counts {
		total += c.Count
		// first minimum in frequency order
		if c.Count < least.Count {
			least = c
		}
	}
	d.MostFrequent, d.MostFrequentCount = &most.Value, &most.Count
	d.LeastFrequent, d.LeastFrequentCount = &least.Value, &least.Count
	h := 0.0
	for _, c := range counts {
		p := float64(c.Count) / float64(total)
		h -= p * math.Log(p)
	}
	d.Entropy = utils.FloatPtr(h)
	d.MaxShare = float64(most.Count) / float64(total) * 100
	if len(counts) < 10 {
		d.ValueDistribution = make(map[string]int, len(counts))
		for _, c := range counts {
			d.ValueDistribution[c.Value] = c.Count
		}
	}
	return d
}
