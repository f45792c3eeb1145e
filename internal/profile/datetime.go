package profile

import (
	"sort"
	"time"

	"github.com/deva-0608/dataslide/internal/classify"
	"github.com/deva-0608/dataslide/internal/dataset"
	"github.com/deva-0608/dataslide/internal/utils"
)

// ErrNoValidDates is the marker reported for a datetime column without a
// single parseable value.
const ErrNoValidDates = "No valid dates"

const dateLayout = "2006-01-02"

// DatetimeStats summarizes a datetime column. When no value parses, only
// MissingValues and Error are set.
type DatetimeStats struct {
	MissingValues    int          `json:"missing_values"`
	Error            string       `json:"error,omitempty"`
	MinDate          string       `json:"min_date,omitempty"`
	MaxDate          string       `json:"max_date,omitempty"`
	TimeSpanDays     *int         `json:"time_span_days,omitempty"`
	MostFrequentDate string       `json:"most_frequent_date,omitempty"`
	RepeatedDates    *int         `json:"repeated_dates,omitempty"`
	AvgGapDays       *utils.Float `json:"avg_gap_days,omitempty"`
	MedianGapDays    *utils.Float `json:"median_gap_days,omitempty"`

	// Sorted holds the parsed timestamps in ascending order.
	Sorted []time.Time `json:"-"`
}

// DescribeDatetime computes the datetime summary of col. Text values that
// do not parse count as missing.
func DescribeDatetime(col *dataset.Column) DatetimeStats {
	times := classify.Times(col)
	st := DatetimeStats{MissingValues: len(col.Cells) - len(times)}
	if len(times) == 0 {
		st.Error = ErrNoValidDates
		return st
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	st.Sorted = times
	first, last := times[0], times[len(times)-1]
	st.MinDate = first.Format(dateLayout)
	st.MaxDate = last.Format(dateLayout)
	span := wholeDays(last.Sub(first))
	st.TimeSpanDays = &span

	// Sorted input keeps equal timestamps adjacent; the earliest of the
	// most frequent instants wins.
	var mode time.Time
	best, repeated := 0, 0
	for i := 0; i < len(times); {
		j := i
		for j < len(times) && times[j].Equal(times[i]) {
			j++
		}
		if j-i > 1 {
			repeated++
		}
		if j-i > best {
			mode, best = times[i], j-i
		}
		i = j
	}
	st.MostFrequentDate = mode.Format(dateLayout)
	st.RepeatedDates = &repeated

	if len(times) > 1 {
		gaps := make([]float64, len(times)-1)
		sum := 0.0
		for i := 1; i < len(times); i++ {
			gaps[i-1] = float64(wholeDays(times[i].Sub(times[i-1])))
			sum += gaps[i-1]
		}
		st.AvgGapDays = utils.FloatPtr(sum / float64(len(gaps)))
		sort.Float64s(gaps)
		st.MedianGapDays = utils.FloatPtr(quantile(gaps, 0.5))
	}
	return st
}

// wholeDays truncates a non-negative duration to whole days.
func wholeDays(d time.Duration) int {
	return int(d / (24 * time.Hour))
}
