package profile

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deva-0608/dataslide/internal/classify"
	"github.com/deva-0608/dataslide/internal/dataset"
)

func readCSV(t *testing.T, rows ...string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.ReadCSV(strings.NewReader(strings.Join(rows, "\n")), "sample.csv", dataset.DefaultOptions())
	require.NoError(t, err)
	return ds
}

func analyze(t *testing.T, ds *dataset.Dataset) *Report {
	t.Helper()
	return Analyze(ds, classify.Classify(ds, classify.DefaultOptions()))
}

func TestAnalyzeMixedDataset(t *testing.T) {
	ds := readCSV(t,
		"amount,region,signup_date",
		"10,north,2024-01-01",
		"20,south,2024-01-15",
		"30,west,2024-02-01",
		"40,north,2024-03-10",
		"50,south,2024-04-22",
	)
	rep := analyze(t, ds)
	assert.Equal(t, 5, rep.BasicInfo.TotalRows)
	assert.Equal(t, 3, rep.BasicInfo.TotalColumns)
	assert.Equal(t, "sample.csv", rep.BasicInfo.FileName)
	assert.Equal(t, 100.0, float64(rep.DataQuality.CompletenessScore))
	assert.Zero(t, rep.MissingValues.TotalMissing)
	assert.Empty(t, rep.MissingValues.ColumnsWithMissing)

	region := rep.CategoricalInsights["region"]
	assert.Equal(t, 3, region.UniqueValues)
	assert.Equal(t, []ValueCount{{"north", 2}, {"south", 2}, {"west", 1}}, region.MostCommonValues)
	_, ok := rep.NumericalSummary["amount"]
	assert.True(t, ok)
}

func TestAnalyzeAllNullNumericColumn(t *testing.T) {
	ds := readCSV(t, "score,label", ",a", ",b", ",c")
	rep := analyze(t, ds)
	require.Equal(t, []string{"score"}, rep.DataTypes.Numerical)
	st := rep.NumericalSummary["score"]
	assert.Equal(t, 3, st.Missing)
	assert.Equal(t, 0, st.Count)
	assert.Equal(t, 0, st.Unique)
	for name, v := range map[string]any{
		"mean": st.Mean, "std": st.Std, "min": st.Min, "max": st.Max, "median": st.Median,
		"mode": st.Mode, "skewness": st.Skewness, "kurtosis": st.Kurtosis,
	} {
		assert.Nil(t, v, name)
	}
	assert.InDelta(t, 50.0, float64(rep.DataQuality.CompletenessScore), 1e-9)
	assert.Equal(t, 100.0, float64(rep.MissingValues.MissingPercentages["score"]))
}

func TestDescribeNumeric(t *testing.T) {
	ds := readCSV(t, "v", "4", "1", "3", "2")
	st := DescribeNumeric(&ds.Columns[0])
	assert.Equal(t, 4, st.Count)
	assert.Equal(t, 2.5, float64(*st.Mean))
	assert.Equal(t, 2.5, float64(*st.Median))
	assert.Equal(t, 1.75, float64(*st.Q25))
	assert.Equal(t, 3.25, float64(*st.Q75))
	assert.InDelta(t, 1.2909944487358056, float64(*st.Std), 1e-12)
	assert.InDelta(t, 0, float64(*st.Skewness), 1e-12)
	assert.InDelta(t, -1.2, float64(*st.Kurtosis), 1e-9)
	assert.Equal(t, 1.0, float64(*st.Mode))
	assert.Equal(t, 4, st.Unique)
}

func TestDescribeNumericSmallSamples(t *testing.T) {
	ds := readCSV(t, "v", "7")
	st := DescribeNumeric(&ds.Columns[0])
	require.NotNil(t, st.Mean)
	assert.Nil(t, st.Std)
	assert.Nil(t, st.Skewness)
	assert.Nil(t, st.Kurtosis)

	ds = readCSV(t, "v", "5", "5", "5")
	st = DescribeNumeric(&ds.Columns[0])
	require.NotNil(t, st.Skewness)
	assert.Equal(t, 0.0, float64(*st.Skewness))
	b, err := json.Marshal(st)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"skewness":0,`)
	assert.Contains(t, string(b), `"kurtosis":null`)
}

func TestDescribeNumericConstantColumn(t *testing.T) {
	ds := readCSV(t, "v", "7", "7", "7", "7", "7", "7")
	st := DescribeNumeric(&ds.Columns[0])
	require.NotNil(t, st.Std)
	assert.Equal(t, 0.0, float64(*st.Std))
	require.NotNil(t, st.Skewness)
	require.NotNil(t, st.Kurtosis)
	assert.Equal(t, 0.0, float64(*st.Skewness))
	assert.Equal(t, 0.0, float64(*st.Kurtosis))

	b, err := json.Marshal(st)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "NaN")
}

func TestModeIsSmallestModalValue(t *testing.T) {
	ds := readCSV(t, "v", "3", "1", "3", "1", "2")
	st := DescribeNumeric(&ds.Columns[0])
	assert.Equal(t, 1.0, float64(*st.Mode))
	assert.Equal(t, 3, st.Unique)
}

func TestOutliers(t *testing.T) {
	ds := readCSV(t, "v", "10", "11", "12", "13", "14", "15", "16", "17", "100")
	assert.Equal(t, 1, DescribeNumeric(&ds.Columns[0]).Outliers)
}

func TestDuplicateRowsTreatNullsAsEqual(t *testing.T) {
	ds := readCSV(t, "a,b", "1,x", "1,x", "2,", "2,", "3,y")
	rep := analyze(t, ds)
	assert.Equal(t, 2, rep.DataQuality.DuplicateRows)
}

func TestCompletenessBounds(t *testing.T) {
	assert.Equal(t, 100.0, completeness(0, 0))
	assert.Equal(t, 100.0, completeness(10, 0))
	assert.Equal(t, 0.0, completeness(10, 10))
	assert.Equal(t, 75.0, completeness(8, 2))
}

func TestMostMissing(t *testing.T) {
	ds := readCSV(t, "a,b,c,d", ",,,1", ",x,,2", "1,,,3")
	rep := analyze(t, ds)
	got := rep.MissingValues.MostMissing(rep.BasicInfo.Columns, 2)
	assert.Equal(t, []string{"c", "a"}, got)
}

func TestDescribeCategoryDetail(t *testing.T) {
	ds := readCSV(t, "color", "red", "blue", "red", "green", "blue", "", "teal")
	d := DescribeCategoryDetail(&ds.Columns[0])
	assert.Equal(t, 4, d.UniqueValues)
	assert.Equal(t, 1, d.MissingValues)
	assert.Equal(t, "red", *d.MostFrequent)
	assert.Equal(t, 2, *d.MostFrequentCount)
	assert.Equal(t, "green", *d.LeastFrequent)
	assert.Equal(t, 1, *d.LeastFrequentCount)
	want := -(2*(2.0/6)*math.Log(2.0/6) + 2*(1.0/6)*math.Log(1.0/6))
	assert.InDelta(t, want, float64(*d.Entropy), 1e-12)
	assert.Equal(t, map[string]int{"red": 2, "blue": 2, "green": 1, "teal": 1}, d.ValueDistribution)
	assert.InDelta(t, 100.0/3, d.MaxShare, 1e-9)
}

func TestDescribeCategoryDetailOmitsWideDistribution(t *testing.T) {
	rows := []string{"id"}
	for _, r := range "abcdefghijkl" {
		rows = append(rows, string(r))
	}
	d := DescribeCategoryDetail(&readCSV(t, rows...).Columns[0])
	assert.Equal(t, 12, d.UniqueValues)
	assert.Nil(t, d.ValueDistribution)
}

func TestDescribeDatetime(t *testing.T) {
	ds := readCSV(t, "when", "2024-01-10", "2024-01-03", "bad", "2024-01-01", "", "2024-01-03")
	st := DescribeDatetime(&ds.Columns[0])
	assert.Empty(t, st.Error)
	assert.Equal(t, 2, st.MissingValues)
	assert.Equal(t, "2024-01-01", st.MinDate)
	assert.Equal(t, "2024-01-10", st.MaxDate)
	assert.Equal(t, 9, *st.TimeSpanDays)
	assert.Equal(t, "2024-01-03", st.MostFrequentDate)
	assert.Equal(t, 1, *st.RepeatedDates)
	assert.Equal(t, 3.0, float64(*st.AvgGapDays))
	assert.Equal(t, 2.0, float64(*st.MedianGapDays))
}

func TestDescribeDatetimeNoValidDates(t *testing.T) {
	ds := readCSV(t, "when,x", "soon,1", "later,2")
	st := DescribeDatetime(&ds.Columns[0])
	assert.Equal(t, ErrNoValidDates, st.Error)
	assert.Equal(t, 2, st.MissingValues)
	b, err := json.Marshal(st)
	require.NoError(t, err)
	assert.JSONEq(t, `{"missing_values":2,"error":"No valid dates"}`, string(b))
}

func TestReportSerializes(t *testing.T) {
	ds := readCSV(t, "n,c", "1,a", "1,a", "1,b")
	b, err := json.Marshal(analyze(t, ds))
	require.NoError(t, err)
	for _, key := range []string{"basic_info", "data_types", "missing_values", "numerical_summary", "categorical_insights", "data_quality"} {
		assert.Contains(t, string(b), `"`+key+`"`)
	}
}
