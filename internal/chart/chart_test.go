package chart

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindSelection(t *testing.T) {
	tests := []struct {
		name string
		got  Kind
		want Kind
	}{
		{"wide symmetric", NumericKind(21, 0.5), Histogram},
		{"wide skewed", NumericKind(50, -2), Box},
		{"narrow", NumericKind(20, 0), Bar},
		{"few balanced", CategoricalKind(5, 79.9), Pie},
		{"few dominant", CategoricalKind(3, 80), Bar},
		{"many", CategoricalKind(6, 20), Bar},
		{"multi-year", DatetimeKind(366), YearlyTrend},
		{"within a year", DatetimeKind(365), DailyTrend},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.name, tt.got, tt.want)
		}
	}
}

func TestNumericRequestBarCounts(t *testing.T) {
	req := NumericRequest("stars", []float64{3, 5, 3, 4, 5, 3}, 3, 0)
	assert.Equal(t, Bar, req.Kind)
	assert.Equal(t, "Bar Chart of stars", req.Title)
	assert.Equal(t, []string{"3", "5", "4"}, req.Labels)
	assert.Equal(t, []float64{3, 2, 1}, req.Counts)
}

func TestCategoricalRequestTopTen(t *testing.T) {
	labels := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	counts := []int{12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	req := CategoricalRequest("letter", labels, counts, 15)
	assert.Equal(t, Bar, req.Kind)
	assert.Equal(t, "Bar Chart of letter (Top 10)", req.Title)
	assert.Len(t, req.Labels, 10)
	assert.Equal(t, float64(3), req.Counts[9])
}

func TestDatetimeRequestGroupsByPeriod(t *testing.T) {
	day := func(y, m, d int) time.Time { return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC) }
	sorted := []time.Time{day(2020, 1, 1), day(2020, 6, 1), day(2022, 3, 3)}
	req := DatetimeRequest("joined", sorted, 792)
	assert.Equal(t, YearlyTrend, req.Kind)
	assert.Equal(t, []string{"2020", "2022"}, req.Labels)
	assert.Equal(t, []float64{2, 1}, req.Counts)

	req = DatetimeRequest("joined", []time.Time{day(2024, 1, 1), day(2024, 1, 1), day(2024, 1, 5)}, 4)
	assert.Equal(t, DailyTrend, req.Kind)
	assert.Equal(t, "Daily Trend of joined", req.Title)
	assert.Equal(t, []string{"2024-01-01", "2024-01-05"}, req.Labels)
}

func TestPlotRendererWritesPNG(t *testing.T) {
	dir := t.TempDir()
	values := make([]float64, 40)
	for i := range values {
		values[i] = math.Sin(float64(i)) * 10
	}
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	reqs := []Request{
		NumericRequest("wave", values, 40, 0),
		{Column: "spread", Kind: Box, Title: "Boxplot of spread (Skewed)", Values: values},
		CategoricalRequest("tier", []string{"gold", "silver"}, []int{3, 2}, 60),
		CategoricalRequest("tier", []string{"gold", "silver"}, []int{9, 1}, 90),
		DatetimeRequest("when", []time.Time{day(1), day(2), day(2), day(9)}, 8),
	}
	r := NewPlotRenderer()
	for i, req := range reqs {
		out := filepath.Join(dir, "plots", string(req.Kind)+string(rune('a'+i))+".png")
		require.NoError(t, r.Render(req, out), req.Kind)
		b, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(b, []byte("\x89PNG")), "png signature for %s", req.Kind)
	}
}

func TestPlotRendererRejectsEmpty(t *testing.T) {
	err := NewPlotRenderer().Render(Request{Column: "x", Kind: Histogram}, filepath.Join(t.TempDir(), "x.png"))
	assert.Error(t, err)
	err = NewPlotRenderer().Render(Request{Column: "x", Kind: "radar"}, filepath.Join(t.TempDir(), "x.png"))
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	p := filepath.Join(t.TempDir(), "none.png")
	require.NoError(t, Nop{}.Render(Request{Kind: Bar}, p))
	_, err := os.Stat(p)
	assert.True(t, os.IsNotExist(err))
}
