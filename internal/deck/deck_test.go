package deck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deva-0608/dataslide/internal/chart"
	"github.com/deva-0608/dataslide/internal/classify"
	"github.com/deva-0608/dataslide/internal/insight"
)

func sampleArtifact() *insight.Artifact {
	return &insight.Artifact{
		MainTitle: insight.MainTitle,
		SummaryStats: insight.SummaryStats{
			TotalRecords: 12500, TotalVariables: 4, CompletenessPercentage: 97.5,
		},
		DataTypeSeparation: classify.Partition{
			Numerical: []string{"amount", "qty"}, Categorical: []string{"region"}, Datetime: []string{"day"},
		},
		ProcessingInfo: insight.ProcessingInfo{JobID: "1a2b3c4d"},
	}
}

func TestBuildManifest(t *testing.T) {
	in := insight.NewInsights()
	in.Numerical.Set("amount", insight.NumericInsight{ColumnName: "amount", ChartKind: chart.Histogram})
	in.Categorical.Set("region", insight.CategoricalInsight{ColumnName: "region", ChartKind: chart.Pie})
	in.Datetime.Set("day", insight.DatetimeInsight{ColumnName: "day"})

	m := BuildManifest(sampleArtifact(), in)
	assert.Equal(t, "1a2b3c4d", m.JobID)
	assert.Equal(t, []Slide{
		{Title: "Dataset Analysis Report", Subtitle: "Job ID: 1a2b3c4d"},
		{Title: "Dataset Overview & Analysis", Subtitle: "12,500 records, 4 variables, 97.5% complete"},
		{Title: "Column Overview", Subtitle: "Numerical: 2, Categorical: 1, Datetime: 1"},
		{Title: "Insights: amount", Subtitle: "Numerical feature, histogram chart"},
		{Title: "Insights: region", Subtitle: "Categorical feature, pie chart"},
		{Title: "Insights: day", Subtitle: "Datetime feature"},
	}, m.Slides)
}

func TestManifestWriterRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outputs", "1a2b3c4d")
	m, err := ManifestWriter{}.Write(dir, sampleArtifact(), nil)
	require.NoError(t, err)
	require.Len(t, m.Slides, 3)

	got, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	_, err = ReadManifest(t.TempDir())
	assert.True(t, os.IsNotExist(err))
}
