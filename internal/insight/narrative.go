package insight

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/deva-0608/dataslide/internal/profile"
	"github.com/deva-0608/dataslide/internal/utils"
)

var printer = message.NewPrinter(language.English)

// Section is one narrative block: display text plus the same facts in
// structured form.
type Section struct {
	Content        string `json:"content"`
	StructuredData any    `json:"structured_data"`
}

// OverviewData is the structured half of the overview section.
type OverviewData struct {
	DatasetOverview struct {
		TotalRecords      int `json:"total_records"`
		FeatureVariables  int `json:"feature_variables"`
		NumericalFields   int `json:"numerical_fields"`
		CategoricalFields int `json:"categorical_fields"`
	} `json:"dataset_overview"`
	DataQuality struct {
		CompletenessPercentage utils.Float `json:"completeness_percentage"`
		DuplicateRows          int         `json:"duplicate_rows"`
		QualityRating          string      `json:"quality_rating"`
	} `json:"data_quality"`
	MissingData struct {
		TotalMissing       int            `json:"total_missing"`
		ColumnsAffected    int            `json:"columns_affected"`
		ColumnsWithMissing map[string]int `json:"columns_with_missing"`
	} `json:"missing_data"`
}

// CapabilityData is the structured half of the analytical section.
type CapabilityData struct {
	AnalyticalCapabilities struct {
		StatisticalAnalysis  bool `json:"statistical_analysis"`
		SegmentationAnalysis bool `json:"segmentation_analysis"`
		MixedTypeAnalysis    bool `json:"mixed_type_analysis"`
	} `json:"analytical_capabilities"`
	BusinessValue struct {
		DataScale        string `json:"data_scale"`
		VariableRichness string `json:"variable_richness"`
		Reliability      string `json:"reliability"`
	} `json:"business_value"`
	Application string `json:"application"`
}

type lines []string

func (l *lines) add(format string, args ...any) {
	*l = append(*l, printer.Sprintf(format, args...))
}

func (l lines) String() string { return strings.Join(l, "\n") }

// Overview renders the dataset overview, data quality and missing data
// block.
func Overview(rep *profile.Report) Section {
	completeness := float64(rep.DataQuality.CompletenessScore)
	rating := Pick(QualityRating, completeness).Label
	rows, cols := rep.BasicInfo.TotalRows, rep.BasicInfo.TotalColumns
	missing := rep.MissingValues

	var out lines
	out.add("• Dataset Overview")
	out.add("  - %d total records", rows)
	out.add("  - %d feature variables", cols)
	out.add("  - %d numerical fields", len(rep.DataTypes.Numerical))
	out.add("  - %d categorical fields", len(rep.DataTypes.Categorical))
	out = append(out, "")
	out.add("• Data Quality Assessment")
	out.add("  - Overall completeness: %.1f%%", completeness)
	if rep.DataQuality.DuplicateRows > 0 {
		out.add("  - Duplicate records: %d", rep.DataQuality.DuplicateRows)
	} else {
		out.add("  - No duplicate records detected")
	}
	out.add("  - Data quality rating: %s", rating)
	out = append(out, "")
	out.add("• Missing Data Impact")
	if missing.TotalMissing > 0 {
		out.add("  - %d columns affected", len(missing.ColumnsWithMissing))
		out.add("  - %d missing values total", missing.TotalMissing)
		for _, c := range missing.MostMissing(rep.BasicInfo.Columns, 2) {
			out = append(out, printer.Sprintf("  - %s: %.1f%% missing", c, float64(missing.MissingPercentages[c])))
		}
	} else {
		out.add("  - No missing values detected")
		out.add("  - Complete data integrity maintained")
	}

	var data OverviewData
	data.DatasetOverview.TotalRecords = rows
	data.DatasetOverview.FeatureVariables = cols
	data.DatasetOverview.NumericalFields = len(rep.DataTypes.Numerical)
	data.DatasetOverview.CategoricalFields = len(rep.DataTypes.Categorical)
	data.DataQuality.CompletenessPercentage = utils.Float(utils.Round(completeness, 1))
	data.DataQuality.DuplicateRows = rep.DataQuality.DuplicateRows
	data.DataQuality.QualityRating = rating
	data.MissingData.TotalMissing = missing.TotalMissing
	data.MissingData.ColumnsAffected = len(missing.ColumnsWithMissing)
	data.MissingData.ColumnsWithMissing = missing.ColumnsWithMissing
	return Section{Content: out.String(), StructuredData: data}
}

// Capabilities renders the analytical capabilities, business value and
// key applications block.
func Capabilities(rep *profile.Report, rules []ApplicationRule) Section {
	numerical := len(rep.DataTypes.Numerical) > 0
	categorical := len(rep.DataTypes.Categorical) > 0
	completeness := float64(rep.DataQuality.CompletenessScore)
	scale := Pick(DataScale, float64(rep.BasicInfo.TotalRows))
	richness := Pick(VariableRichness, float64(rep.BasicInfo.TotalColumns))
	reliability := Pick(Reliability, completeness)

	var out lines
	out.add("• Analytical Capabilities")
	if numerical {
		out.add("  - Statistical analysis ready")
		out.add("  - Trend and correlation studies")
		out.add("  - Predictive modeling potential")
	}
	if categorical {
		out.add("  - Segmentation analysis available")
		out.add("  - Classification studies possible")
	}
	if numerical && categorical {
		out.add("  - Mixed-type analysis supported")
	}
	out = append(out, "")
	out.add("• Business Value Indicators")
	for _, b := range []Bucket{scale, richness, reliability} {
		out = append(out, "  - "+b.Line)
	}
	out = append(out, "")
	out.add("• Key Applications")
	app, _ := MatchApplication(rules, rep.BasicInfo.FileName, rep.BasicInfo.Columns)
	for _, l := range app.Lines {
		out = append(out, "  - "+l)
	}

	var data CapabilityData
	data.AnalyticalCapabilities.StatisticalAnalysis = numerical
	data.AnalyticalCapabilities.SegmentationAnalysis = categorical
	data.AnalyticalCapabilities.MixedTypeAnalysis = numerical && categorical
	data.BusinessValue.DataScale = scale.Label
	data.BusinessValue.VariableRichness = richness.Label
	data.BusinessValue.Reliability = reliability.Label
	data.Application = app.Name
	return Section{Content: out.String(), StructuredData: data}
}
