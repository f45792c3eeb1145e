package insight

import (
	"time"

	"github.com/deva-0608/dataslide/internal/classify"
	"github.com/deva-0608/dataslide/internal/profile"
	"github.com/deva-0608/dataslide/internal/utils"
)

// MainTitle heads every analysis artifact.
const MainTitle = "Dataset Overview & Analysis"

// Artifact is the analysis document written as description.json.
type Artifact struct {
	MainTitle           string             `json:"main_title"`
	SummaryStats        SummaryStats       `json:"summary_stats"`
	DatasetOverview     Section            `json:"dataset_overview"`
	AnalyticalInsights  Section            `json:"analytical_insights"`
	DataTypeSeparation  classify.Partition `json:"data_type_separation"`
	FullAnalysis        *profile.Report    `json:"full_analysis"`
	GenerationTimestamp string             `json:"generation_timestamp"`
	ProcessingInfo      ProcessingInfo     `json:"processing_info"`
}

// SummaryStats is the headline of the artifact.
type SummaryStats struct {
	TotalRecords           int         `json:"total_records"`
	TotalVariables         int         `json:"total_variables"`
	CompletenessPercentage utils.Float `json:"completeness_percentage"`
}

// ProcessingInfo ties the artifact to its job.
type ProcessingInfo struct {
	JobID            string `json:"job_id"`
	FilePath         string `json:"file_path"`
	ProcessingStatus string `json:"processing_status"`
}

// BuildArtifact assembles the analysis artifact for rep. rules selects the
// key applications; nil uses Applications.
func BuildArtifact(rep *profile.Report, info ProcessingInfo, generated time.Time, rules []ApplicationRule) *Artifact {
	if rules == nil {
		rules = Applications
	}
	return &Artifact{
		MainTitle: MainTitle,
		SummaryStats: SummaryStats{
			TotalRecords:           rep.BasicInfo.TotalRows,
			TotalVariables:         rep.BasicInfo.TotalColumns,
			CompletenessPercentage: utils.Float(utils.Round(float64(rep.DataQuality.CompletenessScore), 1)),
		},
		DatasetOverview:     Overview(rep),
		AnalyticalInsights:  Capabilities(rep, rules),
		DataTypeSeparation:  rep.DataTypes,
		FullAnalysis:        rep,
		GenerationTimestamp: generated.Format(time.RFC3339),
		ProcessingInfo:      info,
	}
}
