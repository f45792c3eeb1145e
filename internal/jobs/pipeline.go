package jobs

import (
	"path/filepath"
	"time"

	"github.com/deva-0608/dataslide/internal/chart"
	"github.com/deva-0608/dataslide/internal/classify"
	"github.com/deva-0608/dataslide/internal/dataset"
	"github.com/deva-0608/dataslide/internal/deck"
	"github.com/deva-0608/dataslide/internal/insight"
	"github.com/deva-0608/dataslide/internal/profile"
	"github.com/deva-0608/dataslide/internal/scoring"
)

// Pipeline turns one job input into its output artifacts. Inputs, charts and
// the preview manifest are accessed through OS paths under Store.Root.
type Pipeline struct {
	Store    *Store
	Load     dataset.Options
	Classify classify.Options
	Scoring  scoring.Options
	Renderer chart.Renderer
	Deck     deck.Writer
	// Rules selects key applications; nil uses insight.Applications.
	Rules []insight.ApplicationRule
	Now   func() time.Time
}

// NewPipeline returns a pipeline with default options, no chart rendering
// and the preview manifest writer.
func NewPipeline(store *Store) *Pipeline {
	return &Pipeline{
		Store:    store,
		Load:     dataset.DefaultOptions(),
		Classify: classify.DefaultOptions(),
		Scoring:  scoring.DefaultOptions(),
		Renderer: chart.Nop{},
		Deck:     deck.ManifestWriter{},
		Now:      time.Now,
	}
}

// Run executes every stage for job. The returned error is always a
// *PipelineError.
func (p *Pipeline) Run(job *Job) error {
	ds, err := dataset.Load(job.InputPath, p.Load)
	if err != nil {
		return stageError(job.ID, StageLoad, err)
	}
	part := classify.Classify(ds, p.Classify)
	rep := profile.Analyze(ds, part)
	res := scoring.Score(ds, part, p.Scoring)

	builder := insight.ColumnBuilder{
		Renderer: p.Renderer,
		PlotsDir: filepath.Join(job.OutputDir, PlotsDir),
		PlotsRef: PlotsDir,
	}
	in, err := builder.Build(ds, res)
	if err != nil {
		return stageError(job.ID, StageInsights, err)
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	art := insight.BuildArtifact(rep, insight.ProcessingInfo{
		JobID:            job.ID,
		FilePath:         job.InputPath,
		ProcessingStatus: string(Completed),
	}, now(), p.Rules)

	for _, a := range []struct {
		name string
		v    any
	}{
		{DescriptionFile, art},
		{InsightsFile, in},
		{FeatureInsightsFile, res},
	} {
		if err := p.Store.WriteArtifact(job.ID, a.name, a.v); err != nil {
			return stageError(job.ID, StagePersist, err)
		}
	}

	if p.Deck != nil {
		if _, err := p.Deck.Write(job.OutputDir, art, in); err != nil {
			return stageError(job.ID, StagePreview, err)
		}
	}
	return nil
}
