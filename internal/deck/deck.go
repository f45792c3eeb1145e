// Package deck writes the slide preview manifest for a finished analysis.
package deck

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/deva-0608/dataslide/internal/insight"
	"github.com/deva-0608/dataslide/internal/utils"
)

// ManifestFile is the manifest name inside a job output directory.
const ManifestFile = "preview.json"

// Slide is one entry of the preview manifest.
type Slide struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// Manifest lists the slides a deck renderer would produce.
type Manifest struct {
	JobID  string  `json:"job_id,omitempty"`
	Slides []Slide `json:"slides"`
}

// Writer persists a preview for an analysis and its column insights.
type Writer interface {
	Write(dir string, a *insight.Artifact, in *insight.Insights) (*Manifest, error)
}

// ManifestWriter writes preview.json only; it renders no binary deck.
type ManifestWriter struct{}

// Write builds the manifest and writes it atomically to dir/preview.json.
func (ManifestWriter) Write(dir string, a *insight.Artifact, in *insight.Insights) (*Manifest, error) {
	m := BuildManifest(a, in)
	if err := utils.WriteJSON(filepath.Join(dir, ManifestFile), m); err != nil {
		return nil, fmt.Errorf("write preview manifest: %w", err)
	}
	return m, nil
}

// BuildManifest derives the slide list: a title slide, the dataset
// overview, the column breakdown, then one slide per described column.
func BuildManifest(a *insight.Artifact, in *insight.Insights) *Manifest {
	p := message.NewPrinter(language.English)
	types := a.DataTypeSeparation
	m := &Manifest{JobID: a.ProcessingInfo.JobID}
	m.Slides = append(m.Slides,
		Slide{Title: "Dataset Analysis Report", Subtitle: "Job ID: " + a.ProcessingInfo.JobID},
		Slide{
			Title: a.MainTitle,
			Subtitle: p.Sprintf("%d records, %d variables, %.1f%% complete",
				a.SummaryStats.TotalRecords, a.SummaryStats.TotalVariables, float64(a.SummaryStats.CompletenessPercentage)),
		},
		Slide{
			Title: "Column Overview",
			Subtitle: fmt.Sprintf("Numerical: %d, Categorical: %d, Datetime: %d",
				len(types.Numerical), len(types.Categorical), len(types.Datetime)),
		},
	)
	if in == nil {
		return m
	}
	for pair := in.Numerical.Oldest(); pair != nil; pair = pair.Next() {
		m.Slides = append(m.Slides, columnSlide(pair.Key, "Numerical", string(pair.Value.ChartKind)))
	}
	for pair := in.Categorical.Oldest(); pair != nil; pair = pair.Next() {
		m.Slides = append(m.Slides, columnSlide(pair.Key, "Categorical", string(pair.Value.ChartKind)))
	}
	for pair := in.Datetime.Oldest(); pair != nil; pair = pair.Next() {
		m.Slides = append(m.Slides, columnSlide(pair.Key, "Datetime", string(pair.Value.ChartKind)))
	}
	return m
}

func columnSlide(column, class, kind string) Slide {
	sub := class + " feature"
	if kind != "" {
		sub += ", " + strings.ReplaceAll(kind, "_", " ") + " chart"
	}
	return Slide{Title: "Insights: " + column, Subtitle: sub}
}

// ReadManifest loads dir/preview.json.
func ReadManifest(dir string) (*Manifest, error) {
	b, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode preview manifest: %w", err)
	}
	return &m, nil
}
