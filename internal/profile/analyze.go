package profile

import (
	"github.com/deva-0608/dataslide/internal/classify"
	"github.com/deva-0608/dataslide/internal/dataset"
	"github.com/deva-0608/dataslide/internal/utils"
)

// Analyze profiles ds under the given partition. It has no side effects
// and holds no state between calls.
func Analyze(ds *dataset.Dataset, part classify.Partition) *Report {
	rows := ds.Rows()
	rep := &Report{
		BasicInfo: BasicInfo{
			TotalRows:    rows,
			TotalColumns: len(ds.Columns),
			FileName:     ds.Name,
			Columns:      ds.ColumnNames(),
		},
		DataTypes: part,
		MissingValues: MissingSummary{
			ColumnsWithMissing: map[string]int{},
			MissingPercentages: map[string]utils.Float{},
		},
		NumericalSummary:    map[string]NumericStats{},
		CategoricalInsights: map[string]CategoryStats{},
	}

	for i := range ds.Columns {
		col := &ds.Columns[i]
		m := col.Missing()
		rep.MissingValues.TotalMissing += m
		if m > 0 {
			rep.MissingValues.ColumnsWithMissing[col.Name] = m
			rep.MissingValues.MissingPercentages[col.Name] = utils.Float(float64(m) / float64(rows) * 100)
		}
	}

	for _, name := range part.Numerical {
		if col, ok := ds.Column(name); ok {
			rep.NumericalSummary[name] = DescribeNumeric(col)
		}
	}
	for _, name := range part.Categorical {
		if col, ok := ds.Column(name); ok {
			rep.CategoricalInsights[name] = DescribeCategory(col)
		}
	}

	rep.DataQuality = Quality{
		DuplicateRows:     duplicateRows(ds),
		CompletenessScore: utils.Float(completeness(rows*len(ds.Columns), rep.MissingValues.TotalMissing)),
	}
	return rep
}

// duplicateRows counts rows identical to an earlier row. Missing cells
// compare equal to each other.
func duplicateRows(ds *dataset.Dataset) int {
	if len(ds.Columns) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, ds.Rows())
	dups := 0
	for i := 0; i < ds.Rows(); i++ {
		k := ds.RowKey(i)
		if _, ok := seen[k]; ok {
			dups++
			continue
		}
		seen[k] = struct{}{}
	}
	return dups
}

func completeness(cells, missing int) float64 {
	if cells == 0 {
		return 100
	}
	return float64(cells-missing) / float64(cells) * 100
}
