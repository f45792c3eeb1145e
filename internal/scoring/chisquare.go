package scoring

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/deva-0608/dataslide/internal/dataset"
)

// ErrDegenerateTable reports a contingency table the chi-square test cannot
// be run on: fewer than two rows or columns, or a zero expected frequency.
var ErrDegenerateTable = errors.New("degenerate contingency table")

// Crosstab counts co-occurrences of the values of a and b over rows where
// both are present. Rows and columns follow first appearance.
func Crosstab(a, b *dataset.Column) [][]float64 {
	rowIdx := map[string]int{}
	colIdx := map[string]int{}
	var table [][]float64
	n := len(a.Cells)
	if len(b.Cells) < n {
		n = len(b.Cells)
	}
	for i := 0; i < n; i++ {
		if a.Cells[i].Null || b.Cells[i].Null {
			continue
		}
		ka, kb := a.Key(i), b.Key(i)
		r, ok := rowIdx[ka]
		if !ok {
			r = len(table)
			rowIdx[ka] = r
			table = append(table, make([]float64, len(colIdx)))
		}
		c, ok := colIdx[kb]
		if !ok {
			c = len(colIdx)
			colIdx[kb] = c
			for j := range table {
				table[j] = append(table[j], 0)
			}
		}
		table[r][c]++
	}
	return table
}

// ChiSquare runs Pearson's chi-square test of independence on an observed
// contingency table. A table with one degree of freedom gets Yates'
// continuity correction.
func ChiSquare(table [][]float64) (statistic, p float64, dof int, err error) {
	rows := len(table)
	if rows < 2 || len(table[0]) < 2 {
		return 0, 0, 0, ErrDegenerateTable
	}
	cols := len(table[0])
	rowSum := make([]float64, rows)
	colSum := make([]float64, cols)
	total := 0.0
	for i, row := range table {
		if len(row) != cols {
			return 0, 0, 0, ErrDegenerateTable
		}
		for j, v := range row {
			rowSum[i] += v
			colSum[j] += v
			total += v
		}
	}
	if total == 0 {
		return 0, 0, 0, ErrDegenerateTable
	}
	dof = (rows - 1) * (cols - 1)
	for i := range table {
		for j := range table[i] {
			e := rowSum[i] * colSum[j] / total
			if e == 0 {
				return 0, 0, 0, ErrDegenerateTable
			}
			o := table[i][j]
			if dof == 1 {
				diff := e - o
				o += math.Copysign(math.Min(0.5, math.Abs(diff)), diff)
			}
			statistic += (o - e) * (o - e) / e
		}
	}
	p = distuv.ChiSquared{K: float64(dof)}.Survival(statistic)
	return statistic, p, dof, nil
}
