package dataset

import (
	"fmt"
	"strings"
	"time"
)

// rawCell is a cell as read from a file, before column kinds are decided.
// Spreadsheet readers set isTime for date-formatted cells.
type rawCell struct {
	text   string
	isTime bool
	t      time.Time
}

func textCells(rec []string) []rawCell {
	out := make([]rawCell, len(rec))
	for i, v := range rec {
		out[i] = rawCell{text: v}
	}
	return out
}

// buildDataset decides each column's Kind and materializes typed cells.
// A column is numeric when every non-null cell parses as a number, temporal
// when every non-null cell is a typed date, and text otherwise. A column with
// no values at all is numeric, matching how dataframe readers type it.
func buildDataset(name, path string, header []string, rows [][]rawCell, opt Options) *Dataset {
	names := uniqueNames(header)
	na := opt.naSet()
	ds := &Dataset{Name: name, Path: path, Columns: make([]Column, len(names))}
	for j, colName := range names {
		nonNull, nums, times := 0, 0, 0
		for _, row := range rows {
			rc := cellAt(row, j)
			if isNull(rc, na) {
				continue
			}
			nonNull++
			if rc.isTime {
				times++
				continue
			}
			if _, ok := parseNumeric(rc.text, opt); ok {
				nums++
			}
		}
		kind := KindText
		switch {
		case nonNull == 0 || nums == nonNull:
			kind = KindNumber
		case times == nonNull:
			kind = KindTime
		}
		col := Column{Name: colName, Kind: kind, Cells: make([]Cell, len(rows))}
		for i, row := range rows {
			rc := cellAt(row, j)
			if isNull(rc, na) {
				col.Cells[i] = Cell{Null: true, Raw: strings.TrimSpace(rc.text)}
				continue
			}
			cell := Cell{Raw: strings.TrimSpace(rc.text)}
			if rc.isTime {
				cell.Time = rc.t
				cell.Raw = formatTime(rc.t)
			}
			if kind == KindNumber {
				cell.Num, _ = parseNumeric(rc.text, opt)
			}
			col.Cells[i] = cell
		}
		ds.Columns[j] = col
	}
	return ds
}

func cellAt(row []rawCell, j int) rawCell {
	if j < len(row) {
		return row[j]
	}
	return rawCell{}
}

func isNull(rc rawCell, na map[string]struct{}) bool {
	if rc.isTime {
		return false
	}
	_, ok := na[strings.TrimSpace(rc.text)]
	return ok
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

// uniqueNames trims header names, names blank headers by position and
// suffixes repeats with .1, .2, ...
func uniqueNames(header []string) []string {
	out := make([]string, len(header))
	taken := make(map[string]bool, len(header))
	next := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		base := name
		for taken[name] {
			next[base]++
			name = fmt.Sprintf("%s.%d", base, next[base])
		}
		taken[name] = true
		out[i] = name
	}
	return out
}
