package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
)

type xlsLoader struct{}

func (xlsLoader) CanLoad(path string) bool { return hasExt(path, ".xls") }

// Load reads a legacy BIFF workbook. The reader returns formatted cell text,
// so date cells arrive as strings and are left to datetime sampling.
func (xlsLoader) Load(path string, opt Options) (ds *Dataset, err error) {
	// The BIFF decoder panics on some truncated inputs.
	defer func() {
		if r := recover(); r != nil {
			ds, err = nil, &InputFormatError{Path: path, Reason: "corrupt workbook", Err: fmt.Errorf("%v", r)}
		}
	}()
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, &InputFormatError{Path: path, Reason: "open xls", Err: err}
	}
	idx := opt.SheetIndex - 1
	if idx < 0 {
		idx = 0
	}
	if opt.SheetName != "" {
		idx = -1
		for i := 0; i < wb.NumSheets(); i++ {
			if s := wb.GetSheet(i); s != nil && strings.EqualFold(s.Name, opt.SheetName) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, &InputFormatError{Path: path, Reason: fmt.Sprintf("sheet '%s' not found", opt.SheetName)}
		}
	}
	sheet := wb.GetSheet(idx)
	if sheet == nil {
		return nil, &InputFormatError{Path: path, Reason: fmt.Sprintf("sheet %d not found", idx+1)}
	}
	var records [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		rec := make([]string, row.LastCol())
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			rec[c] = row.Col(c)
		}
		records = append(records, rec)
	}
	for len(records) > 0 && blankRecord(records[0]) {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, &InputFormatError{Path: path, Reason: "empty sheet"}
	}
	header := records[0]
	rows := make([][]rawCell, 0, len(records)-1)
	for _, rec := range records[1:] {
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			break
		}
		if len(rec) > len(header) {
			rec = rec[:len(header)]
		}
		rows = append(rows, textCells(rec))
	}
	for len(rows) > 0 && blankRow(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	return buildDataset(filepath.Base(path), path, header, rows, opt), nil
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
