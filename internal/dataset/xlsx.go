package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(p string) bool { return hasExt(p, ".xlsx") }

// Load parses a .xlsx file and reads rows from the selected sheet. If
// opt.SheetName is empty and opt.SheetIndex <= 0, it defaults to the first
// sheet. Cells whose style carries a date number format become typed dates.
func (xlsxLoader) Load(p string, opt Options) (*Dataset, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, &InputFormatError{Path: p, Reason: "not a zip container", Err: err}
	}
	wb := parseWorkbook(readZipFile(zr, "xl/workbook.xml"))
	rels := parseRelationships(readZipFile(zr, "xl/_rels/workbook.xml.rels"))
	target, err := resolveSheet(wb.sheets, rels, opt.SheetName, opt.SheetIndex)
	if err != nil {
		return nil, &InputFormatError{Path: p, Reason: "select sheet", Err: err}
	}
	sheetXML := readZipFile(zr, target)
	if sheetXML == nil {
		return nil, &InputFormatError{Path: p, Reason: "missing worksheet " + target}
	}
	rr := newSheetRowReader(sheetXML, parseSharedStrings(readZipFile(zr, "xl/sharedStrings.xml")),
		parseDateStyles(readZipFile(zr, "xl/styles.xml")), wb.date1904)
	header, ok := rr.Next()
	for ok && blankRow(header) {
		header, ok = rr.Next()
	}
	if !ok {
		return nil, &InputFormatError{Path: p, Reason: "empty sheet"}
	}
	names := make([]string, len(header))
	for i, c := range header {
		names[i] = c.text
		if c.isTime {
			names[i] = formatTime(c.t)
		}
	}
	var rows [][]rawCell
	for {
		row, ok := rr.Next()
		if !ok {
			break
		}
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			break
		}
		if len(row) > len(names) {
			row = row[:len(names)]
		}
		rows = append(rows, row)
	}
	// Trailing blank rows are formatting residue, not data.
	for len(rows) > 0 && blankRow(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	return buildDataset(filepath.Base(p), p, names, rows, opt), nil
}

func blankRow(row []rawCell) bool {
	for _, c := range row {
		if c.isTime || strings.TrimSpace(c.text) != "" {
			return false
		}
	}
	return true
}

func resolveSheet(sheets []wbSheet, rels map[string]string, name string, index int) (string, error) {
	if name != "" {
		for _, s := range sheets {
			if strings.EqualFold(s.Name, name) {
				if rel, ok := rels[s.RID]; ok {
					return normalizeRelPath(rel), nil
				}
			}
		}
		available := make([]string, len(sheets))
		for i, s := range sheets {
			available[i] = s.Name
		}
		return "", fmt.Errorf("sheet '%s' not found; available sheets: %s", name, strings.Join(available, ", "))
	}
	idx := index
	if idx <= 0 {
		idx = 1
	}
	// Prefer document order, then sheetId, then the conventional part name.
	if idx <= len(sheets) {
		if rel, ok := rels[sheets[idx-1].RID]; ok {
			return normalizeRelPath(rel), nil
		}
	}
	for _, s := range sheets {
		if s.SheetID == idx {
			if rel, ok := rels[s.RID]; ok {
				return normalizeRelPath(rel), nil
			}
		}
	}
	return path.Join("xl", "worksheets", fmt.Sprintf("sheet%d.xml", idx)), nil
}

type wbSheet struct {
	Name    string
	SheetID int
	RID     string
}

type workbookInfo struct {
	sheets   []wbSheet
	date1904 bool
}

// parseWorkbook extracts sheet entries with names and relationship ids.
func parseWorkbook(data []byte) workbookInfo {
	var wb workbookInfo
	if len(data) == 0 {
		return wb
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return wb
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "workbookPr":
			for _, a := range se.Attr {
				if a.Name.Local == "date1904" {
					wb.date1904 = a.Value == "1" || strings.EqualFold(a.Value, "true")
				}
			}
		case "sheet":
			var s wbSheet
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "name":
					s.Name = a.Value
				case "sheetId":
					s.SheetID = atoiSafe(a.Value)
				case "id":
					s.RID = a.Value // in r: namespace
				}
			}
			wb.sheets = append(wb.sheets, s)
		}
	}
}

// parseRelationships returns map[r:id]Target.
func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	if len(data) == 0 {
		return out
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			var id, target string
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "Id":
					id = a.Value
				case "Target":
					target = a.Value
				}
			}
			if id != "" && target != "" {
				out[id] = target
			}
		}
	}
}

func readZipFile(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil
			}
			defer rc.Close()
			b, _ := io.ReadAll(rc)
			return b
		}
	}
	return nil
}

// parseSharedStrings concatenates the text runs of every <si> entry.
func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	var inT bool
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "si" {
				buf.Reset()
			}
			if se.Name.Local == "t" {
				inT = true
			}
		case xml.EndElement:
			if se.Name.Local == "t" {
				inT = false
			}
			if se.Name.Local == "si" {
				out = append(out, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inT {
				buf.Write(se)
			}
		}
	}
}

// parseDateStyles returns, per cellXfs index, whether the style formats its
// value as a date or time.
func parseDateStyles(data []byte) []bool {
	if len(data) == 0 {
		return nil
	}
	custom := map[int]string{}
	var xfs []bool
	inCellXfs := false
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return xfs
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "numFmt":
				var id int
				var code string
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "numFmtId":
						id = atoiSafe(a.Value)
					case "formatCode":
						code = a.Value
					}
				}
				custom[id] = code
			case "cellXfs":
				inCellXfs = true
			case "xf":
				if !inCellXfs {
					continue
				}
				id := 0
				for _, a := range se.Attr {
					if a.Name.Local == "numFmtId" {
						id = atoiSafe(a.Value)
					}
				}
				xfs = append(xfs, isDateFormat(id, custom[id]))
			}
		case xml.EndElement:
			if se.Name.Local == "cellXfs" {
				inCellXfs = false
			}
		}
	}
}

func isDateFormat(id int, code string) bool {
	switch {
	case id >= 14 && id <= 22, id >= 45 && id <= 47:
		return true
	case code == "":
		return false
	}
	// Drop quoted literals and bracketed sections ([Red], [$-409]) before
	// looking for date/time tokens.
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, r := range strings.ToLower(code) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(r)
		}
	}
	return strings.ContainsAny(b.String(), "ydhs") || strings.Contains(b.String(), "mm")
}

// excelTime converts a serial day number into a UTC time.
func excelTime(serial float64, date1904 bool) time.Time {
	epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	if date1904 {
		epoch = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)
	} else if serial < 61 {
		// Serials before March 1900 predate the phantom 1900-02-29.
		serial++
	}
	days := math.Floor(serial)
	secs := math.Round((serial - days) * 86400)
	return epoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second)
}

// sheetRowReader streams rows of a worksheet. Rows skipped in the XML (no
// <row> element) are returned as empty rows so row positions are preserved.
type sheetRowReader struct {
	dec      *xml.Decoder
	shared   []string
	dateXF   []bool
	date1904 bool
	inRow    bool
	curRow   []rawCell
	maxCol   int
	lastRow  int
	pending  int
}

func newSheetRowReader(data []byte, shared []string, dateXF []bool, date1904 bool) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared, dateXF: dateXF, date1904: date1904}
}

func (r *sheetRowReader) Next() ([]rawCell, bool) {
	if r.pending > 0 {
		r.pending--
		if r.pending == 0 {
			row := r.curRow
			r.curRow = nil
			return row, true
		}
		return nil, true
	}
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "row" {
				r.inRow = true
				r.curRow = nil
				r.maxCol = 0
				num := 0
				for _, a := range se.Attr {
					if a.Name.Local == "r" {
						num = atoiSafe(a.Value)
					}
				}
				if num <= r.lastRow {
					num = r.lastRow + 1
				}
				r.pending = num - r.lastRow - 1
				r.lastRow = num
			}
			if r.inRow && se.Name.Local == "c" {
				// cell: attributes r (A1), t (type), s (style)
				var rAttr, tAttr, sAttr string
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "r":
						rAttr = a.Value
					case "t":
						tAttr = a.Value
					case "s":
						sAttr = a.Value
					}
				}
				colIdx := len(r.curRow)
				if rAttr != "" {
					colIdx = colIndexFromRef(rAttr)
				}
				if colIdx+1 > r.maxCol {
					r.maxCol = colIdx + 1
				}
				val := r.readCellValue(tAttr, sAttr)
				if len(r.curRow) <= colIdx {
					tmp := make([]rawCell, colIdx+1)
					copy(tmp, r.curRow)
					r.curRow = tmp
				}
				r.curRow[colIdx] = val
			}
		case xml.EndElement:
			if se.Name.Local == "row" {
				if len(r.curRow) < r.maxCol {
					tmp := make([]rawCell, r.maxCol)
					copy(tmp, r.curRow)
					r.curRow = tmp
				}
				r.inRow = false
				if r.pending > 0 {
					// Emit the gap first; the parsed row is held until it drains.
					return nil, true
				}
				return r.curRow, true
			}
		}
	}
}

func (r *sheetRowReader) readCellValue(tAttr, sAttr string) rawCell {
	var val strings.Builder
	// read until end of c; capture <v> or the <t> runs of <is>
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return rawCell{text: val.String()}
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				for {
					tk, er := r.dec.Token()
					if er != nil {
						break
					}
					if ed, ok := tk.(xml.EndElement); ok && (ed.Name.Local == "v" || ed.Name.Local == "t") {
						break
					}
					if ch, ok := tk.(xml.CharData); ok {
						val.Write(ch)
					}
				}
			}
		case xml.EndElement:
			if se.Name.Local == "c" {
				return r.decodeCell(val.String(), tAttr, sAttr)
			}
		}
	}
}

func (r *sheetRowReader) decodeCell(val, tAttr, sAttr string) rawCell {
	switch tAttr {
	case "s": // shared string
		idx := atoiSafe(val)
		if idx >= 0 && idx < len(r.shared) {
			return rawCell{text: r.shared[idx]}
		}
		return rawCell{}
	case "b":
		if val == "1" {
			return rawCell{text: "TRUE"}
		}
		return rawCell{text: "FALSE"}
	case "e":
		return rawCell{}
	case "", "n":
		if sAttr == "" || val == "" {
			return rawCell{text: val}
		}
		xf := atoiSafe(sAttr)
		if xf < len(r.dateXF) && r.dateXF[xf] {
			if serial, ok := parseNumeric(val, Options{}); ok {
				return rawCell{text: val, isTime: true, t: excelTime(serial, r.date1904)}
			}
		}
	}
	return rawCell{text: val}
}

// helpers for refs like "C12" -> 2 (0-based index)
func colIndexFromRef(ref string) int {
	i := 0
	for i < len(ref) {
		c := ref[i]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' {
			i++
			continue
		}
		break
	}
	s := strings.ToUpper(ref[:i])
	idx := 0
	for j := 0; j < len(s); j++ {
		idx = idx*26 + int(s[j]-'A'+1)
	}
	return idx - 1
}

func atoiSafe(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// normalizeRelPath converts relationship Target paths to ZIP-compatible paths.
// Relationships may have leading slashes (e.g., "/xl/worksheets/sheet1.xml")
// but ZIP entries don't include the leading slash.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
