package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type csvLoader struct{}

func (csvLoader) CanLoad(path string) bool { return hasExt(path, ".csv", ".tsv") }

func (csvLoader) Load(path string, opt Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, path, opt)
}

// ReadCSV reads delimited text with a header line. path is used for the
// dataset name and the delimiter heuristic only.
func ReadCSV(r io.Reader, path string, opt Options) (*Dataset, error) {
	br := bufio.NewReader(r)
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path, br)
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &InputFormatError{Path: path, Reason: "empty file"}
		}
		return nil, &InputFormatError{Path: path, Reason: "read header", Err: err}
	}
	ncol := len(header)
	var rows [][]rawCell
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &InputFormatError{Path: path, Reason: fmt.Sprintf("read row %d", len(rows)+1), Err: err}
		}
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			break
		}
		if len(rec) > ncol {
			rec = rec[:ncol]
		}
		rows = append(rows, textCells(rec))
	}
	return buildDataset(filepath.Base(path), path, header, rows, opt), nil
}

// sniffDelimiter picks the candidate that occurs most often on the header
// line, defaulting to comma. TSV files are tab separated by name.
func sniffDelimiter(path string, br *bufio.Reader) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	line, _ := br.Peek(4096)
	if i := strings.IndexByte(string(line), '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestN := ',', 0
	for _, c := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(string(line), string(c)); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}
