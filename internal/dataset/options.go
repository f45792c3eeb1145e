package dataset

import (
	"strconv"
	"strings"
)

// Options controls how tabular files are read.
type Options struct {
	// Delimiter for CSV. If 0, sniffs among ',', ';', '\t', '|' on the header line.
	Delimiter rune
	// NAValues are cell tokens read as missing. Matching is exact after trimming.
	NAValues []string
	// Numeric parsing locale. If DecimalSeparator is 0, values must parse as plain floats.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// XLSX sheet selection; SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
}

// DefaultNAValues mirrors the tokens common dataframe readers treat as missing.
var DefaultNAValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None", "n/a", "nan", "null",
}

// DefaultOptions returns reasonable defaults for dataset loading.
func DefaultOptions() Options {
	na := make([]string, len(DefaultNAValues))
	copy(na, DefaultNAValues)
	return Options{
		NAValues:   na,
		SheetIndex: 1,
	}
}

func (o Options) naSet() map[string]struct{} {
	set := make(map[string]struct{}, len(o.NAValues)+1)
	set[""] = struct{}{}
	for _, v := range o.NAValues {
		set[strings.TrimSpace(v)] = struct{}{}
	}
	return set
}

func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	if opt.DecimalSeparator == 0 {
		f, err := strconv.ParseFloat(raw, 64)
		return f, err == nil
	}
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	// Remove thousands separators (common: ',', '.', space) if they differ from decimal
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
