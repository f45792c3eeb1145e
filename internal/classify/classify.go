// Package classify partitions dataset columns into numerical, categorical
// and datetime classes.
package classify

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/deva-0608/dataslide/internal/dataset"
)

// Class is the semantic kind of a column.
type Class string

const (
	Numerical   Class = "numerical"
	Categorical Class = "categorical"
	Datetime    Class = "datetime"
)

// Options tunes latent datetime detection on text columns.
type Options struct {
	// SampleSize is the number of leading non-null values tested.
	SampleSize int
	// RequiredSuccess is the fraction of samples that must parse, in (0,1].
	RequiredSuccess float64
}

// DefaultOptions requires every one of the first 10 values to parse.
func DefaultOptions() Options {
	return Options{SampleSize: 10, RequiredSuccess: 1.0}
}

func (o Options) normalized() Options {
	if o.SampleSize <= 0 {
		o.SampleSize = 10
	}
	if o.RequiredSuccess <= 0 || o.RequiredSuccess > 1 {
		o.RequiredSuccess = 1.0
	}
	return o
}

// ParseAttempt is the outcome of parsing one value as a date.
type ParseAttempt struct {
	Input string
	Value time.Time
	OK    bool
}

// ParseDate tries the general date grammar on s, interpreting zone-less
// values as UTC.
func ParseDate(s string) ParseAttempt {
	in := strings.TrimSpace(s)
	a := ParseAttempt{Input: s}
	if in == "" {
		return a
	}
	t, err := dateparse.ParseIn(in, time.UTC)
	if err != nil {
		return a
	}
	a.Value, a.OK = t.UTC(), true
	return a
}

// Partition holds column names per class, in dataset order.
type Partition struct {
	Numerical   []string `json:"numerical_columns"`
	Categorical []string `json:"categorical_columns"`
	Datetime    []string `json:"datetime_columns"`
}

// ClassOf returns the class a column was assigned to.
func (p Partition) ClassOf(name string) (Class, bool) {
	for _, set := range []struct {
		class Class
		names []string
	}{{Numerical, p.Numerical}, {Categorical, p.Categorical}, {Datetime, p.Datetime}} {
		for _, n := range set.names {
			if n == name {
				return set.class, true
			}
		}
	}
	return "", false
}

// Len returns the number of classified columns.
func (p Partition) Len() int {
	return len(p.Numerical) + len(p.Categorical) + len(p.Datetime)
}

// Classify assigns every column of ds to exactly one class.
func Classify(ds *dataset.Dataset, opt Options) Partition {
	opt = opt.normalized()
	p := Partition{Numerical: []string{}, Categorical: []string{}, Datetime: []string{}}
	for i := range ds.Columns {
		col := &ds.Columns[i]
		switch col.Kind {
		case dataset.KindNumber:
			p.Numerical = append(p.Numerical, col.Name)
		case dataset.KindTime:
			p.Datetime = append(p.Datetime, col.Name)
		default:
			if ok, _ := Promotable(col, opt); ok {
				p.Datetime = append(p.Datetime, col.Name)
			} else {
				p.Categorical = append(p.Categorical, col.Name)
			}
		}
	}
	return p
}

// Promotable samples the leading non-null values of a text column and
// reports whether enough of them parse as dates. The attempts are returned
// for diagnostics. A column without samples is never promoted.
func Promotable(col *dataset.Column, opt Options) (bool, []ParseAttempt) {
	opt = opt.normalized()
	var attempts []ParseAttempt
	ok := 0
	for _, cell := range col.Cells {
		if len(attempts) == opt.SampleSize {
			break
		}
		if cell.Null {
			continue
		}
		a := ParseDate(cell.Raw)
		if a.OK {
			ok++
		}
		attempts = append(attempts, a)
	}
	if len(attempts) == 0 {
		return false, attempts
	}
	return float64(ok)/float64(len(attempts)) >= opt.RequiredSuccess, attempts
}

// Times returns the column's non-null values as timestamps in row order.
// Text values that do not parse are treated as missing.
func Times(col *dataset.Column) []time.Time {
	out := make([]time.Time, 0, len(col.Cells))
	for _, cell := range col.Cells {
		if cell.Null {
			continue
		}
		if col.Kind == dataset.KindTime {
			out = append(out, cell.Time.UTC())
			continue
		}
		if a := ParseDate(cell.Raw); a.OK {
			out = append(out, a.Value)
		}
	}
	return out
}
