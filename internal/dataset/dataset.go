package dataset

import (
	"strconv"
	"strings"
	"time"
)

// Kind is the intrinsic scalar kind a loader assigns to a column.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	default:
		return "text"
	}
}

// Cell is a single value. Raw always holds the source text (or a canonical
// rendering for typed spreadsheet cells); Num and Time are set according to
// the owning column's Kind.
type Cell struct {
	Null bool
	Raw  string
	Num  float64
	Time time.Time
}

// Column is a named, ordered sequence of cells of one logical kind.
type Column struct {
	Name  string
	Kind  Kind
	Cells []Cell
}

// Missing returns the number of null cells.
func (c *Column) Missing() int {
	n := 0
	for _, cell := range c.Cells {
		if cell.Null {
			n++
		}
	}
	return n
}

// Numbers returns the non-null numeric values in row order.
func (c *Column) Numbers() []float64 {
	out := make([]float64, 0, len(c.Cells))
	for _, cell := range c.Cells {
		if !cell.Null {
			out = append(out, cell.Num)
		}
	}
	return out
}

// Strings returns the non-null raw values in row order.
func (c *Column) Strings() []string {
	out := make([]string, 0, len(c.Cells))
	for _, cell := range c.Cells {
		if !cell.Null {
			out = append(out, cell.Raw)
		}
	}
	return out
}

// Key returns a comparable representation of the cell at row i, used for
// equality checks across rows (duplicates, contingency tables).
func (c *Column) Key(i int) string {
	cell := c.Cells[i]
	if cell.Null {
		return "\x00"
	}
	switch c.Kind {
	case KindNumber:
		return strconv.FormatFloat(cell.Num, 'g', -1, 64)
	case KindTime:
		return cell.Time.UTC().Format(time.RFC3339Nano)
	default:
		return cell.Raw
	}
}

// Dataset is an ordered set of equally long columns.
type Dataset struct {
	Name    string
	Path    string
	Columns []Column
}

// Rows returns the number of rows.
func (d *Dataset) Rows() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return len(d.Columns[0].Cells)
}

// ColumnNames returns the column names in order.
func (d *Dataset) ColumnNames() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by exact name.
func (d *Dataset) Column(name string) (*Column, bool) {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i], true
		}
	}
	return nil, false
}

// Position returns the index of the named column, or -1.
func (d *Dataset) Position(name string) int {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return i
		}
	}
	return -1
}

// RowKey joins the cell keys of row i so identical rows share a key.
func (d *Dataset) RowKey(i int) string {
	var b strings.Builder
	for j := range d.Columns {
		if j > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(d.Columns[j].Key(i))
	}
	return b.String()
}
