package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadCSVKinds(t *testing.T) {
	p := writeFile(t, "sales.csv", strings.Join([]string{
		"amount,region,signup_date,notes",
		"10.5,north,2024-01-05,ok",
		"12,south,2024-01-09,NA",
		",east,2024-02-01,late",
		"7.25,north,2024-02-11,",
	}, "\n"))

	ds, err := Load(p, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "sales.csv", ds.Name)
	assert.Equal(t, 4, ds.Rows())
	assert.Equal(t, []string{"amount", "region", "signup_date", "notes"}, ds.ColumnNames())

	amount, ok := ds.Column("amount")
	require.True(t, ok)
	assert.Equal(t, KindNumber, amount.Kind)
	assert.Equal(t, 1, amount.Missing())
	assert.Equal(t, []float64{10.5, 12, 7.25}, amount.Numbers())

	region, _ := ds.Column("region")
	assert.Equal(t, KindText, region.Kind)

	// CSV carries no temporal type; dates stay text until classified.
	date, _ := ds.Column("signup_date")
	assert.Equal(t, KindText, date.Kind)

	notes, _ := ds.Column("notes")
	assert.Equal(t, 2, notes.Missing(), "NA token and empty cell are both missing")
}

func TestLoadCSVAllNullColumnIsNumeric(t *testing.T) {
	p := writeFile(t, "blank.csv", "a,b\n1,\n2,\n3,\n")
	ds, err := Load(p, DefaultOptions())
	require.NoError(t, err)
	b, _ := ds.Column("b")
	assert.Equal(t, KindNumber, b.Kind)
	assert.Equal(t, 3, b.Missing())
}

func TestLoadCSVSniffsSemicolonAndPadsShortRows(t *testing.T) {
	p := writeFile(t, "metrics.csv", "x;y;z\n1;2;3\n4;5\n")
	ds, err := Load(p, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, ds.Columns, 3)
	z, _ := ds.Column("z")
	assert.Equal(t, 1, z.Missing())
}

func TestLoadCSVLocaleNumbers(t *testing.T) {
	p := writeFile(t, "locale.csv", "v\n\"1.000,5\"\n\"2,25\"\n")
	opt := DefaultOptions()
	opt.DecimalSeparator = ','
	opt.ThousandsSeparator = '.'
	ds, err := Load(p, opt)
	require.NoError(t, err)
	v, _ := ds.Column("v")
	assert.Equal(t, KindNumber, v.Kind)
	assert.Equal(t, []float64{1000.5, 2.25}, v.Numbers())
}

func TestUniqueNames(t *testing.T) {
	got := uniqueNames([]string{"a", "a", "", "a.1", "a"})
	assert.Equal(t, []string{"a", "a.1", "Unnamed: 2", "a.1.1", "a.2"}, got)
}

func TestRowKeyTreatsEqualNumbersAlike(t *testing.T) {
	p := writeFile(t, "dup.csv", "n,s\n1.0,x\n1,x\n2,\n2,\n")
	ds, err := Load(p, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, ds.RowKey(0), ds.RowKey(1))
	assert.Equal(t, ds.RowKey(2), ds.RowKey(3))
	assert.NotEqual(t, ds.RowKey(0), ds.RowKey(2))
}

func TestLoadUnsupportedExtension(t *testing.T) {
	p := writeFile(t, "input.json", "{}")
	_, err := Load(p, DefaultOptions())
	require.Error(t, err)
	assert.True(t, IsInputFormat(err))
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.False(t, Supported(p))
}

func TestLoadEmptyCSV(t *testing.T) {
	p := writeFile(t, "input.csv", "")
	_, err := Load(p, DefaultOptions())
	require.Error(t, err)
	assert.True(t, IsInputFormat(err))
}

func TestLoadMalformedCSV(t *testing.T) {
	p := writeFile(t, "input.csv", "a,b\n\"unterminated,1\n")
	_, err := Load(p, DefaultOptions())
	require.Error(t, err)
	assert.True(t, IsInputFormat(err))
}
