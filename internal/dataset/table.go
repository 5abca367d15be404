package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/claims-risk/internal/domain"
)

// Column names shared by every quarterly table.
const (
	ColPeriod  = "period"
	ColYear    = "year"
	ColQuarter = "quarter"
)

// Table is an in-memory CSV table with named columns.
type Table struct {
	Columns []string
	Rows    [][]string
	index   map[string]int
}

// NewTable creates an empty table with the given header.
func NewTable(columns ...string) *Table {
	t := &Table{Columns: columns}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.index[c] = i
	}
}

// Append adds a row; it must have one cell per column.
func (t *Table) Append(row ...string) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d cells, table has %d columns: %w", len(row), len(t.Columns), domain.ErrInvalidInput)
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Has reports whether the table has a column.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Strings returns a column's raw cells.
func (t *Table) Strings(name string) ([]string, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("column %q not found: %w", name, domain.ErrInvalidInput)
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// Floats parses a numeric column. Empty cells and "nan" become NaN.
func (t *Table) Floats(name string) ([]float64, error) {
	cells, err := t.Strings(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(cells))
	for r, c := range cells {
		v, err := parseCell(c)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, r+1, err)
		}
		out[r] = v
	}
	return out, nil
}

// IsNumeric reports whether every non-empty cell of a column parses as a number.
func (t *Table) IsNumeric(name string) bool {
	cells, err := t.Strings(name)
	if err != nil {
		return false
	}
	for _, c := range cells {
		if _, err := parseCell(c); err != nil {
			return false
		}
	}
	return true
}

// Periods returns the row periods from the period column, falling back to
// year and quarter columns.
func (t *Table) Periods() ([]domain.Period, error) {
	if t.Has(ColPeriod) {
		cells, _ := t.Strings(ColPeriod)
		out := make([]domain.Period, len(cells))
		for r, c := range cells {
			p, err := domain.ParsePeriod(c)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", r+1, err)
			}
			out[r] = p
		}
		return out, nil
	}
	if !t.Has(ColYear) || !t.Has(ColQuarter) {
		return nil, fmt.Errorf("table needs a %q column or %q and %q: %w", ColPeriod, ColYear, ColQuarter, domain.ErrInvalidInput)
	}
	years, err := t.Floats(ColYear)
	if err != nil {
		return nil, err
	}
	quarters, err := t.Floats(ColQuarter)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Period, len(years))
	for r := range years {
		q := int(quarters[r])
		if math.IsNaN(years[r]) || q < 1 || q > 4 {
			return nil, fmt.Errorf("row %d: bad year/quarter: %w", r+1, domain.ErrInvalidInput)
		}
		out[r] = domain.Period{Year: int(years[r]), Quarter: q}
	}
	return out, nil
}

// ReadCSV reads a table with a header row.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty csv: %w", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	t := NewTable(header...)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ReadCSVFile reads a table from disk.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// WriteCSV writes the header and rows.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteCSVFile writes the table to disk, replacing any existing file.
func (t *Table) WriteCSVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func parseCell(c string) (float64, error) {
	c = strings.TrimSpace(c)
	switch strings.ToLower(c) {
	case "", "nan", "na", "null":
		return math.NaN(), nil
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	v, err := strconv.ParseFloat(c, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", c, domain.ErrInvalidInput)
	}
	if math.IsInf(v, 0) {
		return 0, fmt.Errorf("parse %q: value is not finite: %w", c, domain.ErrInvalidInput)
	}
	return v, nil
}

// formatFloat renders NaN as an empty cell.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatInt(v int) string { return strconv.Itoa(v) }
