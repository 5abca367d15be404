package domain

import (
	"fmt"
	"math"
	"sort"
)

// QuarterRecord is one row of a joined claims/precipitation table.
type QuarterRecord struct {
	Period       Period  `json:"period"`
	PrecipSignal float64 `json:"precip_signal"`
	ClaimsTotal  float64 `json:"claims_total"`
}

// Dataset is a chronologically ordered set of quarter records for one city.
// Optional numeric columns (observed precipitation, natural perils, ...) are
// held separately and looked up through Column.
type Dataset struct {
	City       string
	SignalKind SignalKind
	Records    []QuarterRecord
	columns    map[string][]float64
}

// NewDataset sorts records by period and rejects duplicate periods.
func NewDataset(city string, kind SignalKind, records []QuarterRecord) (*Dataset, error) {
	if _, err := ParseSignalKind(string(kind)); err != nil {
		return nil, err
	}

	sorted := make([]QuarterRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Period.Before(sorted[j].Period)
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Period == sorted[i-1].Period {
			return nil, fmt.Errorf("duplicate period %s: %w", sorted[i].Period, ErrInvalidInput)
		}
	}

	return &Dataset{
		City:       city,
		SignalKind: kind,
		Records:    sorted,
		columns:    make(map[string][]float64),
	}, nil
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.Records) }

// Periods returns the record periods in order.
func (d *Dataset) Periods() []Period {
	out := make([]Period, len(d.Records))
	for i, r := range d.Records {
		out[i] = r.Period
	}
	return out
}

// Signals returns the precipitation signal column.
func (d *Dataset) Signals() []float64 {
	out := make([]float64, len(d.Records))
	for i, r := range d.Records {
		out[i] = r.PrecipSignal
	}
	return out
}

// Claims returns the claims column.
func (d *Dataset) Claims() []float64 {
	out := make([]float64, len(d.Records))
	for i, r := range d.Records {
		out[i] = r.ClaimsTotal
	}
	return out
}

// SetColumn attaches an optional column aligned with Records. Values are keyed by
// period so the caller's ordering does not matter.
func (d *Dataset) SetColumn(name string, values map[Period]float64) {
	col := make([]float64, len(d.Records))
	for i, r := range d.Records {
		v, ok := values[r.Period]
		if !ok {
			v = math.NaN()
		}
		col[i] = v
	}
	d.columns[name] = col
}

// Column returns an optional column. ok is false when the column is absent or
// holds no finite value, which callers treat as "skip this statistic".
func (d *Dataset) Column(name string) (values []float64, ok bool) {
	col, present := d.columns[name]
	if !present {
		return nil, false
	}
	for _, v := range col {
		if !math.IsNaN(v) {
			out := make([]float64, len(col))
			copy(out, col)
			return out, true
		}
	}
	return nil, false
}

// ColumnNames lists the optional columns in sorted order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, 0, len(d.columns))
	for name := range d.columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
