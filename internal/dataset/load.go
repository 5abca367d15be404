package dataset

import (
	"fmt"
	"math"

	"github.com/couchcryptid/claims-risk/internal/domain"
)

// Default column names for the signal and claims inputs.
const (
	DefaultSignalColumn = "precip_anomaly"
	DefaultClaimsColumn = "total_claims"
)

// LoadOptions says which columns of a joined table feed the classifier.
type LoadOptions struct {
	City         string
	SignalColumn string
	ClaimsColumn string
	Kind         domain.SignalKind

	// DropIncomplete skips rows whose signal or claims cell is empty instead
	// of failing. Dropped periods are returned so callers can report them.
	DropIncomplete bool
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.SignalColumn == "" {
		o.SignalColumn = DefaultSignalColumn
	}
	if o.ClaimsColumn == "" {
		o.ClaimsColumn = DefaultClaimsColumn
	}
	if o.Kind == "" {
		o.Kind = domain.SignalAnomaly
	}
	return o
}

// ToDataset converts a joined table into a Dataset. Every other numeric column
// is attached as an optional column.
func ToDataset(t *Table, opts LoadOptions) (*domain.Dataset, []domain.Period, error) {
	opts = opts.withDefaults()

	periods, err := t.Periods()
	if err != nil {
		return nil, nil, err
	}
	signal, err := t.Floats(opts.SignalColumn)
	if err != nil {
		return nil, nil, fmt.Errorf("signal: %w", err)
	}
	claimsCol, err := t.Floats(opts.ClaimsColumn)
	if err != nil {
		return nil, nil, fmt.Errorf("claims: %w", err)
	}

	var records []domain.QuarterRecord
	var dropped []domain.Period
	keep := make([]bool, len(periods))
	for i, p := range periods {
		if math.IsNaN(signal[i]) || math.IsNaN(claimsCol[i]) {
			if !opts.DropIncomplete {
				return nil, nil, fmt.Errorf("%s: missing %s or %s: %w",
					p, opts.SignalColumn, opts.ClaimsColumn, domain.ErrInvalidInput)
			}
			dropped = append(dropped, p)
			continue
		}
		if claimsCol[i] < 0 {
			return nil, nil, fmt.Errorf("%s: negative claims %v: %w", p, claimsCol[i], domain.ErrInvalidInput)
		}
		keep[i] = true
		records = append(records, domain.QuarterRecord{
			Period:       p,
			PrecipSignal: signal[i],
			ClaimsTotal:  claimsCol[i],
		})
	}

	ds, err := domain.NewDataset(opts.City, opts.Kind, records)
	if err != nil {
		return nil, nil, err
	}

	for _, name := range t.Columns {
		switch name {
		case ColPeriod, ColYear, ColQuarter, opts.SignalColumn, opts.ClaimsColumn:
			continue
		}
		if !t.IsNumeric(name) {
			continue
		}
		vals, _ := t.Floats(name)
		col := make(map[domain.Period]float64, len(vals))
		for i, v := range vals {
			if keep[i] {
				col[periods[i]] = v
			}
		}
		ds.SetColumn(name, col)
	}
	return ds, dropped, nil
}

// LoadFile reads a CSV and converts it with ToDataset.
func LoadFile(path string, opts LoadOptions) (*domain.Dataset, []domain.Period, error) {
	t, err := ReadCSVFile(path)
	if err != nil {
		return nil, nil, err
	}
	return ToDataset(t, opts)
}
