package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/claims-risk/internal/dataset"
	"github.com/couchcryptid/claims-risk/internal/domain"
)

// StaticSource serves datasets that are already in memory.
type StaticSource []*domain.Dataset

// Datasets implements Source.
func (s StaticSource) Datasets(_ context.Context) ([]*domain.Dataset, error) {
	return s, nil
}

// FileInput is one joined CSV and how to read it.
type FileInput struct {
	Path    string
	Options dataset.LoadOptions
}

// FileSource loads joined CSVs from disk.
type FileSource struct {
	Inputs []FileInput
	// OnDropped is called with the periods skipped for missing cells when
	// LoadOptions.DropIncomplete is set.
	OnDropped func(city string, dropped []domain.Period)
}

// Datasets implements Source. A city defaults to the file name up to the first
// underscore, so "bergen_joined.csv" loads as "Bergen".
func (s FileSource) Datasets(ctx context.Context) ([]*domain.Dataset, error) {
	out := make([]*domain.Dataset, 0, len(s.Inputs))
	for _, in := range s.Inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		opts := in.Options
		if opts.City == "" {
			opts.City = CityFromPath(in.Path)
		}
		ds, dropped, err := dataset.LoadFile(in.Path, opts)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", in.Path, err)
		}
		if len(dropped) > 0 && s.OnDropped != nil {
			s.OnDropped(opts.City, dropped)
		}
		out = append(out, ds)
	}
	return out, nil
}

// CityFromPath derives a display city name from a file name.
func CityFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if i := strings.IndexAny(base, "_-."); i > 0 {
		base = base[:i]
	}
	if base == "" {
		return base
	}
	return strings.ToUpper(base[:1]) + strings.ToLower(base[1:])
}

// DirSink writes the labeled quarters as CSV and the full analysis as a
// workbook into a directory.
type DirSink struct {
	Dir string
}

// Write implements Sink.
func (s DirSink) Write(_ context.Context, a *domain.Analysis) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	stem := FileStem(a.City)
	if err := dataset.AnalysisTable(a).WriteCSVFile(filepath.Join(s.Dir, stem+"_labeled.csv")); err != nil {
		return err
	}
	return dataset.WriteWorkbook(filepath.Join(s.Dir, stem+"_analysis.xlsx"), a)
}

// FileStem turns a city name into a lower-case file name stem.
func FileStem(city string) string {
	stem := strings.ToLower(strings.Join(strings.Fields(city), "_"))
	if stem == "" {
		return "dataset"
	}
	return stem
}
