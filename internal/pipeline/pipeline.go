package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/claims-risk/internal/domain"
	"github.com/couchcryptid/claims-risk/internal/observability"
)

// Source yields the datasets of one run.
type Source interface {
	Datasets(ctx context.Context) ([]*domain.Dataset, error)
}

// Sink receives each finished analysis.
type Sink interface {
	Write(ctx context.Context, a *domain.Analysis) error
}

// ReadinessChecker is implemented by sinks that depend on an external service.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Retry policy for sink writes.
const (
	sinkAttempts   = 3
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline orchestrates the load-analyze-write sequence.
type Pipeline struct {
	analyzer *Analyzer
	sinks    []Sink
	logger   *slog.Logger
	metrics  *observability.Metrics
	backoff  time.Duration
}

// New creates a Pipeline that hands every analysis to the given sinks in order.
func New(analyzer *Analyzer, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		analyzer: analyzer,
		sinks:    sinks,
		logger:   logger,
		metrics:  metrics,
		backoff:  initialBackoff,
	}
}

// CheckReadiness returns the first error reported by a sink that depends on an
// external service, or nil.
func (p *Pipeline) CheckReadiness(ctx context.Context) error {
	for _, s := range p.sinks {
		if rc, ok := s.(ReadinessChecker); ok {
			if err := rc.CheckReadiness(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run analyzes every dataset from src. A failing dataset is logged and skipped
// so the remaining cities still complete; all failures are returned joined.
func (p *Pipeline) Run(ctx context.Context, src Source) ([]*domain.Analysis, error) {
	datasets, err := src.Datasets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load datasets: %w", err)
	}
	p.logger.Info("pipeline started", "datasets", len(datasets), "sinks", len(p.sinks))

	var (
		analyses []*domain.Analysis
		errs     []error
	)
	for _, ds := range datasets {
		if err := ctx.Err(); err != nil {
			return analyses, err
		}
		a, err := p.Evaluate(ctx, ds)
		if err != nil {
			p.logger.Error("dataset failed", "city", ds.City, "error", err)
			errs = append(errs, err)
			if a == nil {
				continue
			}
		}
		analyses = append(analyses, a)
	}

	p.logger.Info("pipeline finished", "analyses", len(analyses), "failures", len(errs))
	return analyses, errors.Join(errs...)
}

// Evaluate analyzes one dataset and writes the result to every sink. Options
// override the analyzer settings for this dataset only. When only a sink
// fails, the analysis is returned alongside the error.
func (p *Pipeline) Evaluate(ctx context.Context, ds *domain.Dataset, opts ...AnalyzerOption) (*domain.Analysis, error) {
	analyzer := p.analyzer
	if len(opts) > 0 {
		analyzer = analyzer.With(opts...)
	}
	a, err := analyzer.Analyze(ds)
	if err != nil {
		return nil, err
	}
	for _, s := range p.sinks {
		if err := p.writeWithRetry(ctx, s, a); err != nil {
			return a, err
		}
	}
	return a, nil
}

// writeWithRetry retries a failed sink write with exponential backoff
// (200ms doubling, capped at 5s) until the attempts are exhausted.
func (p *Pipeline) writeWithRetry(ctx context.Context, s Sink, a *domain.Analysis) error {
	backoff := p.backoff
	var err error
	for attempt := 1; attempt <= sinkAttempts; attempt++ {
		if err = s.Write(ctx, a); err == nil {
			return nil
		}
		p.logger.Warn("sink write failed",
			"city", a.City,
			"run_id", a.RunID,
			"attempt", attempt,
			"error", err,
		)
		if attempt == sinkAttempts || !sleepWithContext(ctx, backoff) {
			break
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
	return fmt.Errorf("sink write for %s: %w", a.City, err)
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
