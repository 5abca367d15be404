package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/claims-risk/internal/domain"
	"github.com/couchcryptid/claims-risk/internal/observability"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func newTestPublisher(w messageWriter) (*Publisher, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return &Publisher{
		writer:  w,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: m,
	}, m
}

func testAnalysis() *domain.Analysis {
	return &domain.Analysis{
		RunID:       "6f1c2d1e-0000-4000-8000-000000000001",
		City:        "Bergen",
		GeneratedAt: time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC),
		Quarters: []domain.LabeledQuarter{
			{Period: domain.Period{Year: 2015, Quarter: 3}, ClaimsTotal: 95, PrecipAnomaly: 1.8,
				ForecastRisk: domain.RiskHigh, ActualRisk: domain.RiskHigh, IsHighLoss: true, ForecastHigh: true},
			{Period: domain.Period{Year: 2015, Quarter: 4}, ClaimsTotal: 12, PrecipAnomaly: 0.2,
				ForecastRisk: domain.RiskLow, ActualRisk: domain.RiskLow},
		},
	}
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	event := QuarterEvent{
		RunID:        "run-1",
		City:         "Oslo",
		Period:       domain.Period{Year: 2019, Quarter: 3},
		ForecastRisk: domain.RiskMedium,
		GeneratedAt:  now,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("Oslo|2019-Q3"), msg.Key)
	assert.Contains(t, string(msg.Value), `"period":"2019-Q3"`)
	assert.Contains(t, string(msg.Value), `"forecast_risk":"MEDIUM"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "risk_level", msg.Headers[0].Key)
	assert.Equal(t, []byte("MEDIUM"), msg.Headers[0].Value)
	assert.Equal(t, "run_id", msg.Headers[1].Key)
	assert.Equal(t, []byte("run-1"), msg.Headers[1].Value)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestPublisher_Write(t *testing.T) {
	w := &fakeWriter{}
	p, m := newTestPublisher(w)

	require.NoError(t, p.Write(context.Background(), testAnalysis()))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "Bergen|2015-Q3", string(w.msgs[0].Key))
	assert.Equal(t, "Bergen|2015-Q4", string(w.msgs[1].Key))

	var got QuarterEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, "Bergen", got.City)
	assert.True(t, got.IsHighLoss)
	assert.Equal(t, 95.0, got.ClaimsTotal)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsPublished))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PublishErrors))
}

func TestPublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p, m := newTestPublisher(w)

	err := p.Write(context.Background(), testAnalysis())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bergen")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishErrors))
}

func TestPublisher_EmptyAnalysis(t *testing.T) {
	w := &fakeWriter{}
	p, _ := newTestPublisher(w)

	require.NoError(t, p.Write(context.Background(), &domain.Analysis{City: "Oslo"}))
	assert.Empty(t, w.msgs)
}

func TestPublisher_CheckReadinessWithoutBrokers(t *testing.T) {
	p, _ := newTestPublisher(&fakeWriter{})
	err := p.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no kafka brokers")
}

func TestPublisher_Close(t *testing.T) {
	w := &fakeWriter{}
	p, _ := newTestPublisher(w)
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
