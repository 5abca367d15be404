package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/claims-risk/internal/config"
	"github.com/couchcryptid/claims-risk/internal/domain"
	"github.com/couchcryptid/claims-risk/internal/observability"
)

// QuarterEvent is the message value published for each labeled quarter.
type QuarterEvent struct {
	RunID         string           `json:"run_id"`
	City          string           `json:"city"`
	Period        domain.Period    `json:"period"`
	PrecipSignal  float64          `json:"precip_signal"`
	PrecipAnomaly float64          `json:"precip_anomaly"`
	ClaimsTotal   float64          `json:"claims_total"`
	ForecastRisk  domain.RiskLevel `json:"forecast_risk"`
	ActualRisk    domain.RiskLevel `json:"actual_risk"`
	IsHighLoss    bool             `json:"is_high_loss"`
	ForecastHigh  bool             `json:"forecast_high"`
	GeneratedAt   time.Time        `json:"generated_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces one message per labeled quarter to a Kafka topic.
// It implements pipeline.Sink.
type Publisher struct {
	writer  messageWriter
	brokers []string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates a Kafka producer for the configured topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, brokers: cfg.KafkaBrokers, logger: logger, metrics: metrics}
}

// Write publishes every quarter of the analysis in a single WriteMessages call.
// Messages are keyed by city and period so a quarter always lands on the same
// partition.
func (p *Publisher) Write(ctx context.Context, a *domain.Analysis) error {
	if len(a.Quarters) == 0 {
		return nil
	}
	msgs, err := analysisMessages(a)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.metrics.PublishErrors.Inc()
		return fmt.Errorf("publish %s: %w", a.City, err)
	}
	p.metrics.EventsPublished.Add(float64(len(msgs)))
	p.logger.Debug("published quarters", "city", a.City, "run_id", a.RunID, "count", len(msgs))
	return nil
}

// CheckReadiness dials the first reachable broker.
func (p *Publisher) CheckReadiness(ctx context.Context) error {
	var errs []error
	for _, b := range p.brokers {
		conn, err := kafkago.DialContext(ctx, "tcp", b)
		if err == nil {
			return conn.Close()
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return errors.New("no kafka brokers configured")
	}
	return fmt.Errorf("kafka unreachable: %w", errors.Join(errs...))
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func analysisMessages(a *domain.Analysis) ([]kafkago.Message, error) {
	msgs := make([]kafkago.Message, len(a.Quarters))
	for i, q := range a.Quarters {
		msg, err := serializeToMessage(QuarterEvent{
			RunID:         a.RunID,
			City:          a.City,
			Period:        q.Period,
			PrecipSignal:  q.PrecipSignal,
			PrecipAnomaly: q.PrecipAnomaly,
			ClaimsTotal:   q.ClaimsTotal,
			ForecastRisk:  q.ForecastRisk,
			ActualRisk:    q.ActualRisk,
			IsHighLoss:    q.IsHighLoss,
			ForecastHigh:  q.ForecastHigh,
			GeneratedAt:   a.GeneratedAt,
		})
		if err != nil {
			return nil, err
		}
		msgs[i] = msg
	}
	return msgs, nil
}

// serializeToMessage marshals a QuarterEvent into a Kafka message.
func serializeToMessage(event QuarterEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize quarter event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.City + "|" + event.Period.String()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "risk_level", Value: []byte(event.ForecastRisk)},
			{Key: "run_id", Value: []byte(event.RunID)},
			{Key: "generated_at", Value: []byte(event.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
