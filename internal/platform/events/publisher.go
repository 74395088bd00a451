// Package events publishes forecast results to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"forecast_backend/internal/feature/forecast/domain/entity"
)

// DefaultTopic receives one message per freshly computed forecast.
const DefaultTopic = "forecast.completed"

// Config holds Kafka publisher settings.
type Config struct {
	Brokers []string
	Topic   string
}

// LoadConfig reads KAFKA_BROKERS (comma separated) and KAFKA_FORECAST_TOPIC.
// Publishing is disabled when no broker is configured.
func LoadConfig() Config {
	cfg := Config{Topic: os.Getenv("KAFKA_FORECAST_TOPIC")}
	for _, b := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.Brokers = append(cfg.Brokers, b)
		}
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	return cfg
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return len(c.Brokers) > 0 }

// ForecastCompleted is the message body.
type ForecastCompleted struct {
	RunID                string    `json:"runId"`
	Symbol               string    `json:"symbol"`
	Interval             string    `json:"interval"`
	FutureDate           time.Time `json:"futureDate"`
	FuturePrediction     float64   `json:"futurePrediction"`
	PercentageDifference *float64  `json:"percentageDifference"`
	FinalLoss            *float64  `json:"finalLoss"`
	GeneratedAt          time.Time `json:"generatedAt"`
}

// NewForecastCompleted builds the message for res.
func NewForecastCompleted(runID string, res entity.ForecastResult) ForecastCompleted {
	ev := ForecastCompleted{
		RunID:            runID,
		Symbol:           res.Symbol,
		Interval:         res.Interval,
		FutureDate:       res.FutureDate,
		FuturePrediction: res.FuturePrediction,
		GeneratedAt:      res.GeneratedAt,
	}
	if !res.Degenerate && !math.IsNaN(res.PercentageDifference) {
		pct := res.PercentageDifference
		ev.PercentageDifference = &pct
	}
	if n := len(res.LossHistory); n > 0 {
		loss := res.LossHistory[n-1]
		ev.FinalLoss = &loss
	}
	return ev
}

// messageWriter is the subset of *kafka.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes ForecastCompleted events keyed by symbol/interval.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher creates a publisher for cfg.
func NewKafkaPublisher(cfg Config) (*KafkaPublisher, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaPublisher{writer: w, topic: cfg.Topic}, nil
}

// PublishForecast sends one event.
func (p *KafkaPublisher) PublishForecast(ctx context.Context, runID string, res entity.ForecastResult) error {
	v, err := json.Marshal(NewForecastCompleted(runID, res))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(res.Symbol + ":" + res.Interval),
		Value: v,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error { return p.writer.Close() }
