package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"veil/internal/audit"
)

const (
	defaultPartitions        int32 = 3
	defaultReplicationFactor int16 = 1
	defaultDeliveryTimeout         = 5 * time.Second

	headerAction = "action"
)

// Sink publishes audit entries as JSON records keyed by anonymous id, so the
// history of one subject stays ordered within a partition.
type Sink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

type Option func(*sinkOptions)

type sinkOptions struct {
	logger          *slog.Logger
	deliveryTimeout time.Duration
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *sinkOptions) { o.logger = logger }
}

func WithDeliveryTimeout(d time.Duration) Option {
	return func(o *sinkOptions) {
		if d > 0 {
			o.deliveryTimeout = d
		}
	}
}

// NewSink connects a producer to brokers. The connection is lazy; call Ping
// to check reachability.
func NewSink(brokers []string, topic string, opts ...Option) (*Sink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if topic == "" {
		return nil, errors.New("kafka: audit topic is required")
	}
	o := sinkOptions{logger: slog.Default(), deliveryTimeout: defaultDeliveryTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RecordDeliveryTimeout(o.deliveryTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka: create client: %w", err)
	}
	return &Sink{client: client, topic: topic, logger: o.logger}, nil
}

func (s *Sink) Topic() string { return s.topic }

// Publish writes one entry and waits for the broker acknowledgement.
func (s *Sink) Publish(ctx context.Context, entry audit.Entry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("kafka: marshal audit entry: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(entry.AnonymousID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: headerAction, Value: []byte(entry.Action)},
		},
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("kafka: produce audit entry: %w", err)
	}
	return nil
}

// EnsureTopic creates the audit topic if it does not exist yet.
func (s *Sink) EnsureTopic(ctx context.Context) error {
	adm := kadm.NewClient(s.client)
	resp, err := adm.CreateTopic(ctx, defaultPartitions, defaultReplicationFactor, nil, s.topic)
	if err != nil {
		return fmt.Errorf("kafka: create topic %s: %w", s.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("kafka: create topic %s: %w", s.topic, resp.Err)
	}
	if resp.Err == nil {
		s.logger.Info("created audit topic", "topic", s.topic)
	}
	return nil
}

func (s *Sink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *Sink) Close() {
	s.client.Close()
}
