package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"veil/internal/audit"
)

// Handler receives entries read back from the audit stream.
type Handler interface {
	HandleEntry(ctx context.Context, entry audit.Entry) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, entry audit.Entry) error

func (f HandlerFunc) HandleEntry(ctx context.Context, entry audit.Entry) error { return f(ctx, entry) }

// Consumer reads the audit topic as part of a consumer group.
type Consumer struct {
	client *kgo.Client
	logger *slog.Logger
}

// NewConsumer joins group on topic. An empty group reads from the start of
// the topic without committing offsets.
func NewConsumer(brokers []string, topic, group string, opts ...Option) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	o := sinkOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	kopts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	}
	if group != "" {
		kopts = append(kopts, kgo.ConsumerGroup(group))
	}
	client, err := kgo.NewClient(kopts...)
	if err != nil {
		return nil, fmt.Errorf("kafka: create consumer: %w", err)
	}
	return &Consumer{client: client, logger: o.logger}, nil
}

// Run polls until ctx is cancelled. Malformed records are logged and
// skipped so one bad message cannot stall the stream; handler errors are
// logged and the stream moves on.
func (c *Consumer) Run(ctx context.Context, h Handler) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.WarnContext(ctx, "audit stream fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})
		fetches.EachRecord(func(r *kgo.Record) {
			c.handle(ctx, h, r)
		})
	}
}

func (c *Consumer) handle(ctx context.Context, h Handler, r *kgo.Record) {
	entry, err := DecodeRecord(r)
	if err != nil {
		c.logger.ErrorContext(ctx, "malformed audit record skipped",
			"topic", r.Topic,
			"partition", r.Partition,
			"offset", r.Offset,
			"error", err,
		)
		return
	}
	if err := h.HandleEntry(ctx, entry); err != nil {
		c.logger.ErrorContext(ctx, "audit entry handler failed",
			"entry_id", entry.ID,
			"action", entry.Action.String(),
			"offset", r.Offset,
			"error", err,
		)
	}
}

// DecodeRecord parses one audit record and checks the action.
func DecodeRecord(r *kgo.Record) (audit.Entry, error) {
	var entry audit.Entry
	if err := json.Unmarshal(r.Value, &entry); err != nil {
		return entry, fmt.Errorf("decode audit entry: %w", err)
	}
	if !entry.Action.IsValid() {
		return entry, fmt.Errorf("unknown audit action %q", entry.Action)
	}
	return entry, nil
}

func (c *Consumer) Close() {
	c.client.Close()
}

// StoreHandler mirrors streamed entries into a store, for example a
// replica audit database. Entries get fresh ids from the target store.
type StoreHandler struct {
	store audit.Store
}

func NewStoreHandler(store audit.Store) *StoreHandler {
	return &StoreHandler{store: store}
}

func (h *StoreHandler) HandleEntry(ctx context.Context, entry audit.Entry) error {
	entry.ID = 0
	if err := h.store.Append(ctx, &entry); err != nil {
		return fmt.Errorf("mirror audit entry: %w", err)
	}
	return nil
}
