package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

var json = jsoniter.ConfigFastest

// Producer is the part of *kgo.Client the transport uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaTransport publishes one record per recipient, keyed by address, for a
// downstream mailer to consume.
type KafkaTransport struct {
	producer Producer
	topic    string
}

// notice is the record value.
type notice struct {
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"`
}

func NewKafkaTransport(producer Producer, topic string) *KafkaTransport {
	return &KafkaTransport{producer: producer, topic: topic}
}

func (t *KafkaTransport) Name() string { return "kafka" }

func (t *KafkaTransport) Deliver(ctx context.Context, msg Message) error {
	records := make([]*kgo.Record, 0, len(msg.Recipients))
	for _, to := range msg.Recipients {
		value, err := json.Marshal(notice{
			Recipient: to,
			Subject:   msg.Subject,
			Body:      msg.Body,
			SentAt:    msg.SentAt.UTC(),
		})
		if err != nil {
			return fmt.Errorf("encode notice: %w", err)
		}
		records = append(records, &kgo.Record{Topic: t.topic, Key: []byte(to), Value: value})
	}
	if err := t.producer.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce notices: %w", err)
	}
	return nil
}

// NewKafkaClient connects a producer to brokers. An empty topic leaves the
// default produce topic unset; records then carry their own.
func NewKafkaClient(brokers []string, topic string) (*kgo.Client, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	}
	if topic != "" {
		opts = append(opts, kgo.DefaultProduceTopic(topic))
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// EnsureTopic creates topic with the broker's default replication if it does
// not exist yet.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32) error {
	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopics(ctx, partitions, -1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}
