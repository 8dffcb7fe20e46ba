package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// smsEvent is the wire format consumed by the downstream SMS delivery worker.
type smsEvent struct {
	To       string    `json:"to"`
	Text     string    `json:"text"`
	QueuedAt time.Time `json:"queued_at"`
}

// KafkaSender publishes SMS events to a Kafka topic for an out-of-process
// delivery worker. Keyed by recipient so retries for one number stay ordered.
type KafkaSender struct {
	client *kgo.Client
	topic  string
}

// NewKafkaSender connects to the given brokers and publishes to topic.
func NewKafkaSender(brokers []string, topic string) (*KafkaSender, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &KafkaSender{client: client, topic: topic}, nil
}

func (s *KafkaSender) Send(ctx context.Context, msisdn, text string) error {
	payload, err := json.Marshal(smsEvent{To: msisdn, Text: text, QueuedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal sms event: %w", err)
	}

	record := &kgo.Record{Topic: s.topic, Key: []byte(msisdn), Value: payload}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce sms event: %w", err)
	}
	return nil
}

// Close flushes outstanding records and releases the client.
func (s *KafkaSender) Close() {
	s.client.Close()
}
