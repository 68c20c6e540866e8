package bus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publica con un kafka.Writer sin tópico fijo: cada mensaje lleva el suyo.
// Kafka no devuelve un id por mensaje, así que generamos uno (header message-id y key).
type Kafka struct {
	writer kafkaWriter
}

// NewKafka valida la config y crea el writer (la conexión es lazy).
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, b := range cfg.Brokers {
		if trimmed := strings.TrimSpace(b); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	if len(brokers) == 0 {
		return nil, fmt.Errorf("bus: kafka brokers required")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
	if cfg.ClientID != "" {
		w.Transport = &kafka.Transport{ClientID: cfg.ClientID}
	}
	return &Kafka{writer: w}, nil
}

func (k *Kafka) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	if k == nil || k.writer == nil {
		return "", fmt.Errorf("%w: kafka writer not initialized", ErrPublish)
	}
	id := uuid.NewString()
	headers := make([]kafka.Header, 0, len(attrs)+1)
	headers = append(headers, kafka.Header{Key: "message-id", Value: []byte(id)})
	for key, v := range attrs {
		headers = append(headers, kafka.Header{Key: key, Value: []byte(v)})
	}
	err := k.writer.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     []byte(id),
		Value:   data,
		Headers: headers,
	})
	if err != nil {
		return "", fmt.Errorf("%w: kafka topic %s: %v", ErrPublish, topic, err)
	}
	return id, nil
}

func (k *Kafka) Close() error {
	if k == nil || k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
