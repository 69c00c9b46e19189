// Package kafka publishes tree events to a Kafka topic.
package kafka

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

type Writer struct {
	w *kafkago.Writer
}

func NewWriter(brokers []string, topic string) *Writer {
	return &Writer{w: &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}}
}

func (w *Writer) Publish(ctx context.Context, key, value []byte) error {
	return w.w.WriteMessages(ctx, kafkago.Message{Key: key, Value: value})
}

func (w *Writer) Close() error {
	return w.w.Close()
}
