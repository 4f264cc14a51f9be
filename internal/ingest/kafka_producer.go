package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/accessride/internal/models"
)

// KafkaProducer publishes driver location updates for the consumer process
// and ride lifecycle events for downstream analytics.
type KafkaProducer struct {
	locations *kafka.Writer
	events    *kafka.Writer
}

func NewKafkaProducer(brokers []string, locationTopic, eventTopic string) *KafkaProducer {
	newWriter := func(topic string) *kafka.Writer {
		return kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	}
	return &KafkaProducer{
		locations: newWriter(locationTopic),
		events:    newWriter(eventTopic),
	}
}

func (k *KafkaProducer) PublishLocation(d models.Driver) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return k.locations.WriteMessages(ctx, kafka.Message{Key: []byte(d.ID), Value: b})
}

// RideEvent is the record emitted on every status transition.
type RideEvent struct {
	RideID   string            `json:"ride_id"`
	RiderID  string            `json:"rider_id"`
	DriverID string            `json:"driver_id,omitempty"`
	Status   models.RideStatus `json:"status"`
	At       time.Time         `json:"at"`
}

func (k *KafkaProducer) PublishRideEvent(ev RideEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return k.events.WriteMessages(ctx, kafka.Message{Key: []byte(ev.RideID), Value: b})
}

func (k *KafkaProducer) Close() error {
	var first error
	for _, w := range []*kafka.Writer{k.locations, k.events} {
		if w == nil {
			continue
		}
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
