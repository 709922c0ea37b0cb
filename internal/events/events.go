// Package events publishes booking lifecycle events for downstream consumers
// such as reminder and notification services.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const TypeBookingCreated = "booking.created"

type BookingCreated struct {
	EventID       string    `json:"event_id"`
	BookingID     string    `json:"booking_id"`
	HostID        string    `json:"host_id"`
	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
	AttendeeName  string    `json:"attendee_name"`
	AttendeeEmail string    `json:"attendee_email"`
	SyncStatus    string    `json:"sync_status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Publisher interface {
	PublishBookingCreated(ctx context.Context, evt BookingCreated) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

// PublishBookingCreated keys the message by host so a host's bookings stay
// ordered within one partition.
func (p *KafkaPublisher) PublishBookingCreated(ctx context.Context, evt BookingCreated) error {
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.HostID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(evt.EventID)},
			{Key: "event_type", Value: []byte(TypeBookingCreated)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishBookingCreated(context.Context, BookingCreated) error { return nil }

func (NopPublisher) Close() error { return nil }
