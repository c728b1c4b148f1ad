// Package events publishes verification lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// TypeVerified is the event type emitted after a successful verify.
const TypeVerified = "verification.verified"

// Verified is the payload of a verification.verified message.
type Verified struct {
	Type           string    `json:"type"`
	VerificationID string    `json:"verificationId"`
	NoteID         string    `json:"noteId"`
	RecipientNpub  string    `json:"recipientNpub"`
	SenderNpub     string    `json:"senderNpub"`
	VerifiedAt     time.Time `json:"verifiedAt"`
}

type Publisher interface {
	PublishVerified(ctx context.Context, e Verified) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one message per event, keyed by verification id.
type KafkaPublisher struct {
	w messageWriter
}

// NewKafkaPublisher builds a synchronous writer; a failed write is reported
// to the caller and not retried.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  1,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}}
}

func (p *KafkaPublisher) PublishVerified(ctx context.Context, e Verified) error {
	e.Type = TypeVerified
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(e.VerificationID),
		Value: data,
		Time:  e.VerifiedAt,
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", TypeVerified, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

type nopPublisher struct{}

func (nopPublisher) PublishVerified(context.Context, Verified) error { return nil }
func (nopPublisher) Close() error                                    { return nil }

// Nop returns a Publisher that drops events.
func Nop() Publisher {
	return nopPublisher{}
}
