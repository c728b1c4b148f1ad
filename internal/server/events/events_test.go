package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher_PublishVerified(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{w: w}
	at := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	err := p.PublishVerified(context.Background(), Verified{
		VerificationID: "v1",
		NoteID:         "n1",
		RecipientNpub:  "npub1r",
		SenderNpub:     "npub1s",
		VerifiedAt:     at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "v1", string(msg.Key))
	assert.Equal(t, at, msg.Time)

	var got Verified
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, TypeVerified, got.Type)
	assert.Equal(t, "n1", got.NoteID)
	assert.True(t, got.VerifiedAt.Equal(at))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &KafkaPublisher{w: &fakeWriter{err: errors.New("broker down")}}

	err := p.PublishVerified(context.Background(), Verified{VerificationID: "v1"})
	assert.ErrorContains(t, err, "broker down")
}

func TestNewKafkaPublisher_Config(t *testing.T) {
	p := NewKafkaPublisher([]string{"k1:9092", "k2:9092"}, "topic")

	w, ok := p.w.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "topic", w.Topic)
	assert.Equal(t, 1, w.MaxAttempts)
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop().PublishVerified(context.Background(), Verified{}))
	assert.NoError(t, Nop().Close())
}
