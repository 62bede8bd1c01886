package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisherKeysByDocument(t *testing.T) {
	writer := &fakeWriter{}
	p := &KafkaPublisher{writer: writer, topic: "forum.events"}

	err := p.Publish(context.Background(), New(VoteCast, "post:42", map[string]string{"action": "created"}))
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "post:42", string(msg.Key))
	assert.Equal(t, VoteCast, string(msg.Headers[0].Value))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, VoteCast, decoded["type"])
	assert.Equal(t, "created", decoded["payload"].(map[string]any)["action"])

	require.NoError(t, p.Close())
	assert.True(t, writer.closed)
}

func TestKafkaPublisherPropagatesWriteErrors(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("leader not available")}}
	assert.Error(t, p.Publish(context.Background(), New(PostCreated, "p1", nil)))
}

func TestNewKafkaPublisherRequiresBrokers(t *testing.T) {
	_, err := NewKafkaPublisher(KafkaConfig{Topic: "forum.events"})
	assert.Error(t, err)
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	p := NewLogPublisher(zap.New(core))

	require.NoError(t, p.Publish(context.Background(), New(SubredditCreated, "golang", nil)))
	entries := logs.FilterField(zap.String("type", SubredditCreated)).All()
	assert.Len(t, entries, 1)
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	_ = r.Publish(context.Background(), New(PostCreated, "a", nil))
	_ = r.Publish(context.Background(), New(PostDeleted, "a", nil))

	assert.Len(t, r.Events(), 2)
	assert.Len(t, r.OfType(PostDeleted), 1)
}
