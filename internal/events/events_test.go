package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"commust/internal/model"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type recorder struct {
	got []ProductEvent
	err error
}

func (r *recorder) Publish(_ context.Context, ev ProductEvent) error {
	r.got = append(r.got, ev)
	return r.err
}

func TestKafkaPublisher(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{w: w}
	id := uuid.New()

	err := p.Publish(context.Background(), ProductEvent{
		Type:    ProductCreated,
		Product: model.ProductView{ID: id, Title: "Mug"},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, id.String(), string(msg.Key))
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, ProductCreated, string(msg.Headers[0].Value))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ProductCreated, decoded["type"])
	assert.Equal(t, "Mug", decoded["product"].(map[string]any)["title"])
}

func TestKafkaPublisherError(t *testing.T) {
	p := &KafkaPublisher{w: &fakeWriter{err: errors.New("broker down")}}
	err := p.Publish(context.Background(), ProductEvent{Type: ProductDeleted})
	assert.ErrorContains(t, err, "broker down")
}

func TestMulti(t *testing.T) {
	a := &recorder{}
	b := &recorder{err: errors.New("b failed")}
	m := Multi{a, b, Nop()}

	err := m.Publish(context.Background(), ProductEvent{Type: ProductUpdated})
	assert.ErrorContains(t, err, "b failed")
	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1)

	assert.NoError(t, Multi{a}.Publish(context.Background(), ProductEvent{}))
}
