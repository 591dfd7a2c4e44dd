package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"catalogapi/internal/model"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockWriter) Close() error {
	return m.Called().Error(0)
}

func TestKafkaPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	t.Run("writes keyed json message", func(t *testing.T) {
		w := new(mockWriter)
		p := newKafkaPublisher(w)
		p.now = func() time.Time { return fixed }

		var sent []kafka.Message
		w.On("WriteMessages", ctx, mock.Anything).
			Run(func(args mock.Arguments) { sent = args.Get(1).([]kafka.Message) }).
			Return(nil).Once()

		err := p.Publish(ctx, Event{
			Type:      ProductCreated,
			ProductID: "p-1",
			UserID:    "u-1",
			Product:   &model.Product{ID: "p-1", Name: "Silla"},
		})

		require.NoError(t, err)
		require.Len(t, sent, 1)
		assert.Equal(t, "p-1", string(sent[0].Key))
		assert.Equal(t, []kafka.Header{{Key: "event-type", Value: []byte("product.created")}}, sent[0].Headers)

		var got Event
		require.NoError(t, json.Unmarshal(sent[0].Value, &got))
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, ProductCreated, got.Type)
		assert.Equal(t, fixed, got.OccurredAt)
		assert.Equal(t, "Silla", got.Product.Name)
		w.AssertExpectations(t)
	})

	t.Run("keeps caller id and time", func(t *testing.T) {
		w := new(mockWriter)
		p := newKafkaPublisher(w)

		var sent []kafka.Message
		w.On("WriteMessages", ctx, mock.Anything).
			Run(func(args mock.Arguments) { sent = args.Get(1).([]kafka.Message) }).
			Return(nil).Once()

		require.NoError(t, p.Publish(ctx, Event{ID: "evt-1", Type: ProductDeleted, ProductID: "p-1", OccurredAt: fixed}))

		var got Event
		require.NoError(t, json.Unmarshal(sent[0].Value, &got))
		assert.Equal(t, "evt-1", got.ID)
		assert.Equal(t, fixed, got.OccurredAt)
		assert.Nil(t, got.Product)
	})

	t.Run("write failure", func(t *testing.T) {
		w := new(mockWriter)
		p := newKafkaPublisher(w)
		w.On("WriteMessages", ctx, mock.Anything).Return(errors.New("broker down")).Once()

		err := p.Publish(ctx, Event{Type: ProductUpdated, ProductID: "p-1"})

		assert.ErrorContains(t, err, "write event product.updated: broker down")
	})
}

func TestKafkaPublisher_Close(t *testing.T) {
	w := new(mockWriter)
	w.On("Close").Return(nil).Once()

	assert.NoError(t, newKafkaPublisher(w).Close())
	w.AssertExpectations(t)
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: ProductCreated}))
	assert.NoError(t, p.Close())
}
