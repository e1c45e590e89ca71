package rabbitmq

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func TestPublishUsage(t *testing.T) {
	ch := new(mockChannel)
	publisher := NewPublisher(ch)

	event := &models.UsageEvent{
		ID:             "11111111-2222-3333-4444-555555555555",
		UserID:         7,
		ServiceID:      3,
		ConsumedTokens: 120,
		Timestamp:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	ch.On("Publish", UsageExchange, UsageRoutingKey, false, false,
		mock.MatchedBy(func(msg amqp.Publishing) bool {
			if msg.ContentType != "application/json" || msg.DeliveryMode != amqp.Persistent {
				return false
			}
			var got models.UsageEvent
			if err := json.Unmarshal(msg.Body, &got); err != nil {
				return false
			}
			return got.UserID == 7 && got.ServiceID == 3 && got.ConsumedTokens == 120
		})).Return(nil)

	err := publisher.PublishUsage(event)
	require.NoError(t, err)
	ch.AssertExpectations(t)
}

func TestPublishUsage_ChannelError(t *testing.T) {
	ch := new(mockChannel)
	publisher := NewPublisher(ch)

	ch.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("channel closed"))

	err := publisher.PublishUsage(&models.UsageEvent{UserID: 1, ServiceID: 1})
	assert.Error(t, err)
}
