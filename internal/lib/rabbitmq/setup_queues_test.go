package rabbitmq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllQueues(t *testing.T) {
	queues := AllQueues()

	require.Len(t, queues, 2)

	seen := map[string]bool{}
	for _, q := range queues {
		assert.NotEmpty(t, q.Exchange)
		assert.NotEmpty(t, q.RoutingKey)
		assert.Falsef(t, seen[q.QueueName], "duplicate queue name: %s", q.QueueName)
		seen[q.QueueName] = true
	}
}

func TestWorkerQueues(t *testing.T) {
	assert.Equal(t, []QueueConfig{
		{Exchange: "orders", QueueName: "orders.fulfillment", RoutingKey: "order.paid"},
	}, FulfillmentQueues())
	assert.Equal(t, []QueueConfig{
		{Exchange: "notifications", QueueName: "notifications.verification", RoutingKey: "verification"},
	}, NotificationQueues())
}
