package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHub_PublishRetainsForOfflineUser(t *testing.T) {
	hub := NewHub()
	var publisher EventPublisher = hub
	order := testOrder()

	// Nobody connected: the event is still numbered and kept
	publisher.Publish(order.UserID, EmiInstallmentPaid(order))
	assert.Equal(t, uint64(1), hub.LastSeq(order.UserID))

	client := newMockClient("phone", order.UserID)
	assert.Equal(t, 1, hub.Resume(client, 0))

	got := client.events(t)
	assert.Equal(t, "emi_order.paid", got[0].Type)
	assert.Equal(t, order.ID.String(), got[0].EmiOrderID)
}

func TestNoOpPublisher_Publish(t *testing.T) {
	var publisher EventPublisher = &NoOpPublisher{}

	assert.NotPanics(t, func() {
		publisher.Publish("user-1", EmiOrderCompleted(testOrder()))
	})
}
