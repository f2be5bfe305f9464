package websocket

// EventPublisher is how services push EMI events toward a user's connections
type EventPublisher interface {
	Publish(userID string, event Event)
}

var _ EventPublisher = (*Hub)(nil)

// Publish numbers, retains and delivers the event for userID
func (h *Hub) Publish(userID string, event Event) {
	h.Broadcast(userID, event)
}

// NoOpPublisher drops events; the batch worker has no connected clients
type NoOpPublisher struct{}

// Publish does nothing
func (n *NoOpPublisher) Publish(userID string, event Event) {}
