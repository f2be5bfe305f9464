package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeCreated   EventType = "created"
	EventTypeUpdated   EventType = "updated"
	EventTypePaid      EventType = "paid"
	EventTypeCompleted EventType = "completed"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeNotification EntityType = "notification"
	EntityTypeEmiOrder     EntityType = "emi_order"
)

// Event is one message pushed to a user's connections.
//
// Seq is assigned by the hub and increases per user, so a reconnecting client
// can ask for everything after the last Seq it saw. EmiOrderID scopes the event
// to one order; connections watching specific orders only receive events for
// those orders. Events without an EmiOrderID reach every connection of the user.
type Event struct {
	Seq        uint64      `json:"seq"`
	Type       string      `json:"type"`
	Entity     EntityType  `json:"entity"`
	EmiOrderID string      `json:"emiOrderId,omitempty"`
	Payload    interface{} `json:"payload"`
	Timestamp  time.Time   `json:"timestamp"`
}

// NewEvent creates an unscoped event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// NotificationCreated creates a notification.created event
func NotificationCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeNotification, payload)
}

func emiOrderEvent(eventType EventType, order *domain.EmiOrder) Event {
	evt := NewEvent(eventType, EntityTypeEmiOrder, order)
	evt.EmiOrderID = order.ID.String()
	return evt
}

// EmiOrderCreated creates an emi_order.created event
func EmiOrderCreated(order *domain.EmiOrder) Event {
	return emiOrderEvent(EventTypeCreated, order)
}

// EmiOrderUpdated creates an emi_order.updated event (auto-pay, cancellation)
func EmiOrderUpdated(order *domain.EmiOrder) Event {
	return emiOrderEvent(EventTypeUpdated, order)
}

// EmiInstallmentPaid creates an emi_order.paid event
func EmiInstallmentPaid(order *domain.EmiOrder) Event {
	return emiOrderEvent(EventTypePaid, order)
}

// EmiOrderCompleted creates an emi_order.completed event
func EmiOrderCompleted(order *domain.EmiOrder) Event {
	return emiOrderEvent(EventTypeCompleted, order)
}
