package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client
var ErrClientClosed = errors.New("client is closed")

// History defaults: enough to cover a page reload or a short network drop
const (
	DefaultHistorySize = 50
	DefaultHistoryTTL  = 24 * time.Hour
)

// ClientInterface defines the interface that clients must implement
type ClientInterface interface {
	ID() string
	UserID() string
	// Watches reports whether events for emiOrderID should reach this connection
	Watches(emiOrderID string) bool
	Send(data []byte) error
	Close() error
}

// userFeed is one user's connections plus the tail of events published to them
type userFeed struct {
	clients map[string]ClientInterface
	seq     uint64
	history []Event
}

// Hub routes EMI events to the connections of the user who owns them.
//
// Every published event gets the next per-user sequence number and is kept in
// a bounded history, whether or not the user is connected. Resume replays that
// history to a reconnecting client so installment and notification events sent
// while it was offline are not lost. Sends happen under the hub lock; Client.Send
// never blocks, so each connection sees events in sequence order.
type Hub struct {
	users       map[string]*userFeed
	historySize int
	historyTTL  time.Duration
	now         func() time.Time
	mu          sync.Mutex
}

// NewHub creates a Hub with the default history bounds
func NewHub() *Hub {
	return NewHubWithHistory(DefaultHistorySize, DefaultHistoryTTL)
}

// NewHubWithHistory creates a Hub keeping at most size events per user, each
// for at most ttl. A size of zero disables replay.
func NewHubWithHistory(size int, ttl time.Duration) *Hub {
	return &Hub{
		users:       make(map[string]*userFeed),
		historySize: size,
		historyTTL:  ttl,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (h *Hub) feedLocked(userID string) *userFeed {
	feed, ok := h.users[userID]
	if !ok {
		feed = &userFeed{clients: make(map[string]ClientInterface)}
		h.users[userID] = feed
	}
	return feed
}

// Register adds a client without replaying history
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.feedLocked(client.UserID()).clients[client.ID()] = client

	log.Debug().
		Str("user_id", client.UserID()).
		Str("client_id", client.ID()).
		Msg("WebSocket client registered")
}

// Resume adds a client and first sends it every retained event with a sequence
// number above lastSeq. A lastSeq ahead of the hub (the server restarted since
// the client last connected) replays the whole retained history.
// It returns the number of events replayed.
func (h *Hub) Resume(client ClientInterface, lastSeq uint64) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	feed := h.feedLocked(client.UserID())
	h.pruneLocked(feed)
	if lastSeq > feed.seq {
		lastSeq = 0
	}

	replayed := 0
	for _, evt := range feed.history {
		if evt.Seq <= lastSeq || !deliverable(client, evt) {
			continue
		}
		if !h.sendLocked(client, evt) {
			break
		}
		replayed++
	}
	feed.clients[client.ID()] = client

	log.Debug().
		Str("user_id", client.UserID()).
		Str("client_id", client.ID()).
		Uint64("last_seq", lastSeq).
		Int("replayed", replayed).
		Msg("WebSocket client resumed")
	return replayed
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID := client.UserID()
	feed, ok := h.users[userID]
	if !ok {
		return
	}
	if _, exists := feed.clients[client.ID()]; !exists {
		return
	}
	delete(feed.clients, client.ID())
	h.pruneLocked(feed)
	if len(feed.clients) == 0 && len(feed.history) == 0 {
		delete(h.users, userID)
	}

	log.Debug().
		Str("user_id", userID).
		Str("client_id", client.ID()).
		Msg("WebSocket client unregistered")
}

// Broadcast stamps the event with the user's next sequence number, retains it
// for replay and sends it to the user's connections that watch it
func (h *Hub) Broadcast(userID string, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	feed := h.feedLocked(userID)
	feed.seq++
	event.Seq = feed.seq
	if event.Timestamp.IsZero() {
		event.Timestamp = h.now()
	}
	h.pruneLocked(feed)
	if h.historySize > 0 {
		feed.history = append(feed.history, event)
		if over := len(feed.history) - h.historySize; over > 0 {
			feed.history = append(feed.history[:0:0], feed.history[over:]...)
		}
	}

	delivered := 0
	for _, client := range feed.clients {
		if !deliverable(client, event) {
			continue
		}
		if h.sendLocked(client, event) {
			delivered++
		}
	}

	log.Debug().
		Str("user_id", userID).
		Str("event_type", event.Type).
		Str("emi_order_id", event.EmiOrderID).
		Uint64("seq", event.Seq).
		Int("delivered", delivered).
		Msg("Broadcast event")
}

func deliverable(client ClientInterface, event Event) bool {
	return event.EmiOrderID == "" || client.Watches(event.EmiOrderID)
}

// sendLocked serializes and queues one event. A failed send means the client
// is gone or too slow; its read pump unregisters it.
func (h *Hub) sendLocked(client ClientInterface, event Event) bool {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", client.UserID()).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return false
	}
	if err := client.Send(data); err != nil {
		log.Warn().
			Err(err).
			Str("user_id", client.UserID()).
			Str("client_id", client.ID()).
			Uint64("seq", event.Seq).
			Msg("Failed to send to client")
		return false
	}
	return true
}

// pruneLocked drops retained events older than the history TTL
func (h *Hub) pruneLocked(feed *userFeed) {
	if h.historyTTL <= 0 || len(feed.history) == 0 {
		return
	}
	cutoff := h.now().Add(-h.historyTTL)
	keep := 0
	for keep < len(feed.history) && feed.history[keep].Timestamp.Before(cutoff) {
		keep++
	}
	if keep > 0 {
		feed.history = append(feed.history[:0:0], feed.history[keep:]...)
	}
}

// LastSeq returns the sequence number of the user's most recent event
func (h *Hub) LastSeq(userID string) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if feed, ok := h.users[userID]; ok {
		return feed.seq
	}
	return 0
}

// ClientCount returns the number of clients connected for a user
func (h *Hub) ClientCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if feed, ok := h.users[userID]; ok {
		return len(feed.clients)
	}
	return 0
}

// TotalClientCount returns the total number of connected clients across all users
func (h *Hub) TotalClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	total := 0
	for _, feed := range h.users {
		total += len(feed.clients)
	}
	return total
}
