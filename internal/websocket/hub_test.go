package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for Client that captures sent messages
type mockClient struct {
	id       string
	userID   string
	watching map[string]bool
	messages [][]byte
	mu       sync.Mutex
	closed   bool
}

func newMockClient(id string, userID string, watching ...string) *mockClient {
	m := &mockClient{id: id, userID: userID, watching: make(map[string]bool)}
	for _, w := range watching {
		m.watching[w] = true
	}
	return m
}

func (m *mockClient) ID() string     { return m.id }
func (m *mockClient) UserID() string { return m.userID }

func (m *mockClient) Watches(emiOrderID string) bool {
	return len(m.watching) == 0 || m.watching[emiOrderID]
}

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// events decodes everything the client received
func (m *mockClient) events(t *testing.T) []Event {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, 0, len(m.messages))
	for _, raw := range m.messages {
		var evt Event
		require.NoError(t, json.Unmarshal(raw, &evt))
		out = append(out, evt)
	}
	return out
}

func seqs(events []Event) []uint64 {
	out := make([]uint64, len(events))
	for i, e := range events {
		out[i] = e.Seq
	}
	return out
}

func testOrder() *domain.EmiOrder {
	return &domain.EmiOrder{ID: uuid.New(), UserID: "user-1", Status: domain.EmiOrderStatusOngoing}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	client1 := newMockClient("client-1", "user-1")
	client2 := newMockClient("client-2", "user-1")
	client3 := newMockClient("client-3", "user-2")

	hub.Register(client1)
	hub.Register(client2)
	hub.Register(client3)

	assert.Equal(t, 2, hub.ClientCount("user-1"))
	assert.Equal(t, 1, hub.ClientCount("user-2"))
	assert.Equal(t, 0, hub.ClientCount("nobody"))
	assert.Equal(t, 3, hub.TotalClientCount())

	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount("user-1"))

	hub.Unregister(client2)
	hub.Unregister(client3)
	assert.Equal(t, 0, hub.TotalClientCount())

	require.NotPanics(t, func() {
		hub.Unregister(newMockClient("never-registered", "user-1"))
	})
}

func TestHub_Broadcast_UserIsolation(t *testing.T) {
	hub := NewHub()
	alice1 := newMockClient("a1", "alice")
	alice2 := newMockClient("a2", "alice")
	bob := newMockClient("b1", "bob")
	hub.Register(alice1)
	hub.Register(alice2)
	hub.Register(bob)

	hub.Broadcast("alice", NotificationCreated(map[string]string{"title": "Installment paid"}))

	assert.Len(t, alice1.events(t), 1)
	assert.Len(t, alice2.events(t), 1)
	assert.Empty(t, bob.events(t))
}

func TestHub_Broadcast_SequencePerUser(t *testing.T) {
	hub := NewHub()
	alice := newMockClient("a1", "alice")
	bob := newMockClient("b1", "bob")
	hub.Register(alice)
	hub.Register(bob)

	order := testOrder()
	hub.Broadcast("alice", EmiOrderCreated(order))
	hub.Broadcast("alice", EmiInstallmentPaid(order))
	hub.Broadcast("bob", NotificationCreated(map[string]string{"title": "x"}))
	hub.Broadcast("alice", EmiOrderCompleted(order))

	got := alice.events(t)
	assert.Equal(t, []uint64{1, 2, 3}, seqs(got), "delivered in publish order")
	assert.Equal(t, "emi_order.completed", got[2].Type)
	assert.Equal(t, order.ID.String(), got[2].EmiOrderID)
	assert.Equal(t, []uint64{1}, seqs(bob.events(t)))
	assert.Equal(t, uint64(3), hub.LastSeq("alice"))
}

func TestHub_Broadcast_WatchedOrders(t *testing.T) {
	hub := NewHub()
	watched := testOrder()
	other := testOrder()

	orderPage := newMockClient("page", "user-1", watched.ID.String())
	dashboard := newMockClient("dash", "user-1")
	hub.Register(orderPage)
	hub.Register(dashboard)

	hub.Broadcast("user-1", EmiInstallmentPaid(watched))
	hub.Broadcast("user-1", EmiInstallmentPaid(other))
	hub.Broadcast("user-1", NotificationCreated(map[string]string{"title": "Auto-pay failed"}))

	pageEvents := orderPage.events(t)
	require.Len(t, pageEvents, 2)
	assert.Equal(t, watched.ID.String(), pageEvents[0].EmiOrderID)
	assert.Equal(t, "notification.created", pageEvents[1].Type, "notifications reach every connection")

	assert.Len(t, dashboard.events(t), 3)
}

func TestHub_Resume_ReplaysMissedEvents(t *testing.T) {
	hub := NewHub()
	order := testOrder()

	first := newMockClient("tab-1", "user-1")
	hub.Register(first)
	hub.Broadcast("user-1", EmiOrderCreated(order))
	hub.Unregister(first)

	// Batch settles the installment while the user is offline
	hub.Broadcast("user-1", EmiInstallmentPaid(order))
	hub.Broadcast("user-1", NotificationCreated(map[string]string{"title": "Installment paid"}))

	back := newMockClient("tab-2", "user-1")
	replayed := hub.Resume(back, 1)
	assert.Equal(t, 2, replayed)
	assert.Equal(t, []uint64{2, 3}, seqs(back.events(t)))

	// Live events continue the sequence
	hub.Broadcast("user-1", EmiOrderCompleted(order))
	assert.Equal(t, []uint64{2, 3, 4}, seqs(back.events(t)))
	assert.Equal(t, 1, hub.ClientCount("user-1"))
}

func TestHub_Resume_Edges(t *testing.T) {
	order := testOrder()

	t.Run("up to date client gets nothing", func(t *testing.T) {
		hub := NewHub()
		hub.Broadcast("user-1", EmiOrderCreated(order))
		c := newMockClient("c", "user-1")
		assert.Equal(t, 0, hub.Resume(c, 1))
		assert.Empty(t, c.events(t))
	})

	t.Run("seq ahead of hub replays everything retained", func(t *testing.T) {
		hub := NewHub()
		hub.Broadcast("user-1", EmiOrderCreated(order))
		hub.Broadcast("user-1", EmiInstallmentPaid(order))
		c := newMockClient("c", "user-1")
		assert.Equal(t, 2, hub.Resume(c, 99))
	})

	t.Run("history is bounded", func(t *testing.T) {
		hub := NewHubWithHistory(3, time.Hour)
		for i := 0; i < 5; i++ {
			hub.Broadcast("user-1", EmiInstallmentPaid(order))
		}
		c := newMockClient("c", "user-1")
		hub.Resume(c, 0)
		assert.Equal(t, []uint64{3, 4, 5}, seqs(c.events(t)))
	})

	t.Run("expired events are not replayed", func(t *testing.T) {
		hub := NewHubWithHistory(10, time.Hour)
		now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
		hub.now = func() time.Time { return now }

		old := EmiInstallmentPaid(order)
		old.Timestamp = now.Add(-2 * time.Hour)
		hub.Broadcast("user-1", old)
		hub.Broadcast("user-1", EmiOrderCompleted(order))

		c := newMockClient("c", "user-1")
		hub.Resume(c, 0)
		got := c.events(t)
		require.Len(t, got, 1)
		assert.Equal(t, "emi_order.completed", got[0].Type)
	})

	t.Run("replay honours watched orders", func(t *testing.T) {
		hub := NewHub()
		other := testOrder()
		hub.Broadcast("user-1", EmiInstallmentPaid(order))
		hub.Broadcast("user-1", EmiInstallmentPaid(other))
		c := newMockClient("c", "user-1", other.ID.String())
		assert.Equal(t, 1, hub.Resume(c, 0))
		assert.Equal(t, other.ID.String(), c.events(t)[0].EmiOrderID)
	})

	t.Run("zero size disables replay", func(t *testing.T) {
		hub := NewHubWithHistory(0, time.Hour)
		hub.Broadcast("user-1", EmiOrderCreated(order))
		c := newMockClient("c", "user-1")
		assert.Equal(t, 0, hub.Resume(c, 0))
		assert.Equal(t, uint64(1), hub.LastSeq("user-1"))
	})
}

func TestHub_ClosedClientDoesNotBlockOthers(t *testing.T) {
	hub := NewHub()
	gone := newMockClient("gone", "user-1")
	live := newMockClient("live", "user-1")
	hub.Register(gone)
	hub.Register(live)
	require.NoError(t, gone.Close())

	hub.Broadcast("user-1", EmiInstallmentPaid(testOrder()))

	assert.Empty(t, gone.events(t))
	assert.Len(t, live.events(t), 1)
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := NewHub()
	const clientCount = 50

	clients := make([]*mockClient, clientCount)
	for i := range clients {
		clients[i] = newMockClient(fmt.Sprintf("client-%d", i), fmt.Sprintf("user-%d", i%5))
	}

	var wg sync.WaitGroup
	for i := range clients {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			hub.Register(clients[idx])
		}(i)
	}
	wg.Wait()
	assert.Equal(t, clientCount, hub.TotalClientCount())

	for i := range clients {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			hub.Broadcast(fmt.Sprintf("user-%d", idx%5), NotificationCreated(map[string]int{"n": idx}))
		}(i)
		go func(idx int) {
			defer wg.Done()
			hub.Unregister(clients[idx])
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, hub.TotalClientCount())
	for u := 0; u < 5; u++ {
		assert.Equal(t, uint64(10), hub.LastSeq(fmt.Sprintf("user-%d", u)))
	}
}
