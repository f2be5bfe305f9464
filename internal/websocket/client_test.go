package websocket

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestClient_WatchCommands(t *testing.T) {
	c := NewClient(nil, "user-1", NewHub())
	orderA := uuid.NewString()
	orderB := uuid.NewString()

	assert.True(t, c.Watches(orderA), "a fresh connection receives every order")

	c.handleCommand([]byte(fmt.Sprintf(`{"action":"watch","emiOrderId":%q}`, orderA)))
	assert.True(t, c.Watches(orderA))
	assert.False(t, c.Watches(orderB))

	// Upper-case IDs are normalized to the canonical form events carry
	c.handleCommand([]byte(fmt.Sprintf(`{"action":"watch","emiOrderId":%q}`, strings.ToUpper(orderB))))
	assert.True(t, c.Watches(orderB))

	c.handleCommand([]byte(fmt.Sprintf(`{"action":"unwatch","emiOrderId":%q}`, orderA)))
	assert.False(t, c.Watches(orderA))

	c.handleCommand([]byte(fmt.Sprintf(`{"action":"unwatch","emiOrderId":%q}`, orderB)))
	assert.True(t, c.Watches(orderA), "unwatching the last order restores the default")
}

func TestClient_IgnoresBadCommands(t *testing.T) {
	c := NewClient(nil, "user-1", NewHub())
	orderA := uuid.NewString()

	for _, frame := range []string{
		`not json`,
		`{"action":"watch","emiOrderId":"order-1"}`,
		fmt.Sprintf(`{"action":"subscribe","emiOrderId":%q}`, orderA),
	} {
		c.handleCommand([]byte(frame))
	}

	assert.True(t, c.Watches(uuid.NewString()), "still watching everything")
}

func TestClient_WatchIsCapped(t *testing.T) {
	c := NewClient(nil, "user-1", NewHub())
	for i := 0; i < maxWatched+10; i++ {
		c.Watch(uuid.NewString())
	}
	assert.Len(t, c.watching, maxWatched)
}
