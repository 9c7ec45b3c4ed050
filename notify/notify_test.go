package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRedisBusPublish(t *testing.T) {
	client, mock := redismock.NewClientMock()
	bus := NewRedisBus(client, zap.NewNop())

	event := InventoryEvent{TicketTypeID: "tt-1", RemainingQuantity: 4, At: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	mock.ExpectPublish(InventoryChannel("tt-1"), string(payload)).SetVal(1)

	require.NoError(t, bus.Publish(context.Background(), InventoryChannel("tt-1"), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishSafeSwallowsErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	bus := NewRedisBus(client, zap.NewNop())

	event := OrderEvent{OrderID: "o-1", Status: "paid"}
	payload, _ := json.Marshal(event)
	mock.ExpectPublish(OrderChannel("o-1"), string(payload)).SetErr(errors.New("redis down"))

	assert.NotPanics(t, func() {
		PublishSafe(context.Background(), bus, zap.NewNop(), OrderChannel("o-1"), event)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNopBus(t *testing.T) {
	var bus Bus = NopBus{}
	assert.NoError(t, bus.Publish(context.Background(), "x", 1))

	ch, closeFn := bus.Subscribe(context.Background(), "x")
	require.NoError(t, closeFn())
	require.NoError(t, closeFn())
	_, open := <-ch
	assert.False(t, open)
}

func TestChannels(t *testing.T) {
	assert.Equal(t, "ticket_type:abc", InventoryChannel("abc"))
	assert.Equal(t, "order:abc", OrderChannel("abc"))
}
