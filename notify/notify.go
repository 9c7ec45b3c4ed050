package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ticket_engine/constants"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type InventoryEvent struct {
	TicketTypeID      string    `json:"ticketTypeId"`
	RemainingQuantity int       `json:"remainingQuantity"`
	At                time.Time `json:"at"`
}

type OrderEvent struct {
	OrderID string    `json:"orderId"`
	Status  string    `json:"status"`
	At      time.Time `json:"at"`
}

func InventoryChannel(ticketTypeID string) string {
	return constants.CHANNEL_TICKET_TYPE + ticketTypeID
}

func OrderChannel(orderID string) string {
	return constants.CHANNEL_ORDER + orderID
}

// Bus publishes state changes after commit and streams them to websocket
// clients.
type Bus interface {
	Publish(ctx context.Context, channel string, event any) error
	Subscribe(ctx context.Context, channel string) (<-chan string, func() error)
}

type RedisBus struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisBus(client *redis.Client, log *zap.Logger) *RedisBus {
	return &RedisBus{client: client, log: log}
}

func (b *RedisBus) Publish(ctx context.Context, channel string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channel, string(payload)).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, channel string) (<-chan string, func() error) {
	pubsub := b.client.Subscribe(ctx, channel)
	out := make(chan string)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			select {
			case out <- msg.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, pubsub.Close
}

// NopBus drops every event. Used when REDIS_ADDR is empty.
type NopBus struct{}

func (NopBus) Publish(context.Context, string, any) error { return nil }

func (NopBus) Subscribe(ctx context.Context, _ string) (<-chan string, func() error) {
	out := make(chan string)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		close(out)
	}()
	var once sync.Once
	return out, func() error {
		once.Do(func() { close(done) })
		return nil
	}
}

// PublishSafe publishes and logs failures. Event delivery never fails the
// operation that produced it.
func PublishSafe(ctx context.Context, bus Bus, log *zap.Logger, channel string, event any) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, channel, event); err != nil && log != nil {
		log.Warn("publish event failed", zap.String("channel", channel), zap.Error(err))
	}
}
