package handler

import (
	"context"

	"ticket_engine/notify"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// InventoryStream relays inventory events of one ticket type to a websocket
// client until either side disconnects.
func (h *Handler) InventoryStream(c *websocket.Conn) {
	ticketTypeID := c.Params("ticketTypeId")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, closeSub := h.bus.Subscribe(ctx, notify.InventoryChannel(ticketTypeID))
	defer func() {
		_ = closeSub()
		_ = c.Close()
	}()

	// Reader loop only detects the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-events:
			if !ok {
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
				h.log.Debug("websocket write failed", zap.String("ticket_type_id", ticketTypeID), zap.Error(err))
				return
			}
		}
	}
}
