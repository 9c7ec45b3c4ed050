package service

import (
	"context"
	"time"

	"ticket_engine/model"
	"ticket_engine/monitoring"
	"ticket_engine/notify"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const reclaimBatchSize = 500

// HoldReclaimer cancels held orders whose hold expired more than grace ago
// and returns their unit to inventory. Pending payments are left for the
// gateway callback to settle.
type HoldReclaimer struct {
	db    *gorm.DB
	bus   notify.Bus
	log   *zap.Logger
	grace time.Duration
	now   Clock
}

func NewHoldReclaimer(db *gorm.DB, bus notify.Bus, log *zap.Logger, grace time.Duration) *HoldReclaimer {
	return &HoldReclaimer{db: db, bus: bus, log: log, grace: grace, now: time.Now}
}

// ReclaimExpired processes one batch and reports how many orders it
// cancelled. Each order is reclaimed in its own transaction guarded by a
// conditional status update, so repeated or concurrent runs release each
// unit once.
func (r *HoldReclaimer) ReclaimExpired(ctx context.Context) (int, error) {
	now := r.now()
	cutoff := now.Add(-r.grace)

	var orders []model.Order
	if err := r.db.WithContext(ctx).
		Where("status = ? AND lock_expire_time < ?", model.OrderHeld, cutoff).
		Order("lock_expire_time").
		Limit(reclaimBatchSize).
		Find(&orders).Error; err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, order := range orders {
		var remaining int
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&model.Order{}).
				Where("id = ? AND status = ?", order.ID, model.OrderHeld).
				Update("status", model.OrderCancelled)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errUnchanged
			}
			if err := tx.Model(&model.TicketType{}).
				Where("id = ? AND remaining_quantity < total_quantity", order.TicketTypeID).
				UpdateColumn("remaining_quantity", gorm.Expr("remaining_quantity + 1")).Error; err != nil {
				return err
			}
			return tx.Model(&model.TicketType{}).
				Select("remaining_quantity").
				Where("id = ?", order.TicketTypeID).
				Scan(&remaining).Error
		})
		if err == errUnchanged {
			continue
		}
		if err != nil {
			r.log.Error("reclaim hold failed", zap.String("order_id", order.ID), zap.Error(err))
			continue
		}
		reclaimed++

		notify.PublishSafe(ctx, r.bus, r.log, notify.InventoryChannel(order.TicketTypeID), notify.InventoryEvent{
			TicketTypeID: order.TicketTypeID, RemainingQuantity: remaining, At: now,
		})
		notify.PublishSafe(ctx, r.bus, r.log, notify.OrderChannel(order.ID), notify.OrderEvent{
			OrderID: order.ID, Status: model.OrderCancelled, At: now,
		})
	}
	monitoring.TrackHoldsReclaimed(reclaimed)
	return reclaimed, nil
}
