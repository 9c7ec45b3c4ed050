package service

import (
	"context"
	"time"

	"ticket_engine/constants"
	"ticket_engine/model"
	"ticket_engine/monitoring"
	"ticket_engine/notify"
	"ticket_engine/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ReservationInput struct {
	TicketTypeID string
	BuyerID      string
	Purchaser    model.PurchaserContact
}

// ReservationService places time-bounded holds on ticket inventory.
type ReservationService struct {
	db           *gorm.DB
	bus          notify.Bus
	log          *zap.Logger
	holdDuration time.Duration
	now          Clock
}

func NewReservationService(db *gorm.DB, bus notify.Bus, log *zap.Logger, holdDuration time.Duration) *ReservationService {
	return &ReservationService{db: db, bus: bus, log: log, holdDuration: holdDuration, now: time.Now}
}

// CreateReservation decrements remaining inventory by one and creates a held
// order in the same transaction. The decrement is a single conditional
// update, so concurrent callers can never oversell.
func (s *ReservationService) CreateReservation(ctx context.Context, in ReservationInput) (res *model.ReservationResponse, err error) {
	defer func() { monitoring.TrackReservation(err) }()

	if err := requireUUID(in.TicketTypeID, "ticketTypeId"); err != nil {
		return nil, err
	}
	if err := requireUUID(in.BuyerID, "buyerId"); err != nil {
		return nil, err
	}

	var ticketType model.TicketType
	if err := s.db.WithContext(ctx).First(&ticketType, "id = ?", in.TicketTypeID).Error; err != nil {
		return nil, notFoundOr(err, constants.NOT_FOUND, "ticket type not found")
	}

	now := s.now()
	if !ticketType.OnSale(now) {
		return nil, utils.ConflictError(constants.OUT_OF_SALE_WINDOW, "ticket type is not on sale")
	}

	order := model.Order{
		DTO:              model.DTO{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now},
		TicketTypeID:     ticketType.ID,
		BuyerID:          in.BuyerID,
		Status:           model.OrderHeld,
		LockToken:        uuid.NewString(),
		LockExpireTime:   now.Add(s.holdDuration),
		PurchaserContact: in.Purchaser,
	}
	order.OrderNumber = model.BuildOrderNumber(now, order.ID)

	var remaining int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.TicketType{}).
			Where("id = ? AND remaining_quantity > 0", ticketType.ID).
			UpdateColumn("remaining_quantity", gorm.Expr("remaining_quantity - 1"))
		if result.Error != nil {
			return utils.SystemError("decrement inventory", result.Error)
		}
		if result.RowsAffected == 0 {
			return utils.ConflictError(constants.SOLD_OUT, "ticket type is sold out")
		}

		if err := tx.Create(&order).Error; err != nil {
			return utils.SystemError("create order", err)
		}

		return tx.Model(&model.TicketType{}).
			Select("remaining_quantity").
			Where("id = ?", ticketType.ID).
			Scan(&remaining).Error
	})
	if err != nil {
		return nil, utils.AsAppError(err)
	}

	s.log.Info("reservation created",
		zap.String("order_id", order.ID),
		zap.String("ticket_type_id", ticketType.ID),
		zap.Int("remaining", remaining))

	notify.PublishSafe(ctx, s.bus, s.log, notify.InventoryChannel(ticketType.ID), notify.InventoryEvent{
		TicketTypeID: ticketType.ID, RemainingQuantity: remaining, At: now,
	})
	notify.PublishSafe(ctx, s.bus, s.log, notify.OrderChannel(order.ID), notify.OrderEvent{
		OrderID: order.ID, Status: order.Status, At: now,
	})

	return &model.ReservationResponse{
		OrderID:           order.ID,
		OrderNumber:       order.OrderNumber,
		LockExpireTime:    order.LockExpireTime,
		RemainingQuantity: remaining,
	}, nil
}
