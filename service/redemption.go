package service

import (
	"context"
	"time"

	"ticket_engine/constants"
	"ticket_engine/helper"
	"ticket_engine/model"
	"ticket_engine/monitoring"
	"ticket_engine/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RedemptionService verifies scanned ticket credentials at the venue and
// marks tickets used exactly once.
type RedemptionService struct {
	db            *gorm.DB
	log           *zap.Logger
	advanceWindow time.Duration
	now           Clock
}

func NewRedemptionService(db *gorm.DB, log *zap.Logger, advanceWindow time.Duration) *RedemptionService {
	return &RedemptionService{db: db, log: log, advanceWindow: advanceWindow, now: time.Now}
}

func (s *RedemptionService) VerifyTicket(ctx context.Context, credential string, verifier model.TokenClaim) (receipt *model.VerificationReceipt, err error) {
	defer func() { monitoring.TrackRedemption(err) }()

	buyerID, orderID, err := helper.ParseTicketCredential(credential)
	if err != nil {
		return nil, err
	}

	var order model.Order
	err = s.db.WithContext(ctx).
		Preload("TicketType.Session.Concert.Organization").
		Where("id = ? AND buyer_id = ?", orderID, buyerID).
		First(&order).Error
	if err != nil {
		return nil, notFoundOr(err, constants.ORDER_NOT_FOUND, "order not found")
	}
	if order.Status != model.OrderPaid {
		return nil, utils.ConflictError(constants.INVALID_ORDER_STATUS, "order is "+order.Status)
	}

	session := order.TicketType.Session
	concert := session.Concert
	if concert.Organization.OwnerID != verifier.UserID && !helper.IsElevated(verifier.Role) {
		return nil, utils.ForbiddenError(constants.INSUFFICIENT_PERMISSION, "verifier does not manage this concert")
	}

	var ticket model.Ticket
	err = s.db.WithContext(ctx).
		Where("order_id = ? AND buyer_id = ?", orderID, buyerID).
		First(&ticket).Error
	if err != nil {
		return nil, notFoundOr(err, constants.TICKET_NOT_FOUND, "ticket not found")
	}

	switch ticket.Status {
	case model.TicketPurchased:
	case model.TicketUsed:
		return nil, utils.ConflictError(constants.TICKET_ALREADY_USED, "ticket has already been used")
	case model.TicketRefunded:
		return nil, utils.ConflictError(constants.TICKET_REFUNDED, "ticket has been refunded")
	default:
		return nil, utils.ConflictError(constants.INVALID_TICKET_STATUS, "ticket is "+ticket.Status)
	}

	now := s.now()
	earliest := ticket.SessionStartTime.Add(-s.advanceWindow)
	if now.Before(earliest) {
		return nil, utils.ConflictError(constants.TOO_EARLY_TO_VERIFY,
			"verification opens at "+earliest.Format(time.RFC3339))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Ticket{}).
			Where("id = ? AND status = ?", ticket.ID, model.TicketPurchased).
			Updates(map[string]any{
				"status":      model.TicketUsed,
				"used_at":     now,
				"verified_by": verifier.UserID,
			})
		if result.Error != nil {
			return utils.SystemError("mark ticket used", result.Error)
		}
		if result.RowsAffected == 0 {
			return utils.ConflictError(constants.TICKET_ALREADY_USED, "ticket has already been used")
		}
		return nil
	})
	if err != nil {
		return nil, utils.AsAppError(err)
	}

	s.log.Info("ticket verified",
		zap.String("ticket_id", ticket.ID),
		zap.String("order_id", order.ID),
		zap.String("verifier_id", verifier.UserID))

	return &model.VerificationReceipt{
		TicketID:       ticket.ID,
		OrderNumber:    order.OrderNumber,
		PurchaserName:  ticket.PurchaserContact.Name,
		PurchaserEmail: ticket.PurchaserContact.Email,
		TicketTypeName: order.TicketType.Name,
		ConcertTitle:   concert.Title,
		SessionTitle:   session.Title,
		Venue:          session.Venue,
		ConcertDate:    ticket.SessionStartTime,
		VerifiedAt:     now,
		VerifierID:     verifier.UserID,
		VerifierEmail:  verifier.Email,
	}, nil
}
