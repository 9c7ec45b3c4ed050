package service

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"ticket_engine/constants"
	"ticket_engine/database"
	"ticket_engine/ecpay"
	"ticket_engine/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingBus struct {
	mu     sync.Mutex
	events map[string][]any
}

func newRecordingBus() *recordingBus {
	return &recordingBus{events: map[string][]any{}}
}

func (b *recordingBus) Publish(_ context.Context, channel string, event any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[channel] = append(b.events[channel], event)
	return nil
}

func (b *recordingBus) Subscribe(context.Context, string) (<-chan string, func() error) {
	return make(chan string), func() error { return nil }
}

func (b *recordingBus) count(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events[channel])
}

type testEnv struct {
	db         *gorm.DB
	bus        *recordingBus
	gateway    *ecpay.Client
	now        time.Time
	ownerID    string
	buyer      model.TokenClaim
	session    model.Session
	ticketType model.TicketType
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env := &testEnv{
		db:      db,
		bus:     newRecordingBus(),
		now:     now,
		ownerID: uuid.NewString(),
		buyer:   model.TokenClaim{UserID: uuid.NewString(), Role: constants.ROLE_USER, Email: "buyer@example.com"},
		gateway: ecpay.New(model.ECPayConfig{
			MerchantID:    "3002607",
			HashKey:       "pwFHCqoQZGmho4w6",
			HashIV:        "EkRm7iFT261dpevs",
			CheckoutURL:   "https://payment-stage.ecpay.com.tw/Cashier/AioCheckOut/V5",
			CallbackURL:   "https://tickets.example.com/payments/ecpay/callback",
			ChoosePayment: "ALL",
			RefundTimeout: time.Second,
		}, time.FixedZone("CST", 8*3600)),
	}

	org := model.Organization{Name: "Live Nation TW", OwnerID: env.ownerID}
	require.NoError(t, db.Create(&org).Error)
	concert := model.Concert{OrganizationID: org.ID, Title: "Summer Tour", Description: "Open air"}
	require.NoError(t, db.Create(&concert).Error)
	env.session = model.Session{ConcertID: concert.ID, Title: "Day 1", StartTime: now.Add(48 * time.Hour), Venue: "Taipei Dome"}
	require.NoError(t, db.Create(&env.session).Error)
	env.ticketType = env.createTicketType(t, 10, 1200)
	return env
}

func (e *testEnv) createTicketType(t *testing.T, quantity int, price int64) model.TicketType {
	t.Helper()
	tt := model.TicketType{
		SessionID:         e.session.ID,
		Name:              "VIP",
		TotalQuantity:     quantity,
		RemainingQuantity: quantity,
		UnitPrice:         price,
		SaleBegin:         e.now.Add(-time.Hour),
		SaleEnd:           e.now.Add(24 * time.Hour),
	}
	require.NoError(t, e.db.Create(&tt).Error)
	return tt
}

func (e *testEnv) clock() time.Time { return e.now }

func (e *testEnv) reservations() *ReservationService {
	s := NewReservationService(e.db, e.bus, zap.NewNop(), 15*time.Minute)
	s.now = e.clock
	return s
}

func (e *testEnv) checkouts() *CheckoutService {
	s := NewCheckoutService(e.db, e.gateway, zap.NewNop())
	s.now = e.clock
	return s
}

func (e *testEnv) webhooks() *WebhookService {
	s := NewWebhookService(e.db, e.gateway, NewTicketIssuer(), e.bus, zap.NewNop())
	s.now = e.clock
	return s
}

func (e *testEnv) redemptions() *RedemptionService {
	s := NewRedemptionService(e.db, zap.NewNop(), 2*time.Hour)
	s.now = e.clock
	return s
}

func (e *testEnv) refunds(gateway RefundGateway) *RefundService {
	s := NewRefundService(e.db, e.gateway, e.bus, zap.NewNop())
	s.gateway = gateway
	s.now = e.clock
	return s
}

func (e *testEnv) reclaimer(grace time.Duration) *HoldReclaimer {
	r := NewHoldReclaimer(e.db, e.bus, zap.NewNop(), grace)
	r.now = e.clock
	return r
}

func (e *testEnv) reserve(t *testing.T) *model.ReservationResponse {
	t.Helper()
	res, err := e.reservations().CreateReservation(context.Background(), ReservationInput{
		TicketTypeID: e.ticketType.ID,
		BuyerID:      e.buyer.UserID,
		Purchaser:    model.PurchaserContact{Name: "Mei", Email: "mei@example.com"},
	})
	require.NoError(t, err)
	return res
}

func (e *testEnv) checkout(t *testing.T, orderID string) *model.CheckoutResponse {
	t.Helper()
	res, err := e.checkouts().InitiateCheckout(context.Background(), orderID, e.buyer)
	require.NoError(t, err)
	return res
}

// callbackForm builds a signed gateway callback for merchantTradeNo.
func (e *testEnv) callbackForm(merchantTradeNo, rtnCode string, amount int64) url.Values {
	params := map[string]string{
		"MerchantID":      "3002607",
		"MerchantTradeNo": merchantTradeNo,
		"RtnCode":         rtnCode,
		"RtnMsg":          "Succeeded",
		"TradeNo":         "2506012000001234",
		"TradeAmt":        strconv.FormatInt(amount, 10),
		"PaymentDate":     "2025/06/01 20:05:00",
		"PaymentType":     "Credit_CreditCard",
		"SimulatePaid":    "0",
	}
	params[ecpay.FieldCheckMacValue] = e.gateway.Sign(params)
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	return form
}

// simulatedCallbackForm is a successful callback triggered from the gateway
// back office rather than by a real payment.
func (e *testEnv) simulatedCallbackForm(merchantTradeNo string) url.Values {
	form := e.callbackForm(merchantTradeNo, "1", e.ticketType.UnitPrice)
	form.Set("SimulatePaid", "1")
	form.Del(ecpay.FieldCheckMacValue)
	form.Set(ecpay.FieldCheckMacValue, e.gateway.Sign(ecpay.FlattenForm(form)))
	return form
}

// paidOrder runs reserve, checkout and a successful callback.
func (e *testEnv) paidOrder(t *testing.T) (orderID string, checkout *model.CheckoutResponse) {
	t.Helper()
	res := e.reserve(t)
	checkout = e.checkout(t, res.OrderID)
	ack, err := e.webhooks().HandleCallback(context.Background(), e.callbackForm(checkout.MerchantTradeNo, "1", e.ticketType.UnitPrice))
	require.NoError(t, err)
	require.Equal(t, ecpay.CallbackAck, ack)
	return res.OrderID, checkout
}

func (e *testEnv) credential(orderID string) string {
	return "TICKET|" + e.buyer.UserID + "|" + orderID
}

func (e *testEnv) mustOrder(t *testing.T, id string) model.Order {
	t.Helper()
	var o model.Order
	require.NoError(t, e.db.First(&o, "id = ?", id).Error)
	return o
}

func (e *testEnv) mustTicketType(t *testing.T, id string) model.TicketType {
	t.Helper()
	var tt model.TicketType
	require.NoError(t, e.db.First(&tt, "id = ?", id).Error)
	return tt
}

func (e *testEnv) paymentsOf(t *testing.T, orderID string) []model.Payment {
	t.Helper()
	var ps []model.Payment
	require.NoError(t, e.db.Where("order_id = ?", orderID).Order("created_at").Find(&ps).Error)
	return ps
}

func (e *testEnv) paymentByTradeNo(t *testing.T, merchantTradeNo string) model.Payment {
	t.Helper()
	var p model.Payment
	require.NoError(t, e.db.First(&p, "merchant_trade_no = ?", merchantTradeNo).Error)
	return p
}

func (e *testEnv) ticketOf(t *testing.T, orderID string) *model.Ticket {
	t.Helper()
	var tickets []model.Ticket
	require.NoError(t, e.db.Where("order_id = ?", orderID).Find(&tickets).Error)
	require.LessOrEqual(t, len(tickets), 1)
	if len(tickets) == 0 {
		return nil
	}
	return &tickets[0]
}
