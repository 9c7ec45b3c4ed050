package router

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ticket_engine/config"
	"ticket_engine/constants"
	"ticket_engine/database"
	"ticket_engine/ecpay"
	"ticket_engine/handler"
	"ticket_engine/helper"
	"ticket_engine/model"
	"ticket_engine/notify"
	"ticket_engine/service"
	"ticket_engine/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const jwtSecret = "test-secret"

type RouterSuite struct {
	suite.Suite

	app        *fiber.App
	db         *gorm.DB
	gateway    *ecpay.Client
	refundSrv  *httptest.Server
	refundBody atomic.Value
	ticketType model.TicketType
	buyer      model.TokenClaim
	owner      model.TokenClaim
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	db, err := database.OpenSQLite(":memory:")
	s.Require().NoError(err)
	s.Require().NoError(database.Migrate(db))
	s.db = db

	s.refundBody.Store("RtnCode=1&RtnMsg=Success")
	s.refundSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, s.refundBody.Load().(string))
	}))

	cfg := &config.Config{
		Server: config.ServerConfig{EnableMetrics: true},
		Auth:   config.AuthConfig{JWTSecret: jwtSecret},
		ECPay: model.ECPayConfig{
			MerchantID:    "3002607",
			HashKey:       "pwFHCqoQZGmho4w6",
			HashIV:        "EkRm7iFT261dpevs",
			CheckoutURL:   "https://payment-stage.ecpay.com.tw/Cashier/AioCheckOut/V5",
			ActionURL:     s.refundSrv.URL,
			CallbackURL:   "https://tickets.example.com/payments/ecpay/callback",
			ChoosePayment: "ALL",
			RefundTimeout: time.Second,
		},
	}
	log := zap.NewNop()
	s.gateway = ecpay.New(cfg.ECPay, time.FixedZone("CST", 8*3600))
	bus := notify.NopBus{}

	h := handler.New(handler.Services{
		Reservations: service.NewReservationService(db, bus, log, 15*time.Minute),
		Checkouts:    service.NewCheckoutService(db, s.gateway, log),
		Webhooks:     service.NewWebhookService(db, s.gateway, service.NewTicketIssuer(), bus, log),
		Redemptions:  service.NewRedemptionService(db, log, 2*time.Hour),
		Refunds:      service.NewRefundService(db, s.gateway, bus, log),
		Orders:       service.NewOrderService(db),
	}, bus, log)

	s.app = fiber.New()
	SetupRoutes(s.app, h, cfg)

	now := time.Now()
	s.owner = model.TokenClaim{UserID: uuid.NewString(), Role: constants.ROLE_USER, Email: "owner@example.com"}
	s.buyer = model.TokenClaim{UserID: uuid.NewString(), Role: constants.ROLE_USER, Email: "buyer@example.com"}

	org := model.Organization{Name: "Org", OwnerID: s.owner.UserID}
	s.Require().NoError(db.Create(&org).Error)
	concert := model.Concert{OrganizationID: org.ID, Title: "Tour"}
	s.Require().NoError(db.Create(&concert).Error)
	// Doors are open: the session starts within the verification window.
	session := model.Session{ConcertID: concert.ID, Title: "Night", StartTime: now.Add(time.Hour), Venue: "Arena"}
	s.Require().NoError(db.Create(&session).Error)
	s.ticketType = model.TicketType{
		SessionID: session.ID, Name: "GA", TotalQuantity: 5, RemainingQuantity: 5, UnitPrice: 800,
		SaleBegin: now.Add(-time.Hour), SaleEnd: now.Add(30 * time.Minute),
	}
	s.Require().NoError(db.Create(&s.ticketType).Error)
}

func (s *RouterSuite) TearDownTest() {
	s.refundSrv.Close()
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (s *RouterSuite) token(claim model.TokenClaim) string {
	token, err := helper.GenerateAccessToken(claim, jwtSecret, time.Hour)
	s.Require().NoError(err)
	return token
}

func (s *RouterSuite) do(method, path, body string, claim *model.TokenClaim) (int, []byte, http.Header) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if claim != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(*claim))
	}
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	data, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, data, resp.Header
}

func (s *RouterSuite) callback(form url.Values) (int, string) {
	req := httptest.NewRequest(http.MethodPost, "/payments/ecpay/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

type envelope[T any] struct {
	Status string `json:"status"`
	Data   T      `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func decode[T any](t require.TestingT, data []byte) T {
	var out T
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func (s *RouterSuite) signedCallback(merchantTradeNo, rtnCode string, amount string) url.Values {
	params := map[string]string{
		"MerchantID":      "3002607",
		"MerchantTradeNo": merchantTradeNo,
		"RtnCode":         rtnCode,
		"RtnMsg":          "paid",
		"TradeNo":         "2506012000009999",
		"TradeAmt":        amount,
		"PaymentDate":     time.Now().In(s.gateway.Location()).Format(ecpay.TradeDateLayout),
		"PaymentType":     "Credit_CreditCard",
	}
	params[ecpay.FieldCheckMacValue] = s.gateway.Sign(params)
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	return form
}

func (s *RouterSuite) TestHealthAndMetrics() {
	status, _, _ := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, status)

	status, body, _ := s.do(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, status)
	s.Contains(string(body), "go_goroutines")
}

func (s *RouterSuite) TestAuthenticationRequired() {
	status, body, _ := s.do(http.MethodPost, "/api/v1/orders", `{}`, nil)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal(constants.UNAUTHORIZED, decode[errorBody](s.T(), body).Error)
}

func (s *RouterSuite) TestCreateOrderValidation() {
	status, body, _ := s.do(http.MethodPost, "/api/v1/orders", `{"ticketTypeId":"nope"}`, &s.buyer)
	s.Equal(http.StatusBadRequest, status)
	s.Equal(constants.INVALID_FORMAT, decode[errorBody](s.T(), body).Error)

	status, _, _ = s.do(http.MethodGet, "/api/v1/orders/not-a-uuid", "", &s.buyer)
	s.Equal(http.StatusBadRequest, status)

	status, body, _ = s.do(http.MethodPost, "/api/v1/orders", `{"ticketTypeId":"`+uuid.NewString()+`"}`, &s.buyer)
	s.Equal(http.StatusNotFound, status)
	s.Equal(constants.NOT_FOUND, decode[errorBody](s.T(), body).Error)
}

func (s *RouterSuite) TestCallbackRejectsBadSignature() {
	form := s.signedCallback("abc123", "1", "800")
	form.Set("TradeAmt", "1")

	status, body := s.callback(form)
	s.Equal(http.StatusConflict, status)
	s.Equal("0|"+constants.SIGNATURE_INVALID, body)
}

func (s *RouterSuite) TestPurchaseFlow() {
	// reserve
	status, body, _ := s.do(http.MethodPost, "/api/v1/orders",
		`{"ticketTypeId":"`+s.ticketType.ID+`","purchaser":{"name":"Mei","email":"mei@example.com"}}`, &s.buyer)
	s.Require().Equal(http.StatusCreated, status, string(body))
	reservation := decode[envelope[model.ReservationResponse]](s.T(), body).Data
	s.Equal(4, reservation.RemainingQuantity)
	orderPath := "/api/v1/orders/" + reservation.OrderID

	// another buyer cannot see it
	stranger := model.TokenClaim{UserID: uuid.NewString(), Role: constants.ROLE_USER}
	status, _, _ = s.do(http.MethodGet, orderPath, "", &stranger)
	s.Equal(http.StatusForbidden, status)

	// checkout
	status, body, _ = s.do(http.MethodPost, orderPath+"/checkout", "", &s.buyer)
	s.Require().Equal(http.StatusOK, status, string(body))
	checkout := decode[envelope[model.CheckoutResponse]](s.T(), body).Data
	s.Equal("800", checkout.Fields["TotalAmount"])

	status, body, headers := s.do(http.MethodPost, orderPath+"/checkout?format=html", "", &s.buyer)
	s.Require().Equal(http.StatusOK, status)
	s.Contains(headers.Get("Content-Type"), "text/html")
	s.Contains(string(body), `<form id="ecpay-checkout"`)

	var pending model.Payment
	s.Require().NoError(s.db.Where("order_id = ? AND status = ?", reservation.OrderID, model.PaymentPending).First(&pending).Error)

	// gateway callback, twice
	for i := 0; i < 2; i++ {
		status, ack := s.callback(s.signedCallback(pending.MerchantTradeNo, "1", "800"))
		s.Equal(http.StatusOK, status)
		s.Equal("1|OK", ack)
	}

	status, body, _ = s.do(http.MethodGet, orderPath, "", &s.buyer)
	s.Require().Equal(http.StatusOK, status)
	view := decode[envelope[model.OrderResponse]](s.T(), body).Data
	s.Equal(model.OrderPaid, view.Status)
	s.Require().NotNil(view.Ticket)
	s.Equal(model.TicketPurchased, view.Ticket.Status)

	// QR code
	status, body, headers = s.do(http.MethodGet, "/api/v1/tickets/"+reservation.OrderID+"/qr", "", &s.buyer)
	s.Equal(http.StatusOK, status)
	s.Equal("image/png", headers.Get("Content-Type"))
	s.True(strings.HasPrefix(string(body), "\x89PNG"))

	status, body, _ = s.do(http.MethodGet, "/api/v1/tickets/"+reservation.OrderID+"/qr?size=50000", "", &s.buyer)
	s.Require().Equal(http.StatusOK, status)
	img, err := png.Decode(bytes.NewReader(body))
	s.Require().NoError(err)
	s.Equal(utils.MaxQRSize, img.Bounds().Dx())

	// verify at the door
	credential := helper.BuildTicketCredential(s.buyer.UserID, reservation.OrderID)
	verifyBody := `{"credential":"` + credential + `"}`

	status, body, _ = s.do(http.MethodPost, "/api/v1/tickets/verify", verifyBody, &s.buyer)
	s.Equal(http.StatusForbidden, status)
	s.Equal(constants.INSUFFICIENT_PERMISSION, decode[errorBody](s.T(), body).Error)

	status, body, _ = s.do(http.MethodPost, "/api/v1/tickets/verify", verifyBody, &s.owner)
	s.Require().Equal(http.StatusOK, status, string(body))
	receipt := decode[envelope[model.VerificationReceipt]](s.T(), body).Data
	s.Equal("Mei", receipt.PurchaserName)
	s.Equal("GA", receipt.TicketTypeName)

	status, body, _ = s.do(http.MethodPost, "/api/v1/tickets/verify", verifyBody, &s.owner)
	s.Equal(http.StatusConflict, status)
	s.Equal(constants.TICKET_ALREADY_USED, decode[errorBody](s.T(), body).Error)

	// refund rejected by the gateway, then accepted
	s.refundBody.Store("RtnCode=10100050&RtnMsg=Trade not found")
	status, body, _ = s.do(http.MethodPost, orderPath+"/refund", "", &s.buyer)
	s.Equal(http.StatusConflict, status)
	s.Equal(constants.REFUND_FAILED, decode[errorBody](s.T(), body).Error)

	s.refundBody.Store("RtnCode=1&RtnMsg=Success")
	status, body, _ = s.do(http.MethodPost, orderPath+"/refund", "", &s.buyer)
	s.Require().Equal(http.StatusOK, status, string(body))
	s.Equal(model.OrderRefunded, decode[envelope[model.RefundResponse]](s.T(), body).Data.Status)
}

func (s *RouterSuite) TestInventoryStreamRequiresUpgrade() {
	status, _, _ := s.do(http.MethodGet, "/ws/ticket-types/"+s.ticketType.ID, "", nil)
	s.Equal(http.StatusUpgradeRequired, status)
}
