package ecpay

import (
	"html/template"
	"net/http"
	"time"

	"ticket_engine/model"
)

// Field names used by the gateway.
const (
	FieldMerchantID        = "MerchantID"
	FieldMerchantTradeNo   = "MerchantTradeNo"
	FieldMerchantTradeDate = "MerchantTradeDate"
	FieldCheckMacValue     = "CheckMacValue"
	FieldRtnCode           = "RtnCode"
	FieldRtnMsg            = "RtnMsg"

	TradeDateLayout = "2006/01/02 15:04:05"

	RtnCodeSuccess  = "1"
	CallbackAck     = "1|OK"
	SimulatePaidYes = "1"
)

// Client talks to the ECPay all-in-one checkout and DoAction endpoints.
type Client struct {
	Config model.ECPayConfig

	httpClient *http.Client
	loc        *time.Location
	form       *template.Template
}

func New(cfg model.ECPayConfig, loc *time.Location) *Client {
	timeout := cfg.RefundTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if loc == nil {
		loc = time.FixedZone("CST", 8*3600)
	}
	return &Client{
		Config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
		loc:        loc,
		form:       template.Must(template.New("checkout").Parse(checkoutFormTemplate)),
	}
}

func (c *Client) Location() *time.Location {
	return c.loc
}

// Sign computes the CheckMacValue of params with the configured keys.
func (c *Client) Sign(params map[string]string) string {
	return CheckMacValue(params, c.Config.HashKey, c.Config.HashIV)
}
