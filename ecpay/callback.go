package ecpay

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"ticket_engine/model"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// VerifyCallback checks the CheckMacValue of a callback form.
func (c *Client) VerifyCallback(form url.Values) error {
	return VerifyCheckMacValue(FlattenForm(form), c.Config.HashKey, c.Config.HashIV)
}

// ParseCallback maps a verified callback form onto model.ECPayCallback.
func (c *Client) ParseCallback(form url.Values) (*model.ECPayCallback, error) {
	cb := &model.ECPayCallback{
		MerchantID:      form.Get(FieldMerchantID),
		MerchantTradeNo: form.Get(FieldMerchantTradeNo),
		RtnCode:         form.Get(FieldRtnCode),
		RtnMsg:          form.Get(FieldRtnMsg),
		TradeNo:         form.Get("TradeNo"),
		PaymentDate:     form.Get("PaymentDate"),
		PaymentType:     form.Get("PaymentType"),
		SimulatePaid:    form.Get("SimulatePaid"),
		CheckMacValue:   form.Get(FieldCheckMacValue),
	}
	if raw := form.Get("TradeAmt"); raw != "" {
		amt, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ecpay: invalid TradeAmt %q", raw)
		}
		cb.TradeAmt = amt
	}
	if err := validate.Struct(cb); err != nil {
		return nil, err
	}
	if cb.MerchantID != c.Config.MerchantID {
		return nil, fmt.Errorf("ecpay: unexpected MerchantID %q", cb.MerchantID)
	}
	return cb, nil
}

// ParsePaymentDate parses the gateway's local payment timestamp.
func (c *Client) ParsePaymentDate(value string) (time.Time, error) {
	return time.ParseInLocation(TradeDateLayout, value, c.loc)
}
