package ecpay

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	"ticket_engine/model"
	"ticket_engine/utils"
)

const (
	maxTradeDescRunes = 200
	maxItemNameRunes  = 400
)

var merchantTradeNoPattern = regexp.MustCompile(`^[0-9A-Za-z]{1,20}$`)

const checkoutFormTemplate = `<form id="ecpay-checkout" method="post" action="{{.Action}}">
{{range $name, $value := .Fields}}<input type="hidden" name="{{$name}}" value="{{$value}}">
{{end}}</form>
<script>document.getElementById("ecpay-checkout").submit();</script>`

// CheckoutFields builds the signed field set for an all-in-one checkout.
func (c *Client) CheckoutFields(req model.CheckoutRequest) (map[string]string, error) {
	if req.TotalAmount <= 0 {
		return nil, fmt.Errorf("ecpay: total amount must be positive, got %d", req.TotalAmount)
	}
	if !merchantTradeNoPattern.MatchString(req.MerchantTradeNo) {
		return nil, fmt.Errorf("ecpay: invalid MerchantTradeNo %q", req.MerchantTradeNo)
	}
	if req.ItemName == "" {
		return nil, errors.New("ecpay: item name is required")
	}

	fields := map[string]string{
		FieldMerchantID:        c.Config.MerchantID,
		FieldMerchantTradeNo:   req.MerchantTradeNo,
		FieldMerchantTradeDate: req.TradeDate.In(c.loc).Format(TradeDateLayout),
		"PaymentType":          "aio",
		"TotalAmount":          strconv.FormatInt(req.TotalAmount, 10),
		"TradeDesc":            utils.TruncateRunes(req.TradeDesc, maxTradeDescRunes),
		"ItemName":             utils.TruncateRunes(req.ItemName, maxItemNameRunes),
		"ReturnURL":            c.Config.CallbackURL,
		"ChoosePayment":        c.Config.ChoosePayment,
		"EncryptType":          "1",
		"CustomField1":         req.OrderID,
	}
	if fields["ChoosePayment"] == "" {
		fields["ChoosePayment"] = "ALL"
	}
	if fields["TradeDesc"] == "" {
		fields["TradeDesc"] = fields["ItemName"]
	}
	if c.Config.IgnorePayment != "" {
		fields["IgnorePayment"] = c.Config.IgnorePayment
	}
	if c.Config.ClientBackURL != "" {
		fields["ClientBackURL"] = withOrderID(c.Config.ClientBackURL, req.OrderID)
	}
	if c.Config.ReturnURL != "" {
		fields["OrderResultURL"] = withOrderID(c.Config.ReturnURL, req.OrderID)
	}

	fields[FieldCheckMacValue] = c.Sign(fields)
	return fields, nil
}

// RenderForm renders an auto-submitting HTML form that posts fields to the
// checkout endpoint.
func (c *Client) RenderForm(fields map[string]string) (string, error) {
	var buf bytes.Buffer
	err := c.form.Execute(&buf, struct {
		Action string
		Fields map[string]string
	}{Action: c.Config.CheckoutURL, Fields: fields})
	if err != nil {
		return "", fmt.Errorf("ecpay: render checkout form: %w", err)
	}
	return buf.String(), nil
}

func withOrderID(raw, orderID string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("orderId", orderID)
	u.RawQuery = q.Encode()
	return u.String()
}
