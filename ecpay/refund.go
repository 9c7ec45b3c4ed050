package ecpay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ticket_engine/model"
)

const actionRefund = "R"

// Refund asks the gateway to refund a captured credit card trade.
func (c *Client) Refund(ctx context.Context, req model.RefundRequest) (*model.RefundResult, error) {
	params := map[string]string{
		FieldMerchantID:      c.Config.MerchantID,
		FieldMerchantTradeNo: req.MerchantTradeNo,
		"TradeNo":            req.TradeNo,
		"Action":             actionRefund,
		"TotalAmount":        strconv.FormatInt(req.TotalAmount, 10),
	}
	params[FieldCheckMacValue] = c.Sign(params)

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Config.ActionURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("ecpay: build refund request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ecpay: refund request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("ecpay: read refund response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ecpay: refund returned HTTP %d", resp.StatusCode)
	}

	raw := ParseActionResponse(string(body))
	return &model.RefundResult{RtnCode: raw[FieldRtnCode], RtnMsg: raw[FieldRtnMsg], Raw: raw}, nil
}

// ParseActionResponse splits an "&"-delimited key=value body. Values are
// taken verbatim.
func ParseActionResponse(body string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(strings.TrimSpace(body), "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		out[k] = v
	}
	return out
}
