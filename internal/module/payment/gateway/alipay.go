package gateway

import (
	"context"
	"fmt"

	"github.com/go-pay/gopay"
	"github.com/go-pay/gopay/alipay"
)

// AlipayPagePay implements PagePayer with the Alipay desktop page payment.
type AlipayPagePay struct {
	client *alipay.Client
}

// NewAlipayPagePay creates an Alipay client signing with privateKey. The
// notify URL is where Alipay delivers async notifications.
func NewAlipayPagePay(appID, privateKey string, isProd bool, notifyURL, returnURL string) (*AlipayPagePay, error) {
	client, err := alipay.NewClient(appID, privateKey, isProd)
	if err != nil {
		return nil, fmt.Errorf("create alipay client: %w", err)
	}
	client.SetNotifyUrl(notifyURL).SetReturnUrl(returnURL)
	return &AlipayPagePay{client: client}, nil
}

// PagePayURL returns the hosted page URL for req. The payment id travels as
// out_trade_no and comes back in every notification.
func (p *AlipayPagePay) PagePayURL(ctx context.Context, req PagePayRequest) (string, error) {
	bm := make(gopay.BodyMap)
	bm.Set("out_trade_no", req.PaymentID.String()).
		Set("total_amount", req.Amount).
		Set("subject", req.Subject).
		Set("product_code", "FAST_INSTANT_TRADE_PAY").
		Set("timeout_express", "30m")
	if req.Currency != "" && req.Currency != "CNY" {
		bm.Set("trans_currency", req.Currency)
	}

	url, err := p.client.TradePagePay(ctx, bm)
	if err != nil {
		return "", fmt.Errorf("create page payment: %w", err)
	}
	return url, nil
}
