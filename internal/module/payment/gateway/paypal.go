package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-pay/gopay"
	"github.com/go-pay/gopay/paypal"
)

// PayPalCheckout implements WalletCheckout with PayPal Orders v2. The order id
// is the checkout token PayPal hands back on the return URL.
type PayPalCheckout struct {
	client    *paypal.Client
	brandName string
}

// NewPayPalCheckout creates a PayPal client. It fetches an access token, so it
// fails when the credentials are wrong.
func NewPayPalCheckout(clientID, secret string, isProd bool, brandName string) (*PayPalCheckout, error) {
	client, err := paypal.NewClient(clientID, secret, isProd)
	if err != nil {
		return nil, fmt.Errorf("create paypal client: %w", err)
	}
	return &PayPalCheckout{client: client, brandName: brandName}, nil
}

// CreateCheckout creates a CAPTURE order and returns its approve link.
func (c *PayPalCheckout) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	units := []*paypal.PurchaseUnit{{
		ReferenceId: req.PaymentID.String(),
		Amount: &paypal.Amount{
			CurrencyCode: strings.ToUpper(req.Currency),
			Value:        req.Amount,
		},
	}}

	bm := make(gopay.BodyMap)
	bm.Set("intent", "CAPTURE").
		Set("purchase_units", units).
		SetBodyMap("application_context", func(b gopay.BodyMap) {
			b.Set("brand_name", c.brandName).
				Set("user_action", "PAY_NOW").
				Set("return_url", req.ReturnURL).
				Set("cancel_url", req.CancelURL)
		})

	rsp, err := c.client.CreateOrder(ctx, bm)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if rsp.Code != paypal.Success {
		return nil, paypalFailure(rsp.Code, rsp.Error)
	}
	if rsp.Response == nil {
		return nil, errors.New("create order: empty response")
	}

	for _, link := range rsp.Response.Links {
		if link != nil && link.Rel == "approve" {
			return &Checkout{Token: rsp.Response.Id, ApproveURL: link.Href}, nil
		}
	}
	return nil, fmt.Errorf("create order %s: no approve link", rsp.Response.Id)
}

// Execute captures the approved order. The payer id is implied by the
// approval; PayPal only needs the order id.
func (c *PayPalCheckout) Execute(ctx context.Context, req ExecuteRequest) (string, error) {
	rsp, err := c.client.OrderCapture(ctx, req.Token, make(gopay.BodyMap))
	if err != nil {
		return "", fmt.Errorf("capture order: %w", err)
	}
	if rsp.Code != paypal.Success {
		return "", paypalFailure(rsp.Code, rsp.Error)
	}
	return capturedOrder(rsp.Response, req)
}

// capturedOrder accepts a completed order only when its purchase unit was
// created for req.PaymentID with the same amount.
func capturedOrder(order *paypal.OrderDetail, req ExecuteRequest) (string, error) {
	if order == nil || order.Status != "COMPLETED" {
		status := ""
		if order != nil {
			status = order.Status
		}
		return "", &RejectionError{Code: "order_not_completed", Message: status}
	}

	for _, unit := range order.PurchaseUnits {
		if unit == nil || unit.ReferenceId != req.PaymentID.String() {
			continue
		}
		if unit.Amount == nil ||
			!strings.EqualFold(unit.Amount.CurrencyCode, req.Currency) ||
			!SameAmount(unit.Amount.Value, req.Amount, req.Currency) {
			return "", &RejectionError{Code: "order_amount_mismatch", Message: order.Id}
		}
		return order.Id, nil
	}
	return "", &RejectionError{Code: "order_reference_mismatch", Message: order.Id}
}

// paypalFailure classifies a non-success HTTP status from PayPal.
func paypalFailure(code int, body string) error {
	if code >= http.StatusBadRequest && code < http.StatusInternalServerError {
		return &RejectionError{Code: fmt.Sprintf("paypal_%d", code), Message: body}
	}
	return fmt.Errorf("paypal: status %d: %s", code, body)
}
