package payment

import (
	"errors"
	"fmt"

	"github.com/uniedit/payments/internal/module/payment/domain"
	"github.com/uniedit/payments/internal/module/payment/verifier"
)

// Module errors.
var (
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrVerificationFailed = verifier.ErrUnverified
	ErrCheckoutMismatch   = domain.ErrCheckoutMismatch
)

// GatewayRejectedError reports a charge the gateway declined. The payment is
// left as it was before the attempt.
type GatewayRejectedError struct {
	Gateway string
	Reason  string
}

func (e *GatewayRejectedError) Error() string {
	return fmt.Sprintf("%s rejected the charge: %s", e.Gateway, e.Reason)
}

// GatewayUnavailableError reports a transport failure; the caller may retry.
type GatewayUnavailableError struct {
	Gateway string
	Reason  string
	Err     error
}

func (e *GatewayUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s unavailable (%s): %v", e.Gateway, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s unavailable (%s)", e.Gateway, e.Reason)
}

func (e *GatewayUnavailableError) Unwrap() error {
	return e.Err
}
