package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/uniedit/payments/internal/module/payment/domain"
)

// Outcome is the normalized result of a charge attempt.
type Outcome string

const (
	OutcomeCharged          Outcome = "charged"
	OutcomeRedirectRequired Outcome = "redirect_required"
	OutcomeRejected         Outcome = "rejected"
)

// Reasons reported for retryable rejections.
const (
	ReasonUnavailable = "gateway_unavailable"
	ReasonTimeout     = "gateway_timeout"
)

var (
	// ErrNotConfigured is returned when no adapter is registered for a method.
	ErrNotConfigured = errors.New("gateway not configured")
	// ErrCardTokenRequired is returned when a card charge is attempted without a token.
	ErrCardTokenRequired = fmt.Errorf("%w: card token is required", domain.ErrMissingCredentials)
)

// ChargeInput carries request-scoped credentials for a single attempt.
type ChargeInput struct {
	CardToken string
}

// ChargeResult is one of Charged, RedirectRequired or Rejected.
type ChargeResult struct {
	Outcome     Outcome
	Reference   string
	RedirectURL string
	Reason      string
	Retryable   bool
	Cause       error
}

// Charged reports a completed charge.
func Charged(reference string) ChargeResult {
	return ChargeResult{Outcome: OutcomeCharged, Reference: reference}
}

// RedirectRequired reports that the payer must complete checkout at url.
func RedirectRequired(url, reference string) ChargeResult {
	return ChargeResult{Outcome: OutcomeRedirectRequired, RedirectURL: url, Reference: reference}
}

// Rejected reports a declined or failed attempt.
func Rejected(reason string, retryable bool, cause error) ChargeResult {
	return ChargeResult{Outcome: OutcomeRejected, Reason: reason, Retryable: retryable, Cause: cause}
}

// Adapter charges payments of a single method.
type Adapter interface {
	Method() domain.Method
	AttemptCharge(ctx context.Context, p *domain.Payment, in ChargeInput) (ChargeResult, error)
}

// RejectionError is returned by gateway clients when the gateway answered and
// refused the operation. Anything else is treated as a transport failure.
type RejectionError struct {
	Code    string
	Message string
}

func (e *RejectionError) Error() string {
	if e.Message == "" {
		return "gateway rejected: " + e.Code
	}
	return fmt.Sprintf("gateway rejected: %s: %s", e.Code, e.Message)
}

// Reason returns the caller-facing decline reason.
func (e *RejectionError) Reason() string {
	if e.Code != "" {
		return e.Code
	}
	return "declined"
}

// IsRejection reports whether err is a gateway refusal rather than a transport failure.
func IsRejection(err error) bool {
	var rej *RejectionError
	return errors.As(err, &rej)
}

// resultFromError maps a failed gateway call to a Rejected result.
func resultFromError(err error) ChargeResult {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return Rejected(rej.Reason(), false, err)
	}
	if isTimeout(err) {
		return Rejected(ReasonTimeout, true, err)
	}
	return Rejected(ReasonUnavailable, true, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Registry selects the adapter for a payment's method.
type Registry struct {
	adapters map[domain.Method]Adapter
}

// NewRegistry creates a registry from the configured adapters. Nil adapters are skipped.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[domain.Method]Adapter, len(adapters))}
	for _, a := range adapters {
		if a != nil {
			r.adapters[a.Method()] = a
		}
	}
	return r
}

// Get returns the adapter registered for m.
func (r *Registry) Get(m domain.Method) (Adapter, error) {
	a, ok := r.adapters[m]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, m)
	}
	return a, nil
}
