package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Payment errors.
var (
	ErrInvalidMethod      = errors.New("invalid payment method")
	ErrInvalidState       = errors.New("invalid payment state")
	ErrMissingCredentials = errors.New("external token and payer id are required")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidCurrency    = errors.New("currency must be a 3-letter code")
	ErrInvalidCredits     = errors.New("credits must not be negative")

	ErrMethodImmutable     = fmt.Errorf("%w: payment method cannot change once set", ErrInvalidState)
	ErrMethodNotSelected   = fmt.Errorf("%w: payment method not selected", ErrInvalidState)
	ErrNotRedirectWallet   = fmt.Errorf("%w: payment is not a redirect wallet payment", ErrInvalidState)
	ErrCredentialsRequired = fmt.Errorf("%w: redirect wallet credentials not captured", ErrInvalidState)
	ErrAlreadyCharged      = fmt.Errorf("%w: payment already charged", ErrInvalidState)
	ErrCheckoutNotStarted  = fmt.Errorf("%w: wallet checkout not started", ErrInvalidState)
	ErrCheckoutMismatch    = fmt.Errorf("%w: wallet token does not match the started checkout", ErrInvalidState)
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Payment is a monetary charge against a user's account. The charged flag is
// monotonic and the method cannot change once selected.
type Payment struct {
	id               uuid.UUID
	userID           uuid.UUID
	amount           int64 // minor units
	currency         string
	method           Method
	state            State
	credits          int64
	charged          bool
	externalToken    string
	externalPayerID  string
	gatewayReference string
	chargedAt        *time.Time
	createdAt        time.Time
	updatedAt        time.Time
}

// NewPayment creates an uncharged Payment owned by userID.
func NewPayment(userID uuid.UUID, amount int64, currency string, credits int64) (*Payment, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !currencyPattern.MatchString(currency) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	if credits < 0 {
		return nil, ErrInvalidCredits
	}

	now := time.Now().UTC()
	return &Payment{
		id:        uuid.New(),
		userID:    userID,
		amount:    amount,
		currency:  currency,
		state:     StateCreated,
		credits:   credits,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// RestorePayment recreates a Payment from persisted data.
func RestorePayment(
	id, userID uuid.UUID,
	amount int64,
	currency string,
	method Method,
	state State,
	credits int64,
	charged bool,
	externalToken, externalPayerID, gatewayReference string,
	chargedAt *time.Time,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		id:               id,
		userID:           userID,
		amount:           amount,
		currency:         currency,
		method:           method,
		state:            state,
		credits:          credits,
		charged:          charged,
		externalToken:    externalToken,
		externalPayerID:  externalPayerID,
		gatewayReference: gatewayReference,
		chargedAt:        chargedAt,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// --- Getters ---

func (p *Payment) ID() uuid.UUID { return p.id }
func (p *Payment) UserID() uuid.UUID { return p.userID }
func (p *Payment) Amount() int64 { return p.amount }
func (p *Payment) Currency() string { return p.currency }
func (p *Payment) Method() Method { return p.method }
func (p *Payment) State() State { return p.state }
func (p *Payment) Credits() int64 { return p.credits }
func (p *Payment) IsCharged() bool { return p.charged }
func (p *Payment) ExternalToken() string { return p.externalToken }
func (p *Payment) ExternalPayerID() string { return p.externalPayerID }
func (p *Payment) GatewayReference() string { return p.gatewayReference }
func (p *Payment) ChargedAt() *time.Time { return p.chargedAt }
func (p *Payment) CreatedAt() time.Time { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time { return p.updatedAt }
func (p *Payment) OwnedBy(id uuid.UUID) bool { return p.userID == id }
func (p *Payment) HasMethod() bool { return p.method != MethodNone }

// --- Behavior ---

// SetMethod selects the payment method. Selecting the already-selected method
// is a no-op; selecting a different one fails with ErrMethodImmutable.
func (p *Payment) SetMethod(m Method) error {
	if !m.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidMethod, string(m))
	}
	if p.method == m {
		return nil
	}
	if p.method != MethodNone {
		return ErrMethodImmutable
	}
	if err := lifecycle.Check(p.state, StateMethodSelected); err != nil {
		return err
	}

	p.method = m
	p.state = StateMethodSelected
	p.touch()
	return nil
}

// CaptureRedirectCredentials stores the wallet token and payer id returned by
// the redirect wallet. The token must be the one of the checkout started for
// this payment. It never charges.
func (p *Payment) CaptureRedirectCredentials(token, payerID string) error {
	if p.method != MethodRedirectWallet {
		return ErrNotRedirectWallet
	}
	if p.charged {
		return ErrAlreadyCharged
	}
	token, payerID = strings.TrimSpace(token), strings.TrimSpace(payerID)
	if token == "" || payerID == "" {
		return ErrMissingCredentials
	}
	if p.gatewayReference == "" {
		return ErrCheckoutNotStarted
	}
	if token != p.gatewayReference {
		return ErrCheckoutMismatch
	}
	if err := lifecycle.Check(p.state, StateAwaitingExternalCredentials); err != nil {
		return err
	}

	p.externalToken = token
	p.externalPayerID = payerID
	p.state = StateAwaitingExternalCredentials
	p.touch()
	return nil
}

// BeginRedirectCheckout records the wallet checkout session started for this
// payment and moves it to awaiting credentials.
func (p *Payment) BeginRedirectCheckout(reference string) error {
	if p.method != MethodRedirectWallet {
		return ErrNotRedirectWallet
	}
	if err := lifecycle.Check(p.state, StateAwaitingExternalCredentials); err != nil {
		return err
	}

	p.gatewayReference = reference
	p.state = StateAwaitingExternalCredentials
	p.touch()
	return nil
}

// HasRedirectCredentials reports whether both wallet credentials are present.
func (p *Payment) HasRedirectCredentials() bool {
	return p.externalToken != "" && p.externalPayerID != ""
}

// ReadyToCharge returns nil when a charge attempt may complete this payment.
func (p *Payment) ReadyToCharge() error {
	if p.charged {
		return ErrAlreadyCharged
	}
	if p.method == MethodNone {
		return ErrMethodNotSelected
	}
	if p.method == MethodRedirectWallet && !p.HasRedirectCredentials() {
		return ErrCredentialsRequired
	}
	return nil
}

// MarkCharged sets charged=true. It returns true only on the first call, so
// callers apply account credit exactly when it returns true.
func (p *Payment) MarkCharged(reference string, at time.Time) bool {
	if p.charged {
		return false
	}

	p.charged = true
	p.state = StateCharged
	if reference != "" {
		p.gatewayReference = reference
	}
	at = at.UTC()
	p.chargedAt = &at
	p.updatedAt = at
	return true
}

func (p *Payment) touch() {
	p.updatedAt = time.Now().UTC()
}
