package domain

import (
	"fmt"
	"strings"
)

// Method is the payment method a Payment is settled through.
type Method string

const (
	MethodNone           Method = ""
	MethodCard           Method = "card"
	MethodRedirectWallet Method = "redirect_wallet"
	MethodAsyncWallet    Method = "async_wallet"
)

// Gateway brand names. Notices and metrics are keyed by these.
const (
	GatewayStripe = "stripe"
	GatewayPayPal = "paypal"
	GatewayAlipay = "alipay"
)

var brandAliases = map[string]Method{
	GatewayStripe: MethodCard,
	GatewayPayPal: MethodRedirectWallet,
	GatewayAlipay: MethodAsyncWallet,
}

// ParseMethod accepts a semantic method name or a gateway brand name.
func ParseMethod(s string) (Method, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if m := Method(name); m.IsValid() {
		return m, nil
	}
	if m, ok := brandAliases[name]; ok {
		return m, nil
	}
	return MethodNone, fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}

// IsValid reports whether m is one of the supported methods.
func (m Method) IsValid() bool {
	switch m {
	case MethodCard, MethodRedirectWallet, MethodAsyncWallet:
		return true
	}
	return false
}

// Gateway returns the gateway brand that settles m.
func (m Method) Gateway() string {
	switch m {
	case MethodCard:
		return GatewayStripe
	case MethodRedirectWallet:
		return GatewayPayPal
	case MethodAsyncWallet:
		return GatewayAlipay
	}
	return "unknown"
}

func (m Method) String() string {
	return string(m)
}
