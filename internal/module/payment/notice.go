package payment

// Notice levels.
const (
	NoticeLevelNotice = "notice"
	NoticeLevelAlert  = "alert"
)

// Notice is a user-facing message key, localized by the UI layer.
type Notice struct {
	Key   string `json:"key"`
	Level string `json:"level"`
}

// SucceededNotice is shown after a payment is charged.
func SucceededNotice(gateway string) Notice {
	return Notice{Key: "payments." + gateway + ".payment-succeeded.title", Level: NoticeLevelNotice}
}

// AlreadyChargedNotice is shown when a charge request finds the payment charged.
func AlreadyChargedNotice(gateway string) Notice {
	return Notice{Key: "payments." + gateway + ".already-charged", Level: NoticeLevelNotice}
}

// FailedNotice is shown when the gateway declines.
func FailedNotice(gateway string) Notice {
	return Notice{Key: "payments." + gateway + ".payment-failed", Level: NoticeLevelAlert}
}

// UnavailableNotice is shown when the gateway cannot be reached.
func UnavailableNotice(gateway string) Notice {
	return Notice{Key: "payments." + gateway + ".gateway-unavailable", Level: NoticeLevelAlert}
}

// CancelNotice is shown when the payer aborts the redirect wallet checkout.
func CancelNotice() Notice {
	return Notice{Key: "payments.paypal.payment-cancel", Level: NoticeLevelAlert}
}
