package verifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// NotifyIDVerifier confirms a notification with the wallet gateway's
// notify_verify round trip. The gateway answers "true" for notifications it sent.
type NotifyIDVerifier struct {
	client     *http.Client
	gatewayURL string
	partner    string
}

// NewNotifyIDVerifier creates a round-trip verifier.
func NewNotifyIDVerifier(client *http.Client, gatewayURL, partner string) *NotifyIDVerifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &NotifyIDVerifier{client: client, gatewayURL: gatewayURL, partner: partner}
}

// Verify implements Verifier.
func (v *NotifyIDVerifier) Verify(ctx context.Context, n *Notification) error {
	notifyID := n.Get("notify_id")
	if notifyID == "" {
		return unverified("missing notify_id")
	}

	q := url.Values{}
	q.Set("service", "notify_verify")
	q.Set("partner", v.partner)
	q.Set("notify_id", notifyID)

	target := v.gatewayURL
	if strings.Contains(target, "?") {
		target += "&" + q.Encode()
	} else {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return unverified("build request: %v", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return unverified("notify_verify: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return unverified("read notify_verify response: %v", err)
	}
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "true" {
		return fmt.Errorf("%w: notify_verify answered %d %q", ErrUnverified, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
