// Package verifier decides whether an inbound async wallet notification can be trusted.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// ErrUnverified is wrapped by every verification failure.
var ErrUnverified = errors.New("notification not verified")

// Notification is a raw async wallet notification as received.
type Notification struct {
	Params url.Values
	Body   []byte
}

// Get returns the first value for key.
func (n *Notification) Get(key string) string {
	return n.Params.Get(key)
}

// Verifier checks a notification's authenticity. A nil error means trusted.
// Implementations must not panic on malformed input.
type Verifier interface {
	Verify(ctx context.Context, n *Notification) error
}

// Func adapts a function to Verifier.
type Func func(ctx context.Context, n *Notification) error

// Verify calls f.
func (f Func) Verify(ctx context.Context, n *Notification) error {
	return f(ctx, n)
}

type allOf []Verifier

// AllOf returns a Verifier that passes only when every v passes, checked in order.
func AllOf(vs ...Verifier) Verifier {
	out := make(allOf, 0, len(vs))
	for _, v := range vs {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

func (a allOf) Verify(ctx context.Context, n *Notification) error {
	if len(a) == 0 {
		return fmt.Errorf("%w: no verifier configured", ErrUnverified)
	}
	for _, v := range a {
		if err := v.Verify(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func unverified(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnverified, fmt.Sprintf(format, args...))
}
