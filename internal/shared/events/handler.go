package events

import "context"

// Handler processes the events it declares in Handles.
// Handling the same event twice must not produce duplicate side effects.
type Handler interface {
	Handles() []string
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc struct {
	eventTypes []string
	fn         func(context.Context, Event) error
}

// NewHandlerFunc creates a new HandlerFunc.
func NewHandlerFunc(eventTypes []string, fn func(context.Context, Event) error) *HandlerFunc {
	return &HandlerFunc{eventTypes: eventTypes, fn: fn}
}

// Handles returns the event types this handler processes.
func (h *HandlerFunc) Handles() []string {
	return h.eventTypes
}

// Handle processes the given event.
func (h *HandlerFunc) Handle(ctx context.Context, event Event) error {
	return h.fn(ctx, event)
}
