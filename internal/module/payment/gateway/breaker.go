package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/uniedit/payments/internal/shared/config"
	"github.com/uniedit/payments/internal/shared/metrics"
)

// ErrCircuitOpen is returned while a gateway's breaker refuses calls.
var ErrCircuitOpen = errors.New("gateway circuit open")

// Breaker guards calls to one gateway. Declines count as successes; only
// transport failures trip it.
type Breaker struct {
	name    string
	cb      *gobreaker.CircuitBreaker[any]
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// NewBreaker creates a breaker for the named gateway. m may be nil.
func NewBreaker(name string, cfg config.BreakerConfig, m *metrics.Metrics, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	b := &Breaker{
		name:    name,
		metrics: m,
		tracer:  otel.Tracer("payments/gateway"),
	}
	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxHalfOpen,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("gateway breaker state changed",
				zap.String("gateway", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if m != nil {
				m.SetBreakerOpen(name, to == gobreaker.StateOpen)
			}
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsRejection(err)
		},
	})
	return b
}

// Call runs fn through b. A nil breaker runs fn directly.
func Call[T any](ctx context.Context, b *Breaker, op string, fn func(context.Context) (T, error)) (T, error) {
	if b == nil {
		return fn(ctx)
	}

	ctx, span := b.tracer.Start(ctx, "gateway."+b.name+"."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("payment.gateway", b.name)),
	)
	defer span.End()

	start := time.Now()
	res, err := b.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	if b.metrics != nil {
		b.metrics.ObserveGatewayCall(b.name, time.Since(start))
	}

	var zero T
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		span.SetStatus(codes.Error, "circuit open")
		return zero, ErrCircuitOpen
	}
	if err != nil {
		span.RecordError(err)
		if !IsRejection(err) {
			span.SetStatus(codes.Error, "gateway call failed")
		}
		if v, ok := res.(T); ok {
			return v, err
		}
		return zero, err
	}

	v, _ := res.(T)
	return v, nil
}
