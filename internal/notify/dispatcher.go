package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/snkrtools/snkr-price-watch/internal/metrics"
)

const defaultSendTimeout = 10 * time.Second

// Dispatcher fans a message out to a set of channels. A channel failing
// never prevents delivery to the others.
type Dispatcher struct {
	timeout time.Duration
	logger  *slog.Logger
}

// DispatcherOption configures the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithSendTimeout bounds each individual channel delivery.
func WithSendTimeout(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.logger = l
	}
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		timeout: defaultSendTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch delivers text to every configured channel in order and returns
// the names of the channels that accepted it. Unconfigured channels are
// skipped, failed ones logged and counted but never fatal.
func (d *Dispatcher) Dispatch(ctx context.Context, channels []Channel, text string) []string {
	var delivered []string

	for _, ch := range channels {
		if !ch.Configured() {
			d.logger.Warn("notification channel enabled but not configured",
				"channel", ch.Name(),
			)
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := ch.Send(sendCtx, text)
		cancel()

		if err != nil {
			metrics.NotificationFailuresTotal.WithLabelValues(ch.Name()).Inc()
			d.logger.Error("notification delivery failed",
				"channel", ch.Name(),
				"error", err,
			)
			continue
		}

		metrics.NotificationsSentTotal.WithLabelValues(ch.Name()).Inc()
		delivered = append(delivered, ch.Name())
	}

	return delivered
}
