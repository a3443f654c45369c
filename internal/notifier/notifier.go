package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/jpillora/backoff"
	"github.com/rs/zerolog"
)

// Message is a push notification payload.
type Message struct {
	Title string
	Body  string
}

// Notifier delivers a message to one channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// RetryOptions bounds delivery retries per channel.
type RetryOptions struct {
	MaxAttempts int
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
}

// Dispatcher fans a message out to every configured channel, retrying each
// with exponential backoff. Delivery failures are logged, never propagated:
// a dead push channel must not stop the scan loop.
type Dispatcher struct {
	targets []Notifier
	retry   RetryOptions
	log     zerolog.Logger
}

// NewDispatcher creates a dispatcher, filling zero retry options with defaults.
func NewDispatcher(targets []Notifier, retry RetryOptions, logger zerolog.Logger) *Dispatcher {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 3
	}
	if retry.MinBackoff <= 0 {
		retry.MinBackoff = time.Second
	}
	if retry.MaxBackoff <= 0 {
		retry.MaxBackoff = 30 * time.Second
	}
	return &Dispatcher{
		targets: targets,
		retry:   retry,
		log:     logger.With().Str("component", "notifier").Logger(),
	}
}

// Targets returns the number of configured channels.
func (d *Dispatcher) Targets() int { return len(d.targets) }

// Dispatch sends msg to every channel and returns how many failed for good.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) int {
	failures := 0
	for _, t := range d.targets {
		if err := d.sendWithRetry(ctx, t, msg); err != nil {
			failures++
			d.log.Error().Err(err).Str("channel", t.Name()).Str("title", msg.Title).Msg("notification delivery failed")
		}
	}
	return failures
}

func (d *Dispatcher) sendWithRetry(ctx context.Context, n Notifier, msg Message) error {
	b := &backoff.Backoff{
		Min:    d.retry.MinBackoff,
		Max:    d.retry.MaxBackoff,
		Factor: 2,
		Jitter: true,
	}
	var lastErr error
	for attempt := 1; attempt <= d.retry.MaxAttempts; attempt++ {
		if err := n.Send(ctx, msg); err != nil {
			lastErr = err
			wait := b.Duration()
			d.log.Warn().Err(err).Str("channel", n.Name()).
				Int("attempt", attempt).Dur("backoff", wait).Msg("send failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d attempts failed: %w", d.retry.MaxAttempts, lastErr)
}
