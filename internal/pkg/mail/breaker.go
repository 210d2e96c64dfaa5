package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrUnavailable wraps calls rejected by an open circuit.
var ErrUnavailable = errors.New("mail: provider unavailable")

// BreakerConfig tunes the circuit breaker around a Mail driver.
type BreakerConfig struct {
	Name string
	// MaxFailures consecutive failures open the circuit.
	MaxFailures uint32
	// Interval clears failure counts while closed; zero never clears.
	Interval time.Duration
	// Timeout is how long the circuit stays open before a trial request.
	Timeout time.Duration
}

// Breaker stops calling a failing provider until a trial request succeeds.
type Breaker struct {
	next Mail
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next. Invalid messages and caller cancellations do not count as failures.
func NewBreaker(next Mail, cfg BreakerConfig) *Breaker {
	if cfg.Name == "" {
		cfg.Name = "mail"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Breaker{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: 1,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.MaxFailures
			},
			IsSuccessful: func(err error) bool {
				return err == nil ||
					errors.Is(err, context.Canceled) ||
					errors.Is(err, ErrNoRecipients) ||
					errors.Is(err, ErrNoSender)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("mail circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

func (b *Breaker) Send(ctx context.Context, msg Message) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Send(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return err
}

// State reports the breaker state, e.g. "closed" or "open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}

func (b *Breaker) Close() error {
	return b.next.Close()
}
