package textgen

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable is returned when no provider is configured.
var ErrUnavailable = errors.New("text generation provider unavailable")

type Options struct {
	Temperature     float32
	MaxOutputTokens int32
}

// DefaultOptions matches what the planner and component generator ask for.
var DefaultOptions = Options{Temperature: 0.7, MaxOutputTokens: 2048}

// Provider turns a prompt into free text. Implementations may fail for any
// reason; callers are expected to fall back to deterministic output.
type Provider interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, prompt string, opts Options) (string, error)

func (f ProviderFunc) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}

// Disabled always reports ErrUnavailable.
type Disabled struct{}

func (Disabled) Complete(context.Context, string, Options) (string, error) {
	return "", ErrUnavailable
}

// RetryWithBackoff executes fn up to maxRetries times, doubling the wait after each failure.
func RetryWithBackoff(ctx context.Context, fn func() error, maxRetries int, base time.Duration) error {
	var lastErr error
	wait := base
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, ErrUnavailable) {
			break
		}
		if i == maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
