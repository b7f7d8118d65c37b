package textgen_test

import (
	"context"
	"testing"
	"time"

	"aicodegen-backend/internal/textgen"

	"github.com/stretchr/testify/assert"
)

func TestRetryWithBackoff(t *testing.T) {
	callCount := 0
	err := textgen.RetryWithBackoff(context.Background(), func() error {
		callCount++
		if callCount < 3 {
			return assert.AnError
		}
		return nil
	}, 3, time.Millisecond)

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
}

func TestRetryWithBackoff_Exhausted(t *testing.T) {
	err := textgen.RetryWithBackoff(context.Background(), func() error {
		return assert.AnError
	}, 3, time.Millisecond)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 retries")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRetryWithBackoff_UnavailableStopsEarly(t *testing.T) {
	callCount := 0
	err := textgen.RetryWithBackoff(context.Background(), func() error {
		callCount++
		return textgen.ErrUnavailable
	}, 3, time.Millisecond)

	assert.ErrorIs(t, err, textgen.ErrUnavailable)
	assert.Equal(t, 1, callCount)
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := textgen.RetryWithBackoff(ctx, func() error {
		return assert.AnError
	}, 3, time.Second)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestDisabledProvider(t *testing.T) {
	_, err := textgen.Disabled{}.Complete(context.Background(), "anything", textgen.DefaultOptions)
	assert.ErrorIs(t, err, textgen.ErrUnavailable)
}

func TestNewGeminiProvider_RequiresKey(t *testing.T) {
	_, err := textgen.NewGeminiProvider(context.Background(), "", "gemini-2.5-flash", time.Second)
	assert.ErrorIs(t, err, textgen.ErrUnavailable)
}
