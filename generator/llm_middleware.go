package generator

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Middleware decorates an LLMClient with a cross-cutting concern.
type Middleware func(LLMClient) LLMClient

// Chain applies middlewares left to right: Chain(c, A, B) => A(B(c)).
func Chain(inner LLMClient, mws ...Middleware) LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			out = mws[i](out)
		}
	}
	return out
}

type clientFunc func(ctx context.Context, prompt Prompt, opts CompletionOptions) (string, error)

func (f clientFunc) Complete(ctx context.Context, prompt Prompt, opts CompletionOptions) (string, error) {
	return f(ctx, prompt, opts)
}

// RateLimit paces calls to rps per second. rps <= 0 disables it.
func RateLimit(rps float64, burst int) Middleware {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	lim := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next LLMClient) LLMClient {
		return clientFunc(func(ctx context.Context, prompt Prompt, opts CompletionOptions) (string, error) {
			if err := lim.Wait(ctx); err != nil {
				return "", errors.Wrap(err, "rate limit")
			}
			return next.Complete(ctx, prompt, opts)
		})
	}
}

// Retry retries failed calls up to maxRetries extra times with exponential
// backoff from baseDelay. Unsupported-option failures and context errors are
// returned as is.
func Retry(maxRetries int, baseDelay time.Duration, logger *zap.Logger) Middleware {
	if maxRetries <= 0 {
		return nil
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next LLMClient) LLMClient {
		return clientFunc(func(ctx context.Context, prompt Prompt, opts CompletionOptions) (string, error) {
			var last error
			for i := 0; i <= maxRetries; i++ {
				out, err := next.Complete(ctx, prompt, opts)
				if err == nil {
					return out, nil
				}
				if !retryable(ctx, err) {
					return "", err
				}
				last = err
				if i == maxRetries {
					break
				}
				delay := baseDelay * time.Duration(1<<i)
				logger.Warn("llm call failed, retrying",
					zap.Int("attempt", i+1), zap.Duration("backoff", delay), zap.Error(err))
				t := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					t.Stop()
					return "", ctx.Err()
				case <-t.C:
				}
			}
			return "", last
		})
	}
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, ErrStructuredOutputUnsupported) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
