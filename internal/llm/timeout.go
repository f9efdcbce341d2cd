package llm

import (
	"context"
	"time"
)

// timeoutCompleter caps every call to the wrapped completer with a
// deadline, so a hung provider turns into an error instead of stalling
// the pipeline. Wrapping each provider individually keeps a fallback
// chain's budget per call, not shared across the chain.
type timeoutCompleter struct {
	inner   Completer
	timeout time.Duration
}

// WithCallTimeout wraps c so each Complete and Ping call carries its
// own deadline. A non-positive timeout returns c unchanged.
func WithCallTimeout(c Completer, timeout time.Duration) Completer {
	if timeout <= 0 {
		return c
	}
	return &timeoutCompleter{inner: c, timeout: timeout}
}

func (t *timeoutCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Complete(ctx, prompt)
}

func (t *timeoutCompleter) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Ping(ctx)
}
