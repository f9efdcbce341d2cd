package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// MultiCompleter tries completers in order until one succeeds. It lets
// a local model serve as fallback when the hosted provider is down, or
// the reverse, without the pipeline knowing.
type MultiCompleter struct {
	completers []Completer
	logger     *slog.Logger
}

// NewMultiCompleter creates a completer chain. Order matters: the
// first completer is primary.
func NewMultiCompleter(logger *slog.Logger, completers ...Completer) *MultiCompleter {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiCompleter{completers: completers, logger: logger}
}

// Complete tries each completer in order, returning the first success.
// Context cancellation stops the chain immediately.
func (m *MultiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	var errs []error
	for i, c := range m.completers {
		text, err := c.Complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		m.logger.Warn("completer failed, trying next", "index", i, "error", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("no completers configured")
	}
	return "", errors.Join(errs...)
}

// Ping succeeds if any completer is reachable.
func (m *MultiCompleter) Ping(ctx context.Context) error {
	var errs []error
	for _, c := range m.completers {
		err := c.Ping(ctx)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return fmt.Errorf("no completers configured")
	}
	return errors.Join(errs...)
}
