// Package assistant answers general conversational queries, the
// fallback intent for anything that isn't a device action.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stewardbot/steward/internal/llm"
	"github.com/stewardbot/steward/internal/prompts"
)

// Responder answers free-form questions through the completion
// service.
type Responder struct {
	completer llm.Completer
	logger    *slog.Logger
}

// New creates a Responder.
func New(completer llm.Completer, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{completer: completer, logger: logger}
}

// Answer responds to a general query.
func (r *Responder) Answer(ctx context.Context, query string) (string, error) {
	answer, err := r.completer.Complete(ctx, prompts.GeneralQueryPrompt(query))
	if err != nil {
		r.logger.Warn("general query failed", "error", err)
		return "", fmt.Errorf("I couldn't think of an answer right now")
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("I couldn't think of an answer right now")
	}
	return answer, nil
}
