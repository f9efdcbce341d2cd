// Package pipeline runs one utterance through the full interpretation
// chain: exit fast path, classification prompt, completion, parse,
// validate, dispatch. Every input channel (REPL, HTTP, WebSocket,
// MQTT) calls [Pipeline.Process] independently; there is no
// cross-request state beyond the provider handles.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/stewardbot/steward/internal/dispatch"
	"github.com/stewardbot/steward/internal/history"
	"github.com/stewardbot/steward/internal/intent"
	"github.com/stewardbot/steward/internal/llm"
	"github.com/stewardbot/steward/internal/parser"
	"github.com/stewardbot/steward/internal/platform"
	"github.com/stewardbot/steward/internal/prompts"
	"github.com/stewardbot/steward/internal/validate"
)

// exitPhrases end the session before any model call. Matched as
// case-insensitive substrings so "please exit steward now" works.
var exitPhrases = []string{"exit steward", "quit steward"}

// Response is the outcome of processing one utterance.
type Response struct {
	Text   string // always non-empty, user-presentable
	Intent string // resolved intent tag, or "unknown"
	OK     bool
	Exit   bool // session should end
}

// Pipeline wires the interpretation stages together.
type Pipeline struct {
	completer llm.Completer
	providers *dispatch.Providers
	host      platform.Info
	history   *history.Store // nil disables recording
	logger    *slog.Logger
}

// New creates a Pipeline. history may be nil.
func New(completer llm.Completer, providers *dispatch.Providers, host platform.Info, hist *history.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		completer: completer,
		providers: providers,
		host:      host,
		history:   hist,
		logger:    logger,
	}
}

// Process interprets and executes one utterance. channel names the
// input surface (repl, http, ws, mqtt) for the history log. It never
// panics and always returns a presentable message.
func (p *Pipeline) Process(ctx context.Context, channel, text string) Response {
	resp := p.process(ctx, text)
	p.record(ctx, channel, text, resp)
	return resp
}

func (p *Pipeline) process(ctx context.Context, text string) Response {
	text = strings.TrimSpace(text)
	if text == "" {
		return Response{Text: "I didn't catch that. What would you like me to do?", Intent: intent.Unknown}
	}

	if isExitPhrase(text) {
		return Response{Text: dispatch.Sentinel, Intent: intent.Exit, OK: true, Exit: true}
	}

	raw, err := p.completer.Complete(ctx, prompts.ClassifyPrompt(text))
	if err != nil {
		p.logger.Error("completion failed", "error", err)
		return Response{
			Text:   "I'm having trouble reaching my language model right now. Please try again in a moment.",
			Intent: intent.Unknown,
		}
	}

	parsed := parser.Parse(raw)
	p.logger.Debug("classified", "intent", parsed.Intent, "entities", parsed.Entities)

	if parsed.Intent == intent.Unknown || !intent.Known(parsed.Intent) {
		return Response{Text: unknownMessage(parsed), Intent: intent.Unknown}
	}

	cmd, err := validate.Validate(parsed, p.host)
	if err != nil {
		var fieldErr *validate.FieldError
		if errors.As(err, &fieldErr) {
			p.logger.Info("validation rejected command", "intent", parsed.Intent, "field", fieldErr.Field, "reason", fieldErr.Reason)
			return Response{Text: fieldErr.Error(), Intent: parsed.Intent}
		}
		p.logger.Error("validation failed", "intent", parsed.Intent, "error", err)
		return Response{Text: "Something went wrong understanding that request.", Intent: parsed.Intent}
	}

	result := dispatch.Dispatch(ctx, cmd, p.providers)
	return Response{
		Text:   result.Message,
		Intent: cmd.Intent,
		OK:     result.OK,
		Exit:   cmd.Intent == intent.Exit,
	}
}

// isExitPhrase reports whether text contains a session-ending phrase.
func isExitPhrase(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range exitPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// unknownMessage renders a classification failure. Parse failures
// (invalid JSON, wrong shape) carry their parser-written error text
// into the reply; the model answering unknown gets a bare rephrase
// request.
func unknownMessage(parsed intent.ParsedCommand) string {
	kind, _ := parsed.Entities[intent.KeyErrorKind].(string)
	switch kind {
	case intent.ErrKindDecode, intent.ErrKindShape:
		msg := "I'm sorry, I had trouble understanding the response from my language model. Could you rephrase that?"
		if errText, ok := parsed.Entities[intent.KeyError].(string); ok && errText != "" {
			msg += " (Parser error: " + errText + ")"
		}
		return msg
	default:
		return "I'm not sure what you'd like me to do. Could you rephrase that?"
	}
}

// record appends the exchange to the history log, best effort.
func (p *Pipeline) record(ctx context.Context, channel, text string, resp Response) {
	if p.history == nil {
		return
	}
	_, err := p.history.Record(ctx, history.Entry{
		Channel:  channel,
		Command:  text,
		Intent:   resp.Intent,
		Response: resp.Text,
		OK:       resp.OK,
	})
	if err != nil {
		p.logger.Warn("history record failed", "error", err)
	}
}
