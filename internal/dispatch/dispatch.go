// Package dispatch routes a normalized command to exactly one
// capability handler and converts every outcome, including panics and
// provider failures, into a uniform user-presentable [Result].
package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stewardbot/steward/internal/intent"
)

// Sentinel is the exact termination message. Callers detect session
// end by comparing equality against this string, never substrings.
const Sentinel = "Goodbye!"

// Result is the uniform outcome of dispatching one command. Message is
// always non-empty and safe to present to the end user.
type Result struct {
	OK      bool
	Message string
}

// EventRequest carries the validated entities for a calendar event.
type EventRequest struct {
	Summary     string
	StartISO    string
	EndISO      string
	Description string
	Attendees   []string
}

// Capability provider contracts. Each method returns a user-facing
// message; the error carries the safe failure text. Providers may be
// nil when unconfigured — handlers answer with an availability notice
// instead of calling through.

// OSAgent covers filesystem, process, and display/audio control.
type OSAgent interface {
	CreateFile(ctx context.Context, path, content string) (string, error)
	CreateDirectory(ctx context.Context, path string) (string, error)
	DeletePath(ctx context.Context, path string) (string, error)
	MovePath(ctx context.Context, source, destination string) (string, error)
	ListDirectory(ctx context.Context, path string) ([]string, error)
	ExecuteCommand(ctx context.Context, command, shell string) (string, error)
	SetBrightness(ctx context.Context, level int) (string, error)
	SetVolume(ctx context.Context, level float64) (string, error)
}

// AppManager launches and terminates applications.
type AppManager interface {
	Open(ctx context.Context, name string) (string, error)
	Close(ctx context.Context, name string) (string, error)
}

// WebAutomator opens sites and answers search/summarize requests.
type WebAutomator interface {
	OpenWebsite(ctx context.Context, url string) (string, error)
	Search(ctx context.Context, query string, summarize bool) (string, error)
	Summarize(ctx context.Context, text string) (string, error)
}

// MediaController drives the platform media player.
type MediaController interface {
	Play(ctx context.Context, player, trackOrPlaylist string) (string, error)
	Pause(ctx context.Context, player string) (string, error)
	Skip(ctx context.Context, player string) (string, error)
	Previous(ctx context.Context, player string) (string, error)
}

// CalendarManager lists and creates calendar events.
type CalendarManager interface {
	ListEvents(ctx context.Context, timePeriod string, maxResults int) (string, error)
	CreateEvent(ctx context.Context, ev EventRequest) (string, error)
}

// Assistant answers conversational queries through the completion
// service.
type Assistant interface {
	Answer(ctx context.Context, query string) (string, error)
}

// Providers is the immutable capability context, constructed once at
// startup and passed by reference into every dispatch. There is no
// global registry; tests inject fakes here.
type Providers struct {
	OS        OSAgent
	Apps      AppManager
	Web       WebAutomator
	Media     MediaController
	Calendar  CalendarManager
	Assistant Assistant

	Logger *slog.Logger
}

func (p *Providers) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Handler executes one intent against the providers.
type Handler func(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (string, error)

// Dispatch routes cmd to its registered handler. It never panics and
// never returns an empty message. Exit returns [Sentinel]
// unconditionally; taxonomy intents without a handler get the fixed
// not-yet-supported message.
func Dispatch(ctx context.Context, cmd intent.NormalizedCommand, p *Providers) (result Result) {
	if cmd.Intent == intent.Exit {
		return Result{OK: true, Message: Sentinel}
	}

	handler, ok := handlers[cmd.Intent]
	if !ok {
		return Result{
			OK:      false,
			Message: fmt.Sprintf("I understood the intent as %q, but I don't know how to do that yet.", cmd.Intent),
		}
	}

	// A panicking provider must not take down the control loop. The
	// panic value is logged, never shown.
	defer func() {
		if r := recover(); r != nil {
			p.logger().Error("capability handler panicked", "intent", cmd.Intent, "panic", r)
			result = Result{OK: false, Message: "Sorry, something went wrong performing that action."}
		}
	}()

	msg, err := handler(ctx, cmd, p)
	if err != nil {
		p.logger().Warn("capability handler failed", "intent", cmd.Intent, "error", err)
		return Result{OK: false, Message: failureMessage(err)}
	}
	if msg == "" {
		msg = "Done."
	}
	return Result{OK: true, Message: msg}
}

// failureMessage renders a provider error for the user. Provider
// errors are constructed with safe wording; anything empty gets a
// generic fallback.
func failureMessage(err error) string {
	text := err.Error()
	if text == "" {
		return "Sorry, I couldn't complete that action."
	}
	return "Sorry, " + text
}
