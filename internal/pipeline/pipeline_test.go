package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stewardbot/steward/internal/dispatch"
	"github.com/stewardbot/steward/internal/intent"
	"github.com/stewardbot/steward/internal/platform"
)

var testHost = platform.Info{Family: platform.POSIX, HomeDir: "/home/alex", Shell: "sh"}

// scriptedCompleter returns a fixed response and records whether it
// was called.
type scriptedCompleter struct {
	response string
	err      error
	called   bool
}

func (s *scriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.called = true
	return s.response, s.err
}

func (s *scriptedCompleter) Ping(ctx context.Context) error { return nil }

// recordingOS records SetBrightness calls.
type recordingOS struct {
	dispatch.OSAgent
	brightnessCalls int
}

func (r *recordingOS) SetBrightness(ctx context.Context, level int) (string, error) {
	r.brightnessCalls++
	return "Brightness set.", nil
}

func newTestPipeline(c *scriptedCompleter, p *dispatch.Providers) *Pipeline {
	if p == nil {
		p = &dispatch.Providers{}
	}
	return New(c, p, testHost, nil, nil)
}

func TestProcess_ExitPhraseSkipsModel(t *testing.T) {
	completer := &scriptedCompleter{}
	pipe := newTestPipeline(completer, nil)

	for _, text := range []string{"exit steward", "QUIT STEWARD", "please exit steward now"} {
		resp := pipe.Process(context.Background(), "repl", text)
		if !resp.Exit || resp.Text != dispatch.Sentinel {
			t.Errorf("Process(%q) = %+v, want exit with sentinel", text, resp)
		}
	}
	if completer.called {
		t.Error("exit phrases must not reach the completion service")
	}
}

func TestProcess_OutOfRangeBrightnessNeverReachesProvider(t *testing.T) {
	os := &recordingOS{}
	completer := &scriptedCompleter{
		response: `{"intent": "set_brightness", "entities": {"level": 150}}`,
	}
	pipe := newTestPipeline(completer, &dispatch.Providers{OS: os})

	resp := pipe.Process(context.Background(), "repl", "set brightness to 150")
	if resp.OK {
		t.Error("out-of-range brightness must not succeed")
	}
	if !strings.Contains(resp.Text, "0 and 100") {
		t.Errorf("response %q should explain the valid range", resp.Text)
	}
	if os.brightnessCalls != 0 {
		t.Errorf("provider called %d times, want 0", os.brightnessCalls)
	}
}

func TestProcess_ValidCommandDispatches(t *testing.T) {
	os := &recordingOS{}
	completer := &scriptedCompleter{
		response: "```json\n{\"intent\": \"set_brightness\", \"entities\": {\"level\": 70}}\n```",
	}
	pipe := newTestPipeline(completer, &dispatch.Providers{OS: os})

	resp := pipe.Process(context.Background(), "repl", "set brightness to 70")
	if !resp.OK {
		t.Fatalf("response = %+v, want success", resp)
	}
	if os.brightnessCalls != 1 {
		t.Errorf("provider called %d times, want 1", os.brightnessCalls)
	}
	if resp.Intent != intent.SetBrightness {
		t.Errorf("intent = %q, want set_brightness", resp.Intent)
	}
}

func TestProcess_CompletionFailure(t *testing.T) {
	completer := &scriptedCompleter{err: errors.New("connection refused")}
	pipe := newTestPipeline(completer, nil)

	resp := pipe.Process(context.Background(), "repl", "open firefox")
	if resp.OK || resp.Exit {
		t.Errorf("completion failure should be a plain error response, got %+v", resp)
	}
	if resp.Text == "" {
		t.Error("response text must never be empty")
	}
	if strings.Contains(resp.Text, "connection refused") {
		t.Errorf("internal error leaked to user: %q", resp.Text)
	}
}

func TestProcess_GarbageCompletionAsksForRephrase(t *testing.T) {
	completer := &scriptedCompleter{response: "I think you want to open a file?"}
	pipe := newTestPipeline(completer, nil)

	resp := pipe.Process(context.Background(), "repl", "do the thing")
	if resp.Intent != intent.Unknown {
		t.Errorf("intent = %q, want unknown", resp.Intent)
	}
	if !strings.Contains(strings.ToLower(resp.Text), "rephrase") {
		t.Errorf("response %q should ask for a rephrase", resp.Text)
	}
	if !strings.Contains(resp.Text, "Parser error:") {
		t.Errorf("response %q should carry the parser error text", resp.Text)
	}
}

func TestProcess_ModelUnknownHasNoParserError(t *testing.T) {
	completer := &scriptedCompleter{response: `{"intent": "unknown", "entities": {}}`}
	pipe := newTestPipeline(completer, nil)

	resp := pipe.Process(context.Background(), "repl", "flarb the wizzle")
	if strings.Contains(resp.Text, "Parser error:") {
		t.Errorf("model-unknown reply %q should not mention the parser", resp.Text)
	}
}

func TestProcess_ModelUnknown(t *testing.T) {
	completer := &scriptedCompleter{response: `{"intent": "unknown", "entities": {}}`}
	pipe := newTestPipeline(completer, nil)

	resp := pipe.Process(context.Background(), "repl", "flarb the wizzle")
	if resp.Intent != intent.Unknown || resp.OK {
		t.Errorf("got %+v, want unknown non-OK", resp)
	}
}

func TestProcess_OutOfTaxonomyIntent(t *testing.T) {
	completer := &scriptedCompleter{response: `{"intent": "make_coffee", "entities": {}}`}
	pipe := newTestPipeline(completer, nil)

	resp := pipe.Process(context.Background(), "repl", "make me a coffee")
	if resp.Intent != intent.Unknown {
		t.Errorf("intent = %q, want unknown for out-of-taxonomy tag", resp.Intent)
	}
}

func TestProcess_MissingEntityAsksClarifyingQuestion(t *testing.T) {
	completer := &scriptedCompleter{response: `{"intent": "create_file", "entities": {}}`}
	pipe := newTestPipeline(completer, nil)

	resp := pipe.Process(context.Background(), "repl", "create a file")
	if resp.OK {
		t.Error("missing required entity must not succeed")
	}
	if !strings.Contains(resp.Text, "filepath") {
		t.Errorf("response %q should name the missing field", resp.Text)
	}
}

func TestProcess_EmptyInput(t *testing.T) {
	completer := &scriptedCompleter{}
	pipe := newTestPipeline(completer, nil)

	resp := pipe.Process(context.Background(), "repl", "   ")
	if resp.Text == "" {
		t.Error("empty input still needs a response")
	}
	if completer.called {
		t.Error("empty input must not reach the completion service")
	}
}
