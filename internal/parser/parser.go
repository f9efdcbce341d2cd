// Package parser turns raw completion text into a [intent.ParsedCommand].
//
// This is the trust boundary of the pipeline: the completion service
// gives no structural guarantees, so every failure mode here is encoded
// as a normal return value with intent "unknown" rather than an error.
// A misbehaving model degrades into a rephrase request, never a crash.
package parser

import (
	"encoding/json"
	"strings"

	"github.com/stewardbot/steward/internal/intent"
)

// Parse decodes raw completion text. It never panics and never returns
// a nil entity map. Failure payloads distinguish their cause via
// entities[intent.KeyErrorKind]:
//
//   - "decode": the text was not valid JSON (raw text preserved under
//     entities[intent.KeyRawResponse] for logging)
//   - "shape": valid JSON, but not an object carrying both an "intent"
//     string and an "entities" object
func Parse(raw string) intent.ParsedCommand {
	cleaned := StripFence(raw)

	var decoded any
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return intent.ParsedCommand{
			Intent: intent.Unknown,
			Entities: map[string]any{
				intent.KeyError:       "response was not valid structured data",
				intent.KeyErrorKind:   intent.ErrKindDecode,
				intent.KeyRawResponse: raw,
			},
		}
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		return shapeFailure()
	}
	tag, ok := obj["intent"].(string)
	if !ok {
		return shapeFailure()
	}
	entities, ok := obj["entities"].(map[string]any)
	if !ok {
		return shapeFailure()
	}

	return intent.ParsedCommand{Intent: tag, Entities: entities}
}

func shapeFailure() intent.ParsedCommand {
	return intent.ParsedCommand{
		Intent: intent.Unknown,
		Entities: map[string]any{
			intent.KeyError:     "malformed response shape",
			intent.KeyErrorKind: intent.ErrKindShape,
		},
	}
}

// StripFence removes a single leading/trailing markdown code fence
// (``` or ```json) if present, plus surrounding whitespace. Text
// without a fence passes through unchanged apart from trimming.
func StripFence(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the opening fence line including any language tag.
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```json")
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
	}

	return strings.TrimSpace(s)
}
