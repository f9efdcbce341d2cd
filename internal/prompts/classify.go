package prompts

import (
	"fmt"
	"strings"

	"github.com/stewardbot/steward/internal/intent"
)

const classifyHeader = `Analyze the following user command and extract the primary intent and relevant entities.
Your response MUST be a single valid JSON object. Do not include any text before or after the JSON object.

The JSON object has two keys: "intent" and "entities".
"intent" is a string from the following list (or "unknown" if none apply):
`

const classifyRules = `
Extraction rules:
- If a value is clearly a percentage, convert it: brightness is 0-100, volume is 0.0-1.0 (so "volume to 50%%" means 0.5).
- Keep paths exactly as the user said them; do not invent directories.
- If no player is named for media commands, omit player_name.
- If no shell is named for execute_command, omit shell_type.
- Omit any optional entity the user did not mention.

User command: "%s"

JSON response:`

// ClassifyPrompt builds the intent-classification prompt for one user
// utterance. The taxonomy and entity shapes are generated from the
// schema table; the utterance is embedded verbatim exactly once.
func ClassifyPrompt(text string) string {
	var b strings.Builder
	b.WriteString(classifyHeader)

	for _, s := range intent.All() {
		fmt.Fprintf(&b, "  - %q\n", s.Intent)
	}

	b.WriteString("\n\"entities\" is a JSON object with the fields for the chosen intent:\n")
	for _, s := range intent.All() {
		fmt.Fprintf(&b, "  - For %q: {%s}\n", s.Intent, exampleShape(s))
	}

	fmt.Fprintf(&b, classifyRules, text)
	return b.String()
}

// exampleShape renders one intent's entity shape, e.g.
// {"filepath": "path/to/file.txt", "content": "file content here"}.
func exampleShape(s intent.Schema) string {
	if len(s.Fields) == 0 {
		return ""
	}
	parts := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		example := f.Example
		suffix := ""
		if !f.Required {
			suffix = " (optional)"
		}
		parts = append(parts, fmt.Sprintf("%q: %q%s", f.Name, example, suffix))
	}
	return strings.Join(parts, ", ")
}
