// Package validate checks a parsed command against its intent's entity
// schema and normalizes the values into dispatch-ready form: required
// fields present, types coerced, defaults injected, paths resolved.
//
// Validation failures never reach a capability provider; the caller
// renders them as a clarifying question to the user.
package validate

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/stewardbot/steward/internal/intent"
	"github.com/stewardbot/steward/internal/platform"
)

// FieldError describes why a single entity failed validation. Message,
// when set, overrides the generic rendering for rules with their own
// user-facing wording (range limits, the root-write guard).
type FieldError struct {
	Field   string
	Reason  string
	Message string
}

func (e *FieldError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Reason {
	case "missing":
		return fmt.Sprintf("I need a %s to do that.", e.Field)
	case "wrong type":
		return fmt.Sprintf("I couldn't make sense of the %s you gave me.", e.Field)
	default:
		return fmt.Sprintf("Something is off with the %s you gave me.", e.Field)
	}
}

// Validate checks parsed against its intent's schema and returns the
// normalized command. The caller must ensure the intent is in the
// taxonomy (the pipeline short-circuits "unknown" before calling).
//
// The returned command contains exactly the schema's declared fields;
// anything extra the model hallucinated is dropped.
func Validate(parsed intent.ParsedCommand, host platform.Info) (intent.NormalizedCommand, error) {
	schema, ok := intent.SchemaFor(parsed.Intent)
	if !ok {
		return intent.NormalizedCommand{}, &FieldError{
			Field:  "intent",
			Reason: "unknown",
			// Not user-visible: the pipeline handles out-of-taxonomy
			// tags before validation.
			Message: fmt.Sprintf("intent %q is not in the taxonomy", parsed.Intent),
		}
	}

	out := intent.NormalizedCommand{
		Intent:   schema.Intent,
		Entities: make(map[string]any, len(schema.Fields)),
	}

	for _, f := range schema.Fields {
		raw, present := parsed.Entities[f.Name]
		if present && raw == nil {
			present = false // model said "field": null
		}

		if !present {
			if f.Required {
				return intent.NormalizedCommand{}, &FieldError{Field: f.Name, Reason: "missing"}
			}
			if f.Default != nil {
				out.Entities[f.Name] = f.Default(host)
			} else {
				out.Entities[f.Name] = zeroValue(f.Type)
			}
			continue
		}

		val, err := coerce(f, raw, host)
		if err != nil {
			return intent.NormalizedCommand{}, err
		}

		if err := applyRules(schema.Intent, f, val); err != nil {
			return intent.NormalizedCommand{}, err
		}

		out.Entities[f.Name] = val
	}

	return out, nil
}

// coerce converts a raw JSON value into the field's declared Go type.
// JSON numbers arrive as float64; numeric strings from the model
// ("75") are tolerated because voice transcription frequently produces
// them.
func coerce(f intent.Field, raw any, host platform.Info) (any, error) {
	wrongType := &FieldError{Field: f.Name, Reason: "wrong type"}

	switch f.Type {
	case intent.String:
		s, ok := raw.(string)
		if !ok {
			return nil, wrongType
		}
		return s, nil

	case intent.Integer:
		switch v := raw.(type) {
		case float64:
			if v != math.Trunc(v) {
				return nil, wrongType
			}
			return int(v), nil
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, wrongType
			}
			return n, nil
		}
		return nil, wrongType

	case intent.Float:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case string:
			x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, wrongType
			}
			return x, nil
		}
		return nil, wrongType

	case intent.Boolean:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, wrongType
			}
			return b, nil
		}
		return nil, wrongType

	case intent.StringList:
		switch v := raw.(type) {
		case []any:
			list := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, wrongType
				}
				list = append(list, s)
			}
			return list, nil
		case string:
			// A single value where a list was expected is common
			// classifier output; accept it.
			return []string{v}, nil
		}
		return nil, wrongType

	case intent.Path:
		s, ok := raw.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, wrongType
		}
		return normalizePath(f, s, host)

	case intent.URL:
		s, ok := raw.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, wrongType
		}
		return normalizeURL(s), nil
	}

	return nil, wrongType
}

// normalizePath resolves relative paths under the home directory and
// applies the root-write guard for write-target fields: an absolute
// path naming an entry directly inside a filesystem root is almost
// always a misparse, and writes there are refused.
func normalizePath(f intent.Field, raw string, host platform.Info) (any, error) {
	resolved := host.ResolvePath(raw)

	if f.GuardRoot && filepath.IsAbs(host.ExpandHome(raw)) && platform.IsRootChild(resolved) {
		return nil, &FieldError{
			Field:  f.Name,
			Reason: "restricted",
			Message: fmt.Sprintf(
				"Touching %q directly in a root directory is restricted. Please use a path inside your user folders.",
				raw),
		}
	}

	return resolved, nil
}

// normalizeURL adds a scheme when the model returned a bare host like
// "google.com".
func normalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return "https://" + u
}

// applyRules enforces per-intent range rules that plain typing can't
// express.
func applyRules(tag string, f intent.Field, val any) error {
	switch {
	case tag == intent.SetBrightness && f.Name == "level":
		n := val.(int)
		if n < 0 || n > 100 {
			return &FieldError{
				Field:   f.Name,
				Reason:  "out of range",
				Message: fmt.Sprintf("Brightness must be between 0 and 100, not %d.", n),
			}
		}
	case tag == intent.SetVolume && f.Name == "level":
		x := val.(float64)
		if x < 0.0 || x > 1.0 {
			return &FieldError{
				Field:   f.Name,
				Reason:  "out of range",
				Message: fmt.Sprintf("Volume must be between 0.0 and 1.0, not %g.", x),
			}
		}
	}
	return nil
}

func zeroValue(t intent.FieldType) any {
	switch t {
	case intent.Integer:
		return 0
	case intent.Float:
		return 0.0
	case intent.Boolean:
		return false
	case intent.StringList:
		return []string(nil)
	default:
		return ""
	}
}
