// Package intent defines the closed command taxonomy, the per-intent
// entity schemas, and the command records that flow through the
// interpretation pipeline.
package intent

// Intent tags. The set is closed: the classifier prompt enumerates
// exactly these, and [Known] rejects anything else.
const (
	CreateFile       = "create_file"
	CreateDirectory  = "create_directory"
	DeletePath       = "delete_path"
	MovePath         = "move_path"
	ListDirectory    = "list_directory_contents"
	ExecuteCommand   = "execute_command"
	SetBrightness    = "set_brightness"
	SetVolume        = "set_volume"
	OpenApp          = "open_app"
	CloseApp         = "close_app"
	OpenWebsite      = "open_website"
	SearchInfo       = "search_info"
	SummarizeText    = "summarize_text"
	MediaPlay        = "media_play"
	MediaPause       = "media_pause"
	MediaSkip        = "media_skip"
	MediaPrevious    = "media_previous"
	ListCalendar     = "list_calendar_events"
	CreateCalendar   = "create_calendar_event"
	GeneralQuery     = "general_query"
	Exit             = "exit"
	Unknown          = "unknown"
)

// ParsedCommand is the raw classifier output: an intent tag plus
// whatever entity map the model produced. Entities is never nil, even
// on failure; parse failures are encoded under entities["error"].
type ParsedCommand struct {
	Intent   string         `json:"intent"`
	Entities map[string]any `json:"entities"`
}

// Error payload keys used by the parser for classification failures.
// ErrorKind distinguishes the three causes that all surface as the
// "unknown" tag: the completion was not valid JSON ("decode"), it was
// JSON of the wrong shape ("shape"), or the model itself answered
// unknown ("model").
const (
	KeyError       = "error"
	KeyErrorKind   = "error_kind"
	KeyRawResponse = "raw_response"

	ErrKindDecode = "decode"
	ErrKindShape  = "shape"
	ErrKindModel  = "model"
)

// NormalizedCommand is a ParsedCommand that passed schema validation:
// it contains exactly the fields declared by its intent's schema, with
// optional fields filled from defaults. Values carry their coerced Go
// types (string, int, float64, bool, []string).
type NormalizedCommand struct {
	Intent   string
	Entities map[string]any
}

// String returns a typed entity, or "" if absent.
func (c NormalizedCommand) String(field string) string {
	s, _ := c.Entities[field].(string)
	return s
}

// Int returns a typed entity, or 0 if absent.
func (c NormalizedCommand) Int(field string) int {
	n, _ := c.Entities[field].(int)
	return n
}

// Float returns a typed entity, or 0 if absent.
func (c NormalizedCommand) Float(field string) float64 {
	f, _ := c.Entities[field].(float64)
	return f
}

// Bool returns a typed entity, or false if absent.
func (c NormalizedCommand) Bool(field string) bool {
	b, _ := c.Entities[field].(bool)
	return b
}

// StringList returns a typed entity, or nil if absent.
func (c NormalizedCommand) StringList(field string) []string {
	l, _ := c.Entities[field].([]string)
	return l
}
