package intent

import "github.com/stewardbot/steward/internal/platform"

// FieldType is the semantic type of a schema field. Paths and URLs get
// their own types so the validator can normalize them.
type FieldType int

const (
	String FieldType = iota
	Integer
	Float
	Boolean
	StringList
	Path
	URL
)

// Field declares one named entity in an intent's schema.
type Field struct {
	Name     string
	Type     FieldType
	Required bool

	// Default fills the field when absent and not required. It may
	// depend on the host (shell type, home directory); nil means the
	// zero value for the type.
	Default func(platform.Info) any

	// Example is the placeholder shown in the classifier prompt.
	Example string

	// GuardRoot marks Path fields that are write targets: absolute
	// values naming an entry directly inside a filesystem root are
	// rejected instead of forwarded. Read-only paths (directory
	// listings) stay unguarded.
	GuardRoot bool
}

// Schema is the ordered field list for one intent.
type Schema struct {
	Intent string
	Fields []Field
}

func literal(v any) func(platform.Info) any {
	return func(platform.Info) any { return v }
}

// schemas declares the entity schema for every intent in the taxonomy
// except "unknown". Order here is the order fields appear in the
// classifier prompt.
var schemas = []Schema{
	{CreateFile, []Field{
		{Name: "filepath", Type: Path, Required: true, Example: "path/to/file.txt", GuardRoot: true},
		{Name: "content", Type: String, Default: literal(""), Example: "file content here"},
	}},
	{CreateDirectory, []Field{
		{Name: "dir_path", Type: Path, Required: true, Example: "path/to/directory", GuardRoot: true},
	}},
	{DeletePath, []Field{
		{Name: "path", Type: Path, Required: true, Example: "path/to/delete", GuardRoot: true},
	}},
	{MovePath, []Field{
		{Name: "source_path", Type: Path, Required: true, Example: "path/to/source", GuardRoot: true},
		{Name: "destination_path", Type: Path, Required: true, Example: "path/to/destination", GuardRoot: true},
	}},
	{ListDirectory, []Field{
		{Name: "dir_path", Type: Path, Example: "path/to/list",
			Default: func(p platform.Info) any { return p.HomeDir }},
	}},
	{ExecuteCommand, []Field{
		{Name: "command_str", Type: String, Required: true, Example: "the command to run"},
		{Name: "shell_type", Type: String, Example: "cmd/powershell/bash/sh/zsh",
			Default: func(p platform.Info) any { return p.Shell }},
	}},
	{SetBrightness, []Field{
		{Name: "level", Type: Integer, Required: true, Example: "0-100"},
	}},
	{SetVolume, []Field{
		{Name: "level", Type: Float, Required: true, Example: "0.0-1.0"},
	}},
	{OpenApp, []Field{
		{Name: "app_name", Type: String, Required: true, Example: "application name"},
	}},
	{CloseApp, []Field{
		{Name: "app_name", Type: String, Required: true, Example: "application name or exe"},
	}},
	{OpenWebsite, []Field{
		{Name: "url", Type: URL, Required: true, Example: "website_url.com"},
	}},
	{SearchInfo, []Field{
		{Name: "query", Type: String, Required: true, Example: "search query"},
		{Name: "summarize", Type: Boolean, Default: literal(false), Example: "true/false"},
	}},
	{SummarizeText, []Field{
		{Name: "text", Type: String, Required: true, Example: "text to summarize"},
	}},
	{MediaPlay, []Field{
		{Name: "player_name", Type: String, Default: literal("default"), Example: "spotify/music/etc"},
		{Name: "track_or_playlist", Type: String, Default: literal(""), Example: "optional track or playlist"},
	}},
	{MediaPause, []Field{
		{Name: "player_name", Type: String, Default: literal("default"), Example: "spotify/music/etc"},
	}},
	{MediaSkip, []Field{
		{Name: "player_name", Type: String, Default: literal("default"), Example: "spotify/music/etc"},
	}},
	{MediaPrevious, []Field{
		{Name: "player_name", Type: String, Default: literal("default"), Example: "spotify/music/etc"},
	}},
	{ListCalendar, []Field{
		{Name: "time_period", Type: String, Default: literal("next 7 days"), Example: "today/tomorrow/next 7 days"},
		{Name: "max_results", Type: Integer, Default: literal(10), Example: "10"},
	}},
	{CreateCalendar, []Field{
		{Name: "summary", Type: String, Required: true, Example: "event title"},
		{Name: "start_datetime_iso", Type: String, Required: true, Example: "2024-05-01T10:00:00Z"},
		{Name: "end_datetime_iso", Type: String, Required: true, Example: "2024-05-01T11:00:00Z"},
		{Name: "description", Type: String, Default: literal(""), Example: "optional details"},
		{Name: "attendees", Type: StringList, Example: "[\"a@example.com\"]"},
	}},
	{GeneralQuery, []Field{
		{Name: "query_text", Type: String, Required: true, Example: "full user query"},
	}},
	{Exit, nil},
}

var schemaIndex = func() map[string]Schema {
	m := make(map[string]Schema, len(schemas))
	for _, s := range schemas {
		m[s.Intent] = s
	}
	return m
}()

// SchemaFor returns the entity schema for an intent tag. The second
// return is false for "unknown" and anything outside the taxonomy.
func SchemaFor(tag string) (Schema, bool) {
	s, ok := schemaIndex[tag]
	return s, ok
}

// Known reports whether the tag is in the taxonomy (excluding unknown).
func Known(tag string) bool {
	_, ok := schemaIndex[tag]
	return ok
}

// All returns every schema in declaration order. The prompt builder
// iterates this so the taxonomy and the prompt can never drift apart.
func All() []Schema {
	return schemas
}
