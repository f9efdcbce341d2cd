package intent

import (
	"testing"
)

func TestEveryTagHasOneSchema(t *testing.T) {
	tags := []string{
		CreateFile, CreateDirectory, DeletePath, MovePath, ListDirectory,
		ExecuteCommand, SetBrightness, SetVolume, OpenApp, CloseApp,
		OpenWebsite, SearchInfo, SummarizeText, MediaPlay, MediaPause,
		MediaSkip, MediaPrevious, ListCalendar, CreateCalendar,
		GeneralQuery, Exit,
	}

	seen := make(map[string]bool)
	for _, s := range All() {
		if seen[s.Intent] {
			t.Errorf("intent %q has more than one schema", s.Intent)
		}
		seen[s.Intent] = true
	}

	for _, tag := range tags {
		if !seen[tag] {
			t.Errorf("intent %q has no schema", tag)
		}
	}
	if seen[Unknown] {
		t.Error("unknown must not have a schema")
	}
	if len(seen) != len(tags) {
		t.Errorf("schema table has %d entries, want %d", len(seen), len(tags))
	}
}

func TestKnown(t *testing.T) {
	if !Known(CreateFile) || !Known(Exit) {
		t.Error("taxonomy tags must be known")
	}
	if Known(Unknown) {
		t.Error("unknown is not a schedulable intent")
	}
	if Known("make_coffee") {
		t.Error("out-of-taxonomy tag must not be known")
	}
}

func TestSchemaFor(t *testing.T) {
	s, ok := SchemaFor(CreateFile)
	if !ok {
		t.Fatal("create_file schema missing")
	}

	var required []string
	for _, f := range s.Fields {
		if f.Required {
			required = append(required, f.Name)
		}
	}
	if len(required) != 1 || required[0] != "filepath" {
		t.Errorf("create_file required fields = %v, want [filepath]", required)
	}

	if _, ok := SchemaFor("nope"); ok {
		t.Error("SchemaFor must reject out-of-taxonomy tags")
	}
}

func TestNormalizedCommandAccessors(t *testing.T) {
	c := NormalizedCommand{
		Intent: SetVolume,
		Entities: map[string]any{
			"s": "text", "i": 7, "f": 0.5, "b": true, "l": []string{"x"},
		},
	}

	if c.String("s") != "text" || c.Int("i") != 7 || c.Float("f") != 0.5 || !c.Bool("b") {
		t.Error("typed accessors returned wrong values")
	}
	if got := c.StringList("l"); len(got) != 1 || got[0] != "x" {
		t.Errorf("StringList = %v", got)
	}

	// Absent or mistyped fields return zero values, never panic.
	if c.String("missing") != "" || c.Int("s") != 0 || c.Float("b") != 0 || c.Bool("s") {
		t.Error("accessors must zero-value on absent or mistyped fields")
	}
}
