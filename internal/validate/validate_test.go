package validate

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stewardbot/steward/internal/intent"
	"github.com/stewardbot/steward/internal/platform"
)

var testHost = platform.Info{
	Family:  platform.POSIX,
	HomeDir: "/home/alex",
	Shell:   "sh",
}

func parsed(tag string, entities map[string]any) intent.ParsedCommand {
	if entities == nil {
		entities = map[string]any{}
	}
	return intent.ParsedCommand{Intent: tag, Entities: entities}
}

func fieldErr(t *testing.T, err error) *FieldError {
	t.Helper()
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("error %v is not a *FieldError", err)
	}
	return fe
}

func TestValidate_RequiredMissing(t *testing.T) {
	_, err := Validate(parsed(intent.CreateFile, nil), testHost)
	fe := fieldErr(t, err)
	if fe.Field != "filepath" || fe.Reason != "missing" {
		t.Errorf("got field=%q reason=%q, want filepath/missing", fe.Field, fe.Reason)
	}
	if !strings.Contains(fe.Error(), "filepath") {
		t.Errorf("message %q should name the missing field", fe.Error())
	}
}

func TestValidate_NullTreatedAsAbsent(t *testing.T) {
	_, err := Validate(parsed(intent.CreateFile, map[string]any{"filepath": nil}), testHost)
	fe := fieldErr(t, err)
	if fe.Reason != "missing" {
		t.Errorf("null required field should read as missing, got %q", fe.Reason)
	}
}

func TestValidate_RelativePathResolvesToHome(t *testing.T) {
	cmd, err := Validate(parsed(intent.CreateFile, map[string]any{"filepath": "notes.txt"}), testHost)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	want := filepath.Join("/home/alex", "notes.txt")
	if got := cmd.String("filepath"); got != want {
		t.Errorf("filepath = %q, want %q", got, want)
	}
}

func TestValidate_RootWriteRejected(t *testing.T) {
	_, err := Validate(parsed(intent.CreateFile, map[string]any{"filepath": "/notes.txt"}), testHost)
	fe := fieldErr(t, err)
	if fe.Reason != "restricted" {
		t.Fatalf("reason = %q, want restricted", fe.Reason)
	}
	if !strings.Contains(fe.Error(), "restricted") {
		t.Errorf("message %q should mention the restriction", fe.Error())
	}
}

func TestValidate_RootListAllowed(t *testing.T) {
	// Reading a root-level directory is fine; only writes are guarded.
	cmd, err := Validate(parsed(intent.ListDirectory, map[string]any{"dir_path": "/home"}), testHost)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if got := cmd.String("dir_path"); got != "/home" {
		t.Errorf("dir_path = %q, want /home", got)
	}
}

func TestValidate_ListDirectoryDefaultsToHome(t *testing.T) {
	cmd, err := Validate(parsed(intent.ListDirectory, nil), testHost)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if got := cmd.String("dir_path"); got != testHost.HomeDir {
		t.Errorf("dir_path = %q, want home %q", got, testHost.HomeDir)
	}
}

func TestValidate_BrightnessRange(t *testing.T) {
	cases := []struct {
		level  any
		wantOK bool
	}{
		{float64(0), true},
		{float64(100), true},
		{float64(75), true},
		{"75", true}, // numeric string tolerated
		{float64(150), false},
		{float64(-1), false},
		{float64(75.5), false}, // non-integral
		{"bright", false},
	}
	for _, tc := range cases {
		cmd, err := Validate(parsed(intent.SetBrightness, map[string]any{"level": tc.level}), testHost)
		if tc.wantOK {
			if err != nil {
				t.Errorf("level %v: unexpected error %v", tc.level, err)
			} else if cmd.Int("level") < 0 || cmd.Int("level") > 100 {
				t.Errorf("level %v: normalized out of range: %d", tc.level, cmd.Int("level"))
			}
		} else if err == nil {
			t.Errorf("level %v: expected rejection", tc.level)
		}
	}
}

func TestValidate_VolumeRange(t *testing.T) {
	if _, err := Validate(parsed(intent.SetVolume, map[string]any{"level": 1.5}), testHost); err == nil {
		t.Error("volume 1.5 should be rejected")
	}

	cmd, err := Validate(parsed(intent.SetVolume, map[string]any{"level": 0.5}), testHost)
	if err != nil {
		t.Fatalf("volume 0.5: %v", err)
	}
	if got := cmd.Float("level"); got != 0.5 {
		t.Errorf("level = %g, want 0.5", got)
	}
}

func TestValidate_ShellDefaultsToPlatform(t *testing.T) {
	cmd, err := Validate(parsed(intent.ExecuteCommand, map[string]any{"command_str": "ls"}), testHost)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if got := cmd.String("shell_type"); got != "sh" {
		t.Errorf("shell_type = %q, want sh", got)
	}
}

func TestValidate_SummarizeDefaultsFalse(t *testing.T) {
	cmd, err := Validate(parsed(intent.SearchInfo, map[string]any{"query": "weather"}), testHost)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if cmd.Bool("summarize") {
		t.Error("summarize should default to false")
	}
}

func TestValidate_URLGainsScheme(t *testing.T) {
	cmd, err := Validate(parsed(intent.OpenWebsite, map[string]any{"url": "example.com"}), testHost)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if got := cmd.String("url"); got != "https://example.com" {
		t.Errorf("url = %q, want https://example.com", got)
	}
}

func TestValidate_DropsUnknownEntities(t *testing.T) {
	cmd, err := Validate(parsed(intent.OpenApp, map[string]any{
		"app_name":     "firefox",
		"hallucinated": "ignore me",
	}), testHost)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if _, ok := cmd.Entities["hallucinated"]; ok {
		t.Error("undeclared entities must be dropped")
	}
}

func TestValidate_StringListFromSingleString(t *testing.T) {
	cmd, err := Validate(parsed(intent.CreateCalendar, map[string]any{
		"summary":            "standup",
		"start_datetime_iso": "2026-09-01T10:00:00Z",
		"end_datetime_iso":   "2026-09-01T10:30:00Z",
		"attendees":          "a@example.com",
	}), testHost)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	got := cmd.StringList("attendees")
	if len(got) != 1 || got[0] != "a@example.com" {
		t.Errorf("attendees = %v, want single-element list", got)
	}
}

func TestValidate_OutOfTaxonomy(t *testing.T) {
	if _, err := Validate(parsed("make_coffee", nil), testHost); err == nil {
		t.Error("out-of-taxonomy intent must fail validation")
	}
}
