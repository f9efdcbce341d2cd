package mqttbridge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestLoadOrCreateInstanceID_CreatesAndPersists(t *testing.T) {
	dir := t.TempDir()

	id, err := LoadOrCreateInstanceID(dir)
	if err != nil {
		t.Fatalf("LoadOrCreateInstanceID: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("id %q is not a UUID: %v", id, err)
	}

	// A second call reads the same ID back.
	again, err := LoadOrCreateInstanceID(dir)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if again != id {
		t.Errorf("id changed across loads: %q then %q", id, again)
	}
}

func TestLoadOrCreateInstanceID_ReadsExisting(t *testing.T) {
	dir := t.TempDir()
	want := "0198d1c2-0000-7000-8000-000000000000"
	os.WriteFile(filepath.Join(dir, "instance_id"), []byte(want+"\n"), 0o644)

	got, err := LoadOrCreateInstanceID(dir)
	if err != nil {
		t.Fatalf("LoadOrCreateInstanceID: %v", err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
