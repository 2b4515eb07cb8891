package eventconfig

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func readDoc(t *testing.T, path string) Document {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return doc
}

func TestLoadFailsOnMissingOrMalformed(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := Load(writeDoc(t, "{not json")); err == nil {
		t.Fatalf("expected error for malformed file")
	}
}

func TestLoadNullChannel(t *testing.T) {
	store, err := Load(writeDoc(t, `{"logChannelId": null, "eventTypes": ["Raid", "Meeting"]}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if store.LogChannelID() != "" {
		t.Fatalf("expected unset channel, got %q", store.LogChannelID())
	}
	if got := store.EventTypes(); !slices.Equal(got, []string{"Raid", "Meeting"}) {
		t.Fatalf("unexpected event types %v", got)
	}
}

func TestAddEventTypePersists(t *testing.T) {
	path := writeDoc(t, `{"logChannelId": null, "eventTypes": ["Raid", "Meeting"]}`)
	store, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := store.AddEventType("Patrol"); err != nil {
		t.Fatalf("add: %v", err)
	}
	want := []string{"Raid", "Meeting", "Patrol"}
	if got := store.EventTypes(); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := readDoc(t, path).EventTypes; !slices.Equal(got, want) {
		t.Fatalf("expected persisted %v, got %v", want, got)
	}
}

func TestAddEventTypeDuplicate(t *testing.T) {
	path := writeDoc(t, `{"eventTypes": ["Raid"]}`)
	store, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := store.AddEventType("Raid"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if got := store.EventTypes(); !slices.Equal(got, []string{"Raid"}) {
		t.Fatalf("list changed: %v", got)
	}
}

func TestRemoveEventTypeIdempotent(t *testing.T) {
	path := writeDoc(t, `{"eventTypes": ["Raid", "Meeting"]}`)
	store, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := store.RemoveEventType("Patrol"); err != nil {
		t.Fatalf("remove absent: %v", err)
	}
	if got := store.EventTypes(); len(got) != 2 {
		t.Fatalf("expected unchanged list, got %v", got)
	}

	if err := store.RemoveEventType("Raid"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := readDoc(t, path).EventTypes; !slices.Equal(got, []string{"Meeting"}) {
		t.Fatalf("expected persisted [Meeting], got %v", got)
	}
}

func TestSetLogChannel(t *testing.T) {
	path := writeDoc(t, `{"eventTypes": []}`)
	store, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := store.SetLogChannel("c1"); err != nil {
		t.Fatalf("set channel: %v", err)
	}
	if readDoc(t, path).LogChannelID != "c1" {
		t.Fatalf("expected channel persisted")
	}
}

func TestFailedWriteKeepsMemory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"eventTypes": ["Raid"]}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// Point the store at a path whose parent does not exist.
	store.path = filepath.Join(dir, "missing", "config.json")

	if err := store.AddEventType("Patrol"); err == nil {
		t.Fatalf("expected write error")
	}
	if got := store.EventTypes(); !slices.Equal(got, []string{"Raid"}) {
		t.Fatalf("memory diverged from disk: %v", got)
	}
}

func readRaw(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	return string(data)
}

func TestRewriteKeepsFileShape(t *testing.T) {
	path := writeDoc(t, `{"logChannelId": null, "eventTypes": ["Raid","Meeting"], "adminRole": "123", "limits": {"b": 1, "a": [1, 2]}}`)
	store, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := store.AddEventType("Patrol"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.AddEventType("R&D <ops>"); err != nil {
		t.Fatalf("add: %v", err)
	}

	want := `{
  "logChannelId": null,
  "eventTypes": [
    "Raid",
    "Meeting",
    "Patrol",
    "R&D <ops>"
  ],
  "adminRole": "123",
  "limits": {
    "b": 1,
    "a": [
      1,
      2
    ]
  }
}`
	if got := readRaw(t, path); got != want {
		t.Fatalf("unexpected file contents:\n%s", got)
	}
}

func TestRewriteWritesChannel(t *testing.T) {
	path := writeDoc(t, `{"eventTypes": []}`)
	store, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := store.RemoveEventType("Raid"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	want := "{\n  \"eventTypes\": [],\n  \"logChannelId\": null\n}"
	if got := readRaw(t, path); got != want {
		t.Fatalf("expected null channel written, got:\n%s", got)
	}

	if err := store.SetLogChannel("c1"); err != nil {
		t.Fatalf("set channel: %v", err)
	}
	want = "{\n  \"eventTypes\": [],\n  \"logChannelId\": \"c1\"\n}"
	if got := readRaw(t, path); got != want {
		t.Fatalf("expected channel written, got:\n%s", got)
	}
}

func TestLoadRejectsNonObject(t *testing.T) {
	for _, content := range []string{`null`, `[]`, `{"logChannelId": 5}`, `{"eventTypes": "Raid"}`} {
		if _, err := Load(writeDoc(t, content)); err == nil {
			t.Fatalf("expected error for %s", content)
		}
	}
}
