package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettingsMissingFile(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadSettings should not fail for missing file: %v", err)
	}
	if settings.Listener.Endpoint != "0.0.0.0:54321" {
		t.Errorf("Endpoint = %q, want default", settings.Listener.Endpoint)
	}
	if !settings.NATS.Embedded {
		t.Error("NATS.Embedded should default to true")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poselink", "config.toml")

	in := Settings{
		Version: 1,
		Listener: ListenerSettings{
			Endpoint: "239.255.0.1:54321",
			HeadBone: "neck",
		},
		NATS: NATSSettings{
			Embedded: false,
			URL:      "nats://10.0.0.5:4222",
		},
	}
	if err := SaveSettings(path, in); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	out, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if out != in {
		t.Errorf("Round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestLoadSettingsInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[listener\nendpoint ="), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettings(path); err == nil {
		t.Error("Expected error for invalid TOML")
	}
}

func TestLoadSettingsPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.toml")
	if err := os.WriteFile(path, []byte("[listener]\nhead_bone = \"head\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if settings.Listener.HeadBone != "head" {
		t.Errorf("HeadBone = %q, want head", settings.Listener.HeadBone)
	}
	// Unset endpoint falls back to the default.
	if settings.Listener.Endpoint != "0.0.0.0:54321" {
		t.Errorf("Endpoint = %q, want default", settings.Listener.Endpoint)
	}
	if settings.Version != 1 {
		t.Errorf("Version = %d, want 1", settings.Version)
	}
}
