package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path == "" {
			t.Error("default config should set a database path")
		}
		if config.Audio.SampleRate != 44100 {
			t.Errorf("expected default sample rate 44100, got %d", config.Audio.SampleRate)
		}
		if config.Audio.Channels != 1 {
			t.Errorf("expected mono default capture, got %d channels", config.Audio.Channels)
		}
		if config.Prompts.AutoClearOverride {
			t.Error("override auto-clear should default to off")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[storage]
recordings_dir = "/tmp/rec"
export_dir = "/tmp/exp"

[database]
path = "/tmp/test.db"
max_open_conns = 3
recovery = "recreate"

[audio]
sample_rate = 48000
channels = 2
extension = "wav"

[prompts]
auto_clear_override = true
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Storage.RecordingsDir != "/tmp/rec" {
			t.Errorf("expected recordings dir /tmp/rec, got %s", config.Storage.RecordingsDir)
		}
		if config.Database.Recovery != "recreate" {
			t.Errorf("expected recovery recreate, got %s", config.Database.Recovery)
		}
		if config.Audio.SampleRate != 48000 {
			t.Errorf("expected sample rate 48000, got %d", config.Audio.SampleRate)
		}
		if !config.Prompts.AutoClearOverride {
			t.Error("expected auto_clear_override to be true")
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("LoadConfig Invalid TOML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		if err := os.WriteFile(path, []byte("[storage\nbroken"), 0644); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		if _, err := LoadConfig(path); err == nil {
			t.Error("expected error for invalid TOML")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := LoadConfig(path); err != nil {
			t.Errorf("created config should load cleanly: %v", err)
		}

		if err := CreateConfigFile(path); err == nil {
			t.Error("expected error when config file already exists")
		}
	})
}
