package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Storage  StorageConfig  `toml:"storage"`
	Database DatabaseConfig `toml:"database"`
	Audio    AudioConfig    `toml:"audio"`
	Speech   SpeechConfig   `toml:"speech"`
	Prompts  PromptsConfig  `toml:"prompts"`
}

// StorageConfig names the directories owned by the application.
type StorageConfig struct {
	RecordingsDir string `toml:"recordings_dir"`
	ExportDir     string `toml:"export_dir"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	// Recovery controls what happens when the store fails to open because it
	// is corrupt: "fail" surfaces the error, "recreate" deletes the store and
	// starts empty.
	Recovery string `toml:"recovery"`
}

// AudioConfig contains the capture/playback subprocess commands and the
// fixed encoding used for new recordings.
type AudioConfig struct {
	RecordCommand string `toml:"record_command"`
	PlayCommand   string `toml:"play_command"`
	SampleRate    int    `toml:"sample_rate"`
	Channels      int    `toml:"channels"`
	Extension     string `toml:"extension"`
}

// SpeechConfig contains the speech-to-text subprocess settings.
type SpeechConfig struct {
	Command  string `toml:"command"`
	Model    string `toml:"model"`
	Language string `toml:"language"`
}

// PromptsConfig contains prompt rotation behavior.
type PromptsConfig struct {
	// AutoClearOverride clears the selected-prompt override once a recording
	// session consumes it.
	AutoClearOverride bool `toml:"auto_clear_override"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
