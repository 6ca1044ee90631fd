package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/poselink/poselink/internal/listener"
)

// ListenerSettings holds the hot-reloadable listener parameters.
type ListenerSettings struct {
	Endpoint string `toml:"endpoint" json:"endpoint"`
	HeadBone string `toml:"head_bone,omitempty" json:"head_bone,omitempty"`
}

// NATSSettings holds the republish transport parameters.
type NATSSettings struct {
	Embedded bool   `toml:"embedded" json:"embedded"`
	URL      string `toml:"url,omitempty" json:"url,omitempty"`
}

// Settings is the on-disk configuration file model. The same file also feeds
// the flat CLI options via LoadConfig; Settings is what the file watcher
// reloads at runtime.
type Settings struct {
	Version  int              `toml:"version" json:"version"`
	Listener ListenerSettings `toml:"listener" json:"listener"`
	NATS     NATSSettings     `toml:"nats" json:"nats"`
}

// DefaultSettings returns the settings used when no config file exists.
func DefaultSettings() Settings {
	return Settings{
		Version: 1,
		Listener: ListenerSettings{
			Endpoint: fmt.Sprintf("0.0.0.0:%d", listener.DefaultPort),
		},
		NATS: NATSSettings{
			Embedded: true,
		},
	}
}

// LoadSettings reads the settings file. A missing file returns defaults with
// no error so the watcher loader can run before the file is first written.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	if path == "" {
		return settings, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := toml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse settings: %w", err)
	}
	if settings.Version == 0 {
		settings.Version = 1
	}
	if settings.Listener.Endpoint == "" {
		settings.Listener.Endpoint = DefaultSettings().Listener.Endpoint
	}

	return settings, nil
}

// SaveSettings writes the settings file, creating the directory if needed.
func SaveSettings(path string, settings Settings) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	return nil
}
