package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Player      PlayerConfig      `mapstructure:"player"`
	Playback    PlaybackConfig    `mapstructure:"playback"`
	Preferences PreferencesConfig `mapstructure:"preferences"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds catalog API configuration.
type ServerConfig struct {
	URL string `mapstructure:"url"` // Base URL, e.g. https://akademi.example.com/api

	// ReportProgress enables the best-effort POST /progress shadow copy.
	ReportProgress bool `mapstructure:"report_progress"`
}

// PlayerConfig holds external video player configuration.
type PlayerConfig struct {
	Command   string   `mapstructure:"command"`    // e.g. "mpv"
	Args      []string `mapstructure:"args"`       // extra player arguments
	StartFlag string   `mapstructure:"start_flag"` // offset flag, e.g. "--start="
	IPCSocket string   `mapstructure:"ipc_socket"` // mpv JSON IPC socket path
}

// PlaybackConfig tunes progress tracking.
type PlaybackConfig struct {
	// CompletionPercent is the watched percentage that marks a video done.
	CompletionPercent int `mapstructure:"completion_percent"`

	// AdvanceDelayMs is the end-of-video overlay pause before auto-advance.
	AdvanceDelayMs int `mapstructure:"advance_delay_ms"`
}

// PreferencesConfig holds user preferences. The store keeps the live copy;
// these are the first-run defaults.
type PreferencesConfig struct {
	Language string `mapstructure:"language"` // "en" or "tr"
	Theme    string `mapstructure:"theme"`    // "light" or "dark"
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:            "",
			ReportProgress: false,
		},
		Player: PlayerConfig{
			Command:   "mpv",
			Args:      []string{},
			StartFlag: "--start=",
			IPCSocket: defaultSocketPath(),
		},
		Playback: PlaybackConfig{
			CompletionPercent: 90,
			AdvanceDelayMs:    1500,
		},
		Preferences: PreferencesConfig{
			Language: "en",
			Theme:    "light",
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS.
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "akademi", "akademi.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "akademi", "akademi.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS.
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "akademi")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "akademi")
	}
}

// defaultCachePath returns the default cache directory for the current OS.
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "akademi", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "akademi", "cache")
	}
}

func defaultSocketPath() string {
	if runtime.GOOS == "windows" {
		return `\\.\pipe\akademi-mpv`
	}
	return filepath.Join(os.TempDir(), "akademi-mpv.sock")
}

// LoadConfig loads configuration from file and environment.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("AKADEMI")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the current configuration to file.
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()

	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to keep snake_case key names
	viper.Set("server.url", cfg.Server.URL)
	viper.Set("server.report_progress", cfg.Server.ReportProgress)

	viper.Set("player.command", cfg.Player.Command)
	viper.Set("player.args", cfg.Player.Args)
	viper.Set("player.start_flag", cfg.Player.StartFlag)
	viper.Set("player.ipc_socket", cfg.Player.IPCSocket)

	viper.Set("playback.completion_percent", cfg.Playback.CompletionPercent)
	viper.Set("playback.advance_delay_ms", cfg.Playback.AdvanceDelayMs)

	viper.Set("preferences.language", cfg.Preferences.Language)
	viper.Set("preferences.theme", cfg.Preferences.Theme)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the server URL is set.
func (c *Config) IsConfigured() bool {
	return c.Server.URL != ""
}

// CachePath returns the cache directory path.
func CachePath() string {
	return defaultCachePath()
}

// ClearCache removes all cached data.
func ClearCache() error {
	cachePath := defaultCachePath()
	if err := os.RemoveAll(cachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
