package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Bus contains configuration for the message-bus bridge connection.
type Bus struct {
	URL                     string `toml:"url"`
	HandshakeTimeoutSeconds int    `toml:"handshake_timeout_seconds"`
	ReconnectDelaySeconds   int    `toml:"reconnect_delay_seconds"`
	QueueSize               int    `toml:"queue_size"`
}

// Params contains configuration for the persistent parameter store.
type Params struct {
	ReloadIntervalSeconds int `toml:"reload_interval_seconds"`
}

// Region contains configuration for traffic-side classification.
type Region struct {
	// DatasetPath overrides the embedded territory dataset when set.
	DatasetPath string `toml:"dataset_path"`
}

// Lead times of the pre-alert stage. A monitoring window override must be
// longer than the lead time of its mode.
const (
	DistractedPreSeconds = 8
	AwarenessPreSeconds  = 15
)

// Monitor contains overrides for the awareness policy. Zero values keep the
// built-in policy.
type Monitor struct {
	DistractedSeconds  float64 `toml:"distracted_seconds"`
	AwarenessSeconds   float64 `toml:"awareness_seconds"`
	MaxTerminalAlerts  int     `toml:"max_terminal_alerts"`
	MaxTerminalSeconds float64 `toml:"max_terminal_seconds"`
	PoseStdThreshold   float64 `toml:"pose_std_threshold"`
	PoseCalibMinSpeed  float64 `toml:"pose_calib_min_speed"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all process configuration values for drivermon.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Bus     Bus     `toml:"bus"`
	Params  Params  `toml:"params"`
	Region  Region  `toml:"region"`
	Monitor Monitor `toml:"monitor"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("drivermon.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ParamsDBPath returns the SQLite file backing the parameter store.
func (c *Config) ParamsDBPath() string {
	return filepath.Join(c.Paths.DataDir, "params.db")
}

// SocketPath returns the daemon control socket path.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.DataDir, "drivermon.sock")
}

// LockPath returns the single-instance lock file path.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "drivermond.lock")
}

// LogPath returns the daemon log file path.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "drivermon.log")
}

// ReloadInterval returns the parameter store reload cadence.
func (c *Config) ReloadInterval() time.Duration {
	return time.Duration(c.Params.ReloadIntervalSeconds) * time.Second
}

// HandshakeTimeout returns the bus dial handshake timeout.
func (c *Config) HandshakeTimeout() time.Duration {
	return time.Duration(c.Bus.HandshakeTimeoutSeconds) * time.Second
}

// ReconnectDelay returns the pause between bus reconnect attempts.
func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.Bus.ReconnectDelaySeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
