package config

import (
	"errors"
	"fmt"
	"net/url"

	"drivermon/internal/fault"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBus(); err != nil {
		return fault.Wrap(fault.ErrConfiguration, "config", "validate", "", err)
	}
	if err := c.validateMonitor(); err != nil {
		return fault.Wrap(fault.ErrConfiguration, "config", "validate", "", err)
	}
	if err := c.validateLogging(); err != nil {
		return fault.Wrap(fault.ErrConfiguration, "config", "validate", "", err)
	}
	return nil
}

func (c *Config) validateBus() error {
	parsed, err := url.Parse(c.Bus.URL)
	if err != nil {
		return fmt.Errorf("bus.url: %w", err)
	}
	switch parsed.Scheme {
	case "ws", "wss":
	default:
		return fmt.Errorf("bus.url must use ws or wss scheme, got %q", c.Bus.URL)
	}
	if parsed.Host == "" {
		return errors.New("bus.url must include a host")
	}
	return nil
}

func (c *Config) validateMonitor() error {
	m := c.Monitor
	if m.DistractedSeconds < 0 {
		return errors.New("monitor.distracted_seconds must be >= 0")
	}
	if m.DistractedSeconds > 0 && m.DistractedSeconds <= DistractedPreSeconds {
		return fmt.Errorf("monitor.distracted_seconds must be 0 or greater than %d, got %v", DistractedPreSeconds, m.DistractedSeconds)
	}
	if m.AwarenessSeconds < 0 {
		return errors.New("monitor.awareness_seconds must be >= 0")
	}
	if m.AwarenessSeconds > 0 && m.AwarenessSeconds <= AwarenessPreSeconds {
		return fmt.Errorf("monitor.awareness_seconds must be 0 or greater than %d, got %v", AwarenessPreSeconds, m.AwarenessSeconds)
	}
	if m.MaxTerminalAlerts < 0 {
		return errors.New("monitor.max_terminal_alerts must be >= 0")
	}
	if m.MaxTerminalSeconds < 0 {
		return errors.New("monitor.max_terminal_seconds must be >= 0")
	}
	if m.PoseStdThreshold < 0 || m.PoseStdThreshold > 1 {
		return errors.New("monitor.pose_std_threshold must be between 0 and 1")
	}
	if m.PoseCalibMinSpeed < 0 {
		return errors.New("monitor.pose_calib_min_speed must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
