package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBus()
	if err := c.normalizeRegion(); err != nil {
		return err
	}
	if c.Params.ReloadIntervalSeconds <= 0 {
		c.Params.ReloadIntervalSeconds = defaultReloadIntervalSeconds
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBus() {
	if value, ok := os.LookupEnv("DRIVERMON_BUS_URL"); ok && strings.TrimSpace(value) != "" {
		c.Bus.URL = value
	}
	c.Bus.URL = strings.TrimSpace(c.Bus.URL)
	if c.Bus.URL == "" {
		c.Bus.URL = defaultBusURL
	}
	if c.Bus.HandshakeTimeoutSeconds <= 0 {
		c.Bus.HandshakeTimeoutSeconds = defaultHandshakeTimeout
	}
	if c.Bus.ReconnectDelaySeconds <= 0 {
		c.Bus.ReconnectDelaySeconds = defaultReconnectDelay
	}
	if c.Bus.QueueSize <= 0 {
		c.Bus.QueueSize = defaultBusQueueSize
	}
}

func (c *Config) normalizeRegion() error {
	path := strings.TrimSpace(c.Region.DatasetPath)
	if path == "" {
		c.Region.DatasetPath = ""
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("region.dataset_path: %w", err)
	}
	c.Region.DatasetPath = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
