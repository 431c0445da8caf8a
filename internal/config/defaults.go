package config

const (
	defaultConfigPath            = "~/.config/drivermon/config.toml"
	defaultDataDir               = "~/.local/share/drivermon"
	defaultLogDir                = "~/.local/share/drivermon/logs"
	defaultBusURL                = "ws://127.0.0.1:8765/bus"
	defaultHandshakeTimeout      = 5
	defaultReconnectDelay        = 1
	defaultBusQueueSize          = 256
	defaultReloadIntervalSeconds = 5
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Bus: Bus{
			URL:                     defaultBusURL,
			HandshakeTimeoutSeconds: defaultHandshakeTimeout,
			ReconnectDelaySeconds:   defaultReconnectDelay,
			QueueSize:               defaultBusQueueSize,
		},
		Params: Params{
			ReloadIntervalSeconds: defaultReloadIntervalSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
