package testsupport

import (
	"path/filepath"
	"testing"

	"drivermon/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Bus.URL = "ws://127.0.0.1:1/bus"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBusURL points the test config at a specific bus endpoint.
func WithBusURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Bus.URL = url
	}
}

// WithReloadInterval overrides the parameter reload cadence in seconds.
func WithReloadInterval(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Params.ReloadIntervalSeconds = seconds
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
