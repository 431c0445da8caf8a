package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"drivermon/internal/config"
	"drivermon/internal/daemon"
	"drivermon/internal/ipc"
	"drivermon/internal/logging"
	"drivermon/internal/messaging"
	"drivermon/internal/params"
	"drivermon/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *params.Store
	daemon     *daemon.Daemon
	bus        *messaging.MemoryBus
	server     *ipc.Server
	socketPath string
	configPath string
	cancel     context.CancelFunc
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg, configPath := newCLIConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	bus := messaging.NewMemoryBus(16)
	logger := logging.NewNop()

	ctx, cancel := context.WithCancel(context.Background())
	d, err := daemon.New(ctx, cfg, store, logger, bus)
	if err != nil {
		cancel()
		t.Fatalf("daemon.New: %v", err)
	}

	socketPath := filepath.Join(testsupport.BaseDir(cfg), "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		cancel()
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		store:      store,
		daemon:     d,
		bus:        bus,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})

	return env
}

// newCLIConfig writes a config file pointing at per-test directories and
// isolates HOME so the user's own config is never read.
func newCLIConfig(t *testing.T) (*config.Config, string) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("DRIVERMON_BUS_URL", "")

	configPath := filepath.Join(base, "drivermon.toml")
	writeTestConfig(t, configPath, cfg)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return cfg, configPath
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if socket != "" {
		flags = append(flags, "--socket", socket)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\n\n[bus]\nurl = %q\nhandshake_timeout_seconds = 1\n",
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.Bus.URL,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
