package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/google/uuid"

	"drivermon/internal/bus"
	"drivermon/internal/config"
	"drivermon/internal/daemon"
	"drivermon/internal/ipc"
	"drivermon/internal/logging"
	"drivermon/internal/messaging"
	"drivermon/internal/params"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the drivermon daemon and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	sessionID := uuid.NewString()
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", cfg.LogPath()},
		ErrorOutputPaths: []string{"stderr", cfg.LogPath()},
		Development:      opts.Development,
		SessionID:        sessionID,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := params.Open(cfg, params.WithLogger(logger))
	if err != nil {
		logger.Error("open params store", logging.Error(err))
		return err
	}
	defer store.Close()

	client := bus.NewClient(bus.Options{
		URL:              cfg.Bus.URL,
		Topics:           messaging.InboundTopics(),
		HandshakeTimeout: cfg.HandshakeTimeout(),
		ReconnectDelay:   cfg.ReconnectDelay(),
		QueueSize:        cfg.Bus.QueueSize,
		Logger:           logger,
	})
	defer client.Close()

	d, err := daemon.New(signalCtx, cfg, store, logger, client)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	pidPath := filepath.Join(cfg.Paths.DataDir, "drivermond.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)
	logger.Info("drivermon running",
		logging.String(logging.FieldEventType, "daemon_running"),
		logging.String("socket", cfg.SocketPath()),
		logging.String("bus_client_id", client.ClientID()),
	)

	<-signalCtx.Done()
	logger.Info("drivermon daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
