package bus

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"drivermon/internal/fault"
	"drivermon/internal/logging"
	"drivermon/internal/messaging"
)

const (
	writeTimeout = 2 * time.Second
	pingInterval = 15 * time.Second
	readTimeout  = 3 * pingInterval
)

// ErrNotConnected is returned by Publish while no bridge connection is up.
var ErrNotConnected = errors.New("bus not connected")

// Options configures a Client.
type Options struct {
	URL              string
	Topics           []string
	HandshakeTimeout time.Duration
	ReconnectDelay   time.Duration
	QueueSize        int
	Logger           *slog.Logger
}

type subscribeMessage struct {
	Type     string   `json:"type"`
	ClientID string   `json:"clientId"`
	Topics   []string `json:"topics"`
}

// Client is a websocket bus client. It implements messaging.Source and
// messaging.Publisher.
type Client struct {
	opts     Options
	clientID string
	logger   *slog.Logger

	envelopes chan messaging.Envelope
	dropped   atomic.Uint64

	writeMu sync.Mutex
	conn    *websocket.Conn

	closeOnce sync.Once
}

// NewClient creates a client. Call Run to start it.
func NewClient(opts Options) *Client {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = time.Second
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 5 * time.Second
	}
	return &Client{
		opts:      opts,
		clientID:  uuid.NewString(),
		logger:    logging.NewComponentLogger(opts.Logger, "bus"),
		envelopes: make(chan messaging.Envelope, opts.QueueSize),
	}
}

// ClientID returns the identifier announced to the bridge.
func (c *Client) ClientID() string { return c.clientID }

// Envelopes implements messaging.Source. The channel is closed by Close.
func (c *Client) Envelopes() <-chan messaging.Envelope { return c.envelopes }

// Dropped returns how many inbound envelopes were discarded because the
// queue was full.
func (c *Client) Dropped() uint64 { return c.dropped.Load() }

// Connected reports whether a bridge connection is currently up.
func (c *Client) Connected() bool {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn != nil
}

// Run keeps a connection to the bridge until ctx is cancelled. It may be
// called again after returning.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		logging.WarnWithContext(c.logger, "bus connection lost", "bus_disconnected",
			logging.String("url", c.opts.URL),
			logging.Error(err),
			logging.Duration("retry_in", c.opts.ReconnectDelay),
			logging.String(logging.FieldErrorHint, "check that the bus bridge is running at bus.url"),
			logging.String(logging.FieldImpact, "monitoring pauses until inputs resume"),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.opts.ReconnectDelay):
		}
	}
}

func (c *Client) session(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	c.setConn(conn)
	defer c.setConn(nil)

	c.logger.Info("bus connected",
		logging.String("url", c.opts.URL),
		logging.String("client_id", c.clientID),
	)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	go c.keepAlive(conn, done)

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		var env messaging.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			_ = conn.Close()
			return fault.Wrap(fault.ErrTransport, "bus", "read", "", err)
		}
		c.enqueue(env)
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.opts.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		return nil, fault.Wrap(fault.ErrTransport, "bus", "dial", c.opts.URL, err)
	}
	hello := subscribeMessage{Type: "subscribe", ClientID: c.clientID, Topics: c.opts.Topics}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(hello); err != nil {
		_ = conn.Close()
		return nil, fault.Wrap(fault.ErrTransport, "bus", "subscribe", "", err)
	}
	return conn, nil
}

func (c *Client) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func (c *Client) enqueue(env messaging.Envelope) {
	select {
	case c.envelopes <- env:
		return
	default:
	}
	select {
	case <-c.envelopes:
		c.dropped.Add(1)
	default:
	}
	select {
	case c.envelopes <- env:
	default:
		c.dropped.Add(1)
	}
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.writeMu.Lock()
	c.conn = conn
	c.writeMu.Unlock()
}

// Publish implements messaging.Publisher.
func (c *Client) Publish(ctx context.Context, env messaging.Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return fault.Wrap(fault.ErrTransport, "bus", "publish", env.Topic, ErrNotConnected)
	}
	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(env); err != nil {
		return fault.Wrap(fault.ErrTransport, "bus", "publish", env.Topic, err)
	}
	return nil
}

// Close closes the envelope channel and ends the client. Run may be called
// again any number of times before Close, but not after it.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.envelopes) })
}
