// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

/*
registrant_websocket.go - Registration API Push Channel

The connector keeps one websocket open to the registration API and hands
every text frame to the engine. It never gives up: a failed dial or a dropped
connection leads to a wait of ReconnectDelay(attempts) and another dial.

	Connecting -> Open -> Closing -> Closed -> ReconnectWait -> Connecting ...

Only cancellation of the Serve context stops the loop.
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/metrics"
)

// ConnState is the connector's position in its state machine.
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateOpen
	StateClosing
	StateClosed
	StateReconnectWait
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateReconnectWait:
		return "reconnect_wait"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

const (
	defaultPingInterval = 30 * time.Second
	// A connection is considered dead after this many missed pongs.
	missedPongs       = 3
	handshakeTimeout  = 10 * time.Second
	controlWriteLimit = 5 * time.Second
)

// RegistrantWebSocketClient is the streaming connector.
type RegistrantWebSocketClient struct {
	wsURL        string
	header       http.Header
	pingInterval time.Duration
	dialer       websocket.Dialer
	delayFn      func(attempts int) time.Duration

	state    atomic.Int32
	attempts atomic.Int32

	callbackMu sync.RWMutex
	onOpen     func(ctx context.Context)
	onMessage  func(ctx context.Context, frame []byte)
}

// NewRegistrantWebSocketClient creates a connector for wsURL. header is sent
// with every handshake.
func NewRegistrantWebSocketClient(wsURL string, header http.Header, pingInterval time.Duration) *RegistrantWebSocketClient {
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	return &RegistrantWebSocketClient{
		wsURL:        wsURL,
		header:       header,
		pingInterval: pingInterval,
		dialer: websocket.Dialer{
			HandshakeTimeout:  handshakeTimeout,
			EnableCompression: true,
		},
		delayFn: ReconnectDelay,
	}
}

// SetCallbacks registers the open and message callbacks. onOpen runs after
// every successful handshake; onMessage receives each frame in arrival order.
func (c *RegistrantWebSocketClient) SetCallbacks(onOpen func(ctx context.Context), onMessage func(ctx context.Context, frame []byte)) {
	c.callbackMu.Lock()
	defer c.callbackMu.Unlock()
	c.onOpen = onOpen
	c.onMessage = onMessage
}

// State returns the current connector state.
func (c *RegistrantWebSocketClient) State() ConnState {
	return ConnState(c.state.Load())
}

// Attempts returns the number of consecutive failed connections.
func (c *RegistrantWebSocketClient) Attempts() int {
	return int(c.attempts.Load())
}

func (c *RegistrantWebSocketClient) setState(s ConnState) {
	c.state.Store(int32(s))
	metrics.WSState.Set(float64(s))
}

// Serve runs the connect, read and reconnect loop until ctx is cancelled.
func (c *RegistrantWebSocketClient) Serve(ctx context.Context) error {
	log := logging.WithComponent("registrant-ws")
	for {
		c.setState(StateConnecting)
		conn, err := c.dial(ctx)
		if err == nil {
			c.attempts.Store(0)
			c.setState(StateOpen)
			log.Info().Str("url", c.wsURL).Msg("Push channel connected")
			c.fireOpen(ctx)

			err = c.readLoop(ctx, conn)
			c.setState(StateClosing)
			closeConn(conn)
		}
		c.setState(StateClosed)

		if ctx.Err() != nil {
			log.Info().Msg("Push channel stopping")
			return ctx.Err()
		}

		attempts := c.Attempts()
		delay := c.delayFn(attempts)
		log.Warn().Err(err).Int("attempt", attempts).Dur("delay", delay).Msg("Push channel closed, reconnecting")

		c.setState(StateReconnectWait)
		metrics.WSReconnects.Inc()
		if !sleepCtx(ctx, delay) {
			c.setState(StateClosed)
			return ctx.Err()
		}
		c.attempts.Add(1)
	}
}

func (c *RegistrantWebSocketClient) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.wsURL, c.header)
	if resp != nil && resp.Body != nil {
		if cerr := resp.Body.Close(); cerr != nil {
			logging.Debug().Err(cerr).Msg("Failed to close handshake response body")
		}
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: dial failed (status %d): %w", ErrTransport, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("%w: dial failed: %w", ErrTransport, err)
	}
	return conn, nil
}

// readLoop delivers frames until the connection fails or ctx is cancelled.
func (c *RegistrantWebSocketClient) readLoop(ctx context.Context, conn *websocket.Conn) error {
	readTimeout := c.pingInterval * missedPongs
	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		return fmt.Errorf("%w: set read deadline: %w", ErrTransport, err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.pingLoop(ctx, conn, done)
	}()

	err := c.read(ctx, conn)
	close(done)
	wg.Wait()
	return err
}

func (c *RegistrantWebSocketClient) read(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return fmt.Errorf("%w: closed by server: %w", ErrTransport, err)
			}
			return fmt.Errorf("%w: read: %w", ErrTransport, err)
		}
		c.fireMessage(ctx, frame)
	}
}

// pingLoop sends keepalive pings. On cancellation it closes the socket to
// unblock the reader.
func (c *RegistrantWebSocketClient) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			closeConn(conn)
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(controlWriteLimit)); err != nil {
				logging.Debug().Err(err).Msg("Push channel ping failed")
				closeConn(conn)
				return
			}
		}
	}
}

func (c *RegistrantWebSocketClient) fireOpen(ctx context.Context) {
	c.callbackMu.RLock()
	fn := c.onOpen
	c.callbackMu.RUnlock()
	if fn != nil {
		fn(ctx)
	}
}

func (c *RegistrantWebSocketClient) fireMessage(ctx context.Context, frame []byte) {
	c.callbackMu.RLock()
	fn := c.onMessage
	c.callbackMu.RUnlock()
	if fn != nil {
		fn(ctx, frame)
	}
}

// closeConn sends a close frame and closes the socket. Safe to call twice.
func closeConn(conn *websocket.Conn) {
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	_ = conn.Close()
}

// sleepCtx waits for d using a single timer. It returns false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
