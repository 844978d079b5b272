package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arbiterlabs/polyarb/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second
)

// TickHandler receives every best-price tick decoded off the wire.
type TickHandler func(domain.Tick)

// WSClient is a WebSocket client for the Polymarket CLOB market channel. It
// subscribes to the configured tokens, decodes book and price_change frames
// into ticks, and reconnects with backoff on disconnect.
type WSClient struct {
	wsURL    string
	tokenIDs []string
	onTick   TickHandler
	logger   *slog.Logger

	mu     sync.RWMutex
	conn   *websocket.Conn
	closed bool

	// done is closed when the client is shut down.
	done      chan struct{}
	closeOnce sync.Once
}

// NewWSClient creates a client that subscribes to the given token IDs.
//
// wsURL is the CLOB WebSocket root, e.g.
// "wss://ws-subscriptions-clob.polymarket.com"; the market channel path is
// appended automatically.
func NewWSClient(wsURL string, tokenIDs []string, onTick TickHandler, logger *slog.Logger) *WSClient {
	return &WSClient{
		wsURL:    wsURL + "/ws/market",
		tokenIDs: tokenIDs,
		onTick:   onTick,
		logger:   logger.With(slog.String("component", "ws_feed")),
		done:     make(chan struct{}),
	}
}

// Run connects, subscribes, and pumps ticks until ctx is cancelled or Close
// is called. Disconnects trigger reconnection with exponential backoff; the
// subscription is restored on every new connection.
func (w *WSClient) Run(ctx context.Context) error {
	if len(w.tokenIDs) == 0 {
		w.logger.Info("no tokens to subscribe, feed exiting")
		return nil
	}

	delay := reconnectDelay
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		default:
		}

		err := w.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case <-w.done:
			return nil
		default:
		}

		w.logger.Warn("feed disconnected, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("delay", delay),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// Close stops the feed and closes the connection.
func (w *WSClient) Close() error {
	w.closeOnce.Do(func() { close(w.done) })

	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.conn != nil {
		_ = w.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return w.conn.Close()
	}
	return nil
}

// runConnection dials, subscribes, and reads until the connection breaks.
func (w *WSClient) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("feed: connect: %w", err)
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		conn.Close()
		return nil
	}
	w.conn = conn
	w.mu.Unlock()
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	if err := w.subscribe(conn); err != nil {
		return err
	}
	w.logger.Info("feed subscribed", slog.Int("tokens", len(w.tokenIDs)))

	pingDone := make(chan struct{})
	defer close(pingDone)
	go w.pingLoop(conn, pingDone)

	// Tear the connection down when ctx ends so ReadMessage unblocks.
	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-readCtx.Done():
		case <-w.done:
		}
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("feed: read: %w: %w", domain.ErrWSDisconnect, err)
		}
		w.handleMessage(message)
	}
}

// subscribe sends the market channel subscription for all tracked tokens.
func (w *WSClient) subscribe(conn *websocket.Conn) error {
	cmd := wsSubscribe{
		Type:     "market",
		AssetIDs: w.tokenIDs,
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("feed: marshal subscribe: %w", err)
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("feed: subscribe: %w", err)
	}
	return nil
}

// pingLoop keeps the connection alive until it breaks or the feed stops.
func (w *WSClient) pingLoop(conn *websocket.Conn, connDone <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-connDone:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage decodes a frame and forwards its ticks. The feed sends both
// single objects and arrays of them; unparseable frames are dropped.
func (w *WSClient) handleMessage(raw []byte) {
	if len(raw) > 0 && raw[0] == '[' {
		var batch []json.RawMessage
		if err := json.Unmarshal(raw, &batch); err != nil {
			return
		}
		for _, item := range batch {
			w.handleEvent(item)
		}
		return
	}
	w.handleEvent(raw)
}

func (w *WSClient) handleEvent(raw []byte) {
	var envelope struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return
	}

	switch envelope.EventType {
	case "book":
		var book bookMessage
		if err := json.Unmarshal(raw, &book); err != nil {
			return
		}
		for _, tick := range book.ticks() {
			w.onTick(tick)
		}
	case "price_change":
		var pc priceChangeMessage
		if err := json.Unmarshal(raw, &pc); err != nil {
			return
		}
		for _, tick := range pc.ticks() {
			w.onTick(tick)
		}
	}
}
