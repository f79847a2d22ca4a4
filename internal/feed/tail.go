package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/lockpanel/internal/logging"
)

// Received is a frame read from a feed, stamped on arrival
type Received struct {
	At   time.Time       `json:"at"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// WebsocketURL returns the /ws endpoint for addr, which may be host:port,
// an http(s) URL or a ws(s) URL.
func WebsocketURL(addr string) string {
	switch {
	case strings.HasPrefix(addr, "ws://"), strings.HasPrefix(addr, "wss://"):
	case strings.HasPrefix(addr, "http://"):
		addr = "ws://" + strings.TrimPrefix(addr, "http://")
	case strings.HasPrefix(addr, "https://"):
		addr = "wss://" + strings.TrimPrefix(addr, "https://")
	default:
		addr = "ws://" + addr
	}
	addr = strings.TrimRight(addr, "/")
	if !strings.HasSuffix(addr, "/ws") {
		addr += "/ws"
	}
	return addr
}

// Tail reads frames from the feed at url and calls handle for each one.
// It returns nil when ctx is cancelled or the server closes normally, and
// the handler's error if it returns one.
func Tail(ctx context.Context, url string, handle func(Received) error) error {
	log := logging.Named("feed")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to feed %s: %w", url, err)
	}
	defer func() { _ = conn.Close() }()
	log.Debug("Connected to feed", zap.String("url", url))

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("feed read failed: %w", err)
		}

		var r Received
		if err := json.Unmarshal(data, &r); err != nil {
			log.Warn("Skipping malformed frame", zap.Error(err), zap.Int("size", len(data)))
			continue
		}
		r.At = time.Now()
		if err := handle(r); err != nil {
			return err
		}
	}
}

// Recorder returns a handler that appends each frame to w as one JSON line
func Recorder(w io.Writer) func(Received) error {
	enc := json.NewEncoder(w)
	return func(r Received) error {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to record frame: %w", err)
		}
		return nil
	}
}
