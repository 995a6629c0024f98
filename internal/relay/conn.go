package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"nostrdm/internal/protocol/event"
)

const writeWait = 10 * time.Second

var (
	// ErrConnClosed is returned for operations on a relay that went away.
	ErrConnClosed = errors.New("relay connection closed")
	// ErrRejected is returned when a relay answers OK false.
	ErrRejected = errors.New("relay rejected event")
)

type okResult struct {
	accepted bool
	message  string
}

// conn is one websocket to one relay.
type conn struct {
	url string
	ws  *websocket.Conn
	log zerolog.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan okResult

	done      chan struct{}
	closeOnce sync.Once
}

func dial(ctx context.Context, dialer *websocket.Dialer, url string, log zerolog.Logger) (*conn, error) {
	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &conn{
		url:     url,
		ws:      ws,
		log:     log.With().Str("relay", url).Logger(),
		pending: make(map[string]chan okResult),
		done:    make(chan struct{}),
	}, nil
}

func (c *conn) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

// publish sends ev and waits for the relay's OK.
func (c *conn) publish(ctx context.Context, ev *event.Event) error {
	ch := make(chan okResult, 1)
	c.mu.Lock()
	c.pending[ev.ID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, ev.ID)
		c.mu.Unlock()
	}()

	if err := c.writeJSON(eventMessage(ev)); err != nil {
		return fmt.Errorf("%s: %w", c.url, err)
	}
	select {
	case res := <-ch:
		if !res.accepted {
			return fmt.Errorf("%s: %w: %s", c.url, ErrRejected, res.message)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", c.url, ctx.Err())
	case <-c.done:
		return fmt.Errorf("%s: %w", c.url, ErrConnClosed)
	}
}

// readLoop decodes relay messages until the socket fails, handing events and
// status messages to deliver.
func (c *conn) readLoop(deliver func(in inbound, from string)) {
	defer c.close()
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.log.Warn().Err(err).Msg("relay read failed")
			}
			return
		}
		in, err := parseInbound(data)
		if err != nil {
			c.log.Debug().Err(err).Msg("dropping relay message")
			continue
		}
		if in.label == labelOK {
			c.resolve(in)
			continue
		}
		deliver(in, c.url)
	}
}

func (c *conn) resolve(in inbound) {
	c.mu.Lock()
	ch, ok := c.pending[in.eventID]
	c.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- okResult{accepted: in.accepted, message: in.message}:
	default:
	}
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = c.ws.Close()
	})
}
