package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"nostrdm/internal/crypto"
	"nostrdm/internal/domain"
	"nostrdm/internal/protocol/event"
	"nostrdm/internal/services/envelope"
)

const (
	defaultSendTimeout = 15 * time.Second
	releaseTimeout     = 5 * time.Second
)

// ErrNotificationsClosed is returned by Run when the relay pool stops
// delivering notifications while the session is still running.
var ErrNotificationsClosed = errors.New("relay notifications closed")

// Loop is one interactive session with a single peer.
type Loop struct {
	cfg     domain.SessionConfig
	pool    domain.RelayPool
	console domain.Console
	unwrap  *envelope.Unwrapper

	log         zerolog.Logger
	sendTimeout time.Duration
	now         func() time.Time
}

// Option configures a Loop.
type Option func(*Loop)

// WithSendTimeout bounds each outbound send.
func WithSendTimeout(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.sendTimeout = d
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(log zerolog.Logger) Option { return func(l *Loop) { l.log = log } }

// WithClock replaces the clock used to stamp sent messages.
func WithClock(now func() time.Time) Option { return func(l *Loop) { l.now = now } }

// New returns a Loop for cfg. The pool must already be connected.
func New(cfg domain.SessionConfig, pool domain.RelayPool, console domain.Console, opts ...Option) *Loop {
	l := &Loop{
		cfg:         cfg,
		pool:        pool,
		console:     console,
		log:         zerolog.Nop(),
		sendTimeout: defaultSendTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.unwrap = envelope.NewUnwrapper(pool, l.log)
	return l
}

// Run subscribes to envelopes for the local identity and drives the session
// until ctx is cancelled, input is closed, or a one-shot send succeeds. None
// of those is an error.
func (l *Loop) Run(ctx context.Context, input <-chan string) error {
	sub, err := l.pool.Subscribe(ctx, envelope.Filter(l.cfg.Local.Public))
	if err != nil {
		if sub.ID != "" {
			l.release(ctx, sub)
		}
		return fmt.Errorf("subscribe: %w", err)
	}
	defer l.release(ctx, sub)

	l.log.Debug().Str("sub", sub.ID).Int("relays", len(l.cfg.Relays)).Msg("session started")
	l.console.Banner(crypto.EncodeNpub(l.cfg.Peer))
	l.console.Prompt()

	notes := l.pool.Notifications()
	for {
		select {
		case <-ctx.Done():
			l.console.Farewell()
			return nil

		case line, ok := <-input:
			if !ok {
				// The reader closes input when ctx ends too.
				if ctx.Err() != nil {
					l.console.Farewell()
					return nil
				}
				l.log.Debug().Msg("input closed")
				return nil
			}
			if l.handleLine(ctx, line) {
				return nil
			}

		case n, ok := <-notes:
			if !ok {
				return ErrNotificationsClosed
			}
			l.handleNotification(ctx, n)
		}
	}
}

// handleLine sends one input line and reports whether the session is done.
func (l *Loop) handleLine(ctx context.Context, line string) bool {
	if strings.TrimSpace(line) == "" {
		l.console.Prompt()
		return false
	}
	// Input and cancellation can be ready together; never start a send once
	// cancellation is visible.
	if ctx.Err() != nil {
		l.console.Farewell()
		return true
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.sendTimeout)
	err := l.pool.SendPrivateMessage(sendCtx, l.cfg.Peer, line)
	cancel()

	if err != nil {
		l.log.Debug().Err(err).Msg("send failed")
		if domain.IsNoWriteRelay(err) {
			l.console.NoWriteRelay()
		} else {
			l.console.SendFailed(err)
		}
		l.console.Prompt()
		return false
	}

	l.console.Sent(l.now(), line)
	if l.cfg.OneShot {
		return true
	}
	l.console.Prompt()
	return false
}

func (l *Loop) handleNotification(ctx context.Context, n domain.Notification) {
	if n.Kind != domain.NotifyEvent || n.Event == nil || n.Event.Kind != event.KindGiftWrap {
		return
	}
	msg, ok := l.unwrap.Unwrap(ctx, n.Event)
	if !ok || !envelope.Relevant(msg, l.cfg.Peer) {
		return
	}
	l.console.Received(msg)
	l.console.Prompt()
}

func (l *Loop) release(ctx context.Context, sub domain.Subscription) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	l.pool.Unsubscribe(rctx, sub)
	l.log.Debug().Str("sub", sub.ID).Msg("session ended")
}
