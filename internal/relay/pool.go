package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"nostrdm/internal/crypto"
	"nostrdm/internal/domain"
	"nostrdm/internal/protocol/event"
	"nostrdm/internal/protocol/giftwrap"
	"nostrdm/internal/util/queue"
)

const (
	defaultPublishTimeout = 10 * time.Second
	defaultDialTimeout    = 10 * time.Second
	maxConcurrentDials    = 8
	notificationBuffer    = 256
	maxBacklog            = 1 << 14
	seenCapacity          = 4096
)

// ErrNoRelaysSpecified is the cause of a SendNoWriteRelay failure.
var ErrNoRelaysSpecified = errors.New("no relays specified")

// Pool is a set of relay connections bound to one local identity.
type Pool struct {
	sk  *btcec.PrivateKey
	log zerolog.Logger

	dialer         *websocket.Dialer
	publishTimeout time.Duration
	now            func() time.Time

	mu    sync.RWMutex
	conns map[string]*conn
	roles domain.RelaySet
	subs  map[string]event.Filter
	seen  *lru.Cache[string, struct{}]

	// Relay readers push into backlog and never wait on the consumer, so
	// OK frames keep flowing while notifications pile up.
	backlog   *queue.Queue[domain.Notification]
	notes     chan domain.Notification
	pumpDone  chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
	readers   sync.WaitGroup
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the pool's diagnostic logger.
func WithLogger(l zerolog.Logger) Option { return func(p *Pool) { p.log = l } }

// WithDialer replaces the websocket dialer.
func WithDialer(d *websocket.Dialer) Option { return func(p *Pool) { p.dialer = d } }

// WithPublishTimeout bounds how long a publish waits for relay OKs.
func WithPublishTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.publishTimeout = d
		}
	}
}

// NewPool returns an unconnected pool acting as id.
func NewPool(id domain.Identity, opts ...Option) *Pool {
	seen, _ := lru.New[string, struct{}](seenCapacity)
	p := &Pool{
		sk:             crypto.PrivateKey(id),
		log:            zerolog.Nop(),
		dialer:         &websocket.Dialer{HandshakeTimeout: defaultDialTimeout},
		publishTimeout: defaultPublishTimeout,
		now:            time.Now,
		conns:          make(map[string]*conn),
		roles:          domain.RelaySet{},
		subs:           make(map[string]event.Filter),
		seen:           seen,
		backlog:        queue.New[domain.Notification](maxBacklog),
		notes:          make(chan domain.Notification, notificationBuffer),
		pumpDone:       make(chan struct{}),
		closed:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	go p.pump()
	return p
}

// Connect dials every relay in relays. Unreachable relays are logged and
// skipped; only cancellation of ctx is an error.
func (p *Pool) Connect(ctx context.Context, relays domain.RelaySet) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDials)

	for _, url := range relays.URLs() {
		url := url
		role := relays[url]
		g.Go(func() error {
			c, err := dial(gctx, p.dialer, url, p.log)
			if err != nil {
				p.log.Warn().Err(err).Str("relay", url).Stringer("role", role).Msg("relay unreachable")
				return nil
			}
			p.mu.Lock()
			if old, ok := p.conns[url]; ok {
				old.close()
			}
			p.conns[url] = c
			p.roles.Add(url, role)
			p.mu.Unlock()

			p.readers.Add(1)
			go func() {
				defer p.readers.Done()
				c.readLoop(p.deliver)
			}()
			p.log.Info().Str("relay", url).Stringer("role", role).Msg("relay connected")
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(p.connected(domain.RoleWrite)) == 0 {
		p.log.Warn().Msg("no write relay connected; sends will fail until one is reachable")
	}
	return nil
}

// Subscribe registers filter on every connected read relay. On error nothing
// stays registered.
func (p *Pool) Subscribe(ctx context.Context, filter event.Filter) (domain.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return domain.Subscription{}, err
	}
	sub := domain.Subscription{ID: uuid.NewString()}
	p.mu.Lock()
	p.subs[sub.ID] = filter
	p.mu.Unlock()

	conns := p.connected(domain.RoleRead)
	if len(conns) == 0 {
		p.log.Warn().Str("sub", sub.ID).Msg("no read relay connected; nothing will be received")
	}
	for _, c := range conns {
		if err := ctx.Err(); err != nil {
			p.Unsubscribe(context.WithoutCancel(ctx), sub)
			return domain.Subscription{}, err
		}
		if err := c.writeJSON(reqMessage(sub.ID, filter)); err != nil {
			p.log.Warn().Err(err).Str("relay", c.url).Msg("subscribe failed")
		}
	}
	return sub, nil
}

// Unsubscribe closes sub on every connected read relay.
func (p *Pool) Unsubscribe(ctx context.Context, sub domain.Subscription) {
	p.mu.Lock()
	delete(p.subs, sub.ID)
	p.mu.Unlock()

	for _, c := range p.connected(domain.RoleRead) {
		if ctx.Err() != nil {
			return
		}
		if err := c.writeJSON(closeMessage(sub.ID)); err != nil {
			p.log.Debug().Err(err).Str("relay", c.url).Msg("close subscription failed")
		}
	}
}

// Notifications is the single stream of inbound relay messages. It is closed
// by Close once every relay reader has stopped.
func (p *Pool) Notifications() <-chan domain.Notification { return p.notes }

// SendPrivateMessage gift-wraps content for peer and publishes it to every
// connected write relay. It succeeds when at least one relay accepts.
func (p *Pool) SendPrivateMessage(ctx context.Context, peer domain.PeerIdentity, content string) error {
	conns := p.connected(domain.RoleWrite)
	if len(conns) == 0 {
		return &domain.SendError{Kind: domain.SendNoWriteRelay, Err: ErrNoRelaysSpecified}
	}

	wrap, err := giftwrap.WrapMessage(p.sk, peer.Hex(), content, p.now())
	if err != nil {
		return &domain.SendError{Kind: domain.SendProtocol, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, p.publishTimeout)
	defer cancel()

	var (
		mu       sync.Mutex
		accepted int
		errs     []error
		g        errgroup.Group
	)
	for _, c := range conns {
		c := c
		g.Go(func() error {
			err := c.publish(ctx, wrap)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				p.log.Debug().Err(err).Str("relay", c.url).Msg("publish failed")
				return nil
			}
			accepted++
			return nil
		})
	}
	_ = g.Wait()

	if accepted == 0 {
		return &domain.SendError{Kind: domain.SendNetwork, Err: errors.Join(errs...)}
	}
	p.log.Debug().Str("event", wrap.ID).Int("accepted", accepted).Int("relays", len(conns)).Msg("published gift wrap")
	return nil
}

// UnwrapGiftWrap opens envelope with the pool's identity.
func (p *Pool) UnwrapGiftWrap(_ context.Context, envelope *domain.Envelope) (domain.UnwrappedGift, error) {
	u, err := giftwrap.Unwrap(p.sk, envelope)
	if err != nil {
		return domain.UnwrappedGift{}, err
	}
	sender, err := crypto.ParseHexPublicKey(u.Sender)
	if err != nil {
		return domain.UnwrappedGift{}, fmt.Errorf("seal signer: %w", err)
	}
	return domain.UnwrappedGift{Sender: sender, Rumor: u.Rumor}, nil
}

// Close drops every relay connection, waits for readers to stop, closes the
// notification channel and wipes the pool's key.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		close(p.closed)
		p.mu.Lock()
		for _, c := range p.conns {
			c.close()
		}
		p.mu.Unlock()
		p.readers.Wait()
		p.backlog.Close()
		<-p.pumpDone
		close(p.notes)
		p.sk.Zero()
	})
	return nil
}

// Relays reports the roles of every currently connected relay.
func (p *Pool) Relays() domain.RelaySet {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := domain.RelaySet{}
	for url, c := range p.conns {
		select {
		case <-c.done:
		default:
			out[url] = p.roles[url]
		}
	}
	return out
}

func (p *Pool) connected(role domain.RelayRole) []*conn {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []*conn
	for url, c := range p.conns {
		if !p.roles[url].Has(role) {
			continue
		}
		select {
		case <-c.done:
		default:
			out = append(out, c)
		}
	}
	return out
}

// deliver turns a relay message into a notification. Events must belong to a
// live subscription, match its filter, carry a valid signature and not have
// been seen from another relay already.
func (p *Pool) deliver(in inbound, from string) {
	n := domain.Notification{Relay: from, SubscriptionID: in.subscriptionID, Message: in.message}
	switch in.label {
	case labelEvent:
		p.mu.RLock()
		filter, live := p.subs[in.subscriptionID]
		p.mu.RUnlock()
		if !live || !filter.Matches(in.event) {
			return
		}
		if err := in.event.Verify(); err != nil {
			p.log.Debug().Err(err).Str("relay", from).Msg("dropping invalid event")
			return
		}
		if seen, _ := p.seen.ContainsOrAdd(in.event.ID, struct{}{}); seen {
			return
		}
		n.Kind = domain.NotifyEvent
		n.Event = in.event
	case labelEOSE:
		n.Kind = domain.NotifyEOSE
	case labelNotice:
		p.log.Info().Str("relay", from).Str("notice", in.message).Msg("relay notice")
		n.Kind = domain.NotifyNotice
	case labelClosed:
		p.log.Warn().Str("relay", from).Str("sub", in.subscriptionID).Str("reason", in.message).Msg("subscription closed by relay")
		n.Kind = domain.NotifyClosed
	default:
		return
	}

	if !p.backlog.Push(n) {
		p.log.Warn().Str("relay", from).Int("backlog", maxBacklog).Msg("notification backlog full; dropping")
	}
}

// pump moves queued notifications to the consumer-facing channel.
func (p *Pool) pump() {
	defer close(p.pumpDone)
	for {
		n, ok := p.backlog.Pop(p.closed)
		if !ok {
			return
		}
		select {
		case p.notes <- n:
		case <-p.closed:
			return
		}
	}
}

var _ domain.RelayPool = (*Pool)(nil)
