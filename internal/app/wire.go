package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"nostrdm/internal/domain"
	"nostrdm/internal/relay"
	"nostrdm/internal/services/session"
	"nostrdm/internal/services/topology"
)

// Options are the inputs to NewWire. Identity and Peer are already
// validated by the caller.
type Options struct {
	Identity domain.Identity
	Peer     domain.PeerIdentity
	Config   Config
	Console  domain.Console
	Logger   zerolog.Logger

	// Pool overrides the websocket relay pool.
	Pool domain.RelayPool
}

// Wire is a connected, ready-to-run session.
type Wire struct {
	Relays domain.RelaySet
	Pool   domain.RelayPool
	Loop   *session.Loop

	identity domain.Identity
}

// NewWire composes the relay topology, connects the pool and builds the
// session loop. Configuration errors are returned before any network I/O.
func NewWire(ctx context.Context, opts Options) (*Wire, error) {
	relays, err := topology.Compose(opts.Config.DMRelays, opts.Config.ReadRelays, opts.Config.WriteRelays)
	if err != nil {
		return nil, err
	}
	if opts.Peer.IsZero() {
		return nil, fmt.Errorf("%w: no peer", domain.ErrInvalidRecipient)
	}

	pool := opts.Pool
	if pool == nil {
		pool = relay.NewPool(opts.Identity,
			relay.WithLogger(opts.Logger.With().Str("component", "relay").Logger()),
			relay.WithPublishTimeout(opts.Config.SendTimeout),
		)
	}
	if err := pool.Connect(ctx, relays); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("connect relays: %w", err)
	}

	cfg := domain.SessionConfig{
		Local:   opts.Identity,
		Peer:    opts.Peer,
		Relays:  relays,
		OneShot: opts.Config.OneShot,
	}
	loop := session.New(cfg, pool, opts.Console,
		session.WithLogger(opts.Logger.With().Str("component", "session").Logger()),
		session.WithSendTimeout(opts.Config.SendTimeout),
	)
	return &Wire{Relays: relays, Pool: pool, Loop: loop, identity: opts.Identity}, nil
}

// Run drives the session until it ends.
func (w *Wire) Run(ctx context.Context, input <-chan string) error {
	return w.Loop.Run(ctx, input)
}

// Close disconnects from every relay and wipes the wire's copy of the key.
func (w *Wire) Close() error {
	err := w.Pool.Close()
	w.identity.Wipe()
	return err
}
