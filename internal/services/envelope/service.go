package envelope

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"nostrdm/internal/domain"
	"nostrdm/internal/protocol/event"
)

// Filter is the live subscription for gift wraps tagged to local. Limit 0
// skips stored history, and there is no since bound because wrap timestamps
// are randomized into the past.
func Filter(local domain.PublicKey) event.Filter {
	return event.Filter{
		Kinds: []event.Kind{event.KindGiftWrap},
		Tags:  map[string][]string{"p": {local.Hex()}},
		Limit: event.Live(),
	}
}

// Unwrapper opens envelopes through the relay pool's identity.
type Unwrapper struct {
	gifts domain.GiftUnwrapper
	log   zerolog.Logger
}

// NewUnwrapper returns an Unwrapper backed by gifts.
func NewUnwrapper(gifts domain.GiftUnwrapper, log zerolog.Logger) *Unwrapper {
	return &Unwrapper{gifts: gifts, log: log}
}

// Unwrap opens env. It reports false, without an error, for anything that
// does not decrypt and authenticate.
func (u *Unwrapper) Unwrap(ctx context.Context, env *domain.Envelope) (domain.UnwrappedMessage, bool) {
	if env == nil {
		return domain.UnwrappedMessage{}, false
	}
	gift, err := u.gifts.UnwrapGiftWrap(ctx, env)
	if err != nil {
		u.log.Debug().Err(err).Str("event", env.ID).Msg("dropping envelope")
		return domain.UnwrappedMessage{}, false
	}
	if gift.Rumor == nil {
		u.log.Debug().Str("event", env.ID).Msg("dropping envelope without inner event")
		return domain.UnwrappedMessage{}, false
	}
	return domain.UnwrappedMessage{
		Sender:    gift.Sender,
		Kind:      gift.Rumor.Kind,
		Content:   gift.Rumor.Content,
		Timestamp: time.Unix(gift.Rumor.CreatedAt, 0),
	}, true
}

// Relevant reports whether msg is a direct message from peer.
func Relevant(msg domain.UnwrappedMessage, peer domain.PeerIdentity) bool {
	return msg.Sender == peer && msg.Kind == event.KindPrivateDirectMessage
}
