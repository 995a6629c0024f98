package interfaces

import (
	"context"

	domaintypes "nostrdm/internal/domain/types"
	"nostrdm/internal/protocol/event"
)

// GiftUnwrapper recovers the sender and inner event from a gift wrap.
type GiftUnwrapper interface {
	UnwrapGiftWrap(ctx context.Context, envelope *domaintypes.Envelope) (domaintypes.UnwrappedGift, error)
}

// RelayPool is the session's connection to the relay network.
type RelayPool interface {
	GiftUnwrapper

	Connect(ctx context.Context, relays domaintypes.RelaySet) error
	Subscribe(ctx context.Context, filter event.Filter) (domaintypes.Subscription, error)
	Notifications() <-chan domaintypes.Notification
	SendPrivateMessage(ctx context.Context, peer domaintypes.PeerIdentity, content string) error
	Unsubscribe(ctx context.Context, sub domaintypes.Subscription)
	// Relays reports the relays currently connected and their roles.
	Relays() domaintypes.RelaySet
	Close() error
}
