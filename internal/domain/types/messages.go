package types

import (
	"time"

	"nostrdm/internal/protocol/event"
)

// Envelope is an inbound gift-wrap event (kind 1059).
type Envelope = event.Event

// MessageKind is the kind of the inner (rumor) event.
type MessageKind = event.Kind

// UnwrappedGift is what the relay pool recovers from an Envelope: the
// authenticated sender and the unsigned inner event.
type UnwrappedGift struct {
	Sender PublicKey
	Rumor  *event.Event
}

// UnwrappedMessage is a decrypted message ready for display.
type UnwrappedMessage struct {
	Sender    PublicKey
	Kind      MessageKind
	Content   string
	Timestamp time.Time
}
