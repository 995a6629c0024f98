package types

import "nostrdm/internal/protocol/event"

// SessionConfig is fixed for the life of a session loop.
type SessionConfig struct {
	Local   Identity
	Peer    PeerIdentity
	Relays  RelaySet
	OneShot bool
}

// Subscription is a live filter registration on the relay pool.
type Subscription struct {
	ID string
}

// NotificationKind tags what a relay pool Notification carries.
type NotificationKind int

const (
	NotifyEvent NotificationKind = iota
	NotifyEOSE
	NotifyNotice
	NotifyClosed
)

// Notification is one item from the relay pool's notification stream.
type Notification struct {
	Kind           NotificationKind
	Relay          string
	SubscriptionID string
	Event          *event.Event
	Message        string
}
