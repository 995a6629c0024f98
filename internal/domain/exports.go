package domain

import (
	interfaces "nostrdm/internal/domain/interfaces"
	types "nostrdm/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	PublicKey        = types.PublicKey
	SecretKey        = types.SecretKey
	Identity         = types.Identity
	PeerIdentity     = types.PeerIdentity
	RelayRole        = types.RelayRole
	RelaySet         = types.RelaySet
	Envelope         = types.Envelope
	MessageKind      = types.MessageKind
	UnwrappedGift    = types.UnwrappedGift
	UnwrappedMessage = types.UnwrappedMessage
	SessionConfig    = types.SessionConfig
	Subscription     = types.Subscription
	Notification     = types.Notification
	NotificationKind = types.NotificationKind
)

const (
	RoleRead  = types.RoleRead
	RoleWrite = types.RoleWrite

	NotifyEvent  = types.NotifyEvent
	NotifyEOSE   = types.NotifyEOSE
	NotifyNotice = types.NotifyNotice
	NotifyClosed = types.NotifyClosed
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	GiftUnwrapper = interfaces.GiftUnwrapper
	RelayPool     = interfaces.RelayPool
	Console       = interfaces.Console
)
