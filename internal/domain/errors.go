package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks a session that cannot start as configured.
	ErrConfiguration = errors.New("configuration error")
	// ErrInvalidRecipient marks a malformed recipient address.
	ErrInvalidRecipient = errors.New("invalid recipient")
)

// noRelaysText is the relay-pool wording for "nothing to publish to".
const noRelaysText = "no relays specified"

// SendErrorKind classifies an outbound send failure.
type SendErrorKind int

const (
	// SendNoWriteRelay: the write set is empty or no write relay is reachable.
	SendNoWriteRelay SendErrorKind = iota + 1
	// SendNetwork: relays were reachable but none accepted the event.
	SendNetwork
	// SendProtocol: the message could not be built (encryption, signing).
	SendProtocol
)

func (k SendErrorKind) String() string {
	switch k {
	case SendNoWriteRelay:
		return "no-write-relay"
	case SendNetwork:
		return "network"
	case SendProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// SendError is returned by RelayPool.SendPrivateMessage.
type SendError struct {
	Kind SendErrorKind
	Err  error
}

func (e *SendError) Error() string {
	if e.Err == nil {
		return "send failed (" + e.Kind.String() + ")"
	}
	return fmt.Sprintf("send failed (%s): %v", e.Kind, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// IsNoWriteRelay reports whether err means there was no write relay to send to.
//
// Errors that are not a *SendError fall back to matching "no relays
// specified" in their text. That match is brittle; prefer returning a
// SendError from any new RelayPool implementation.
func IsNoWriteRelay(err error) bool {
	if err == nil {
		return false
	}
	var se *SendError
	if errors.As(err, &se) {
		return se.Kind == SendNoWriteRelay
	}
	return strings.Contains(err.Error(), noRelaysText)
}
