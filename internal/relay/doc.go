// Package relay provides a websocket relay pool implementing
// domain.RelayPool for nostrdm.
//
// Relays are untrusted store-and-forward servers speaking the NIP-01 message
// protocol. The pool keeps one connection per relay URL and tags each with
// the roles it plays in the session (read, write or both):
//   - Subscribe sends REQ to read relays; Unsubscribe sends CLOSE.
//   - Inbound EVENT messages are signature-checked, de-duplicated across
//     relays and fanned into a single notification channel.
//   - SendPrivateMessage gift-wraps a direct message and publishes it to every
//     connected write relay, waiting for each relay's OK.
//
// Failures are returned as *domain.SendError so callers can tell "no write
// relay reachable" apart from rejections and protocol errors.
package relay
