// Package session runs the interactive direct-message loop with one peer.
//
// A Loop owns a single subscription for the life of Run. Typed lines are
// sent to the peer through the relay pool, inbound gift wraps are opened and
// shown when they come from the peer, and the loop ends on cancellation, end
// of input, or after the first successful send in one-shot mode. Every exit
// path releases the subscription exactly once.
//
// All state changes happen on the goroutine calling Run. Sends and the final
// unsubscribe run under a context detached from cancellation, so an
// interrupt never tears down a send that is already on the wire.
package session
