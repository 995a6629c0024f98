// Package topology derives the relay set for a session.
//
// The peer's DM relays are both where we listen and where we publish. Extra
// read relays widen what we listen to; extra write relays and a fixed list of
// public fallbacks widen where outbound messages land, so a send still has
// somewhere to go when the DM relays are unreachable.
package topology
