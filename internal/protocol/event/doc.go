// Package event implements NIP-01 events and subscription filters.
//
// An Event's ID is the SHA-256 of its canonical serialization
//
//	[0,<pubkey>,<created_at>,<kind>,<tags>,<content>]
//
// and its Sig is a BIP-340 schnorr signature over that ID, made with the
// secp256k1 key whose x-only public half is PubKey. Unsigned events
// ("rumors" in NIP-59) carry an ID but no Sig.
//
// Filters mirror the REQ filter object. A Limit of zero is meaningful (live
// events only, no stored backfill) so Limit is a pointer.
package event
