// Package envelope selects and opens the gift wraps meant for this session.
//
// Filter is the relay subscription for envelopes addressed to the local
// identity. Unwrapper opens them, and Relevant keeps only direct messages
// from the session peer. Envelopes that fail to open are dropped quietly:
// anyone can address a gift wrap to us, so a bad one is noise, not an error.
package envelope
