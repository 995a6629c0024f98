package types

import (
	"encoding/hex"

	"nostrdm/internal/util/memzero"
)

// PublicKey is an x-only secp256k1 public key.
type PublicKey [32]byte

// Hex returns the 64-char lowercase hex form used on the wire.
func (p PublicKey) Hex() string { return hex.EncodeToString(p[:]) }

// String returns the hex form of the key.
func (p PublicKey) String() string { return p.Hex() }

// IsZero reports whether the key is unset.
func (p PublicKey) IsZero() bool { return p == PublicKey{} }

// SecretKey is a secp256k1 scalar.
type SecretKey [32]byte

// String never reveals key material.
func (SecretKey) String() string { return "SecretKey(redacted)" }

// Identity is the local keypair for a session.
type Identity struct {
	Secret SecretKey
	Public PublicKey
}

// Wipe zeroes the secret half.
func (id *Identity) Wipe() {
	memzero.Key((*[32]byte)(&id.Secret))
}

// PeerIdentity is the recipient's public key.
type PeerIdentity = PublicKey
