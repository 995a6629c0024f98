package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"nostrdm/internal/domain"
)

var (
	// ErrInvalidSecret is returned for a secret that is neither nsec nor hex.
	ErrInvalidSecret = errors.New("invalid secret key")
)

// GenerateIdentity returns a fresh random identity.
func GenerateIdentity() (domain.Identity, error) {
	sk, err := btcec.NewPrivateKey()
	if err != nil {
		return domain.Identity{}, err
	}
	defer sk.Zero()
	return identityFromKey(sk), nil
}

// IdentityFromSecret derives the public half of secret.
func IdentityFromSecret(secret domain.SecretKey) (domain.Identity, error) {
	sk, _ := btcec.PrivKeyFromBytes(secret[:])
	defer sk.Zero()
	if sk.Key.IsZero() {
		return domain.Identity{}, fmt.Errorf("%w: zero scalar", ErrInvalidSecret)
	}
	return identityFromKey(sk), nil
}

// ParseSecret accepts an nsec bech32 string or 64 hex characters.
func ParseSecret(s string) (domain.Identity, error) {
	s = strings.TrimSpace(s)
	var raw []byte
	var err error
	if strings.HasPrefix(strings.ToLower(s), hrpSecret+"1") {
		raw, err = decodeBech32(hrpSecret, s)
	} else {
		raw, err = hex.DecodeString(s)
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	if len(raw) != 32 {
		return domain.Identity{}, fmt.Errorf("%w: want 32 bytes, got %d", ErrInvalidSecret, len(raw))
	}
	var secret domain.SecretKey
	copy(secret[:], raw)
	clear(raw)
	return IdentityFromSecret(secret)
}

// PrivateKey converts the identity's secret to a btcec key. Callers should
// Zero it when done.
func PrivateKey(id domain.Identity) *btcec.PrivateKey {
	sk, _ := btcec.PrivKeyFromBytes(id.Secret[:])
	return sk
}

// PublicKeyPoint lifts an x-only public key to a curve point (even y).
func PublicKeyPoint(pk domain.PublicKey) (*btcec.PublicKey, error) {
	return schnorr.ParsePubKey(pk[:])
}

// ParseHexPublicKey decodes a 64-char hex x-only public key.
func ParseHexPublicKey(s string) (domain.PublicKey, error) {
	var pk domain.PublicKey
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != len(pk) {
		return pk, fmt.Errorf("public key %q: not 32 hex bytes", s)
	}
	copy(pk[:], raw)
	if _, err := PublicKeyPoint(pk); err != nil {
		return domain.PublicKey{}, fmt.Errorf("public key %q: %w", s, err)
	}
	return pk, nil
}

func identityFromKey(sk *btcec.PrivateKey) domain.Identity {
	var id domain.Identity
	sk.Key.PutBytes((*[32]byte)(&id.Secret))
	copy(id.Public[:], schnorr.SerializePubKey(sk.PubKey()))
	return id
}
