package crypto

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"nostrdm/internal/domain"
)

// NIP-19 human-readable prefixes.
const (
	hrpPublic = "npub"
	hrpSecret = "nsec"
)

// EncodeNpub returns the NIP-19 npub form of pk.
func EncodeNpub(pk domain.PublicKey) string {
	s, err := encodeBech32(hrpPublic, pk[:])
	if err != nil {
		// 32 bytes always fit in a bech32 string.
		panic(err)
	}
	return s
}

// EncodeNsec returns the NIP-19 nsec form of the identity's secret.
func EncodeNsec(id domain.Identity) string {
	s, err := encodeBech32(hrpSecret, id.Secret[:])
	if err != nil {
		panic(err)
	}
	return s
}

// ParseNpub decodes a recipient npub. Failures wrap domain.ErrInvalidRecipient.
func ParseNpub(s string) (domain.PeerIdentity, error) {
	raw, err := decodeBech32(hrpPublic, strings.TrimSpace(s))
	if err != nil {
		return domain.PeerIdentity{}, fmt.Errorf("%w: %v", domain.ErrInvalidRecipient, err)
	}
	var pk domain.PeerIdentity
	if len(raw) != len(pk) {
		return pk, fmt.Errorf("%w: want 32 bytes, got %d", domain.ErrInvalidRecipient, len(raw))
	}
	copy(pk[:], raw)
	if _, err := PublicKeyPoint(pk); err != nil {
		return domain.PeerIdentity{}, fmt.Errorf("%w: %v", domain.ErrInvalidRecipient, err)
	}
	return pk, nil
}

func encodeBech32(hrp string, data []byte) (string, error) {
	conv, err := bech32.ConvertBits(data, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, conv)
}

func decodeBech32(wantHRP, s string) ([]byte, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return nil, err
	}
	if hrp != wantHRP {
		return nil, fmt.Errorf("prefix %q, want %q", hrp, wantHRP)
	}
	return bech32.ConvertBits(data, 5, 8, false)
}
