// Package nip44 implements version 2 of the NIP-44 encrypted payload format.
//
// A conversation key is HKDF-extract(salt "nip44-v2", ECDH x-coordinate).
// Each message draws a random 32-byte nonce and expands the conversation key
// into a ChaCha20 key, a ChaCha20 nonce and an HMAC-SHA256 key. The plaintext
// is length-prefixed and padded before encryption, and the MAC covers
// nonce||ciphertext. The payload is base64(0x02 || nonce || ciphertext || mac).
package nip44

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"

	"nostrdm/internal/util/memzero"
)

const (
	version = 2

	minPlaintext = 1
	maxPlaintext = 65535

	minPayload = 132
	maxPayload = 87472
	minDecoded = 99
	maxDecoded = 65603
)

var (
	ErrUnsupportedVersion = errors.New("nip44: unsupported version")
	ErrInvalidPayload     = errors.New("nip44: invalid payload")
	ErrInvalidMAC         = errors.New("nip44: invalid mac")
	ErrInvalidPadding     = errors.New("nip44: invalid padding")
	ErrPlaintextSize      = errors.New("nip44: plaintext size out of range")
)

var salt = []byte("nip44-v2")

// ConversationKey derives the symmetric key shared by sk and pub.
// It is symmetric: ConversationKey(a, B) == ConversationKey(b, A).
func ConversationKey(sk *btcec.PrivateKey, pub *btcec.PublicKey) [32]byte {
	shared := btcec.GenerateSharedSecret(sk, pub)
	defer memzero.Zero(shared)

	var key [32]byte
	copy(key[:], hkdf.Extract(sha256.New, shared, salt))
	return key
}

// Encrypt seals plaintext under the conversation key with a fresh nonce.
func Encrypt(plaintext string, key [32]byte) (string, error) {
	var nonce [32]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", err
	}
	return encrypt(plaintext, key, nonce)
}

func encrypt(plaintext string, key, nonce [32]byte) (string, error) {
	encKey, encNonce, macKey, err := messageKeys(key, nonce)
	if err != nil {
		return "", err
	}
	defer memzero.Zero(encKey)
	defer memzero.Zero(macKey)

	padded, err := pad(plaintext)
	if err != nil {
		return "", err
	}
	cipher, err := chacha20.NewUnauthenticatedCipher(encKey, encNonce)
	if err != nil {
		return "", err
	}
	cipher.XORKeyStream(padded, padded)

	out := make([]byte, 0, 1+32+len(padded)+32)
	out = append(out, version)
	out = append(out, nonce[:]...)
	out = append(out, padded...)
	out = append(out, mac(macKey, nonce[:], padded)...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens a payload produced by Encrypt.
func Decrypt(payload string, key [32]byte) (string, error) {
	if payload == "" || payload[0] == '#' {
		return "", ErrUnsupportedVersion
	}
	if len(payload) < minPayload || len(payload) > maxPayload {
		return "", fmt.Errorf("%w: length %d", ErrInvalidPayload, len(payload))
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(data) < minDecoded || len(data) > maxDecoded {
		return "", fmt.Errorf("%w: decoded length %d", ErrInvalidPayload, len(data))
	}
	if data[0] != version {
		return "", ErrUnsupportedVersion
	}

	var nonce [32]byte
	copy(nonce[:], data[1:33])
	ciphertext := data[33 : len(data)-32]
	tag := data[len(data)-32:]

	encKey, encNonce, macKey, err := messageKeys(key, nonce)
	if err != nil {
		return "", err
	}
	defer memzero.Zero(encKey)
	defer memzero.Zero(macKey)

	if !hmac.Equal(tag, mac(macKey, nonce[:], ciphertext)) {
		return "", ErrInvalidMAC
	}

	cipher, err := chacha20.NewUnauthenticatedCipher(encKey, encNonce)
	if err != nil {
		return "", err
	}
	padded := make([]byte, len(ciphertext))
	cipher.XORKeyStream(padded, ciphertext)
	return unpad(padded)
}

func messageKeys(key, nonce [32]byte) (encKey, encNonce, macKey []byte, err error) {
	buf := make([]byte, 76)
	if _, err := io.ReadFull(hkdf.Expand(sha256.New, key[:], nonce[:]), buf); err != nil {
		return nil, nil, nil, err
	}
	return buf[0:32], buf[32:44], buf[44:76], nil
}

func mac(key, nonce, ciphertext []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(nonce)
	h.Write(ciphertext)
	return h.Sum(nil)
}

func pad(plaintext string) ([]byte, error) {
	n := len(plaintext)
	if n < minPlaintext || n > maxPlaintext {
		return nil, ErrPlaintextSize
	}
	out := make([]byte, 2+paddedLen(n))
	binary.BigEndian.PutUint16(out, uint16(n))
	copy(out[2:], plaintext)
	return out, nil
}

func unpad(padded []byte) (string, error) {
	if len(padded) < 2 {
		return "", ErrInvalidPadding
	}
	n := int(binary.BigEndian.Uint16(padded))
	if n < minPlaintext || len(padded) != 2+paddedLen(n) {
		return "", ErrInvalidPadding
	}
	return string(padded[2 : 2+n]), nil
}

// paddedLen rounds n up to the NIP-44 padding boundary.
func paddedLen(n int) int {
	if n <= 32 {
		return 32
	}
	nextPower := 1 << bits.Len(uint(n-1))
	chunk := 32
	if nextPower > 256 {
		chunk = nextPower / 8
	}
	return chunk * ((n-1)/chunk + 1)
}
