// Package giftwrap builds and opens NIP-59 gift wraps carrying NIP-17 direct
// messages.
//
// Layers, inside out:
//
//   - rumor: unsigned kind-14 event authored by the sender, p-tagged to the
//     recipient;
//   - seal: kind-13 event signed by the sender whose content is the
//     NIP-44-encrypted rumor;
//   - gift wrap: kind-1059 event signed by a throwaway key, p-tagged to the
//     recipient, whose content is the NIP-44-encrypted seal.
//
// Relays only ever see the gift wrap, so neither the sender nor the message
// is visible to them. Seal and wrap timestamps are randomized into the past.
package giftwrap

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"

	"nostrdm/internal/protocol/event"
	"nostrdm/internal/protocol/nip44"
)

// maxSkew bounds how far seal and wrap timestamps are pushed into the past.
const maxSkew = 2 * 24 * time.Hour

var (
	ErrNotGiftWrap    = errors.New("giftwrap: not a gift wrap")
	ErrNotSeal        = errors.New("giftwrap: inner event is not a seal")
	ErrSenderMismatch = errors.New("giftwrap: rumor author differs from seal signer")
)

// Unwrapped is the authenticated content of a gift wrap.
type Unwrapped struct {
	// Sender is the hex pubkey that signed the seal.
	Sender string
	Rumor  *event.Event
}

// DirectMessage returns a kind-14 rumor from sender to recipient.
func DirectMessage(sender *btcec.PublicKey, recipientHex, content string, now time.Time) *event.Event {
	rumor := &event.Event{
		CreatedAt: now.Unix(),
		Kind:      event.KindPrivateDirectMessage,
		Tags:      event.Tags{{"p", recipientHex}},
		Content:   content,
	}
	rumor.Finalize(sender)
	return rumor
}

// Seal encrypts rumor to recipient and signs it with sender.
func Seal(sender *btcec.PrivateKey, recipient *btcec.PublicKey, rumor *event.Event, now time.Time) (*event.Event, error) {
	plain, err := json.Marshal(rumor)
	if err != nil {
		return nil, err
	}
	content, err := nip44.Encrypt(string(plain), nip44.ConversationKey(sender, recipient))
	if err != nil {
		return nil, fmt.Errorf("encrypt rumor: %w", err)
	}
	seal := &event.Event{
		CreatedAt: skewed(now),
		Kind:      event.KindSeal,
		Tags:      event.Tags{},
		Content:   content,
	}
	if err := seal.Sign(sender); err != nil {
		return nil, err
	}
	return seal, nil
}

// Wrap encrypts seal to recipient under a fresh one-time key.
func Wrap(seal *event.Event, recipient *btcec.PublicKey, now time.Time) (*event.Event, error) {
	ephemeral, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	defer ephemeral.Zero()

	plain, err := json.Marshal(seal)
	if err != nil {
		return nil, err
	}
	content, err := nip44.Encrypt(string(plain), nip44.ConversationKey(ephemeral, recipient))
	if err != nil {
		return nil, fmt.Errorf("encrypt seal: %w", err)
	}
	wrap := &event.Event{
		CreatedAt: skewed(now),
		Kind:      event.KindGiftWrap,
		Tags:      event.Tags{{"p", PubKeyHex(recipient)}},
		Content:   content,
	}
	if err := wrap.Sign(ephemeral); err != nil {
		return nil, err
	}
	return wrap, nil
}

// WrapMessage builds the full rumor → seal → wrap chain for one message.
func WrapMessage(sender *btcec.PrivateKey, recipientHex, content string, now time.Time) (*event.Event, error) {
	recipient, err := event.ParsePubKey(recipientHex)
	if err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}
	rumor := DirectMessage(sender.PubKey(), recipientHex, content, now)
	seal, err := Seal(sender, recipient, rumor, now)
	if err != nil {
		return nil, err
	}
	return Wrap(seal, recipient, now)
}

// Unwrap opens a gift wrap addressed to sk.
//
// The sender is authenticated by the seal signature, and the rumor must be
// authored by the same key that signed the seal.
func Unwrap(sk *btcec.PrivateKey, wrap *event.Event) (Unwrapped, error) {
	if wrap == nil || wrap.Kind != event.KindGiftWrap {
		return Unwrapped{}, ErrNotGiftWrap
	}
	if err := wrap.Verify(); err != nil {
		return Unwrapped{}, fmt.Errorf("gift wrap: %w", err)
	}

	var seal event.Event
	if err := open(sk, wrap.PubKey, wrap.Content, &seal); err != nil {
		return Unwrapped{}, fmt.Errorf("gift wrap: %w", err)
	}
	if seal.Kind != event.KindSeal {
		return Unwrapped{}, ErrNotSeal
	}
	if err := seal.Verify(); err != nil {
		return Unwrapped{}, fmt.Errorf("seal: %w", err)
	}

	var rumor event.Event
	if err := open(sk, seal.PubKey, seal.Content, &rumor); err != nil {
		return Unwrapped{}, fmt.Errorf("seal: %w", err)
	}
	if rumor.PubKey != seal.PubKey {
		return Unwrapped{}, ErrSenderMismatch
	}
	return Unwrapped{Sender: seal.PubKey, Rumor: &rumor}, nil
}

func open(sk *btcec.PrivateKey, authorHex, payload string, out *event.Event) error {
	author, err := event.ParsePubKey(authorHex)
	if err != nil {
		return err
	}
	plain, err := nip44.Decrypt(payload, nip44.ConversationKey(sk, author))
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(plain), out)
}

func skewed(now time.Time) int64 {
	return now.Add(-time.Duration(rand.Int63n(int64(maxSkew)))).Unix()
}

// PubKeyHex is the hex x-only form of pub, as used in p tags.
func PubKeyHex(pub *btcec.PublicKey) string {
	return hex.EncodeToString(pub.SerializeCompressed()[1:])
}
