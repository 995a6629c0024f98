package event

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// Kind is the NIP-01 event kind.
type Kind int

const (
	KindSeal                 Kind = 13
	KindPrivateDirectMessage Kind = 14
	KindGiftWrap             Kind = 1059
)

var (
	// ErrInvalidID is returned when an event's ID does not match its content.
	ErrInvalidID = errors.New("event id mismatch")
	// ErrInvalidSignature is returned when Sig does not verify against PubKey.
	ErrInvalidSignature = errors.New("event signature invalid")
)

// Tag is a single tag array, e.g. ["p", "<hex pubkey>"].
type Tag []string

// Tags is the ordered tag list of an event.
type Tags []Tag

// Values returns the second element of every tag named name.
func (t Tags) Values(name string) []string {
	var out []string
	for _, tag := range t {
		if len(tag) >= 2 && tag[0] == name {
			out = append(out, tag[1])
		}
	}
	return out
}

// Event is a Nostr event as it travels on the wire.
type Event struct {
	ID        string `json:"id"`
	PubKey    string `json:"pubkey"`
	CreatedAt int64  `json:"created_at"`
	Kind      Kind   `json:"kind"`
	Tags      Tags   `json:"tags"`
	Content   string `json:"content"`
	Sig       string `json:"sig,omitempty"`
}

// Serialize returns the canonical NIP-01 serialization used for the ID.
func (e *Event) Serialize() []byte {
	var b bytes.Buffer
	b.WriteString(`[0,"`)
	b.WriteString(e.PubKey)
	b.WriteString(`",`)
	b.WriteString(strconv.FormatInt(e.CreatedAt, 10))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(int(e.Kind)))
	b.WriteString(",[")
	for i, tag := range e.Tags {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('[')
		for j, v := range tag {
			if j > 0 {
				b.WriteByte(',')
			}
			writeString(&b, v)
		}
		b.WriteByte(']')
	}
	b.WriteString("],")
	writeString(&b, e.Content)
	b.WriteByte(']')
	return b.Bytes()
}

// ComputeID hashes the canonical serialization.
func (e *Event) ComputeID() string {
	sum := sha256.Sum256(e.Serialize())
	return hex.EncodeToString(sum[:])
}

// Finalize sets PubKey and ID without signing. Used for rumors.
func (e *Event) Finalize(pub *btcec.PublicKey) {
	e.PubKey = hex.EncodeToString(schnorr.SerializePubKey(pub))
	if e.Tags == nil {
		e.Tags = Tags{}
	}
	e.ID = e.ComputeID()
}

// Sign sets PubKey and ID from sk and signs the ID.
func (e *Event) Sign(sk *btcec.PrivateKey) error {
	e.Finalize(sk.PubKey())
	id, err := hex.DecodeString(e.ID)
	if err != nil {
		return err
	}
	sig, err := schnorr.Sign(sk, id)
	if err != nil {
		return fmt.Errorf("sign event: %w", err)
	}
	e.Sig = hex.EncodeToString(sig.Serialize())
	return nil
}

// CheckID reports whether ID matches the event content.
func (e *Event) CheckID() error {
	if e.ID != e.ComputeID() {
		return ErrInvalidID
	}
	return nil
}

// Verify checks both the ID and the schnorr signature.
func (e *Event) Verify() error {
	if err := e.CheckID(); err != nil {
		return err
	}
	pub, err := ParsePubKey(e.PubKey)
	if err != nil {
		return err
	}
	rawSig, err := hex.DecodeString(e.Sig)
	if err != nil {
		return ErrInvalidSignature
	}
	sig, err := schnorr.ParseSignature(rawSig)
	if err != nil {
		return ErrInvalidSignature
	}
	id, _ := hex.DecodeString(e.ID)
	if !sig.Verify(id, pub) {
		return ErrInvalidSignature
	}
	return nil
}

// ParsePubKey decodes a 64-char hex x-only public key.
func ParsePubKey(s string) (*btcec.PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("pubkey hex: %w", err)
	}
	pub, err := schnorr.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("pubkey: %w", err)
	}
	return pub, nil
}

// writeString writes s as a JSON string using the NIP-01 escape set.
func writeString(b *bytes.Buffer, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
}
