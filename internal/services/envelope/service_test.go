package envelope_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nostrdm/internal/crypto"
	"nostrdm/internal/domain"
	"nostrdm/internal/protocol/event"
	"nostrdm/internal/protocol/giftwrap"
	"nostrdm/internal/relay"
	"nostrdm/internal/services/envelope"
)

func newIdentity(t *testing.T) domain.Identity {
	t.Helper()
	id, err := crypto.GenerateIdentity()
	require.NoError(t, err)
	return id
}

func wrapFor(t *testing.T, from, to domain.Identity, text string, at time.Time) *event.Event {
	t.Helper()
	wrap, err := giftwrap.WrapMessage(crypto.PrivateKey(from), to.Public.Hex(), text, at)
	require.NoError(t, err)
	return wrap
}

func TestFilter_LiveGiftWrapsForLocal(t *testing.T) {
	local := newIdentity(t)
	f := envelope.Filter(local.Public)

	raw, err := json.Marshal(f)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))

	assert.Equal(t, []any{float64(1059)}, m["kinds"])
	assert.Equal(t, []any{local.Public.Hex()}, m["#p"])
	assert.Equal(t, float64(0), m["limit"])
	assert.NotContains(t, m, "since")
	assert.Len(t, m, 3)
}

func TestUnwrapper_OpensMessage(t *testing.T) {
	alice, bob := newIdentity(t), newIdentity(t)
	at := time.Unix(1_700_000_000, 0)

	pool := relay.NewPool(bob)
	t.Cleanup(func() { _ = pool.Close() })
	u := envelope.NewUnwrapper(pool, zerolog.Nop())

	msg, ok := u.Unwrap(context.Background(), wrapFor(t, alice, bob, "hello", at))
	require.True(t, ok)
	assert.Equal(t, alice.Public, msg.Sender)
	assert.Equal(t, event.KindPrivateDirectMessage, msg.Kind)
	assert.Equal(t, "hello", msg.Content)
	assert.True(t, at.Equal(msg.Timestamp))
}

func TestUnwrapper_SilentOnFailure(t *testing.T) {
	alice, bob, carol := newIdentity(t), newIdentity(t), newIdentity(t)

	pool := relay.NewPool(carol)
	t.Cleanup(func() { _ = pool.Close() })
	u := envelope.NewUnwrapper(pool, zerolog.Nop())

	_, ok := u.Unwrap(context.Background(), wrapFor(t, alice, bob, "not for carol", time.Now()))
	assert.False(t, ok)

	_, ok = u.Unwrap(context.Background(), nil)
	assert.False(t, ok)

	_, ok = u.Unwrap(context.Background(), &event.Event{Kind: event.KindGiftWrap, Content: "garbage"})
	assert.False(t, ok)
}

type stubGifts struct {
	gift domain.UnwrappedGift
	err  error
}

func (s stubGifts) UnwrapGiftWrap(context.Context, *domain.Envelope) (domain.UnwrappedGift, error) {
	return s.gift, s.err
}

func TestUnwrapper_CollaboratorResults(t *testing.T) {
	sender := newIdentity(t).Public
	env := &event.Event{ID: "abc", Kind: event.KindGiftWrap}

	_, ok := envelope.NewUnwrapper(stubGifts{err: errors.New("boom")}, zerolog.Nop()).Unwrap(context.Background(), env)
	assert.False(t, ok)

	_, ok = envelope.NewUnwrapper(stubGifts{gift: domain.UnwrappedGift{Sender: sender}}, zerolog.Nop()).Unwrap(context.Background(), env)
	assert.False(t, ok, "missing rumor")

	rumor := &event.Event{Kind: 7, Content: "+", CreatedAt: 42}
	msg, ok := envelope.NewUnwrapper(stubGifts{gift: domain.UnwrappedGift{Sender: sender, Rumor: rumor}}, zerolog.Nop()).Unwrap(context.Background(), env)
	require.True(t, ok)
	assert.Equal(t, event.Kind(7), msg.Kind)
	assert.Equal(t, int64(42), msg.Timestamp.Unix())
}

func TestRelevant(t *testing.T) {
	peer, other := newIdentity(t).Public, newIdentity(t).Public

	dm := domain.UnwrappedMessage{Sender: peer, Kind: event.KindPrivateDirectMessage, Content: "hi"}
	assert.True(t, envelope.Relevant(dm, peer))

	fromOther := dm
	fromOther.Sender = other
	assert.False(t, envelope.Relevant(fromOther, peer))

	wrongKind := dm
	wrongKind.Kind = 1
	assert.False(t, envelope.Relevant(wrongKind, peer))
}
