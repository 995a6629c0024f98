package relay_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nostrdm/internal/crypto"
	"nostrdm/internal/domain"
	"nostrdm/internal/protocol/event"
	"nostrdm/internal/protocol/giftwrap"
	"nostrdm/internal/relay"
)

// fakeRelay is a minimal in-memory NIP-01 relay.
type fakeRelay struct {
	srv    *httptest.Server
	reject string

	mu      sync.Mutex
	clients map[*websocket.Conn]*fakeClient
	closes  []string
}

type fakeClient struct {
	writeMu sync.Mutex
	ws      *websocket.Conn
	subs    map[string]event.Filter
}

func (c *fakeClient) send(v any) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.WriteJSON(v)
}

func newFakeRelay(t *testing.T) *fakeRelay {
	t.Helper()
	r := &fakeRelay{clients: make(map[*websocket.Conn]*fakeClient)}
	upgrader := websocket.Upgrader{}
	r.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ws, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		r.serve(ws)
	}))
	t.Cleanup(r.srv.Close)
	return r
}

func (r *fakeRelay) url() string { return "ws" + strings.TrimPrefix(r.srv.URL, "http") }

func (r *fakeRelay) serve(ws *websocket.Conn) {
	client := &fakeClient{ws: ws, subs: make(map[string]event.Filter)}
	r.mu.Lock()
	r.clients[ws] = client
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.clients, ws)
		r.mu.Unlock()
		_ = ws.Close()
	}()

	for {
		var msg []json.RawMessage
		if err := ws.ReadJSON(&msg); err != nil || len(msg) < 2 {
			return
		}
		var label string
		_ = json.Unmarshal(msg[0], &label)
		switch label {
		case "REQ":
			var id string
			var f event.Filter
			_ = json.Unmarshal(msg[1], &id)
			if len(msg) > 2 {
				_ = json.Unmarshal(msg[2], &f)
			}
			r.mu.Lock()
			client.subs[id] = f
			r.mu.Unlock()
			client.send([]any{"EOSE", id})
		case "CLOSE":
			var id string
			_ = json.Unmarshal(msg[1], &id)
			r.mu.Lock()
			delete(client.subs, id)
			r.closes = append(r.closes, id)
			r.mu.Unlock()
		case "EVENT":
			var ev event.Event
			_ = json.Unmarshal(msg[1], &ev)
			if r.reject != "" {
				client.send([]any{"OK", ev.ID, false, r.reject})
				continue
			}
			client.send([]any{"OK", ev.ID, true, ""})
			r.broadcast(&ev)
		}
	}
}

// broadcast pushes ev to every matching subscription.
func (r *fakeRelay) broadcast(ev *event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		for id, f := range c.subs {
			if f.Matches(ev) {
				c.send([]any{"EVENT", id, ev})
			}
		}
	}
}

// hasSub reports whether any client holds subscription id.
func (r *fakeRelay) hasSub(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		if _, ok := c.subs[id]; ok {
			return true
		}
	}
	return false
}

func (r *fakeRelay) closedSubs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.closes...)
}

func newIdentity(t *testing.T) domain.Identity {
	t.Helper()
	id, err := crypto.GenerateIdentity()
	require.NoError(t, err)
	return id
}

func giftWrapFilter(pk domain.PublicKey) event.Filter {
	return event.Filter{
		Kinds: []event.Kind{event.KindGiftWrap},
		Tags:  map[string][]string{"p": {pk.Hex()}},
		Limit: event.Live(),
	}
}

func connect(t *testing.T, id domain.Identity, set domain.RelaySet) *relay.Pool {
	t.Helper()
	p := relay.NewPool(id, relay.WithPublishTimeout(2*time.Second))
	require.NoError(t, p.Connect(context.Background(), set))
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func nextEvent(t *testing.T, ch <-chan domain.Notification) domain.Notification {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case n := <-ch:
			if n.Kind == domain.NotifyEvent {
				return n
			}
		case <-deadline:
			t.Fatal("timed out waiting for event notification")
		}
	}
}

func TestPool_SendAndReceive(t *testing.T) {
	r := newFakeRelay(t)
	alice, bob := newIdentity(t), newIdentity(t)

	bobPool := connect(t, bob, domain.RelaySet{r.url(): domain.RoleRead})
	sub, err := bobPool.Subscribe(context.Background(), giftWrapFilter(bob.Public))
	require.NoError(t, err)
	require.NotEmpty(t, sub.ID)

	alicePool := connect(t, alice, domain.RelaySet{r.url(): domain.RoleWrite})
	require.Eventually(t, func() bool { return r.hasSub(sub.ID) }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, alicePool.SendPrivateMessage(context.Background(), bob.Public, "hi bob"))

	n := nextEvent(t, bobPool.Notifications())
	assert.Equal(t, r.url(), n.Relay)
	assert.Equal(t, sub.ID, n.SubscriptionID)
	require.Equal(t, event.KindGiftWrap, n.Event.Kind)

	gift, err := bobPool.UnwrapGiftWrap(context.Background(), n.Event)
	require.NoError(t, err)
	assert.Equal(t, alice.Public, gift.Sender)
	assert.Equal(t, event.KindPrivateDirectMessage, gift.Rumor.Kind)
	assert.Equal(t, "hi bob", gift.Rumor.Content)

	bobPool.Unsubscribe(context.Background(), sub)
	assert.Eventually(t, func() bool {
		return len(r.closedSubs()) == 1 && r.closedSubs()[0] == sub.ID
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPool_DeduplicatesAcrossRelays(t *testing.T) {
	r1, r2 := newFakeRelay(t), newFakeRelay(t)
	alice, bob := newIdentity(t), newIdentity(t)

	bobPool := connect(t, bob, domain.RelaySet{r1.url(): domain.RoleRead, r2.url(): domain.RoleRead})
	sub, err := bobPool.Subscribe(context.Background(), giftWrapFilter(bob.Public))
	require.NoError(t, err)

	alicePool := connect(t, alice, domain.RelaySet{r1.url(): domain.RoleWrite, r2.url(): domain.RoleWrite})
	require.Eventually(t, func() bool {
		return r1.hasSub(sub.ID) && r2.hasSub(sub.ID)
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, alicePool.SendPrivateMessage(context.Background(), bob.Public, "once"))

	first := nextEvent(t, bobPool.Notifications())
	require.NotNil(t, first.Event)

	quiet := time.After(300 * time.Millisecond)
	for {
		select {
		case n := <-bobPool.Notifications():
			require.NotEqual(t, domain.NotifyEvent, n.Kind, "duplicate event delivered")
		case <-quiet:
			return
		}
	}
}

// Inbound traffic nobody is reading must not hold up the OK for a publish.
func TestPool_SendSurvivesInboundFlood(t *testing.T) {
	r := newFakeRelay(t)
	alice, bob := newIdentity(t), newIdentity(t)

	bobPool := connect(t, bob, domain.RelaySet{r.url(): domain.RoleRead | domain.RoleWrite})
	sub, err := bobPool.Subscribe(context.Background(), giftWrapFilter(bob.Public))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return r.hasSub(sub.ID) }, 2*time.Second, 10*time.Millisecond)

	const flood = 300
	aliceKey := crypto.PrivateKey(alice)
	for i := 0; i < flood; i++ {
		wrap, err := giftwrap.WrapMessage(aliceKey, bob.Public.Hex(), fmt.Sprintf("m%d", i), time.Now())
		require.NoError(t, err)
		r.broadcast(wrap)
	}

	start := time.Now()
	require.NoError(t, bobPool.SendPrivateMessage(context.Background(), alice.Public, "still works"))
	assert.Less(t, time.Since(start), time.Second)

	received := 0
	deadline := time.After(5 * time.Second)
	for received < flood {
		select {
		case n := <-bobPool.Notifications():
			if n.Kind == domain.NotifyEvent {
				received++
			}
		case <-deadline:
			t.Fatalf("received %d of %d flooded events", received, flood)
		}
	}
}

func TestPool_SendWithoutWriteRelays(t *testing.T) {
	r := newFakeRelay(t)
	p := connect(t, newIdentity(t), domain.RelaySet{r.url(): domain.RoleRead})

	err := p.SendPrivateMessage(context.Background(), newIdentity(t).Public, "x")
	require.Error(t, err)
	assert.True(t, domain.IsNoWriteRelay(err))
	assert.ErrorIs(t, err, relay.ErrNoRelaysSpecified)
	assert.Contains(t, err.Error(), "no relays specified")
}

func TestPool_UnreachableWriteRelay(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(dead.URL, "http")
	dead.Close()

	p := connect(t, newIdentity(t), domain.RelaySet{url: domain.RoleRead | domain.RoleWrite})
	assert.Empty(t, p.Relays())

	err := p.SendPrivateMessage(context.Background(), newIdentity(t).Public, "x")
	assert.True(t, domain.IsNoWriteRelay(err))
}

func TestPool_RejectedPublish(t *testing.T) {
	r := newFakeRelay(t)
	r.reject = "blocked: spam"
	p := connect(t, newIdentity(t), domain.RelaySet{r.url(): domain.RoleWrite})

	err := p.SendPrivateMessage(context.Background(), newIdentity(t).Public, "x")
	require.Error(t, err)
	assert.False(t, domain.IsNoWriteRelay(err))

	var se *domain.SendError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.SendNetwork, se.Kind)
	assert.ErrorIs(t, err, relay.ErrRejected)
	assert.Contains(t, err.Error(), "blocked: spam")
}

func TestPool_CloseEndsNotifications(t *testing.T) {
	r := newFakeRelay(t)
	p := relay.NewPool(newIdentity(t))
	require.NoError(t, p.Connect(context.Background(), domain.RelaySet{r.url(): domain.RoleRead}))
	require.NoError(t, p.Close())

	for range p.Notifications() {
	}
	require.NoError(t, p.Close())
}
