package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"nostrdm/internal/domain"
)

func TestIsNoWriteRelay(t *testing.T) {
	noRelay := &domain.SendError{Kind: domain.SendNoWriteRelay, Err: errors.New("no relays specified")}
	network := &domain.SendError{Kind: domain.SendNetwork, Err: errors.New("timeout")}

	assert.True(t, domain.IsNoWriteRelay(noRelay))
	assert.True(t, domain.IsNoWriteRelay(fmt.Errorf("send: %w", noRelay)))
	assert.False(t, domain.IsNoWriteRelay(network))
	assert.False(t, domain.IsNoWriteRelay(nil))

	// Foreign errors fall back to the text match.
	assert.True(t, domain.IsNoWriteRelay(errors.New("pool: no relays specified")))
	assert.False(t, domain.IsNoWriteRelay(errors.New("connection refused")))
}

func TestSendError_Message(t *testing.T) {
	err := &domain.SendError{Kind: domain.SendNetwork, Err: errors.New("rejected")}
	assert.Equal(t, "send failed (network): rejected", err.Error())
	assert.ErrorContains(t, &domain.SendError{Kind: domain.SendProtocol}, "protocol")
}

func TestRelaySet_Roles(t *testing.T) {
	set := domain.RelaySet{}
	set.Add("wss://a", domain.RoleRead)
	set.Add("wss://a", domain.RoleWrite)
	set.Add("wss://b", domain.RoleWrite)

	assert.Equal(t, []string{"wss://a"}, set.ReadURLs())
	assert.Equal(t, []string{"wss://a", "wss://b"}, set.WriteURLs())
	assert.Equal(t, "read+write", set["wss://a"].String())
	assert.Equal(t, "write", set["wss://b"].String())
}
