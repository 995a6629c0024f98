package relay

import (
	"encoding/json"
	"errors"
	"fmt"

	"nostrdm/internal/protocol/event"
)

// NIP-01 message labels.
const (
	labelEvent  = "EVENT"
	labelReq    = "REQ"
	labelClose  = "CLOSE"
	labelOK     = "OK"
	labelEOSE   = "EOSE"
	labelNotice = "NOTICE"
	labelClosed = "CLOSED"
)

var errMalformed = errors.New("malformed relay message")

// inbound is a decoded relay-to-client message.
type inbound struct {
	label          string
	subscriptionID string
	event          *event.Event
	eventID        string
	accepted       bool
	message        string
}

func reqMessage(subID string, filters ...event.Filter) []any {
	msg := []any{labelReq, subID}
	for _, f := range filters {
		msg = append(msg, f)
	}
	return msg
}

func closeMessage(subID string) []any { return []any{labelClose, subID} }

func eventMessage(ev *event.Event) []any { return []any{labelEvent, ev} }

func parseInbound(data []byte) (inbound, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return inbound{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if len(parts) < 2 {
		return inbound{}, errMalformed
	}
	var in inbound
	if err := json.Unmarshal(parts[0], &in.label); err != nil {
		return inbound{}, fmt.Errorf("%w: label: %v", errMalformed, err)
	}

	switch in.label {
	case labelEvent:
		if len(parts) < 3 {
			return inbound{}, errMalformed
		}
		in.event = new(event.Event)
		if err := unmarshalAll(parts[1:3], &in.subscriptionID, in.event); err != nil {
			return inbound{}, err
		}
	case labelOK:
		if len(parts) < 3 {
			return inbound{}, errMalformed
		}
		if err := unmarshalAll(parts[1:3], &in.eventID, &in.accepted); err != nil {
			return inbound{}, err
		}
		if len(parts) > 3 {
			_ = json.Unmarshal(parts[3], &in.message)
		}
	case labelEOSE:
		if err := json.Unmarshal(parts[1], &in.subscriptionID); err != nil {
			return inbound{}, fmt.Errorf("%w: %v", errMalformed, err)
		}
	case labelClosed:
		if err := json.Unmarshal(parts[1], &in.subscriptionID); err != nil {
			return inbound{}, fmt.Errorf("%w: %v", errMalformed, err)
		}
		if len(parts) > 2 {
			_ = json.Unmarshal(parts[2], &in.message)
		}
	case labelNotice:
		if err := json.Unmarshal(parts[1], &in.message); err != nil {
			return inbound{}, fmt.Errorf("%w: %v", errMalformed, err)
		}
	}
	return in, nil
}

func unmarshalAll(parts []json.RawMessage, out ...any) error {
	for i, p := range parts {
		if err := json.Unmarshal(p, out[i]); err != nil {
			return fmt.Errorf("%w: %v", errMalformed, err)
		}
	}
	return nil
}
