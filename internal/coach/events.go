package coach

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dense-identity/callcoach/internal/telnyx"
)

// Provider event types the flow reacts to.
const (
	TypeCallInitiated = "call.initiated"
	TypeCallAnswered  = "call.answered"
	TypeGatherEnded   = "call.gather.ended"
	TypeCallHangup    = "call.hangup"
)

// Meta is common to every decoded event.
type Meta struct {
	// ID is the provider's delivery id, shared by redeliveries.
	ID   string
	Type string
}

// Event is one of InboundCall, DestinationDigits, LegAnswered,
// WhisperDigits, LegHangup or Ignored.
type Event interface {
	EventMeta() Meta
}

// InboundCall is a new call arriving from an agent.
type InboundCall struct {
	Meta
	LegID string
	From  string
	To    string
}

// DestinationDigits carries the number the agent keyed in.
type DestinationDigits struct {
	Meta
	LegID  string
	Digits string
	Status string
}

// LegAnswered is any leg being answered; correlation decides whose it is.
type LegAnswered struct {
	Meta
	LegID string
}

// WhisperDigits are digits heard while listening on a live agent leg.
type WhisperDigits struct {
	Meta
	LegID  string
	Digits string
	Status string
}

// LegHangup is either leg ending.
type LegHangup struct {
	Meta
	LegID string
	Cause string
}

// Ignored is any event with no transition attached to it.
type Ignored struct {
	Meta
	LegID  string
	Reason string
}

func (m Meta) EventMeta() Meta { return m }

type webhookEnvelope struct {
	Data struct {
		ID         string         `json:"id"`
		EventType  string         `json:"event_type"`
		OccurredAt string         `json:"occurred_at"`
		Payload    webhookPayload `json:"payload"`
	} `json:"data"`
}

type webhookPayload struct {
	CallControlID string `json:"call_control_id"`
	Direction     string `json:"direction"`
	From          string `json:"from"`
	To            string `json:"to"`
	Digits        string `json:"digits"`
	ClientState   string `json:"client_state"`
	Status        string `json:"status"`
	HangupCause   string `json:"hangup_cause"`
}

var ErrMalformedEvent = errors.New("malformed event")

// Decode converts a raw webhook body into a typed event. Bodies that parse
// but carry nothing actionable decode to Ignored, never to an error.
func Decode(body []byte) (Event, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if env.Data.EventType == "" {
		return nil, fmt.Errorf("%w: missing event_type", ErrMalformedEvent)
	}

	meta := Meta{ID: env.Data.ID, Type: env.Data.EventType}
	p := env.Data.Payload
	ignore := func(reason string) Event {
		return Ignored{Meta: meta, LegID: p.CallControlID, Reason: reason}
	}

	if p.CallControlID == "" {
		return ignore("no call_control_id"), nil
	}

	switch meta.Type {
	case TypeCallInitiated:
		if !isInbound(p.Direction) {
			return ignore("direction " + p.Direction), nil
		}
		return InboundCall{Meta: meta, LegID: p.CallControlID, From: p.From, To: p.To}, nil

	case TypeGatherEnded:
		switch {
		case telnyx.StateMatches(p.ClientState, telnyx.StateCollectTarget):
			return DestinationDigits{Meta: meta, LegID: p.CallControlID, Digits: p.Digits, Status: p.Status}, nil
		case telnyx.StateMatches(p.ClientState, telnyx.StateListenWhisper):
			return WhisperDigits{Meta: meta, LegID: p.CallControlID, Digits: p.Digits, Status: p.Status}, nil
		default:
			return ignore("unknown client_state"), nil
		}

	case TypeCallAnswered:
		return LegAnswered{Meta: meta, LegID: p.CallControlID}, nil

	case TypeCallHangup:
		return LegHangup{Meta: meta, LegID: p.CallControlID, Cause: p.HangupCause}, nil
	}

	return ignore("no transition"), nil
}

func isInbound(direction string) bool {
	return direction == "incoming" || direction == "inbound"
}
