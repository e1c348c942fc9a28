package telnyx

import "fmt"

// Voice is the speech configuration sent with every speak-type action.
// The provider rejects speak requests missing either field.
type Voice struct {
	Voice    string
	Language string
}

// GatherOptions configures a DTMF collection on one leg.
type GatherOptions struct {
	MinDigits        int
	MaxDigits        int
	InterDigitMillis int
	TimeoutMillis    int
	TerminatingDigit string
	// ClientState is the plain discriminator; it is encoded on the wire.
	ClientState string
}

// DialRequest originates an outbound leg.
type DialRequest struct {
	To           string
	From         string
	ConnectionID string
}

// RoleNone joins a leg as an ordinary participant, hearing and heard by all.
const RoleNone = "none"

// CommandResult is the body of a successful call command.
type CommandResult struct {
	Result string `json:"result"`
}

// Call is returned when a new leg is originated.
type Call struct {
	CallControlID string `json:"call_control_id"`
	CallLegID     string `json:"call_leg_id"`
	CallSessionID string `json:"call_session_id"`
	IsAlive       bool   `json:"is_alive"`
}

// Conference is returned when a conference is created.
type Conference struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type envelope[T any] struct {
	Data T `json:"data"`
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	Action     string
	Endpoint   string
	Target     string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telnyx %s on %s (%s): status %d: %s", e.Action, e.Target, e.Endpoint, e.StatusCode, e.Body)
}

type speakBody struct {
	Payload     string `json:"payload"`
	PayloadType string `json:"payload_type"`
	Voice       string `json:"voice"`
	Language    string `json:"language"`
	CommandID   string `json:"command_id,omitempty"`
}

type gatherBody struct {
	Payload          string `json:"payload,omitempty"`
	Voice            string `json:"voice,omitempty"`
	Language         string `json:"language,omitempty"`
	MinimumDigits    int    `json:"minimum_digits,omitempty"`
	MaximumDigits    int    `json:"maximum_digits,omitempty"`
	InterDigitMillis int    `json:"inter_digit_timeout_millis,omitempty"`
	TimeoutMillis    int    `json:"timeout_millis,omitempty"`
	TerminatingDigit string `json:"terminating_digit,omitempty"`
	ClientState      string `json:"client_state,omitempty"`
	CommandID        string `json:"command_id,omitempty"`
}

type commandBody struct {
	CommandID string `json:"command_id,omitempty"`
}

type dialBody struct {
	ConnectionID string `json:"connection_id"`
	To           string `json:"to"`
	From         string `json:"from"`
}

type createConferenceBody struct {
	CallControlID string `json:"call_control_id"`
	Name          string `json:"name"`
	BeepEnabled   string `json:"beep_enabled,omitempty"`
}

type joinConferenceBody struct {
	CallControlID  string `json:"call_control_id"`
	SupervisorRole string `json:"supervisor_role,omitempty"`
	CommandID      string `json:"command_id,omitempty"`
}

type assistantBody struct {
	Assistant struct {
		ID string `json:"id"`
	} `json:"assistant"`
	CommandID string `json:"command_id,omitempty"`
}
