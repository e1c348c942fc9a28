package telnyx

import "encoding/base64"

// ClientState values round-trip through the provider so that a later
// gather event can be tied back to the step that requested it. The provider
// requires client_state to be base64, and echoes it back unchanged.
const (
	StateCollectTarget = "collect-target"
	StateListenWhisper = "listen-whisper"
)

// EncodeState produces the client_state value sent to the provider.
func EncodeState(plain string) string {
	return base64.StdEncoding.EncodeToString([]byte(plain))
}

// DecodeState recovers the plain discriminator. Invalid input yields "".
func DecodeState(encoded string) string {
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return ""
	}
	return string(b)
}

// StateMatches compares a received client_state against a plain
// discriminator in encoded form.
func StateMatches(encoded, plain string) bool {
	return encoded != "" && encoded == EncodeState(plain)
}
