package signing

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/dense-identity/callcoach/internal/helpers"
)

// MaxSkew bounds how far a webhook timestamp may drift from the local clock.
const MaxSkew = 5 * time.Minute

// KeyGen generates a new Ed25519 key pair.
// It returns the public key and the private key as byte slices.
func KeyGen() (publicKey []byte, privateKey []byte, err error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return pub, priv, nil
}

// Sign creates a cryptographic signature for a given message using a private key.
func Sign(privateKey []byte, message []byte) []byte {
	return ed25519.Sign(privateKey, message)
}

// Verify checks if a signature is valid for a given message and public key.
// Malformed keys yield false instead of panicking.
func Verify(publicKey []byte, message []byte, signature []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(publicKey, message, signature)
}

// DecodePublicKey decodes a base64 Ed25519 public key.
func DecodePublicKey(v string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid public key size: expected %d, got %d", ed25519.PublicKeySize, len(key))
	}
	return key, nil
}

// WebhookMessage is the exact byte sequence the provider signs:
// the ASCII timestamp, a single '|' byte, then the raw body.
func WebhookMessage(timestamp string, body []byte) []byte {
	return helpers.ConcatBytes([]byte(timestamp), []byte("|"), body)
}

// SignWebhook produces the base64 signature header value for a body.
func SignWebhook(privateKey []byte, timestamp string, body []byte) string {
	return base64.StdEncoding.EncodeToString(Sign(privateKey, WebhookMessage(timestamp, body)))
}

// Verifier authenticates inbound webhook deliveries.
//
// A Verifier with no public key accepts every request. That mode exists for
// local development only; production deployments must configure a key.
type Verifier struct {
	publicKey []byte
	now       func() time.Time
}

func NewVerifier(publicKey []byte) *Verifier {
	return &Verifier{publicKey: publicKey, now: time.Now}
}

// Enabled reports whether signatures are actually checked.
func (v *Verifier) Enabled() bool {
	return v != nil && len(v.publicKey) > 0
}

// VerifyWebhook returns true when the signature over timestamp|body is valid
// and the timestamp is within MaxSkew. Any decoding problem is a failure.
func (v *Verifier) VerifyWebhook(signature, timestamp string, body []byte) bool {
	if !v.Enabled() {
		return true
	}
	if signature == "" || timestamp == "" {
		return false
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}

	secs, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	skew := v.now().Sub(time.Unix(secs, 0))
	if skew > MaxSkew || skew < -MaxSkew {
		return false
	}

	return Verify(v.publicKey, WebhookMessage(timestamp, body), sig)
}
