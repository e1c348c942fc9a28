package helpers

import (
	"crypto/sha256"
	"encoding/hex"
)

func Hash256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// Hash256Hex fingerprints a payload for log lines without logging its content.
func Hash256Hex(data []byte) string {
	return hex.EncodeToString(Hash256(data))
}
